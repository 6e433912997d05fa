package entity

import "time"

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"` // customer, staff
	Password    string     `json:"-"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	LastLogout  *time.Time `json:"last_logout,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsStaff reports whether the user may access staff-only surfaces
// such as the analytics dashboard.
func (u User) IsStaff() bool {
	return u.Role == RoleStaff
}

// Age derives the user's age in whole years at the given date.
// The second return value is false when no date of birth is recorded.
func (u User) Age(today time.Time) (int, bool) {
	if u.DateOfBirth == nil {
		return 0, false
	}
	days := int(today.Sub(*u.DateOfBirth).Hours() / 24)
	if days < 0 {
		return 0, false
	}
	return days / 365, true
}
