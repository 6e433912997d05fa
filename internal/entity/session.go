package entity

import "time"

// Session is a login window derived from a user's last_login/last_logout
// pair. Used for session-duration and visits-by-hour statistics.
type Session struct {
	UserID     string     `json:"user_id"`
	LastLogin  time.Time  `json:"last_login"`
	LastLogout *time.Time `json:"last_logout,omitempty"`
}

// Duration returns the session length, or false when the session is still
// open or the recorded window is inverted.
func (s Session) Duration() (time.Duration, bool) {
	if s.LastLogout == nil {
		return 0, false
	}
	d := s.LastLogout.Sub(s.LastLogin)
	if d < 0 {
		return 0, false
	}
	return d, true
}
