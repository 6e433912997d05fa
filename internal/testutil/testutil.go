package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"bookshop/internal/auth"
	"bookshop/internal/entity"
)

// StaffUser is a fixture with dashboard access.
var StaffUser = entity.User{
	ID:        "test-staff-id-123",
	Username:  "staffuser",
	Role:      entity.RoleStaff,
	Password:  "hashedpassword",
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// CustomerUser is a fixture without dashboard access.
var CustomerUser = entity.User{
	ID:        "test-customer-id-456",
	Username:  "customeruser",
	Role:      entity.RoleCustomer,
	Password:  "hashedpassword",
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// SaleRecordAt builds a sale record with Total derived from the price
// and quantity, timestamped at the given instant.
func SaleRecordAt(at time.Time, username, title string, genres []string, quantity int, unitPrice string) entity.SaleRecord {
	price := decimal.RequireFromString(unitPrice)
	return entity.SaleRecord{
		Sale: entity.Sale{
			ID:         "sale-" + at.Format("20060102150405"),
			CustomerID: "customer-" + username,
			BookID:     "book-" + title,
			Quantity:   quantity,
			UnitPrice:  price,
			Total:      price.Mul(decimal.NewFromInt(int64(quantity))),
			CreatedAt:  at,
		},
		CustomerUsername: username,
		BookTitle:        title,
		Genres:           genres,
	}
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret string, user entity.User) string {
	token, _, _ := auth.GenerateToken(secret, user.ID, user.Username, user.Role, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret string, user entity.User) string {
	c := auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	bodyBytes, _ := json.Marshal(body)
	r := httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}
