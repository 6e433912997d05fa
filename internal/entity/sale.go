package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a sale is created with a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrNegativePrice is returned when a sale is created with a negative unit price.
	ErrNegativePrice = errors.New("unit price must not be negative")
)

// Sale is a single purchase transaction. Sales are immutable once created,
// except for DeliveryAt which is set by the fulfillment workflow. They are
// never deleted because statistics reference them.
type Sale struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	BookID     string          `json:"book_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	DeliveryAt *time.Time      `json:"delivery_at,omitempty"`
}

// NewSale builds a sale with Total = UnitPrice * Quantity enforced.
func NewSale(customerID, bookID string, quantity int, unitPrice decimal.Decimal, now time.Time) (*Sale, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, ErrNegativePrice
	}
	return &Sale{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		BookID:     bookID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Total:      unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:  now,
	}, nil
}

// SaleRecord is the read model the analytics engine works on: a sale joined
// with the customer and book fields the aggregations need.
type SaleRecord struct {
	Sale
	CustomerUsername string     `json:"customer_username"`
	CustomerDOB      *time.Time `json:"customer_dob,omitempty"`
	BookTitle        string     `json:"book_title"`
	Genres           []string   `json:"genres"`
}
