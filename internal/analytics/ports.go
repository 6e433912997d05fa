package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bookshop/internal/entity"
)

// CustomerTotal pairs a customer with the lifetime sum of their purchases.
type CustomerTotal struct {
	Username       string          `json:"username"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
}

// SalesRepository is the read-only storage contract for sale records.
// ListSales executes a QueryPlan verbatim; the returned order must follow
// the plan's sort key with id ascending as tiebreak.
type SalesRepository interface {
	ListSales(ctx context.Context, plan QueryPlan) ([]entity.SaleRecord, error)
	CountPurchasesSince(ctx context.Context, since time.Time) (int, error)
}

// CustomerRepository reads customer profiles and login activity.
type CustomerRepository interface {
	// ListCustomers returns customers with their purchase totals,
	// alphabetical by username, optionally narrowed by a username substring.
	ListCustomers(ctx context.Context, search string) ([]CustomerTotal, error)
	ListCustomerProfiles(ctx context.Context) ([]entity.User, error)
	ListSessions(ctx context.Context, since time.Time) ([]entity.Session, error)
}

// ActivityRepository reads product-view events.
type ActivityRepository interface {
	CountViewsSince(ctx context.Context, since time.Time) (int, error)
}
