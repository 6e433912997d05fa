package store

// SalesRepository implementation (Postgres)

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookshop/internal/analytics"
	"bookshop/internal/entity"
)

type SalesPG struct {
	db *pgxpool.Pool
}

func NewSalesPG(db *pgxpool.Pool) *SalesPG {
	return &SalesPG{db: db}
}

var sortClauses = map[analytics.SortKey]string{
	analytics.SortCreatedDesc: "s.created_at DESC",
	analytics.SortCreatedAsc:  "s.created_at ASC",
	analytics.SortTotalDesc:   "s.total DESC",
	analytics.SortTotalAsc:    "s.total ASC",
}

// buildListSalesQuery turns a QueryPlan into SQL. The search predicate is a
// union across book title, customer username and genre name; the sale id
// tiebreak keeps the order deterministic for equal sort keys.
func buildListSalesQuery(plan analytics.QueryPlan) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if plan.Search != "" {
		clauses = append(clauses, fmt.Sprintf(
			`(b.title ILIKE $%d OR u.username ILIKE $%d OR EXISTS (
				SELECT 1 FROM book_genres sbg
				JOIN genres sg ON sg.id = sbg.genre_id
				WHERE sbg.book_id = s.book_id AND sg.name ILIKE $%d))`,
			argn, argn, argn))
		args = append(args, "%"+plan.Search+"%")
		argn++
	}
	if plan.DateFrom != nil {
		clauses = append(clauses, fmt.Sprintf("s.created_at >= $%d", argn))
		args = append(args, *plan.DateFrom)
		argn++
	}
	if plan.DateTo != nil {
		// DateTo is an inclusive calendar date, so the bound is the next midnight.
		clauses = append(clauses, fmt.Sprintf("s.created_at < $%d::timestamptz + INTERVAL '1 day'", argn))
		args = append(args, *plan.DateTo)
		argn++
	}

	orderBy, ok := sortClauses[plan.Sort]
	if !ok {
		orderBy = sortClauses[analytics.DefaultSort]
	}

	query := fmt.Sprintf(`
	SELECT s.id, s.customer_id, s.book_id, s.quantity, s.unit_price, s.total,
	       s.created_at, s.delivery_at,
	       u.username, u.date_of_birth, b.title,
	       COALESCE(array_agg(DISTINCT g.name) FILTER (WHERE g.name IS NOT NULL), '{}')
	FROM sales s
	JOIN users u ON u.id = s.customer_id
	JOIN books b ON b.id = s.book_id
	LEFT JOIN book_genres bg ON bg.book_id = b.id
	LEFT JOIN genres g ON g.id = bg.genre_id
	WHERE %s
	GROUP BY s.id, s.customer_id, s.book_id, s.quantity, s.unit_price, s.total,
	         s.created_at, s.delivery_at, u.username, u.date_of_birth, b.title
	ORDER BY %s, s.id ASC`,
		strings.Join(clauses, " AND "), orderBy)

	return query, args
}

func (r *SalesPG) ListSales(ctx context.Context, plan analytics.QueryPlan) ([]entity.SaleRecord, error) {
	query, args := buildListSalesQuery(plan)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var records []entity.SaleRecord
	for rows.Next() {
		var rec entity.SaleRecord
		if err := rows.Scan(
			&rec.ID, &rec.CustomerID, &rec.BookID, &rec.Quantity, &rec.UnitPrice, &rec.Total,
			&rec.CreatedAt, &rec.DeliveryAt,
			&rec.CustomerUsername, &rec.CustomerDOB, &rec.BookTitle, &rec.Genres,
		); err != nil {
			return nil, fmt.Errorf("scan sale record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *SalesPG) CountPurchasesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM sales WHERE created_at >= $1", since).Scan(&count)
	return count, err
}

// CreateSale persists a new sale. The Total invariant is enforced by
// entity.NewSale; this only writes.
func (r *SalesPG) CreateSale(ctx context.Context, sale *entity.Sale) error {
	const query = `
	INSERT INTO sales (id, customer_id, book_id, quantity, unit_price, total, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, query,
		sale.ID, sale.CustomerID, sale.BookID, sale.Quantity, sale.UnitPrice, sale.Total, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}
