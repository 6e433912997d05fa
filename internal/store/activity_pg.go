package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityPG records and counts product-view events.
type ActivityPG struct {
	db *pgxpool.Pool
}

func NewActivityPG(db *pgxpool.Pool) *ActivityPG {
	return &ActivityPG{db: db}
}

func (r *ActivityPG) RecordView(ctx context.Context, bookID, userID string, at time.Time) error {
	const query = `
	INSERT INTO book_views (id, book_id, user_id, viewed_at)
	VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, uuid.NewString(), bookID, nullIfEmpty(userID), at)
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (r *ActivityPG) CountViewsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM book_views WHERE viewed_at >= $1", since).Scan(&count)
	return count, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
