package store

// Book catalog repository (Postgres)

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshop/internal/entity"
)

type BookPG struct {
	db *pgxpool.Pool
}

func NewBookPG(db *pgxpool.Pool) *BookPG {
	return &BookPG{db: db}
}

func (r *BookPG) List(ctx context.Context, genre, search string, limit, offset int) ([]entity.Book, error) {
	const query = `
	SELECT b.id, b.title, b.price, b.created_at, b.updated_at,
	       COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}')
	FROM books b
	LEFT JOIN book_genres bg ON bg.book_id = b.id
	LEFT JOIN genres g ON g.id = bg.genre_id
	WHERE ($1 = '' OR EXISTS (
		SELECT 1 FROM book_genres fbg
		JOIN genres fg ON fg.id = fbg.genre_id
		WHERE fbg.book_id = b.id AND fg.name = $1))
	AND ($2 = '' OR b.title ILIKE '%' || $2 || '%')
	GROUP BY b.id
	ORDER BY b.title ASC
	LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query, genre, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []entity.Book
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.CreatedAt, &b.UpdatedAt, &b.Genres); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookPG) GetByID(ctx context.Context, id string) (entity.Book, error) {
	const query = `
	SELECT b.id, b.title, b.price, b.created_at, b.updated_at,
	       COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}')
	FROM books b
	LEFT JOIN book_genres bg ON bg.book_id = b.id
	LEFT JOIN genres g ON g.id = bg.genre_id
	WHERE b.id = $1
	GROUP BY b.id`

	var b entity.Book
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.Title, &b.Price, &b.CreatedAt, &b.UpdatedAt, &b.Genres)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, ErrNotFound
		}
		return entity.Book{}, err
	}
	return b, nil
}
