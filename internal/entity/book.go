package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Genres    []string        `json:"genres"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
