package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookshop/internal/entity"
	"bookshop/internal/httpx"
	"bookshop/internal/store"
)

type BookRepository interface {
	List(ctx context.Context, genre, search string, limit, offset int) ([]entity.Book, error)
	GetByID(ctx context.Context, id string) (entity.Book, error)
}

// ViewRecorder logs catalog page views. Views are one side of the
// conversion rate, so recording them lives next to serving the page.
type ViewRecorder interface {
	RecordView(ctx context.Context, bookID, userID string, at time.Time) error
}

type BookHandler struct {
	repo  BookRepository
	views ViewRecorder
	now   func() time.Time
	log   *zap.Logger
}

func NewBookHandler(repo BookRepository, views ViewRecorder, log *zap.Logger) *BookHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookHandler{repo: repo, views: views, now: time.Now, log: log}
}

// @Summary List books
// @Description Browse the catalog with genre/search filters and pagination
// @Tags books
// @Produce json
// @Param genre query string false "Filter by genre name"
// @Param q query string false "Search in titles"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} httpx.SuccessResponse
// @Router /books [get]
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	books, err := h.repo.List(r.Context(), q.Get("genre"), q.Get("q"), pageSize, (page-1)*pageSize)
	if err != nil {
		h.log.Error("book list failed", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "could not list books", nil)
		return
	}

	httpx.JSONSuccess(w, books, map[string]int{"page": page, "page_size": pageSize})
}

// @Summary Get a book
// @Description Fetch one book and record the catalog view
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	// crude path param extraction with net/http's ServeMux
	// /books/{id}
	id := strings.TrimPrefix(r.URL.Path, "/books/")
	if id == "" || strings.Contains(id, "/") {
		httpx.JSONError(w, http.StatusNotFound, "not_found", "book not found", nil)
		return
	}

	book, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", "book not found", nil)
			return
		}
		h.log.Error("book fetch failed", zap.String("book_id", id), zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "could not fetch book", nil)
		return
	}

	// Anonymous views count too; userID is empty when unauthenticated.
	if err := h.views.RecordView(r.Context(), book.ID, httpx.UserIDFrom(r), h.now()); err != nil {
		h.log.Warn("could not record view", zap.String("book_id", book.ID), zap.Error(err))
	}

	httpx.JSONSuccess(w, book, nil)
}
