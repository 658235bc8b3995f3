package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

const defaultTimeout = 5 * time.Second

type BookHandler struct {
	Store       *store.BookStore
	AuditLogger utils.Logger
	Logger      *zap.Logger
	Timeout     time.Duration
	validate    *validator.Validate
}

func NewBookHandler(s *store.BookStore, audit utils.Logger, logger *zap.Logger, timeout time.Duration) *BookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &BookHandler{Store: s, AuditLogger: audit, Logger: logger, Timeout: timeout, validate: validator.New()}
}

func (h *BookHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

func (h *BookHandler) audit(ctx context.Context, action string, data any) {
	if err := h.AuditLogger.Log(ctx, models.BookEntity, action, data); err != nil && h.Logger != nil {
		h.Logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}

// ListRequest is a parsed GET /books query string.
type ListRequest struct {
	Query store.Query
	// Page is zero when no pagination was requested.
	Page int
	Size int
}

// ParseListRequest turns query parameters into a find request:
// genre, author, title, min_year (exclusive), in_stock, fields (comma
// separated projection), sort (field, "-" prefix for descending), page and
// size.
func ParseListRequest(values url.Values) (ListRequest, error) {
	var req ListRequest
	filter := bson.D{}

	for _, key := range []string{models.FieldGenre, models.FieldAuthor, models.FieldTitle} {
		if v := values.Get(key); v != "" {
			filter = append(filter, bson.E{Key: key, Value: v})
		}
	}
	if v := values.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid in_stock %q", v)
		}
		filter = append(filter, bson.E{Key: models.FieldInStock, Value: inStock})
	}
	if v := values.Get("min_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid min_year %q", v)
		}
		filter = append(filter, bson.E{Key: models.FieldPublishedYear, Value: bson.D{{Key: "$gt", Value: year}}})
	}
	req.Query.Filter = filter

	if v := values.Get("fields"); v != "" {
		fields := strings.Split(v, ",")
		for i, f := range fields {
			f = strings.TrimSpace(f)
			if !models.IsBookField(f) || f == models.FieldID {
				return req, fmt.Errorf("unknown field %q", f)
			}
			fields[i] = f
		}
		req.Query.Projection = store.Projection(fields...)
	}

	if v := values.Get("sort"); v != "" {
		name := strings.TrimPrefix(v, "-")
		if !models.IsBookField(name) {
			return req, fmt.Errorf("unknown sort field %q", name)
		}
		if strings.HasPrefix(v, "-") {
			req.Query.Sort = store.Descending(name)
		} else {
			req.Query.Sort = store.Ascending(name)
		}
	}

	var err error
	if req.Page, err = positiveInt(values, "page"); err != nil {
		return req, err
	}
	if req.Size, err = positiveInt(values, "size"); err != nil {
		return req, err
	}
	if req.Size > 0 && req.Page == 0 {
		req.Page = 1
	}
	return req, nil
}

func positiveInt(values url.Values, key string) (int, error) {
	v := values.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

// GET /books
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	req, err := ParseListRequest(r.URL.Query())
	if err != nil {
		utils.JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	var books []models.Book
	if req.Page > 0 {
		books, err = h.Store.Page(ctx, req.Query, req.Page, req.Size)
	} else {
		books, err = h.Store.Find(ctx, req.Query)
	}
	if err != nil {
		h.Logger.Error("list books failed", zap.Error(err))
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}

	// A page past the end is an empty page; an unpaginated empty match is a 404.
	if len(books) == 0 && req.Page == 0 {
		utils.JSONError(w, "No books found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(books)
}

// GET /books/count
func (h *BookHandler) CountBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	n, err := h.Store.Count(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to count books", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]int64{"count": n})
}

// GET /books/sample
func (h *BookHandler) SampleBook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	book, err := h.Store.Sample(ctx)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, "No books found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(book)
}

// GET /books/{title}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	ctx, cancel := h.requestContext(r)
	defer cancel()

	books, err := h.Store.FindByTitle(ctx, title, nil)
	if err != nil {
		utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
		return
	}
	if len(books) == 0 {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(books[0])
}

type PriceUpdateRequest struct {
	Price *float64 `json:"price" validate:"required,gte=0"`
}

// PATCH /books/{title}/price
func (h *BookHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	var req PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.JSONError(w, "Price must be a non-negative number", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.Store.UpdatePrice(ctx, title, *req.Price)
	if err != nil {
		utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if result.MatchedCount == 0 {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	h.audit(ctx, constants.UpdatePrice, map[string]any{"title": title, "price": *req.Price})

	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Price updated successfully",
		"matchedCount":  result.MatchedCount,
		"modifiedCount": result.ModifiedCount,
	})
}

// DELETE /books/{title}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	ctx, cancel := h.requestContext(r)
	defer cancel()

	deleted, err := h.Store.DeleteByTitle(ctx, title)
	if err != nil {
		utils.JSONError(w, "Delete failed", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}

	h.audit(ctx, constants.Delete, title)

	w.WriteHeader(http.StatusNoContent)
}

// GET /genres
func (h *BookHandler) GetGenres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	genres, err := h.Store.Genres(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to fetch genres", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(genres)
}
