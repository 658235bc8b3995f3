package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

// StatsHandler serves the aggregation pipelines.
type StatsHandler struct {
	Store   *store.BookStore
	Logger  *zap.Logger
	Timeout time.Duration
}

func (h *StatsHandler) serve(w http.ResponseWriter, r *http.Request, name string, run func(ctx context.Context) (any, error)) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	result, err := run(ctx)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, "No books found", http.StatusNotFound)
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("aggregation failed", zap.String("pipeline", name), zap.Error(err))
		}
		utils.JSONError(w, "Failed to compute "+name, http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(result)
}

// GET /stats/genres
func (h *StatsHandler) GenrePrices(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "genre prices", func(ctx context.Context) (any, error) {
		return h.Store.AveragePriceByGenre(ctx)
	})
}

// GET /stats/authors, /stats/authors?top=1
func (h *StatsHandler) Authors(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("top") != "" {
		h.serve(w, r, "top author", func(ctx context.Context) (any, error) {
			return h.Store.TopAuthor(ctx)
		})
		return
	}
	h.serve(w, r, "author ranking", func(ctx context.Context) (any, error) {
		return h.Store.AuthorsByBookCount(ctx)
	})
}

// GET /stats/decades
func (h *StatsHandler) Decades(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "decades", func(ctx context.Context) (any, error) {
		return h.Store.BooksByDecade(ctx)
	})
}

// GET /stats/top-by-genre
func (h *StatsHandler) TopByGenre(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "most expensive by genre", func(ctx context.Context) (any, error) {
		return h.Store.MostExpensiveByGenre(ctx)
	})
}

// GET /stats/overview
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "collection stats", func(ctx context.Context) (any, error) {
		return h.Store.CollectionStats(ctx)
	})
}

// GET /stats/years
func (h *StatsHandler) Years(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "year range", func(ctx context.Context) (any, error) {
		return h.Store.PublicationYearRange(ctx)
	})
}
