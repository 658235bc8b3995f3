package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

type IndexHandler struct {
	Store       *store.BookStore
	AuditLogger utils.Logger
	Logger      *zap.Logger
	Timeout     time.Duration
}

func (h *IndexHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(r.Context(), timeout)
}

// GET /indexes
func (h *IndexHandler) ListIndexes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	indexes, err := h.Store.ListIndexes(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to list indexes", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(indexes)
}

// POST /indexes creates the default title, author/year and price indexes.
func (h *IndexHandler) CreateIndexes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	names, err := h.Store.CreateIndexes(ctx)
	if err != nil {
		utils.JSONError(w, "Index creation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.AuditLogger.Log(ctx, models.IndexEntity, constants.CreateIndex, names); err != nil && h.Logger != nil {
		h.Logger.Warn("audit log write failed", zap.Error(err))
	}

	utils.JSONResponse(w, http.StatusCreated, map[string][]string{"created": names})
}

// POST /explain takes a filter document (extended JSON accepted) and
// returns the summarised executionStats plan.
func (h *IndexHandler) Explain(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.JSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	filter := bson.D{}
	if len(body) > 0 {
		if err := bson.UnmarshalExtJSON(body, false, &filter); err != nil {
			utils.JSONError(w, "Filter must be a JSON object", http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	summary, err := h.Store.Explain(ctx, filter)
	if err != nil {
		utils.JSONError(w, "Explain failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(summary)
}
