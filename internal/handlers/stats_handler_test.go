package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"plp-bookstore/internal/handlers"
	"plp-bookstore/internal/models"
)

func TestStatsHandler(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("top author", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "J.K. Rowling"},
			{Key: "bookCount", Value: int32(3)},
			{Key: "books", Value: bson.A{"Harry Potter and the Philosopher's Stone", "Harry Potter and the Chamber of Secrets", "The Casual Vacancy"}},
			{Key: "totalValue", Value: 49.48},
		}))

		req := httptest.NewRequest(http.MethodGet, "/stats/authors?top=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var top models.AuthorRanking
		require.NoError(t, json.NewDecoder(w.Body).Decode(&top))
		assert.Equal(t, "J.K. Rowling", top.Author)
		assert.Equal(t, 3, top.BookCount)
	})

	mt.Run("top author of empty collection", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch))

		req := httptest.NewRequest(http.MethodGet, "/stats/authors?top=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	mt.Run("overview", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch, bson.D{
			{Key: "totalBooks", Value: int32(23)},
			{Key: "averagePrice", Value: 14.1},
			{Key: "totalValue", Value: 324.33},
			{Key: "averagePages", Value: 370.0},
			{Key: "inStockCount", Value: int32(17)},
			{Key: "outOfStockCount", Value: int32(6)},
		}))

		req := httptest.NewRequest(http.MethodGet, "/stats/overview", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var stats models.CollectionStats
		require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
		assert.Equal(t, 23, stats.TotalBooks)
		assert.Equal(t, 6, stats.OutOfStockCount)
	})

	mt.Run("aggregation failure", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    168,
			Name:    "InvalidPipelineOperator",
			Message: "Unrecognized expression",
		}))

		req := httptest.NewRequest(http.MethodGet, "/stats/decades", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestIndexHandler(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("create requires a token", func(mt *mtest.T) {
		router := newRouter(mt)

		req := httptest.NewRequest(http.MethodPost, "/indexes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	mt.Run("create default indexes", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		req := httptest.NewRequest(http.MethodPost, "/indexes", nil)
		req.Header.Set("Authorization", bearer(t))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"created":["title_1","author_1_published_year_-1","price_1"]}`, w.Body.String())
	})

	mt.Run("explain", func(mt *mtest.T) {
		router := newRouter(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "queryPlanner", Value: bson.D{
				{Key: "winningPlan", Value: bson.D{
					{Key: "stage", Value: "FETCH"},
					{Key: "inputStage", Value: bson.D{
						{Key: "stage", Value: "IXSCAN"},
						{Key: "indexName", Value: "price_1"},
					}},
				}},
			}},
			bson.E{Key: "executionStats", Value: bson.D{
				{Key: "nReturned", Value: int32(9)},
				{Key: "totalKeysExamined", Value: int32(9)},
				{Key: "totalDocsExamined", Value: int32(9)},
			}},
		))

		body := []byte(`{"price": {"$gte": 10, "$lte": 15}}`)
		req := httptest.NewRequest(http.MethodPost, "/explain", bytes.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var summary models.ExplainSummary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
		assert.Equal(t, "IXSCAN", summary.Stage)
		assert.Equal(t, "price_1", summary.IndexName)
		assert.Equal(t, int64(9), summary.TotalDocsExamined)
	})

	mt.Run("explain rejects non-object filter", func(mt *mtest.T) {
		router := newRouter(mt)

		req := httptest.NewRequest(http.MethodPost, "/explain", bytes.NewReader([]byte(`[1,2]`)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	auth := handlers.AuthHandler{}
	auth.ConfigCreds.UserId = "admin-1"
	auth.ConfigCreds.Username = "admin"
	auth.ConfigCreds.UserPassword = "secret"

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"Valid credentials", `{"username":"admin","password":"secret"}`, http.StatusOK},
		{"Wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"Malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bearer(t) // configures the signing secret
			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			auth.Login(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
