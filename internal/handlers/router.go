package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"plp-bookstore/internal/middleware"
	"plp-bookstore/internal/store"
	"plp-bookstore/internal/utils"
)

type RouterConfig struct {
	Store       *store.BookStore
	AuditLogger utils.Logger
	Logger      *zap.Logger
	Timeout     time.Duration
	Auth        AuthHandler
}

// NewRouter wires every endpoint. Reads are public; writes require a
// bearer token from POST /login.
func NewRouter(cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.JSONMiddleware)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `"OK"`)
	}).Methods("GET")

	authHandler := cfg.Auth
	r.HandleFunc("/login", authHandler.Login).Methods("POST")

	bookHandler := NewBookHandler(cfg.Store, cfg.AuditLogger, logger, cfg.Timeout)
	statsHandler := &StatsHandler{Store: cfg.Store, Logger: logger, Timeout: cfg.Timeout}
	indexHandler := &IndexHandler{Store: cfg.Store, AuditLogger: cfg.AuditLogger, Logger: logger, Timeout: cfg.Timeout}

	r.HandleFunc("/books", bookHandler.GetBooks).Methods("GET")
	r.HandleFunc("/books/count", bookHandler.CountBooks).Methods("GET")
	r.HandleFunc("/books/sample", bookHandler.SampleBook).Methods("GET")
	r.HandleFunc("/books/{title}", bookHandler.GetBook).Methods("GET")
	r.HandleFunc("/genres", bookHandler.GetGenres).Methods("GET")

	r.HandleFunc("/stats/genres", statsHandler.GenrePrices).Methods("GET")
	r.HandleFunc("/stats/authors", statsHandler.Authors).Methods("GET")
	r.HandleFunc("/stats/decades", statsHandler.Decades).Methods("GET")
	r.HandleFunc("/stats/top-by-genre", statsHandler.TopByGenre).Methods("GET")
	r.HandleFunc("/stats/overview", statsHandler.Overview).Methods("GET")
	r.HandleFunc("/stats/years", statsHandler.Years).Methods("GET")

	r.HandleFunc("/indexes", indexHandler.ListIndexes).Methods("GET")
	r.HandleFunc("/explain", indexHandler.Explain).Methods("POST")

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuthMiddleware)
	protected.HandleFunc("/books/{title}/price", bookHandler.UpdatePrice).Methods("PATCH")
	protected.HandleFunc("/books/{title}", bookHandler.DeleteBook).Methods("DELETE")
	protected.HandleFunc("/indexes", indexHandler.CreateIndexes).Methods("POST")

	return r
}
