// Package seed loads the book dataset the query walkthrough runs against.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"plp-bookstore/internal/constants"
	"plp-bookstore/internal/models"
	"plp-bookstore/internal/utils"
)

//go:embed data/books.json
var defaultBooks []byte

// BookWriter is the part of the book store the loader needs.
type BookWriter interface {
	InsertMany(ctx context.Context, books []models.Book) (int, error)
	Drop(ctx context.Context) error
}

type Loader struct {
	Store     BookWriter
	Audit     *utils.Logger
	Logger    *zap.Logger
	validator *validator.Validate
}

func NewLoader(store BookWriter, audit *utils.Logger, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Store: store, Audit: audit, Logger: logger, validator: validator.New()}
}

// Default returns the embedded dataset.
func Default() ([]models.Book, error) {
	return Parse("books.json", defaultBooks)
}

func LoadFile(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes a list of books. Files ending in .yaml or .yml are read as
// YAML, everything else as a JSON array.
func Parse(name string, data []byte) ([]models.Book, error) {
	var books []models.Book
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &books); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &books); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return books, nil
}

// Validate checks every book and reports all invalid entries at once.
func (l *Loader) Validate(books []models.Book) error {
	var errs []error
	for i, b := range books {
		if err := l.validator.Struct(b); err != nil {
			errs = append(errs, fmt.Errorf("book %d (%q): %w", i, b.Title, err))
		}
	}
	return errors.Join(errs...)
}

// Seed validates books and inserts them, dropping the collection first when
// drop is set. Nothing is written if any book is invalid.
func (l *Loader) Seed(ctx context.Context, books []models.Book, drop bool) (int, error) {
	if err := l.Validate(books); err != nil {
		return 0, err
	}

	if drop {
		if err := l.Store.Drop(ctx); err != nil {
			return 0, err
		}
		l.audit(ctx, constants.DropCollection, nil)
	}

	n, err := l.Store.InsertMany(ctx, books)
	if err != nil {
		return 0, err
	}
	l.Logger.Info("books seeded", zap.Int("inserted", n), zap.Bool("dropped", drop))
	l.audit(ctx, constants.Seed, map[string]int{"inserted": n})
	return n, nil
}

func (l *Loader) audit(ctx context.Context, action string, data any) {
	if l.Audit == nil {
		return
	}
	if err := l.Audit.Log(ctx, models.BookEntity, action, data); err != nil {
		l.Logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
