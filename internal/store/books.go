package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"plp-bookstore/internal/models"
)

var ErrNotFound = errors.New("book not found")

// Query is a find request against the books collection. Zero values mean
// "not set": no projection, no sort, no skip, no limit.
type Query struct {
	Filter     bson.D
	Projection bson.D
	Sort       bson.D
	Skip       int64
	Limit      int64
}

// Projections used by the walkthrough and the API. _id is always excluded.
var (
	TitlePriceProjection       = Projection(models.FieldTitle, models.FieldPrice)
	TitleAuthorPriceProjection = Projection(models.FieldTitle, models.FieldAuthor, models.FieldPrice)
	TitleYearProjection        = Projection(models.FieldTitle, models.FieldPublishedYear)
)

// Projection includes the given fields and excludes _id.
func Projection(fields ...string) bson.D {
	p := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		p = append(p, bson.E{Key: f, Value: 1})
	}
	return append(p, bson.E{Key: models.FieldID, Value: 0})
}

func Ascending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

func Descending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

type BookStore struct {
	Collection *mongo.Collection
	Logger     *zap.Logger
	PageSize   int
}

func NewBookStore(coll *mongo.Collection, logger *zap.Logger, pageSize int) *BookStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize < 1 {
		pageSize = 5
	}
	return &BookStore{Collection: coll, Logger: logger, PageSize: pageSize}
}

func (s *BookStore) Count(ctx context.Context) (int64, error) {
	n, err := s.Collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (s *BookStore) Find(ctx context.Context, q Query) ([]models.Book, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.D{}
	}

	opts := options.Find()
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	s.Logger.Debug("find books",
		zap.Any("filter", filter),
		zap.Int64("skip", q.Skip),
		zap.Int64("limit", q.Limit))

	cursor, err := s.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []models.Book{}
	if err = cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func (s *BookStore) FindByGenre(ctx context.Context, genre string) ([]models.Book, error) {
	return s.Find(ctx, Query{Filter: bson.D{{Key: models.FieldGenre, Value: genre}}})
}

func (s *BookStore) FindPublishedAfter(ctx context.Context, year int) ([]models.Book, error) {
	return s.Find(ctx, Query{Filter: publishedAfter(year)})
}

func (s *BookStore) FindByAuthor(ctx context.Context, author string) ([]models.Book, error) {
	return s.Find(ctx, Query{Filter: bson.D{{Key: models.FieldAuthor, Value: author}}})
}

func (s *BookStore) FindByTitle(ctx context.Context, title string, projection bson.D) ([]models.Book, error) {
	return s.Find(ctx, Query{
		Filter:     bson.D{{Key: models.FieldTitle, Value: title}},
		Projection: projection,
	})
}

func (s *BookStore) FindInStockPublishedAfter(ctx context.Context, year int) ([]models.Book, error) {
	return s.Find(ctx, Query{Filter: inStockPublishedAfter(year)})
}

func (s *BookStore) CountInStockPublishedAfter(ctx context.Context, year int) (int64, error) {
	n, err := s.Collection.CountDocuments(ctx, inStockPublishedAfter(year))
	if err != nil {
		return 0, fmt.Errorf("count in-stock books after %d: %w", year, err)
	}
	return n, nil
}

// PageBounds converts a 1-based page number into skip/limit. Pages below 1
// are treated as the first page; sizes below 1 use fallback.
func PageBounds(page, size, fallback int) (skip, limit int64) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = fallback
	}
	return int64((page - 1) * size), int64(size)
}

// Page runs q restricted to one page. Skip and Limit already set on q are
// replaced.
func (s *BookStore) Page(ctx context.Context, q Query, page, size int) ([]models.Book, error) {
	q.Skip, q.Limit = PageBounds(page, size, s.PageSize)
	return s.Find(ctx, q)
}

// UpdatePrice sets the price of the first book with the given title.
func (s *BookStore) UpdatePrice(ctx context.Context, title string, price float64) (*mongo.UpdateResult, error) {
	res, err := s.Collection.UpdateOne(ctx,
		bson.D{{Key: models.FieldTitle, Value: title}},
		bson.D{{Key: "$set", Value: bson.D{{Key: models.FieldPrice, Value: price}}}},
	)
	if err != nil {
		return nil, fmt.Errorf("update price of %q: %w", title, err)
	}
	s.Logger.Info("price updated",
		zap.String("title", title),
		zap.Float64("price", price),
		zap.Int64("matched", res.MatchedCount),
		zap.Int64("modified", res.ModifiedCount))
	return res, nil
}

// DeleteByTitle removes the first book with the given title. A title that
// matches nothing is reported as zero deletions, not as an error.
func (s *BookStore) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	res, err := s.Collection.DeleteOne(ctx, bson.D{{Key: models.FieldTitle, Value: title}})
	if err != nil {
		return 0, fmt.Errorf("delete %q: %w", title, err)
	}
	s.Logger.Info("book deleted", zap.String("title", title), zap.Int64("deleted", res.DeletedCount))
	return res.DeletedCount, nil
}

// Sample returns one arbitrary document, or ErrNotFound on an empty
// collection.
func (s *BookStore) Sample(ctx context.Context) (*models.Book, error) {
	var book models.Book
	err := s.Collection.FindOne(ctx, bson.D{}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sample book: %w", err)
	}
	return &book, nil
}

func (s *BookStore) Genres(ctx context.Context) ([]string, error) {
	values, err := s.Collection.Distinct(ctx, models.FieldGenre, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("distinct genres: %w", err)
	}

	genres := make([]string, 0, len(values))
	for _, v := range values {
		if g, ok := v.(string); ok {
			genres = append(genres, g)
		}
	}
	sort.Strings(genres)
	return genres, nil
}

func (s *BookStore) CollectionNames(ctx context.Context) ([]string, error) {
	names, err := s.Collection.Database().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *BookStore) InsertMany(ctx context.Context, books []models.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, len(books))
	for i := range books {
		docs[i] = books[i]
	}

	res, err := s.Collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert books: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (s *BookStore) Drop(ctx context.Context) error {
	if err := s.Collection.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", s.Collection.Name(), err)
	}
	return nil
}

func publishedAfter(year int) bson.D {
	return bson.D{{Key: models.FieldPublishedYear, Value: bson.D{{Key: "$gt", Value: year}}}}
}

func inStockPublishedAfter(year int) bson.D {
	return bson.D{
		{Key: models.FieldInStock, Value: true},
		{Key: models.FieldPublishedYear, Value: bson.D{{Key: "$gt", Value: year}}},
	}
}
