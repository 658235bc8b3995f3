package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"plp-bookstore/internal/models"
)

func op(name string, value any) bson.D {
	return bson.D{{Key: name, Value: value}}
}

func field(name string) string {
	return "$" + name
}

func AveragePriceByGenrePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		op("$group", bson.D{
			{Key: "_id", Value: field(models.FieldGenre)},
			{Key: "averagePrice", Value: op("$avg", field(models.FieldPrice))},
			{Key: "totalBooks", Value: op("$sum", 1)},
			{Key: "minPrice", Value: op("$min", field(models.FieldPrice))},
			{Key: "maxPrice", Value: op("$max", field(models.FieldPrice))},
		}),
		op("$sort", bson.D{{Key: "averagePrice", Value: -1}}),
		op("$project", bson.D{
			{Key: "genre", Value: "$_id"},
			{Key: "averagePrice", Value: op("$round", bson.A{"$averagePrice", 2})},
			{Key: "totalBooks", Value: 1},
			{Key: "minPrice", Value: 1},
			{Key: "maxPrice", Value: 1},
			{Key: "_id", Value: 0},
		}),
	}
}

// AuthorsByBookCountPipeline ranks authors by number of titles. With
// withValue the summed price is included; limit > 0 keeps only the top
// entries.
func AuthorsByBookCountPipeline(withValue bool, limit int64) mongo.Pipeline {
	group := bson.D{
		{Key: "_id", Value: field(models.FieldAuthor)},
		{Key: "bookCount", Value: op("$sum", 1)},
		{Key: "books", Value: op("$push", field(models.FieldTitle))},
	}
	if withValue {
		group = append(group, bson.E{Key: "totalValue", Value: op("$sum", field(models.FieldPrice))})
	}

	pipeline := mongo.Pipeline{
		op("$group", group),
		op("$sort", bson.D{{Key: "bookCount", Value: -1}}),
	}
	if limit > 0 {
		pipeline = append(pipeline, op("$limit", limit))
	}
	return pipeline
}

func BooksByDecadePipeline() mongo.Pipeline {
	decade := op("$concat", bson.A{
		op("$toString", op("$multiply", bson.A{
			op("$floor", op("$divide", bson.A{field(models.FieldPublishedYear), 10})),
			10,
		})),
		"s",
	})

	return mongo.Pipeline{
		op("$addFields", bson.D{{Key: "decade", Value: decade}}),
		op("$group", bson.D{
			{Key: "_id", Value: "$decade"},
			{Key: "count", Value: op("$sum", 1)},
			{Key: "books", Value: op("$push", bson.D{
				{Key: "title", Value: field(models.FieldTitle)},
				{Key: "year", Value: field(models.FieldPublishedYear)},
				{Key: "author", Value: field(models.FieldAuthor)},
			})},
			{Key: "averagePrice", Value: op("$avg", field(models.FieldPrice))},
		}),
		op("$sort", bson.D{{Key: "_id", Value: 1}}),
	}
}

func MostExpensiveByGenrePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		op("$sort", Descending(models.FieldPrice)),
		op("$group", bson.D{
			{Key: "_id", Value: field(models.FieldGenre)},
			{Key: "mostExpensive", Value: op("$first", field(models.FieldTitle))},
			{Key: "highestPrice", Value: op("$first", field(models.FieldPrice))},
			{Key: "author", Value: op("$first", field(models.FieldAuthor))},
		}),
		op("$sort", bson.D{{Key: "highestPrice", Value: -1}}),
	}
}

func CollectionStatsPipeline() mongo.Pipeline {
	inStock := field(models.FieldInStock)
	return mongo.Pipeline{
		op("$group", bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalBooks", Value: op("$sum", 1)},
			{Key: "averagePrice", Value: op("$avg", field(models.FieldPrice))},
			{Key: "totalValue", Value: op("$sum", field(models.FieldPrice))},
			{Key: "averagePages", Value: op("$avg", field(models.FieldPages))},
			{Key: "inStockCount", Value: op("$sum", op("$cond", bson.A{inStock, 1, 0}))},
			{Key: "outOfStockCount", Value: op("$sum", op("$cond", bson.A{inStock, 0, 1}))},
		}),
		op("$project", bson.D{
			{Key: "_id", Value: 0},
			{Key: "totalBooks", Value: 1},
			{Key: "averagePrice", Value: op("$round", bson.A{"$averagePrice", 2})},
			{Key: "totalValue", Value: op("$round", bson.A{"$totalValue", 2})},
			{Key: "averagePages", Value: op("$round", bson.A{"$averagePages", 0})},
			{Key: "inStockCount", Value: 1},
			{Key: "outOfStockCount", Value: 1},
		}),
	}
}

func PublicationYearRangePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		op("$group", bson.D{
			{Key: "_id", Value: nil},
			{Key: "oldestBook", Value: op("$min", field(models.FieldPublishedYear))},
			{Key: "newestBook", Value: op("$max", field(models.FieldPublishedYear))},
		}),
	}
}

func aggregate[T any](ctx context.Context, s *BookStore, name string, pipeline mongo.Pipeline) ([]T, error) {
	s.Logger.Debug("aggregate", zap.String("pipeline", name), zap.Int("stages", len(pipeline)))

	cursor, err := s.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return results, nil
}

func (s *BookStore) AveragePriceByGenre(ctx context.Context) ([]models.GenrePriceStats, error) {
	return aggregate[models.GenrePriceStats](ctx, s, "average price by genre", AveragePriceByGenrePipeline())
}

// TopAuthor returns the author with the most books. Ties are broken by the
// server's sort order. ErrNotFound on an empty collection.
func (s *BookStore) TopAuthor(ctx context.Context) (*models.AuthorRanking, error) {
	ranking, err := aggregate[models.AuthorRanking](ctx, s, "top author", AuthorsByBookCountPipeline(true, 1))
	if err != nil {
		return nil, err
	}
	if len(ranking) == 0 {
		return nil, ErrNotFound
	}
	return &ranking[0], nil
}

func (s *BookStore) AuthorsByBookCount(ctx context.Context) ([]models.AuthorRanking, error) {
	return aggregate[models.AuthorRanking](ctx, s, "authors by book count", AuthorsByBookCountPipeline(false, 0))
}

func (s *BookStore) BooksByDecade(ctx context.Context) ([]models.DecadeBucket, error) {
	return aggregate[models.DecadeBucket](ctx, s, "books by decade", BooksByDecadePipeline())
}

func (s *BookStore) MostExpensiveByGenre(ctx context.Context) ([]models.GenreTopBook, error) {
	return aggregate[models.GenreTopBook](ctx, s, "most expensive by genre", MostExpensiveByGenrePipeline())
}

// CollectionStats returns zero stats for an empty collection.
func (s *BookStore) CollectionStats(ctx context.Context) (models.CollectionStats, error) {
	stats, err := aggregate[models.CollectionStats](ctx, s, "collection stats", CollectionStatsPipeline())
	if err != nil || len(stats) == 0 {
		return models.CollectionStats{}, err
	}
	return stats[0], nil
}

// PublicationYearRange returns a zero range for an empty collection.
func (s *BookStore) PublicationYearRange(ctx context.Context) (models.YearRange, error) {
	ranges, err := aggregate[models.YearRange](ctx, s, "publication year range", PublicationYearRangePipeline())
	if err != nil || len(ranges) == 0 {
		return models.YearRange{}, err
	}
	return ranges[0], nil
}
