package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"plp-bookstore/internal/store"
)

func TestPipelines(t *testing.T) {
	tests := []struct {
		name     string
		pipeline mongo.Pipeline
		want     mongo.Pipeline
	}{
		{
			"Average price by genre",
			store.AveragePriceByGenrePipeline(),
			mongo.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$genre"},
					{Key: "averagePrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
					{Key: "totalBooks", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "minPrice", Value: bson.D{{Key: "$min", Value: "$price"}}},
					{Key: "maxPrice", Value: bson.D{{Key: "$max", Value: "$price"}}},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "averagePrice", Value: -1}}}},
				{{Key: "$project", Value: bson.D{
					{Key: "genre", Value: "$_id"},
					{Key: "averagePrice", Value: bson.D{{Key: "$round", Value: bson.A{"$averagePrice", 2}}}},
					{Key: "totalBooks", Value: 1},
					{Key: "minPrice", Value: 1},
					{Key: "maxPrice", Value: 1},
					{Key: "_id", Value: 0},
				}}},
			},
		},
		{
			"Top author",
			store.AuthorsByBookCountPipeline(true, 1),
			mongo.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$author"},
					{Key: "bookCount", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "books", Value: bson.D{{Key: "$push", Value: "$title"}}},
					{Key: "totalValue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "bookCount", Value: -1}}}},
				{{Key: "$limit", Value: int64(1)}},
			},
		},
		{
			"All authors",
			store.AuthorsByBookCountPipeline(false, 0),
			mongo.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$author"},
					{Key: "bookCount", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "books", Value: bson.D{{Key: "$push", Value: "$title"}}},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "bookCount", Value: -1}}}},
			},
		},
		{
			"Books by decade",
			store.BooksByDecadePipeline(),
			mongo.Pipeline{
				{{Key: "$addFields", Value: bson.D{
					{Key: "decade", Value: bson.D{{Key: "$concat", Value: bson.A{
						bson.D{{Key: "$toString", Value: bson.D{{Key: "$multiply", Value: bson.A{
							bson.D{{Key: "$floor", Value: bson.D{{Key: "$divide", Value: bson.A{"$published_year", 10}}}}},
							10,
						}}}}},
						"s",
					}}}},
				}}},
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$decade"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "books", Value: bson.D{{Key: "$push", Value: bson.D{
						{Key: "title", Value: "$title"},
						{Key: "year", Value: "$published_year"},
						{Key: "author", Value: "$author"},
					}}}},
					{Key: "averagePrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			},
		},
		{
			"Most expensive by genre",
			store.MostExpensiveByGenrePipeline(),
			mongo.Pipeline{
				{{Key: "$sort", Value: bson.D{{Key: "price", Value: -1}}}},
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$genre"},
					{Key: "mostExpensive", Value: bson.D{{Key: "$first", Value: "$title"}}},
					{Key: "highestPrice", Value: bson.D{{Key: "$first", Value: "$price"}}},
					{Key: "author", Value: bson.D{{Key: "$first", Value: "$author"}}},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "highestPrice", Value: -1}}}},
			},
		},
		{
			"Collection stats",
			store.CollectionStatsPipeline(),
			mongo.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "totalBooks", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "averagePrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
					{Key: "totalValue", Value: bson.D{{Key: "$sum", Value: "$price"}}},
					{Key: "averagePages", Value: bson.D{{Key: "$avg", Value: "$pages"}}},
					{Key: "inStockCount", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{"$in_stock", 1, 0}}}}}},
					{Key: "outOfStockCount", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{"$in_stock", 0, 1}}}}}},
				}}},
				{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 0},
					{Key: "totalBooks", Value: 1},
					{Key: "averagePrice", Value: bson.D{{Key: "$round", Value: bson.A{"$averagePrice", 2}}}},
					{Key: "totalValue", Value: bson.D{{Key: "$round", Value: bson.A{"$totalValue", 2}}}},
					{Key: "averagePages", Value: bson.D{{Key: "$round", Value: bson.A{"$averagePages", 0}}}},
					{Key: "inStockCount", Value: 1},
					{Key: "outOfStockCount", Value: 1},
				}}},
			},
		},
		{
			"Year range",
			store.PublicationYearRangePipeline(),
			mongo.Pipeline{
				{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "oldestBook", Value: bson.D{{Key: "$min", Value: "$published_year"}}},
					{Key: "newestBook", Value: bson.D{{Key: "$max", Value: "$published_year"}}},
				}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pipeline)
		})
	}
}

func TestBookStore_Aggregations(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("average price by genre", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{
				{Key: "genre", Value: "Fantasy"},
				{Key: "averagePrice", Value: 16.49},
				{Key: "totalBooks", Value: int32(2)},
				{Key: "minPrice", Value: 14.99},
				{Key: "maxPrice", Value: 17.99},
			},
		))

		stats, err := s.AveragePriceByGenre(context.Background())
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "Fantasy", stats[0].Genre)
		assert.Equal(t, 2, stats[0].TotalBooks)
		assert.InDelta(t, 16.49, stats[0].AveragePrice, 0.001)
	})

	mt.Run("top author", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "George Orwell"},
				{Key: "bookCount", Value: int32(2)},
				{Key: "books", Value: bson.A{"1984", "Animal Farm"}},
				{Key: "totalValue", Value: 24.98},
			},
		))

		top, err := s.TopAuthor(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "George Orwell", top.Author)
		assert.Equal(t, []string{"1984", "Animal Farm"}, top.Books)
	})

	mt.Run("top author of empty collection", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch))

		_, err := s.TopAuthor(context.Background())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	mt.Run("books by decade", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "1940s"},
				{Key: "count", Value: int32(2)},
				{Key: "books", Value: bson.A{
					bson.D{{Key: "title", Value: "Animal Farm"}, {Key: "year", Value: int32(1945)}, {Key: "author", Value: "George Orwell"}},
					bson.D{{Key: "title", Value: "1984"}, {Key: "year", Value: int32(1949)}, {Key: "author", Value: "George Orwell"}},
				}},
				{Key: "averagePrice", Value: 10.49},
			},
		))

		buckets, err := s.BooksByDecade(context.Background())
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, "1940s", buckets[0].Decade)
		require.Len(t, buckets[0].Books, 2)
		assert.Equal(t, 1949, buckets[0].Books[1].Year)
	})

	mt.Run("most expensive by genre", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "Fantasy"},
				{Key: "mostExpensive", Value: "The Lord of the Rings"},
				{Key: "highestPrice", Value: 19.99},
				{Key: "author", Value: "J.R.R. Tolkien"},
			},
		))

		top, err := s.MostExpensiveByGenre(context.Background())
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "Fantasy", top[0].Genre)
		assert.Equal(t, "The Lord of the Rings", top[0].MostExpensive)
	})

	mt.Run("authors by book count", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "J.K. Rowling"}, {Key: "bookCount", Value: int32(3)}},
			bson.D{{Key: "_id", Value: "George Orwell"}, {Key: "bookCount", Value: int32(2)}},
		))

		ranking, err := s.AuthorsByBookCount(context.Background())
		require.NoError(t, err)
		require.Len(t, ranking, 2)
		assert.Equal(t, 3, ranking[0].BookCount)
		assert.Zero(t, ranking[1].TotalValue)
	})

	mt.Run("collection stats of empty collection", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch))

		stats, err := s.CollectionStats(context.Background())
		require.NoError(t, err)
		assert.Zero(t, stats.TotalBooks)
	})

	mt.Run("publication year range", func(mt *mtest.T) {
		s := store.NewBookStore(mt.Coll, nil, 5)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "plp_bookstore.books", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: nil}, {Key: "oldestBook", Value: int32(1813)}, {Key: "newestBook", Value: int32(2018)}},
		))

		years, err := s.PublicationYearRange(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1813, years.OldestBook)
		assert.Equal(t, 2018, years.NewestBook)
	})
}
