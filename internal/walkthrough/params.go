package walkthrough

import (
	"go.mongodb.org/mongo-driver/bson"

	"plp-bookstore/internal/models"
)

// Probe is a filter whose query plan the indexing section explains.
type Probe struct {
	Title  string
	Filter bson.D
}

// Params holds every literal the walkthrough plugs into its statements.
type Params struct {
	Genre             string
	PublishedAfter    int
	AltPublishedAfter int
	Author            string
	AltAuthor         string
	PriceTitle        string
	NewPrice          float64
	DeleteTitle       string
	PageSize          int
	Pages             int
	Probes            []Probe
}

func DefaultParams() Params {
	return Params{
		Genre:             "Fiction",
		PublishedAfter:    2010,
		AltPublishedAfter: 2015,
		Author:            "George Orwell",
		AltAuthor:         "J.K. Rowling",
		PriceTitle:        "1984",
		NewPrice:          15.99,
		DeleteTitle:       "The Da Vinci Code",
		PageSize:          5,
		Pages:             4,
		Probes:            DefaultProbes(),
	}
}

// DefaultProbes covers each index created by the walkthrough plus one
// filter on an unindexed field.
func DefaultProbes() []Probe {
	return []Probe{
		{
			Title:  "Test 1: Finding book by title (uses title index):",
			Filter: bson.D{{Key: models.FieldTitle, Value: "1984"}},
		},
		{
			Title: "Test 2: Finding books by author and year (uses compound index):",
			Filter: bson.D{
				{Key: models.FieldAuthor, Value: "George Orwell"},
				{Key: models.FieldPublishedYear, Value: bson.D{{Key: "$gte", Value: 1940}}},
			},
		},
		{
			Title: "Test 3: Price range query (uses price index):",
			Filter: bson.D{{Key: models.FieldPrice, Value: bson.D{
				{Key: "$gte", Value: 10},
				{Key: "$lte", Value: 15},
			}}},
		},
		{
			Title:  "Test 4: Query on non-indexed field (collection scan):",
			Filter: bson.D{{Key: models.FieldPages, Value: bson.D{{Key: "$gt", Value: 300}}}},
		},
	}
}
