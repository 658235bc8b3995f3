package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Book struct {
	ID            primitive.ObjectID `json:"id,omitzero" bson:"_id,omitempty" yaml:"-"`
	Title         string             `json:"title,omitempty" bson:"title" yaml:"title" validate:"required"`
	Author        string             `json:"author,omitempty" bson:"author" yaml:"author" validate:"required"`
	Genre         string             `json:"genre,omitempty" bson:"genre" yaml:"genre" validate:"required"`
	PublishedYear int                `json:"published_year,omitempty" bson:"published_year" yaml:"published_year" validate:"gte=0,lte=9999"`
	Price         float64            `json:"price,omitempty" bson:"price" yaml:"price" validate:"gte=0"`
	Pages         int                `json:"pages,omitempty" bson:"pages" yaml:"pages" validate:"gte=0"`
	InStock       *bool              `json:"in_stock,omitempty" bson:"in_stock" yaml:"in_stock" validate:"required"`
	Publisher     string             `json:"publisher,omitempty" bson:"publisher,omitempty" yaml:"publisher"`
}

// Field names as stored in the books collection.
const (
	FieldID            = "_id"
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldGenre         = "genre"
	FieldPublishedYear = "published_year"
	FieldPrice         = "price"
	FieldPages         = "pages"
	FieldInStock       = "in_stock"
	FieldPublisher     = "publisher"

	BookEntity = "book"
)

var bookFields = map[string]bool{
	FieldID:            true,
	FieldTitle:         true,
	FieldAuthor:        true,
	FieldGenre:         true,
	FieldPublishedYear: true,
	FieldPrice:         true,
	FieldPages:         true,
	FieldInStock:       true,
	FieldPublisher:     true,
}

func IsBookField(name string) bool {
	return bookFields[name]
}

// Bool returns a pointer to b, for building Book literals.
func Bool(b bool) *bool {
	return &b
}
