package models

type GenrePriceStats struct {
	Genre        string  `bson:"genre" json:"genre"`
	AveragePrice float64 `bson:"averagePrice" json:"averagePrice"`
	TotalBooks   int     `bson:"totalBooks" json:"totalBooks"`
	MinPrice     float64 `bson:"minPrice" json:"minPrice"`
	MaxPrice     float64 `bson:"maxPrice" json:"maxPrice"`
}

type AuthorRanking struct {
	Author     string   `bson:"_id" json:"author"`
	BookCount  int      `bson:"bookCount" json:"bookCount"`
	Books      []string `bson:"books" json:"books"`
	TotalValue float64  `bson:"totalValue,omitempty" json:"totalValue,omitempty"`
}

type DecadeBook struct {
	Title  string `bson:"title" json:"title"`
	Year   int    `bson:"year" json:"year"`
	Author string `bson:"author" json:"author"`
}

type DecadeBucket struct {
	Decade       string       `bson:"_id" json:"decade"`
	Count        int          `bson:"count" json:"count"`
	Books        []DecadeBook `bson:"books" json:"books"`
	AveragePrice float64      `bson:"averagePrice" json:"averagePrice"`
}

type GenreTopBook struct {
	Genre         string  `bson:"_id" json:"genre"`
	MostExpensive string  `bson:"mostExpensive" json:"mostExpensive"`
	HighestPrice  float64 `bson:"highestPrice" json:"highestPrice"`
	Author        string  `bson:"author" json:"author"`
}

type CollectionStats struct {
	TotalBooks      int     `bson:"totalBooks" json:"totalBooks"`
	AveragePrice    float64 `bson:"averagePrice" json:"averagePrice"`
	TotalValue      float64 `bson:"totalValue" json:"totalValue"`
	AveragePages    float64 `bson:"averagePages" json:"averagePages"`
	InStockCount    int     `bson:"inStockCount" json:"inStockCount"`
	OutOfStockCount int     `bson:"outOfStockCount" json:"outOfStockCount"`
}

type YearRange struct {
	OldestBook int `bson:"oldestBook" json:"oldestBook"`
	NewestBook int `bson:"newestBook" json:"newestBook"`
}
