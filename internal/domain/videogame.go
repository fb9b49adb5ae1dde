package domain

import "time"

// Tag labels a video game for catalog filtering.
type Tag struct {
	ID   int64
	Name string
}

// VideoGame represents the canonical video game entity in the database/service.
//
// AverageRating and RatingsPerValue are cached projections of Reviews. They
// are only meaningful after the rating aggregator has run on the current
// review collection.
type VideoGame struct {
	ID              int64
	Title           string
	Slug            string
	Description     string
	Test            string
	Rating          int
	ImageName       string
	ImageSize       int64
	ReleaseDate     time.Time
	Tags            []Tag
	Reviews         []Review
	AverageRating   *int
	RatingsPerValue RatingsPerValue
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Ratings returns the rating values of the game's reviews in submission order.
func (g *VideoGame) Ratings() []int {
	ratings := make([]int, len(g.Reviews))
	for i, review := range g.Reviews {
		ratings[i] = review.Rating
	}
	return ratings
}
