// Package rating derives the cached rating statistics of a video game from
// its review collection.
package rating

import (
	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
)

// Aggregate computes the rounded average rating and the ratings-per-value
// histogram of ratings. The average is nil when ratings is empty.
//
// Ratings are expected to lie within 1..5; values outside that range are not
// counted in the histogram but still contribute to the average.
func Aggregate(ratings []int) (*int, domain.RatingsPerValue) {
	return Average(ratings), CountPerValue(ratings)
}

// Average returns the arithmetic mean of ratings rounded half away from
// zero, or nil for an empty input.
func Average(ratings []int) *int {
	if len(ratings) == 0 {
		return nil
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	// decimal keeps x.5 exact, so Round applies half-up without float drift.
	mean := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(ratings))))
	avg := int(mean.Round(0).IntPart())
	return &avg
}

// CountPerValue returns how many ratings carry each value 1..5.
func CountPerValue(ratings []int) domain.RatingsPerValue {
	var perValue domain.RatingsPerValue
	for _, r := range ratings {
		if domain.ValidRating(r) {
			perValue[r-domain.MinRating]++
		}
	}
	return perValue
}

// CalculateAverage recomputes game.AverageRating from game.Reviews.
func CalculateAverage(game *domain.VideoGame) {
	game.AverageRating = Average(game.Ratings())
}

// CountRatingsPerValue recomputes game.RatingsPerValue from game.Reviews.
func CountRatingsPerValue(game *domain.VideoGame) {
	game.RatingsPerValue = CountPerValue(game.Ratings())
}

// Refresh runs both aggregations on game.
func Refresh(game *domain.VideoGame) {
	game.AverageRating, game.RatingsPerValue = Aggregate(game.Ratings())
}
