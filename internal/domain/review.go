package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

const (
	// MinRating is the lowest value a review may carry.
	MinRating = 1
	// MaxRating is the highest value a review may carry.
	MaxRating = 5
)

// Review represents a single user's rating and comment for a video game.
type Review struct {
	ID          int64
	VideoGameID int64
	UserID      int64
	Username    string
	Rating      int
	Comment     string
	CreatedAt   time.Time
}

// ValidRating reports whether value lies within MinRating..MaxRating.
func ValidRating(value int) bool {
	return value >= MinRating && value <= MaxRating
}

// RatingsPerValue counts reviews per rating value. Slot i holds the count
// for rating i+1, so every value 1..5 is always present.
type RatingsPerValue [MaxRating]int

// Count returns the number of reviews rated value, or 0 outside 1..5.
func (r RatingsPerValue) Count(value int) int {
	if !ValidRating(value) {
		return 0
	}
	return r[value-MinRating]
}

// Total returns the sum of all buckets.
func (r RatingsPerValue) Total() int {
	total := 0
	for _, count := range r {
		total += count
	}
	return total
}

// Each calls fn for every rating value in ascending order.
func (r RatingsPerValue) Each(fn func(value, count int)) {
	for i, count := range r {
		fn(i+MinRating, count)
	}
}

// MarshalJSON encodes the histogram as an object keyed "1".."5".
func (r RatingsPerValue) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, len(r))
	r.Each(func(value, count int) {
		out[strconv.Itoa(value)] = count
	})
	return json.Marshal(out)
}
