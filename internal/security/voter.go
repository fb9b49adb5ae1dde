// Package security decides whether a user may act on a video game.
package security

import "github.com/Clark-Hu/video-game-reviews/internal/domain"

// HasAlreadyReviewed reports whether any review in reviews was written by userID.
func HasAlreadyReviewed(reviews []domain.Review, userID int64) bool {
	for _, review := range reviews {
		if review.UserID == userID {
			return true
		}
	}
	return false
}

// CanReview grants a review only to a known user who has not yet reviewed game.
func CanReview(user *domain.User, game *domain.VideoGame) bool {
	if user == nil || game == nil {
		return false
	}
	return !HasAlreadyReviewed(game.Reviews, user.ID)
}
