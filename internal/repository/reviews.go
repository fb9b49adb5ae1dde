package repository

import (
	"context"
	"fmt"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
)

// ReviewsRepository persists user reviews of video games.
type ReviewsRepository struct {
	db DBTX
}

// ReviewCreateParams captures the payload required to insert a review.
type ReviewCreateParams struct {
	VideoGameID int64
	UserID      int64
	Rating      int
	Comment     string
}

// Create inserts a review. The returned review has no Username; callers
// that need it already hold the author.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	const query = `
        INSERT INTO reviews (video_game_id, user_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, video_game_id, user_id, rating, comment, created_at
    `
	var review domain.Review
	err := r.db.QueryRow(ctx, query, params.VideoGameID, params.UserID, params.Rating, params.Comment).Scan(
		&review.ID,
		&review.VideoGameID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)
	if err != nil {
		return domain.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return review, nil
}

// ListByVideoGame returns a game's reviews in submission order.
func (r *ReviewsRepository) ListByVideoGame(ctx context.Context, videoGameID int64) ([]domain.Review, error) {
	const query = `
        SELECT r.id, r.video_game_id, r.user_id, u.username, r.rating, r.comment, r.created_at
        FROM reviews r
        JOIN users u ON u.id = r.user_id
        WHERE r.video_game_id = $1
        ORDER BY r.id
    `
	rows, err := r.db.Query(ctx, query, videoGameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.VideoGameID,
			&review.UserID,
			&review.Username,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}
