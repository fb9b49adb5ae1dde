// Package reviews implements review submission and the game detail view.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
	"github.com/Clark-Hu/video-game-reviews/internal/rating"
	"github.com/Clark-Hu/video-game-reviews/internal/repository"
	"github.com/Clark-Hu/video-game-reviews/internal/security"
)

var (
	// ErrInvalidReview is returned for a rating outside 1..5 or an empty comment.
	ErrInvalidReview = errors.New("reviews: invalid review")
	// ErrUnknownUser is returned when the author does not exist.
	ErrUnknownUser = errors.New("reviews: unknown user")
	// ErrAlreadyReviewed is returned when the author already reviewed the game.
	ErrAlreadyReviewed = errors.New("reviews: already reviewed")
)

// TxRunner runs fn inside a database transaction; *store.Store implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// SubmitParams is a review as posted by a user.
type SubmitParams struct {
	Slug    string
	UserID  int64
	Rating  int
	Comment string
}

// Service coordinates persistence, authorization and rating aggregation.
type Service struct {
	tx     TxRunner
	repo   *repository.Repository
	logger *log.Logger
}

// NewService wires a Service. repo serves reads outside transactions.
func NewService(tx TxRunner, repo *repository.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{tx: tx, repo: repo, logger: logger}
}

// Show loads a game with its tags and reviews for display.
func (s *Service) Show(ctx context.Context, slug string) (domain.VideoGame, error) {
	game, err := s.repo.VideoGames.GetBySlug(ctx, slug)
	if err != nil {
		return domain.VideoGame{}, err
	}
	game.Reviews, err = s.repo.Reviews.ListByVideoGame(ctx, game.ID)
	if err != nil {
		return domain.VideoGame{}, fmt.Errorf("list reviews: %w", err)
	}
	return game, nil
}

// Submit stores a new review and refreshes the game's cached rating
// statistics in the same transaction. It returns the updated game.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (domain.VideoGame, error) {
	comment := strings.TrimSpace(params.Comment)
	if !domain.ValidRating(params.Rating) || comment == "" {
		return domain.VideoGame{}, ErrInvalidReview
	}

	var game domain.VideoGame
	err := s.tx.WithTx(ctx, func(tx pgx.Tx) error {
		repo := repository.WithTx(tx)

		user, err := repo.Users.GetByID(ctx, params.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUnknownUser
			}
			return fmt.Errorf("load user: %w", err)
		}

		game, err = repo.VideoGames.GetBySlugForUpdate(ctx, params.Slug)
		if err != nil {
			return err
		}
		game.Reviews, err = repo.Reviews.ListByVideoGame(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}

		if !security.CanReview(&user, &game) {
			return ErrAlreadyReviewed
		}

		review, err := repo.Reviews.Create(ctx, repository.ReviewCreateParams{
			VideoGameID: game.ID,
			UserID:      user.ID,
			Rating:      params.Rating,
			Comment:     comment,
		})
		if err != nil {
			return err
		}
		review.Username = user.Username
		game.Reviews = append(game.Reviews, review)

		rating.CalculateAverage(&game)
		rating.CountRatingsPerValue(&game)
		return repo.VideoGames.UpdateRatingStats(ctx, game.ID, game.AverageRating, game.RatingsPerValue)
	})
	if err != nil {
		return domain.VideoGame{}, err
	}

	s.logger.Printf("reviews: user %d rated %q %d (average now %s)", params.UserID, game.Slug, params.Rating, formatAverage(game.AverageRating))
	return game, nil
}

func formatAverage(avg *int) string {
	if avg == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *avg)
}
