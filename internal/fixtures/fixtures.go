// Package fixtures seeds a database with users, tags, video games and
// reviews whose cached rating statistics are consistent.
package fixtures

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
	"github.com/Clark-Hu/video-game-reviews/internal/rating"
	"github.com/Clark-Hu/video-game-reviews/internal/repository"
)

const (
	UserCount      = 25
	TagCount       = 25
	VideoGameCount = 50
	TagsPerGame    = 5
	ReviewersGroup = 5

	// Password is the plain password of every seeded user.
	Password = "password"

	imageSize = 2_098_872
	loremText = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. " +
		"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
		"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris."
)

// TxRunner runs fn inside a database transaction; *store.Store implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Options tunes a Loader.
type Options struct {
	// Seed drives the pseudo-random review ratings.
	Seed int64
	// Now anchors release dates; defaults to time.Now.
	Now func() time.Time
	// PasswordCost is the bcrypt cost; defaults to bcrypt.DefaultCost.
	PasswordCost int
	Logger       *log.Logger
}

// Summary reports what Load inserted.
type Summary struct {
	Users      int
	Tags       int
	VideoGames int
	Reviews    int
}

// Loader inserts the fixture data set.
type Loader struct {
	tx     TxRunner
	opts   Options
	logger *log.Logger
}

// NewLoader constructs a Loader.
func NewLoader(tx TxRunner, opts Options) *Loader {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PasswordCost == 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{tx: tx, opts: opts, logger: logger}
}

// Load inserts every fixture in a single transaction.
func (l *Loader) Load(ctx context.Context) (Summary, error) {
	var summary Summary
	err := l.tx.WithTx(ctx, func(tx pgx.Tx) error {
		repo := repository.WithTx(tx)

		users, err := l.loadUsers(ctx, repo)
		if err != nil {
			return err
		}
		tags, err := l.loadTags(ctx, repo)
		if err != nil {
			return err
		}
		games, err := l.loadVideoGames(ctx, repo, tags)
		if err != nil {
			return err
		}
		reviews, err := l.loadReviews(ctx, repo, games, users)
		if err != nil {
			return err
		}

		summary = Summary{Users: len(users), Tags: len(tags), VideoGames: len(games), Reviews: reviews}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	l.logger.Printf("fixtures: loaded %d users, %d tags, %d video games, %d reviews",
		summary.Users, summary.Tags, summary.VideoGames, summary.Reviews)
	return summary, nil
}

func (l *Loader) loadUsers(ctx context.Context, repo *repository.Repository) ([]domain.User, error) {
	// One hash is enough: every fixture user shares the same password.
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), l.opts.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]domain.User, 0, UserCount)
	for i := 0; i < UserCount; i++ {
		user, err := repo.Users.Create(ctx, repository.UserCreateParams{
			Username:     fmt.Sprintf("user+%d", i),
			Email:        fmt.Sprintf("user+%d@email.com", i),
			PasswordHash: string(hash),
		})
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (l *Loader) loadTags(ctx context.Context, repo *repository.Repository) ([]domain.Tag, error) {
	tags := make([]domain.Tag, 0, TagCount)
	for i := 0; i < TagCount; i++ {
		tag, err := repo.Tags.Create(ctx, fmt.Sprintf("Tag %d", i))
		if err != nil {
			return nil, fmt.Errorf("create tag %d: %w", i, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (l *Loader) loadVideoGames(ctx context.Context, repo *repository.Repository, tags []domain.Tag) ([]domain.VideoGame, error) {
	now := l.opts.Now()
	games := make([]domain.VideoGame, 0, VideoGameCount)
	for i := 0; i < VideoGameCount; i++ {
		game, err := repo.VideoGames.Create(ctx, repository.VideoGameCreateParams{
			Title:       fmt.Sprintf("Video Game %d", i),
			Description: loremText,
			Test:        loremText,
			Rating:      (i % 5) + 1,
			ImageName:   fmt.Sprintf("video_game_%d.png", i),
			ImageSize:   imageSize,
			ReleaseDate: now.AddDate(0, 0, -i),
			TagIDs:      GameTagIDs(i, tags),
		})
		if err != nil {
			return nil, fmt.Errorf("create video game %d: %w", i, err)
		}
		games = append(games, game)
	}
	return games, nil
}

func (l *Loader) loadReviews(ctx context.Context, repo *repository.Repository, games []domain.VideoGame, users []domain.User) (int, error) {
	rnd := rand.New(rand.NewSource(l.opts.Seed))
	groups := chunk(users, ReviewersGroup)
	count := 0

	for i := range games {
		game := &games[i]
		for _, user := range groups[i%len(groups)] {
			review, err := repo.Reviews.Create(ctx, repository.ReviewCreateParams{
				VideoGameID: game.ID,
				UserID:      user.ID,
				Rating:      rnd.Intn(domain.MaxRating) + domain.MinRating,
				Comment:     loremText,
			})
			if err != nil {
				return 0, fmt.Errorf("create review for %q: %w", game.Slug, err)
			}
			review.Username = user.Username
			game.Reviews = append(game.Reviews, review)
			count++

			rating.CalculateAverage(game)
			rating.CountRatingsPerValue(game)
		}
		if err := repo.VideoGames.UpdateRatingStats(ctx, game.ID, game.AverageRating, game.RatingsPerValue); err != nil {
			return 0, fmt.Errorf("store rating stats for %q: %w", game.Slug, err)
		}
	}
	return count, nil
}

// GameTagIDs returns the tag IDs assigned to the fixture game at index.
func GameTagIDs(index int, tags []domain.Tag) []int64 {
	if len(tags) == 0 {
		return nil
	}
	ids := make([]int64, 0, TagsPerGame)
	for k := 0; k < TagsPerGame; k++ {
		ids = append(ids, tags[(index+k)%len(tags)].ID)
	}
	return ids
}

func chunk[T any](items []T, size int) [][]T {
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	return append(out, items)
}
