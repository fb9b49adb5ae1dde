package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/video-game-reviews/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	VideoGames *VideoGamesRepository
	Reviews    *ReviewsRepository
	Users      *UsersRepository
	Tags       *TagsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return newRepository(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return newRepository(pool)
}

// WithTx returns repositories that run every statement inside tx.
func WithTx(tx pgx.Tx) *Repository {
	return newRepository(tx)
}

func newRepository(db DBTX) *Repository {
	return &Repository{
		VideoGames: &VideoGamesRepository{db: db},
		Reviews:    &ReviewsRepository{db: db},
		Users:      &UsersRepository{db: db},
		Tags:       &TagsRepository{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
