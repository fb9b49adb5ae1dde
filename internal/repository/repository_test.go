package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
	"github.com/Clark-Hu/video-game-reviews/internal/testutil"
)

type testEnv struct {
	ctx        context.Context
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pool := testutil.NewPool(t, "video_games_test")
	return &testEnv{ctx: context.Background(), repository: NewWithPool(pool)}
}

func mustCreateGame(t testing.TB, env *testEnv, title string, released time.Time, tagIDs ...int64) domain.VideoGame {
	t.Helper()
	game, err := env.repository.VideoGames.Create(env.ctx, VideoGameCreateParams{
		Title:       title,
		ReleaseDate: released,
		TagIDs:      tagIDs,
	})
	if err != nil {
		t.Fatalf("create game %q: %v", title, err)
	}
	return game
}

func mustCreateUser(t testing.TB, env *testEnv, name string) domain.User {
	t.Helper()
	user, err := env.repository.Users.Create(env.ctx, UserCreateParams{
		Username:     name,
		Email:        name + "@email.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return user
}

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
}

func TestVideoGamesRepository_CreateGet(t *testing.T) {
	env := newTestEnv(t)

	tagA, err := env.repository.Tags.Create(env.ctx, "Action")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}
	tagB, err := env.repository.Tags.Create(env.ctx, "RPG")
	if err != nil {
		t.Fatalf("create tag: %v", err)
	}

	created := mustCreateGame(t, env, "Jeu vidéo 0", day(3), tagA.ID, tagB.ID)
	if created.Slug != "jeu-video-0" {
		t.Fatalf("slug = %q, want jeu-video-0", created.Slug)
	}
	if created.AverageRating != nil {
		t.Fatalf("new game average = %d, want none", *created.AverageRating)
	}
	if created.RatingsPerValue.Total() != 0 {
		t.Fatalf("new game histogram = %v", created.RatingsPerValue)
	}

	got, err := env.repository.VideoGames.GetBySlug(env.ctx, "jeu-video-0")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.ID != created.ID || len(got.Tags) != 2 || got.Tags[0].Name != "Action" {
		t.Fatalf("unexpected game: %+v", got)
	}

	if _, err := env.repository.VideoGames.GetBySlug(env.ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	tags, err := env.repository.Tags.List(env.ctx)
	if err != nil || len(tags) != 2 {
		t.Fatalf("list tags = %v, %v", tags, err)
	}
}

func TestVideoGamesRepository_UpdateRatingStats(t *testing.T) {
	env := newTestEnv(t)
	game := mustCreateGame(t, env, "Stats Game", day(1))

	avg := 4
	perValue := domain.RatingsPerValue{0, 0, 1, 1, 1}
	if err := env.repository.VideoGames.UpdateRatingStats(env.ctx, game.ID, &avg, perValue); err != nil {
		t.Fatalf("update stats: %v", err)
	}

	got, err := env.repository.VideoGames.GetBySlug(env.ctx, game.Slug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if got.AverageRating == nil || *got.AverageRating != 4 {
		t.Fatalf("average = %v, want 4", got.AverageRating)
	}
	if got.RatingsPerValue != perValue {
		t.Fatalf("histogram = %v, want %v", got.RatingsPerValue, perValue)
	}

	if err := env.repository.VideoGames.UpdateRatingStats(env.ctx, game.ID, nil, domain.RatingsPerValue{}); err != nil {
		t.Fatalf("reset stats: %v", err)
	}
	got, _ = env.repository.VideoGames.GetBySlug(env.ctx, game.Slug)
	if got.AverageRating != nil {
		t.Fatalf("average = %d, want none", *got.AverageRating)
	}

	if err := env.repository.VideoGames.UpdateRatingStats(env.ctx, 424242, nil, domain.RatingsPerValue{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown game, got %v", err)
	}
}

func TestVideoGamesRepository_ListSortingAndPaging(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 12; i++ {
		game := mustCreateGame(t, env, fmt.Sprintf("Game %02d", i), day(20-i))
		if i%3 == 0 {
			avg := i%5 + 1
			if err := env.repository.VideoGames.UpdateRatingStats(env.ctx, game.ID, &avg, domain.RatingsPerValue{}); err != nil {
				t.Fatalf("update stats: %v", err)
			}
		}
	}

	first, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if first.Total != 12 || len(first.Items) != 10 || first.PageCount() != 2 {
		t.Fatalf("first page total=%d len=%d pages=%d", first.Total, len(first.Items), first.PageCount())
	}
	if first.Items[0].Title != "Game 00" {
		t.Fatalf("default order should be newest first, got %s", first.Items[0].Title)
	}

	second, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{Page: 2})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(second.Items) != 2 || second.From() != 11 || second.To() != 12 {
		t.Fatalf("second page len=%d from=%d to=%d", len(second.Items), second.From(), second.To())
	}

	byTitle, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{Sorting: SortByTitle, Direction: Ascending, Limit: 25})
	if err != nil {
		t.Fatalf("List by title: %v", err)
	}
	if len(byTitle.Items) != 12 || byTitle.Items[0].Title != "Game 00" || byTitle.Items[11].Title != "Game 11" {
		t.Fatalf("title order wrong: first=%s", byTitle.Items[0].Title)
	}

	byRating, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{Sorting: SortByAverageRating, Direction: Descending, Limit: 25})
	if err != nil {
		t.Fatalf("List by rating: %v", err)
	}
	if byRating.Items[0].AverageRating == nil || *byRating.Items[0].AverageRating != 5 {
		t.Fatalf("highest rated first, got %+v", byRating.Items[0].AverageRating)
	}
	if byRating.Items[11].AverageRating != nil {
		t.Fatalf("unrated games should sort last")
	}

	beyond, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{Page: 9})
	if err != nil {
		t.Fatalf("List beyond: %v", err)
	}
	if len(beyond.Items) != 0 || beyond.From() != 0 || beyond.Total != 12 {
		t.Fatalf("beyond last page: %+v", beyond)
	}
}

func TestVideoGamesRepository_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.repository.Tags.Create(env.ctx, "A")
	b, _ := env.repository.Tags.Create(env.ctx, "B")
	c, _ := env.repository.Tags.Create(env.ctx, "C")

	mustCreateGame(t, env, "Alpha", day(1), a.ID, b.ID)
	mustCreateGame(t, env, "Beta", day(2), a.ID)
	mustCreateGame(t, env, "Gamma 100%", day(3), b.ID, c.ID)

	cases := []struct {
		name    string
		filters VideoGameListFilters
		want    []string
	}{
		{"no filter", VideoGameListFilters{}, []string{"Gamma 100%", "Beta", "Alpha"}},
		{"single tag", VideoGameListFilters{TagIDs: []int64{a.ID}}, []string{"Beta", "Alpha"}},
		{"all tags required", VideoGameListFilters{TagIDs: []int64{a.ID, b.ID}}, []string{"Alpha"}},
		{"duplicate tags", VideoGameListFilters{TagIDs: []int64{b.ID, b.ID}}, []string{"Gamma 100%", "Alpha"}},
		{"unknown tag", VideoGameListFilters{TagIDs: []int64{a.ID, 999}}, nil},
		{"search", VideoGameListFilters{Search: strPtr("ET")}, []string{"Beta"}},
		{"search literal percent", VideoGameListFilters{Search: strPtr("100%")}, []string{"Gamma 100%"}},
		{"search and tag", VideoGameListFilters{Search: strPtr("a"), TagIDs: []int64{c.ID}}, []string{"Gamma 100%"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := env.repository.VideoGames.List(env.ctx, tc.filters)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if int(result.Total) != len(tc.want) || len(result.Items) != len(tc.want) {
				t.Fatalf("total=%d items=%d, want %d", result.Total, len(result.Items), len(tc.want))
			}
			for i, title := range tc.want {
				if result.Items[i].Title != title {
					t.Fatalf("item %d = %s, want %s", i, result.Items[i].Title, title)
				}
			}
		})
	}
}

func TestReviewsRepository_CreateAndList(t *testing.T) {
	env := newTestEnv(t)
	game := mustCreateGame(t, env, "Reviewed", day(1))
	alice := mustCreateUser(t, env, "alice")
	bob := mustCreateUser(t, env, "bob")

	for _, p := range []ReviewCreateParams{
		{VideoGameID: game.ID, UserID: bob.ID, Rating: 2, Comment: "first"},
		{VideoGameID: game.ID, UserID: alice.ID, Rating: 5, Comment: "second"},
	} {
		if _, err := env.repository.Reviews.Create(env.ctx, p); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	reviews, err := env.repository.Reviews.ListByVideoGame(env.ctx, game.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 || reviews[0].Username != "bob" || reviews[1].Username != "alice" {
		t.Fatalf("reviews not in submission order: %+v", reviews)
	}

	if _, err := env.repository.Reviews.Create(env.ctx, ReviewCreateParams{VideoGameID: game.ID, UserID: bob.ID, Rating: 3, Comment: "dup"}); err == nil {
		t.Fatalf("expected unique violation for second review by same user")
	}
	carol := mustCreateUser(t, env, "carol")
	if _, err := env.repository.Reviews.Create(env.ctx, ReviewCreateParams{VideoGameID: game.ID, UserID: carol.ID, Rating: 6, Comment: "x"}); err == nil {
		t.Fatalf("expected check violation for rating 6")
	}
}

func TestUsersRepository_Get(t *testing.T) {
	env := newTestEnv(t)
	user := mustCreateUser(t, env, "dave")

	byID, err := env.repository.Users.GetByID(env.ctx, user.ID)
	if err != nil || byID.Email != "dave@email.com" {
		t.Fatalf("GetByID = %+v, %v", byID, err)
	}
	byEmail, err := env.repository.Users.GetByEmail(env.ctx, "dave@email.com")
	if err != nil || byEmail.ID != user.ID {
		t.Fatalf("GetByEmail = %+v, %v", byEmail, err)
	}
	if _, err := env.repository.Users.GetByEmail(env.ctx, "nobody@email.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTx_Rollback(t *testing.T) {
	pool := testutil.NewPool(t, "video_games_tx_test")
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := WithTx(tx).Users.Create(ctx, UserCreateParams{Username: "ghost", Email: "ghost@email.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("create in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		t.Fatalf("rollback: %v", err)
	}

	if _, err := NewWithPool(pool).Users.GetByEmail(ctx, "ghost@email.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rolled back user still visible: %v", err)
	}
}

func BenchmarkVideoGamesRepositoryList(b *testing.B) {
	env := newTestEnv(b)
	for i := 0; i < 50; i++ {
		mustCreateGame(b, env, fmt.Sprintf("Bench Game %d", i), day(1+i%28))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.repository.VideoGames.List(env.ctx, VideoGameListFilters{Page: i%5 + 1}); err != nil {
			b.Fatalf("list: %v", err)
		}
	}
}

func strPtr(s string) *string { return &s }
