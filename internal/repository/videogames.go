package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
	"github.com/Clark-Hu/video-game-reviews/internal/slug"
)

// VideoGamesRepository provides persistence helpers for video game entities.
type VideoGamesRepository struct {
	db DBTX
}

const videoGameColumns = `
    vg.id,
    vg.title,
    vg.slug,
    vg.description,
    vg.test,
    vg.rating,
    vg.image_name,
    vg.image_size,
    vg.release_date,
    vg.average_rating,
    vg.ratings_per_value,
    vg.created_at,
    vg.updated_at
`

// DefaultLimit is the page size used when none or an unsupported one is requested.
const DefaultLimit = 10

// AllowedLimits lists the page sizes the catalog accepts.
var AllowedLimits = []int{10, 25, 50}

// Sorting selects the catalog ordering column.
type Sorting string

const (
	SortByReleaseDate   Sorting = "ReleaseDate"
	SortByTitle         Sorting = "Title"
	SortByAverageRating Sorting = "AverageRating"
)

// Direction selects ascending or descending order.
type Direction string

const (
	Ascending  Direction = "Ascending"
	Descending Direction = "Descending"
)

// VideoGameCreateParams bundles the fields required to create a video game.
// Slug is derived from Title when empty.
type VideoGameCreateParams struct {
	Title       string
	Slug        string
	Description string
	Test        string
	Rating      int
	ImageName   string
	ImageSize   int64
	ReleaseDate time.Time
	TagIDs      []int64
}

// VideoGameListFilters encapsulates search, sorting and pagination options.
type VideoGameListFilters struct {
	Search    *string
	TagIDs    []int64
	Sorting   Sorting
	Direction Direction
	Page      int
	Limit     int
}

// VideoGameListResult returns one page of the catalog.
type VideoGameListResult struct {
	Items []domain.VideoGame
	Total int64
	Page  int
	Limit int
}

// PageCount is the number of pages needed to show Total items.
func (r VideoGameListResult) PageCount() int {
	if r.Limit <= 0 || r.Total == 0 {
		return 0
	}
	return int((r.Total + int64(r.Limit) - 1) / int64(r.Limit))
}

// From is the 1-based position of the first item on the page, 0 when empty.
func (r VideoGameListResult) From() int64 {
	if len(r.Items) == 0 {
		return 0
	}
	return int64((r.Page-1)*r.Limit) + 1
}

// To is the 1-based position of the last item on the page, 0 when empty.
func (r VideoGameListResult) To() int64 {
	if len(r.Items) == 0 {
		return 0
	}
	return int64((r.Page-1)*r.Limit + len(r.Items))
}

// IsAllowedLimit reports whether limit is one of AllowedLimits.
func IsAllowedLimit(limit int) bool {
	for _, allowed := range AllowedLimits {
		if limit == allowed {
			return true
		}
	}
	return false
}

// Create inserts a new video game row with its tags and returns the stored entity.
func (r *VideoGamesRepository) Create(ctx context.Context, params VideoGameCreateParams) (domain.VideoGame, error) {
	gameSlug := params.Slug
	if gameSlug == "" {
		gameSlug = slug.Make(params.Title)
	}

	query := fmt.Sprintf(`
        INSERT INTO video_games AS vg (title, slug, description, test, rating, image_name, image_size, release_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING %s
    `, videoGameColumns)

	row := r.db.QueryRow(ctx, query, params.Title, gameSlug, params.Description, params.Test,
		params.Rating, params.ImageName, params.ImageSize, params.ReleaseDate)
	game, err := scanVideoGame(row)
	if err != nil {
		return domain.VideoGame{}, fmt.Errorf("insert video game: %w", err)
	}

	if len(params.TagIDs) > 0 {
		const tagQuery = `
            INSERT INTO video_game_tags (video_game_id, tag_id)
            SELECT $1, unnest($2::bigint[])
            ON CONFLICT DO NOTHING
        `
		if _, err := r.db.Exec(ctx, tagQuery, game.ID, params.TagIDs); err != nil {
			return domain.VideoGame{}, fmt.Errorf("attach tags: %w", err)
		}
		if err := r.loadTags(ctx, []*domain.VideoGame{&game}); err != nil {
			return domain.VideoGame{}, err
		}
	}
	return game, nil
}

// GetBySlug fetches a video game and its tags by slug.
func (r *VideoGamesRepository) GetBySlug(ctx context.Context, gameSlug string) (domain.VideoGame, error) {
	return r.getBySlug(ctx, gameSlug, "")
}

// GetBySlugForUpdate is GetBySlug with a row lock; it must run inside a
// transaction so concurrent submissions on one game serialize.
func (r *VideoGamesRepository) GetBySlugForUpdate(ctx context.Context, gameSlug string) (domain.VideoGame, error) {
	return r.getBySlug(ctx, gameSlug, " FOR UPDATE")
}

func (r *VideoGamesRepository) getBySlug(ctx context.Context, gameSlug, lock string) (domain.VideoGame, error) {
	query := fmt.Sprintf(`SELECT %s FROM video_games vg WHERE vg.slug = $1%s`, videoGameColumns, lock)
	game, err := scanVideoGame(r.db.QueryRow(ctx, query, gameSlug))
	if err != nil {
		return domain.VideoGame{}, notFound(err)
	}
	if err := r.loadTags(ctx, []*domain.VideoGame{&game}); err != nil {
		return domain.VideoGame{}, err
	}
	return game, nil
}

// UpdateRatingStats persists the cached aggregation results of a game.
func (r *VideoGamesRepository) UpdateRatingStats(ctx context.Context, id int64, average *int, perValue domain.RatingsPerValue) error {
	counts := make([]int32, len(perValue))
	for i, c := range perValue {
		counts[i] = int32(c)
	}
	tag, err := r.db.Exec(ctx, `
        UPDATE video_games
        SET average_rating = $2,
            ratings_per_value = $3,
            updated_at = now()
        WHERE id = $1
    `, id, average, counts)
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the catalog page matching the provided filters.
func (r *VideoGamesRepository) List(ctx context.Context, filters VideoGameListFilters) (VideoGameListResult, error) {
	if !IsAllowedLimit(filters.Limit) {
		filters.Limit = DefaultLimit
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		where = append(where, fmt.Sprintf("vg.title ILIKE %s", arg("%"+escapeLike(strings.TrimSpace(*filters.Search))+"%")))
	}
	if tagIDs := distinctIDs(filters.TagIDs); len(tagIDs) > 0 {
		where = append(where, fmt.Sprintf(`vg.id IN (
            SELECT video_game_id FROM video_game_tags
            WHERE tag_id = ANY(%s::bigint[])
            GROUP BY video_game_id
            HAVING COUNT(DISTINCT tag_id) = %s
        )`, arg(tagIDs), arg(len(tagIDs))))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM video_games vg"+whereClause, args...).Scan(&total); err != nil {
		return VideoGameListResult{}, fmt.Errorf("count video games: %w", err)
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(videoGameColumns)
	queryBuilder.WriteString(" FROM video_games vg")
	queryBuilder.WriteString(whereClause)
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(orderClause(filters.Sorting, filters.Direction))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filters.Limit, (filters.Page-1)*filters.Limit))

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return VideoGameListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.VideoGame, 0)
	for rows.Next() {
		game, err := scanVideoGame(rows)
		if err != nil {
			return VideoGameListResult{}, err
		}
		items = append(items, game)
	}
	if err := rows.Err(); err != nil {
		return VideoGameListResult{}, err
	}

	ptrs := make([]*domain.VideoGame, len(items))
	for i := range items {
		ptrs[i] = &items[i]
	}
	if err := r.loadTags(ctx, ptrs); err != nil {
		return VideoGameListResult{}, err
	}

	return VideoGameListResult{Items: items, Total: total, Page: filters.Page, Limit: filters.Limit}, nil
}

func orderClause(sorting Sorting, direction Direction) string {
	dir := "DESC"
	if direction == Ascending {
		dir = "ASC"
	}
	switch sorting {
	case SortByTitle:
		return fmt.Sprintf("lower(vg.title) %s, vg.id %s", dir, dir)
	case SortByAverageRating:
		return fmt.Sprintf("vg.average_rating %s NULLS LAST, vg.id %s", dir, dir)
	default:
		return fmt.Sprintf("vg.release_date %s, vg.id %s", dir, dir)
	}
}

func (r *VideoGamesRepository) loadTags(ctx context.Context, games []*domain.VideoGame) error {
	if len(games) == 0 {
		return nil
	}
	ids := make([]int64, len(games))
	byID := make(map[int64]*domain.VideoGame, len(games))
	for i, game := range games {
		ids[i] = game.ID
		game.Tags = make([]domain.Tag, 0)
		byID[game.ID] = game
	}

	rows, err := r.db.Query(ctx, `
        SELECT vgt.video_game_id, t.id, t.name
        FROM video_game_tags vgt
        JOIN tags t ON t.id = vgt.tag_id
        WHERE vgt.video_game_id = ANY($1::bigint[])
        ORDER BY t.id
    `, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var gameID int64
		var tag domain.Tag
		if err := rows.Scan(&gameID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		if game, ok := byID[gameID]; ok {
			game.Tags = append(game.Tags, tag)
		}
	}
	return rows.Err()
}

func scanVideoGame(row pgx.Row) (domain.VideoGame, error) {
	var (
		game     domain.VideoGame
		average  *int
		perValue []int32
	)

	err := row.Scan(
		&game.ID,
		&game.Title,
		&game.Slug,
		&game.Description,
		&game.Test,
		&game.Rating,
		&game.ImageName,
		&game.ImageSize,
		&game.ReleaseDate,
		&average,
		&perValue,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return domain.VideoGame{}, err
	}

	game.AverageRating = average
	for i := 0; i < len(perValue) && i < len(game.RatingsPerValue); i++ {
		game.RatingsPerValue[i] = int(perValue[i])
	}
	return game, nil
}

func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
