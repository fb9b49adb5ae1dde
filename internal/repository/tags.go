package repository

import (
	"context"

	"github.com/Clark-Hu/video-game-reviews/internal/domain"
)

// TagsRepository persists catalog tags.
type TagsRepository struct {
	db DBTX
}

// Create inserts a tag.
func (r *TagsRepository) Create(ctx context.Context, name string) (domain.Tag, error) {
	var tag domain.Tag
	err := r.db.QueryRow(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING id, name`, name).Scan(&tag.ID, &tag.Name)
	return tag, err
}

// List returns every tag ordered by identifier.
func (r *TagsRepository) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]domain.Tag, 0)
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
