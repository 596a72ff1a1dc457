package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/martinsuchenak/edgetag/internal/model"
)

// ListTags returns all tags ordered by name
func (ss *SQLiteStorage) ListTags(ctx context.Context) ([]model.Tag, error) {
	defer ss.rlock()()

	return ss.queryTags(ctx, `SELECT id, name, slug, description, created_at, updated_at FROM tags ORDER BY name`)
}

// GetTag retrieves a tag by ID, slug or name
func (ss *SQLiteStorage) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	defer ss.rlock()()

	tags, err := ss.queryTags(ctx, `
		SELECT id, name, slug, description, created_at, updated_at
		FROM tags
		WHERE id = ? OR slug = ? OR LOWER(name) = LOWER(?)
		ORDER BY id = ? DESC, slug = ? DESC
		LIMIT 1
	`, id, id, id, id, id)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, id)
	}
	return &tags[0], nil
}

// CreateTag adds a tag, deriving the slug from the name when empty
func (ss *SQLiteStorage) CreateTag(ctx context.Context, tag *model.Tag) error {
	defer ss.lock()()

	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return fmt.Errorf("%w: tag name is required", ErrInvalidID)
	}
	if tag.Slug == "" {
		tag.Slug = model.Slugify(tag.Name)
	}
	if tag.Slug == "" {
		return fmt.Errorf("%w: cannot derive slug from %q", ErrInvalidID, tag.Name)
	}
	if tag.ID == "" {
		tag.ID = newID()
	}

	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now

	_, err := ss.q.ExecContext(ctx, `
		INSERT INTO tags (id, name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tag.ID, tag.Name, tag.Slug, tag.Description, tag.CreatedAt, tag.UpdatedAt)
	if err != nil {
		return mapConstraintError("inserting tag", err)
	}
	return nil
}

// DeleteTag removes a tag by ID or slug; device assignments cascade
func (ss *SQLiteStorage) DeleteTag(ctx context.Context, id string) error {
	defer ss.lock()()

	result, err := ss.q.ExecContext(ctx, "DELETE FROM tags WHERE id = ? OR slug = ?", id, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrTagNotFound
	}
	return nil
}

func (ss *SQLiteStorage) queryTags(ctx context.Context, query string, args ...any) ([]model.Tag, error) {
	rows, err := ss.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
