// Package tag provides the tag registry and its repository.
package tag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/doselog/internal/domain"
)

// Tag labels supplements. Association rows cascade-delete with either side.
type Tag struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

//go:generate mockgen -source=repository.go -destination=../mocks/tag/mock_repository.go -package=mock_tag TagRepository

// TagRepository defines operations for managing tags.
type TagRepository interface {
	FindAll(ctx context.Context) ([]Tag, error)
	Create(ctx context.Context, name string) (*Tag, error)
	Delete(ctx context.Context, id int64) error
}

// DBTagRepository implements TagRepository using MySQL.
type DBTagRepository struct {
	db *sqlx.DB
}

// NewDBTagRepository creates a new DBTagRepository.
func NewDBTagRepository(db *sqlx.DB) *DBTagRepository {
	return &DBTagRepository{db: db}
}

// FindAll returns all tags ordered by name.
func (r *DBTagRepository) FindAll(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := r.db.SelectContext(ctx, &tags, "SELECT * FROM tags ORDER BY name"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(tags) > %w", err)
	}
	return tags, nil
}

// Create inserts a new tag and returns it.
func (r *DBTagRepository) Create(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Message: "tag name must not be empty"}
	}

	result, err := r.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext(insert tag) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId() > %w", err)
	}
	return &Tag{ID: id, Name: name}, nil
}

// Delete removes a tag. Association rows cascade. Deleting a missing id is
// not an error.
func (r *DBTagRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return fmt.Errorf("db.ExecContext(delete tag) > %w", err)
	}
	return nil
}
