// Package supplement provides supplement domain models, the repository, and
// the cached rating statistics engine.
package supplement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/doselog/internal/database"
	"github.com/at-ishikawa/doselog/internal/domain"
	"github.com/at-ishikawa/doselog/internal/tag"
)

// Supplement types. Sleep markers are synthetic supplements created from
// fetched sleep windows; everything else is user-entered.
const (
	TypeRegular    = "regular"
	TypeSleepStart = "sleep_start"
	TypeSleepEnd   = "sleep_end"
)

// Supplement represents a trackable item a user can associate with a day.
// AverageRating and RatingDifference are cached statistics maintained by
// RecomputeRatings; nil means the statistic is undefined, never zero.
type Supplement struct {
	ID               int64     `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Description      *string   `db:"description" json:"description"`
	Hidden           bool      `db:"hidden" json:"hidden"`
	Type             string    `db:"type" json:"type"`
	AverageRating    *int      `db:"average_rating" json:"averageRating"`
	RatingDifference *float64  `db:"rating_difference" json:"ratingDifference"`
	CreatedAt        time.Time `db:"created_at" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
	Tags             []tag.Tag `db:"-" json:"tags"`
}

// CreateParams holds the caller-settable fields for a new supplement.
type CreateParams struct {
	Name        string
	Description *string
	Hidden      bool
	Type        string
}

// UpdateParams holds a partial update. Nil fields are left unchanged.
// A non-nil TagIDs fully replaces the supplement's tag set.
type UpdateParams struct {
	Name             *string
	Description      *string
	Hidden           *bool
	Type             *string
	AverageRating    *int
	RatingDifference *float64
	TagIDs           []int64
}

// RatingPoint is one day's rating for a supplement's history chart.
// Date is in milliseconds since epoch.
type RatingPoint struct {
	Date   int64 `json:"date"`
	Rating int   `json:"rating"`
}

//go:generate mockgen -source=repository.go -destination=../mocks/supplement/mock_repository.go -package=mock_supplement SupplementRepository

// SupplementRepository defines operations for managing supplements.
type SupplementRepository interface {
	FindAll(ctx context.Context, filterHidden bool) ([]Supplement, error)
	FindByID(ctx context.Context, id int64) (*Supplement, error)
	Create(ctx context.Context, params CreateParams) (*Supplement, error)
	FindOrCreateByName(ctx context.Context, params CreateParams) (*Supplement, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Supplement, error)
	Delete(ctx context.Context, id int64) error
	ToggleHidden(ctx context.Context, id int64) (*Supplement, error)
	Hide(ctx context.Context, id int64) (*Supplement, error)
	SetTags(ctx context.Context, id int64, tagIDs []int64) (*Supplement, error)
	RatingHistory(ctx context.Context, id int64) ([]RatingPoint, error)
	RecomputeRatings(ctx context.Context, ids []int64) error
}

// DBSupplementRepository implements SupplementRepository using MySQL.
type DBSupplementRepository struct {
	db *sqlx.DB
}

// NewDBSupplementRepository creates a new DBSupplementRepository.
func NewDBSupplementRepository(db *sqlx.DB) *DBSupplementRepository {
	return &DBSupplementRepository{db: db}
}

// FindAll returns all supplements with their tags. When filterHidden is
// true, hidden supplements are excluded.
func (r *DBSupplementRepository) FindAll(ctx context.Context, filterHidden bool) ([]Supplement, error) {
	query := "SELECT * FROM supplements ORDER BY name"
	if filterHidden {
		query = "SELECT * FROM supplements WHERE hidden = 0 ORDER BY name"
	}

	var supplements []Supplement
	if err := r.db.SelectContext(ctx, &supplements, query); err != nil {
		return nil, fmt.Errorf("db.SelectContext(supplements) > %w", err)
	}
	if err := LoadTags(ctx, r.db, supplements); err != nil {
		return nil, err
	}
	return supplements, nil
}

// FindByID returns a supplement with its tags, or nil if not found.
func (r *DBSupplementRepository) FindByID(ctx context.Context, id int64) (*Supplement, error) {
	var s Supplement
	err := r.db.GetContext(ctx, &s, "SELECT * FROM supplements WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(supplement) > %w", err)
	}
	supplements := []Supplement{s}
	if err := LoadTags(ctx, r.db, supplements); err != nil {
		return nil, err
	}
	return &supplements[0], nil
}

// Create inserts a supplement with empty statistics and no tags.
func (r *DBSupplementRepository) Create(ctx context.Context, params CreateParams) (*Supplement, error) {
	name, supplementType, err := normalizeCreateParams(params)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO supplements (name, description, hidden, type) VALUES (?, ?, ?, ?)",
		name, params.Description, params.Hidden, supplementType)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext(insert supplement) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId() > %w", err)
	}
	return &Supplement{
		ID:          id,
		Name:        name,
		Description: params.Description,
		Hidden:      params.Hidden,
		Type:        supplementType,
		Tags:        []tag.Tag{},
	}, nil
}

// FindOrCreateByName returns the supplement with the given name, creating it
// with the provided defaults when missing. The name is the dedup key for
// synthetic sleep markers, so the lookup-or-insert is a single atomic upsert.
func (r *DBSupplementRepository) FindOrCreateByName(ctx context.Context, params CreateParams) (*Supplement, error) {
	name, supplementType, err := normalizeCreateParams(params)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO supplements (name, description, hidden, type) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
		name, params.Description, params.Hidden, supplementType)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext(upsert supplement) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("result.LastInsertId() > %w", err)
	}

	s, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, &domain.NotFoundError{Resource: "supplement", ID: id}
	}
	return s, nil
}

// Update applies the provided fields. A non-nil TagIDs replaces the tag
// associations entirely within the same transaction.
func (r *DBSupplementRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Supplement, error) {
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := requireSupplement(ctx, tx, id); err != nil {
			return err
		}

		assignments := make([]string, 0, 6)
		args := make([]interface{}, 0, 7)
		if params.Name != nil {
			assignments = append(assignments, "name = ?")
			args = append(args, *params.Name)
		}
		if params.Description != nil {
			assignments = append(assignments, "description = ?")
			args = append(args, *params.Description)
		}
		if params.Hidden != nil {
			assignments = append(assignments, "hidden = ?")
			args = append(args, *params.Hidden)
		}
		if params.Type != nil {
			assignments = append(assignments, "type = ?")
			args = append(args, *params.Type)
		}
		if params.AverageRating != nil {
			assignments = append(assignments, "average_rating = ?")
			args = append(args, *params.AverageRating)
		}
		if params.RatingDifference != nil {
			assignments = append(assignments, "rating_difference = ?")
			args = append(args, *params.RatingDifference)
		}
		if len(assignments) > 0 {
			args = append(args, id)
			query := fmt.Sprintf("UPDATE supplements SET %s WHERE id = ?", strings.Join(assignments, ", "))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("tx.ExecContext(update supplement) > %w", err)
			}
		}

		if params.TagIDs != nil {
			return replaceTags(ctx, tx, id, params.TagIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a supplement. Its supplements_taken and supplement_tags
// rows cascade; other supplements' statistics are not recomputed. Deleting
// a missing id is not an error.
func (r *DBSupplementRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM supplements WHERE id = ?", id); err != nil {
		return fmt.Errorf("db.ExecContext(delete supplement) > %w", err)
	}
	return nil
}

// ToggleHidden flips the hidden flag and returns the refreshed supplement.
func (r *DBSupplementRepository) ToggleHidden(ctx context.Context, id int64) (*Supplement, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE supplements SET hidden = NOT hidden WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("db.ExecContext(toggle supplement) > %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return nil, &domain.NotFoundError{Resource: "supplement", ID: id}
	}
	return r.FindByID(ctx, id)
}

// Hide sets the hidden flag and returns the refreshed supplement.
func (r *DBSupplementRepository) Hide(ctx context.Context, id int64) (*Supplement, error) {
	if err := requireSupplement(ctx, r.db, id); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE supplements SET hidden = 1 WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("db.ExecContext(hide supplement) > %w", err)
	}
	return r.FindByID(ctx, id)
}

// SetTags replaces the supplement's tag set with tagIDs. An empty slice
// clears all tags.
func (r *DBSupplementRepository) SetTags(ctx context.Context, id int64, tagIDs []int64) (*Supplement, error) {
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := requireSupplement(ctx, tx, id); err != nil {
			return err
		}
		return replaceTags(ctx, tx, id, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// RatingHistory returns (date, rating) for every daily entry in which the
// supplement was taken, ascending by date. Dates are in milliseconds.
func (r *DBSupplementRepository) RatingHistory(ctx context.Context, id int64) ([]RatingPoint, error) {
	var rows []struct {
		Date   int64 `db:"date"`
		Rating int   `db:"rating"`
	}
	query := `SELECT de.date, de.rating FROM daily_entries de
		JOIN supplements_taken st ON st.entry_id = de.id
		WHERE st.supplement_id = ?
		ORDER BY de.date`
	if err := r.db.SelectContext(ctx, &rows, query, id); err != nil {
		return nil, fmt.Errorf("db.SelectContext(rating history) > %w", err)
	}

	points := make([]RatingPoint, len(rows))
	for i, row := range rows {
		points[i] = RatingPoint{Date: row.Date * 1000, Rating: row.Rating}
	}
	return points, nil
}

// requireSupplement returns a NotFoundError unless the supplement exists.
func requireSupplement(ctx context.Context, q sqlx.QueryerContext, id int64) error {
	var found int64
	err := sqlx.GetContext(ctx, q, &found, "SELECT id FROM supplements WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Resource: "supplement", ID: id}
	}
	if err != nil {
		return fmt.Errorf("db.GetContext(supplement id) > %w", err)
	}
	return nil
}

// replaceTags implements replace-all semantics for supplement_tags.
func replaceTags(ctx context.Context, tx *sqlx.Tx, supplementID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM supplement_tags WHERE supplement_id = ?", supplementID); err != nil {
		return fmt.Errorf("tx.ExecContext(delete supplement_tags) > %w", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(tagIDs))
	args := make([]interface{}, 0, len(tagIDs)*2)
	for i, tagID := range tagIDs {
		placeholders[i] = "(?, ?)"
		args = append(args, supplementID, tagID)
	}
	query := "INSERT IGNORE INTO supplement_tags (supplement_id, tag_id) VALUES " + strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("tx.ExecContext(insert supplement_tags) > %w", err)
	}
	return nil
}

// LoadTags hydrates the Tags field for all given supplements with a single
// batched query.
func LoadTags(ctx context.Context, q sqlx.ExtContext, supplements []Supplement) error {
	if len(supplements) == 0 {
		return nil
	}

	ids := make([]int64, len(supplements))
	byID := make(map[int64]*Supplement, len(supplements))
	for i := range supplements {
		ids[i] = supplements[i].ID
		byID[supplements[i].ID] = &supplements[i]
		supplements[i].Tags = []tag.Tag{}
	}

	query, args, err := sqlx.In(`SELECT st.supplement_id, t.id, t.name, t.created_at, t.updated_at
		FROM tags t
		JOIN supplement_tags st ON st.tag_id = t.id
		WHERE st.supplement_id IN (?)
		ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("sqlx.In(supplement_tags) > %w", err)
	}

	var rows []struct {
		SupplementID int64 `db:"supplement_id"`
		tag.Tag
	}
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("db.SelectContext(supplement_tags) > %w", err)
	}
	for _, row := range rows {
		s := byID[row.SupplementID]
		s.Tags = append(s.Tags, row.Tag)
	}
	return nil
}

func normalizeCreateParams(params CreateParams) (name, supplementType string, err error) {
	name = strings.TrimSpace(params.Name)
	if name == "" {
		return "", "", &domain.ValidationError{Message: "supplement name must not be empty"}
	}
	supplementType = params.Type
	if supplementType == "" {
		supplementType = TypeRegular
	}
	return name, supplementType, nil
}
