// Package entry provides the daily journal entry domain model and the
// repository owning the one-entry-per-calendar-day upsert invariant.
package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/doselog/internal/database"
	"github.com/at-ishikawa/doselog/internal/domain"
	"github.com/at-ishikawa/doselog/internal/supplement"
	"github.com/at-ishikawa/doselog/internal/tag"
)

// Entry represents one calendar day's journal record. Date is exposed in
// milliseconds since epoch; the storage form is seconds at UTC midnight.
type Entry struct {
	ID          int64                   `db:"id" json:"id"`
	Date        int64                   `db:"date" json:"date"`
	Rating      int                     `db:"rating" json:"rating"`
	Notes       *string                 `db:"notes" json:"notes"`
	CreatedAt   time.Time               `db:"created_at" json:"-"`
	UpdatedAt   time.Time               `db:"updated_at" json:"-"`
	Supplements []supplement.Supplement `db:"-" json:"supplements"`
}

// UpsertParams holds the full payload for the day-keyed upsert.
type UpsertParams struct {
	DateMillis    int64
	Rating        int
	Notes         string
	SupplementIDs []int64
}

// UpdateParams holds a partial update. Nil fields are left unchanged. A
// non-nil SupplementIDs fully replaces the entry's association set; an
// empty slice leaves the entry with zero supplements.
type UpdateParams struct {
	Rating        *int
	Notes         *string
	SupplementIDs []int64
}

//go:generate mockgen -source=repository.go -destination=../mocks/entry/mock_repository.go -package=mock_entry EntryRepository

// EntryRepository defines operations for managing daily entries.
type EntryRepository interface {
	FindAll(ctx context.Context) ([]Entry, error)
	FindByID(ctx context.Context, id int64) (*Entry, error)
	Upsert(ctx context.Context, params UpsertParams) (*Entry, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Entry, error)
	Delete(ctx context.Context, id int64) error
}

// DBEntryRepository implements EntryRepository using MySQL.
type DBEntryRepository struct {
	db *sqlx.DB
}

// NewDBEntryRepository creates a new DBEntryRepository.
func NewDBEntryRepository(db *sqlx.DB) *DBEntryRepository {
	return &DBEntryRepository{db: db}
}

// FindAll returns all entries hydrated with supplements and their tags,
// most recent first.
func (r *DBEntryRepository) FindAll(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, "SELECT * FROM daily_entries ORDER BY date DESC"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(daily_entries) > %w", err)
	}
	if err := r.loadSupplements(ctx, entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Date *= 1000
	}
	return entries, nil
}

// FindByID returns the hydrated entry, or nil if not found.
func (r *DBEntryRepository) FindByID(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := r.db.GetContext(ctx, &e, "SELECT * FROM daily_entries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(daily_entry) > %w", err)
	}

	entries := []Entry{e}
	if err := r.loadSupplements(ctx, entries); err != nil {
		return nil, err
	}
	entries[0].Date *= 1000
	return &entries[0], nil
}

// Upsert creates the entry for the calendar day of params.DateMillis, or
// updates the existing one in place: rating and notes are overwritten and
// the association set is fully replaced. Statistics are recomputed for the
// union of the supplements associated before and after the change, inside
// the same transaction.
func (r *DBEntryRepository) Upsert(ctx context.Context, params UpsertParams) (*Entry, error) {
	if err := validateRating(params.Rating); err != nil {
		return nil, err
	}
	dayStart := DayStart(params.DateMillis)

	var entryID int64
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var previousIDs []int64

		var existingID int64
		err := tx.GetContext(ctx, &existingID,
			"SELECT id FROM daily_entries WHERE date >= ? AND date < ?",
			dayStart, dayStart+SecondsPerDay)
		switch {
		case err == nil:
			entryID = existingID
			previousIDs, err = associatedSupplementIDs(ctx, tx, entryID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE daily_entries SET rating = ?, notes = ? WHERE id = ?",
				params.Rating, params.Notes, entryID); err != nil {
				return fmt.Errorf("tx.ExecContext(update daily_entry) > %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM supplements_taken WHERE entry_id = ?", entryID); err != nil {
				return fmt.Errorf("tx.ExecContext(delete supplements_taken) > %w", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				"INSERT INTO daily_entries (date, rating, notes) VALUES (?, ?, ?)",
				dayStart, params.Rating, params.Notes)
			if err != nil {
				if isDuplicateKey(err) {
					// A concurrent upsert won the race for this day.
					return &domain.ConflictError{
						Message: fmt.Sprintf("an entry for day %d was created concurrently", dayStart),
					}
				}
				return fmt.Errorf("tx.ExecContext(insert daily_entry) > %w", err)
			}
			entryID, err = result.LastInsertId()
			if err != nil {
				return fmt.Errorf("result.LastInsertId() > %w", err)
			}
		default:
			return fmt.Errorf("tx.GetContext(daily_entry by day) > %w", err)
		}

		if err := insertAssociations(ctx, tx, entryID, params.SupplementIDs); err != nil {
			return err
		}
		return supplement.RecomputeRatingsTx(ctx, tx, unionIDs(previousIDs, params.SupplementIDs))
	})
	if err != nil {
		return nil, err
	}

	e, err := r.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, &domain.NotFoundError{Resource: "daily_entry", ID: entryID}
	}
	return e, nil
}

// Update applies the provided fields to an existing entry. A non-nil
// SupplementIDs replaces the association set and triggers a statistics
// recompute over the union of the old and new supplement ids.
func (r *DBEntryRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Entry, error) {
	if params.Rating != nil {
		if err := validateRating(*params.Rating); err != nil {
			return nil, err
		}
	}

	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var found int64
		err := tx.GetContext(ctx, &found, "SELECT id FROM daily_entries WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{Resource: "daily_entry", ID: id}
		}
		if err != nil {
			return fmt.Errorf("tx.GetContext(daily_entry id) > %w", err)
		}

		assignments := make([]string, 0, 2)
		args := make([]interface{}, 0, 3)
		if params.Rating != nil {
			assignments = append(assignments, "rating = ?")
			args = append(args, *params.Rating)
		}
		if params.Notes != nil {
			assignments = append(assignments, "notes = ?")
			args = append(args, *params.Notes)
		}
		if len(assignments) > 0 {
			args = append(args, id)
			query := fmt.Sprintf("UPDATE daily_entries SET %s WHERE id = ?", strings.Join(assignments, ", "))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("tx.ExecContext(update daily_entry) > %w", err)
			}
		}

		if params.SupplementIDs == nil {
			return nil
		}
		previousIDs, err := associatedSupplementIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM supplements_taken WHERE entry_id = ?", id); err != nil {
			return fmt.Errorf("tx.ExecContext(delete supplements_taken) > %w", err)
		}
		if err := insertAssociations(ctx, tx, id, params.SupplementIDs); err != nil {
			return err
		}
		return supplement.RecomputeRatingsTx(ctx, tx, unionIDs(previousIDs, params.SupplementIDs))
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes an entry and recomputes statistics for the supplements it
// was associated with. Deleting a missing id is a no-op.
func (r *DBEntryRepository) Delete(ctx context.Context, id int64) error {
	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		previousIDs, err := associatedSupplementIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM daily_entries WHERE id = ?", id); err != nil {
			return fmt.Errorf("tx.ExecContext(delete daily_entry) > %w", err)
		}
		return supplement.RecomputeRatingsTx(ctx, tx, previousIDs)
	})
}

func validateRating(rating int) error {
	if rating < 1 || rating > 10 {
		return &domain.ValidationError{
			Message: fmt.Sprintf("rating must be between 1 and 10, got %d", rating),
		}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func associatedSupplementIDs(ctx context.Context, q sqlx.QueryerContext, entryID int64) ([]int64, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids,
		"SELECT supplement_id FROM supplements_taken WHERE entry_id = ?", entryID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(supplements_taken ids) > %w", err)
	}
	return ids, nil
}

// insertAssociations inserts the association rows, silently ignoring
// duplicate pairs.
func insertAssociations(ctx context.Context, tx *sqlx.Tx, entryID int64, supplementIDs []int64) error {
	if len(supplementIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(supplementIDs))
	args := make([]interface{}, 0, len(supplementIDs)*2)
	for i, supplementID := range supplementIDs {
		placeholders[i] = "(?, ?)"
		args = append(args, supplementID, entryID)
	}
	query := "INSERT IGNORE INTO supplements_taken (supplement_id, entry_id) VALUES " + strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("tx.ExecContext(insert supplements_taken) > %w", err)
	}
	return nil
}

func unionIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	union := make([]int64, 0, len(a)+len(b))
	for _, ids := range [][]int64{a, b} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	return union
}

// loadSupplements hydrates the Supplements field (including tags) for all
// given entries with two batched queries.
func (r *DBEntryRepository) loadSupplements(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	entryIDs := make([]int64, len(entries))
	byID := make(map[int64]*Entry, len(entries))
	for i := range entries {
		entryIDs[i] = entries[i].ID
		byID[entries[i].ID] = &entries[i]
		entries[i].Supplements = []supplement.Supplement{}
	}

	query, args, err := sqlx.In(`SELECT st.entry_id, s.*
		FROM supplements s
		JOIN supplements_taken st ON st.supplement_id = s.id
		WHERE st.entry_id IN (?)
		ORDER BY s.name`, entryIDs)
	if err != nil {
		return fmt.Errorf("sqlx.In(supplements_taken) > %w", err)
	}
	var rows []struct {
		EntryID int64 `db:"entry_id"`
		supplement.Supplement
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("db.SelectContext(entry supplements) > %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	// The same supplement can appear on many days; load each one's tags
	// once and fan them out to every occurrence.
	seen := make(map[int64]struct{}, len(rows))
	unique := make([]supplement.Supplement, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.Supplement.ID]; ok {
			continue
		}
		seen[row.Supplement.ID] = struct{}{}
		unique = append(unique, row.Supplement)
	}
	if err := supplement.LoadTags(ctx, r.db, unique); err != nil {
		return err
	}
	tagsBySupplement := make(map[int64][]tag.Tag, len(unique))
	for _, s := range unique {
		tagsBySupplement[s.ID] = s.Tags
	}

	for _, row := range rows {
		s := row.Supplement
		s.Tags = tagsBySupplement[s.ID]
		e := byID[row.EntryID]
		e.Supplements = append(e.Supplements, s)
	}
	return nil
}
