package supplement

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/doselog/internal/database"
	"github.com/at-ishikawa/doselog/internal/statistics"
)

// ratingAggregate holds the partitioned rating means for one supplement as
// returned by the aggregate query. A NULL mean marks an empty population.
type ratingAggregate struct {
	SupplementID int64           `db:"supplement_id"`
	AvgWith      sql.NullFloat64 `db:"avg_with"`
	AvgWithout   sql.NullFloat64 `db:"avg_without"`
}

// recomputeQuery partitions every daily entry's rating by whether each
// supplement was taken that day. The LEFT JOIN against daily_entries keeps a
// group per supplement even when no entries exist, so stale cached values
// are overwritten with NULLs instead of being skipped.
const recomputeQuery = `SELECT s.id AS supplement_id,
	AVG(CASE WHEN st.entry_id IS NOT NULL THEN de.rating END) AS avg_with,
	AVG(CASE WHEN st.entry_id IS NULL THEN de.rating END) AS avg_without
	FROM supplements s
	LEFT JOIN daily_entries de ON 1 = 1
	LEFT JOIN supplements_taken st ON st.entry_id = de.id AND st.supplement_id = s.id
	WHERE s.id IN (?)
	GROUP BY s.id`

// RecomputeRatingsTx recomputes the cached average_rating and
// rating_difference columns for the given supplement ids on the caller's
// transaction or connection. Callers mutating entry associations must pass
// the union of the ids associated before and after the change.
func RecomputeRatingsTx(ctx context.Context, q sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(recomputeQuery, ids)
	if err != nil {
		return fmt.Errorf("sqlx.In(recompute ratings) > %w", err)
	}
	var aggregates []ratingAggregate
	if err := sqlx.SelectContext(ctx, q, &aggregates, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("db.SelectContext(recompute ratings) > %w", err)
	}

	for _, aggregate := range aggregates {
		var avgWith, avgWithout *float64
		if aggregate.AvgWith.Valid {
			avgWith = &aggregate.AvgWith.Float64
		}
		if aggregate.AvgWithout.Valid {
			avgWithout = &aggregate.AvgWithout.Float64
		}
		cached := statistics.Compute(avgWith, avgWithout)

		if _, err := q.ExecContext(ctx,
			"UPDATE supplements SET average_rating = ?, rating_difference = ? WHERE id = ?",
			cached.AverageRating, cached.RatingDifference, aggregate.SupplementID); err != nil {
			return fmt.Errorf("db.ExecContext(update supplement ratings) > %w", err)
		}
	}
	return nil
}

// RecomputeRatings recomputes cached statistics for ids in its own
// transaction.
func (r *DBSupplementRepository) RecomputeRatings(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return RecomputeRatingsTx(ctx, tx, ids)
	})
}
