package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"focustrack/internal/domain"
)

// ActivityRepository implements domain.ActivityRepository using SQLite.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new SQLite-backed ActivityRepository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db.SqlDB}
}

const activityColumns = `id, user_id, title, total_time, break_minutes, break_time, break_count, streak_count, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (*domain.Activity, error) {
	a := &domain.Activity{}
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.TotalTime, &a.BreakMinutes,
		&a.BreakTime, &a.BreakCount, &a.StreakCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (user_id, title, total_time, break_minutes, break_time, break_count, streak_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.UserID, activity.Title, activity.TotalTime, activity.BreakMinutes,
		activity.BreakTime, activity.BreakCount, activity.StreakCount, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	activity.ID = id
	activity.CreatedAt = now
	activity.UpdatedAt = now
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query activity by id: %w", err)
	}
	return activity, nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query activities by user: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}
	return activities, rows.Err()
}

// Update applies the non-nil fields of the partial update. The planned
// total_time column has no corresponding update field and is never touched
// here.
func (r *ActivityRepository) Update(ctx context.Context, id int64, update domain.ActivityUpdate) error {
	var sets []string
	var args []any

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.BreakMinutes != nil {
		sets = append(sets, "break_minutes = ?")
		args = append(args, *update.BreakMinutes)
	}
	if update.BreakTime != nil {
		sets = append(sets, "break_time = ?")
		args = append(args, *update.BreakTime)
	}
	if update.BreakCount != nil {
		sets = append(sets, "break_count = ?")
		args = append(args, *update.BreakCount)
	}
	if update.StreakCount != nil {
		sets = append(sets, "streak_count = ?")
		args = append(args, *update.StreakCount)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE activities SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ActivityRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
