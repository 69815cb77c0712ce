package domain

import (
	"context"
	"time"
)

// Activity is a user-configured streak activity: a fixed focus plan plus a
// per-session break allowance. TotalTime is the user's plan in minutes and
// is never written by session reconciliation; BreakTime, BreakCount and
// StreakCount are the aggregate counters sessions fold into.
type Activity struct {
	ID           int64
	UserID       int64
	Title        string
	TotalTime    int // planned focus duration in minutes, immutable once sessions run
	BreakMinutes int // duration of a single break in minutes
	BreakTime    int // cumulative break seconds across all recorded sessions
	BreakCount   int // remaining break budget, best-effort synced mid-session
	StreakCount  int // number of recorded history rows
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActivityUpdate carries the mutable aggregate fields for a partial update.
// Nil fields are left untouched. TotalTime is deliberately absent: the plan
// is only editable through the activity editor, never through session paths.
type ActivityUpdate struct {
	Title        *string
	BreakMinutes *int
	BreakTime    *int
	BreakCount   *int
	StreakCount  *int
}

// ActivityRepository defines persistence operations for activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	GetByID(ctx context.Context, id int64) (*Activity, error)
	ListByUser(ctx context.Context, userID int64) ([]Activity, error)
	Update(ctx context.Context, id int64, update ActivityUpdate) error
	Delete(ctx context.Context, id int64) error
}
