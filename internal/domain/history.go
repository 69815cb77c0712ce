package domain

import (
	"context"
	"time"
)

// Break record kinds. A break that runs to its timeout or is cut short via
// return-to-focus is "completed"; a break skipped immediately is "skipped".
const (
	BreakCompleted = "completed"
	BreakSkipped   = "skipped"
)

// BreakRecord is one entry in a session's append-only break log.
type BreakRecord struct {
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	DurationSeconds  int        `json:"duration_seconds"`
	FocusBeforeBreak int        `json:"focus_before_break"` // focus countdown snapshotted at break start
	Kind             string     `json:"kind"`
}

// HistoryRecord is the durable record of one completed or terminated
// session. It is written once by reconciliation; only verification
// attachment may later set PhotoURL, Verified and VerificationNote.
type HistoryRecord struct {
	ID               int64
	ActivityID       int64
	UserID           int64
	Title            string
	Description      string
	StartedAt        time.Time
	EndedAt          *time.Time // nil while the session is still open
	FocusSeconds     int
	TotalBreakTime   int // seconds, completed breaks only
	DurationMin      int // round((focus + break) / 60)
	BreakLog         []BreakRecord
	IdempotencyKey   string // client-supplied; empty for legacy callers
	PhotoURL         string
	Verified         bool
	VerificationNote string
	CreatedAt        time.Time
}

// HistoryRepository defines persistence operations for session history.
type HistoryRepository interface {
	Create(ctx context.Context, record *HistoryRecord) error
	GetByID(ctx context.Context, id int64) (*HistoryRecord, error)
	GetByIdempotencyKey(ctx context.Context, activityID int64, key string) (*HistoryRecord, error)
	GetLatestOpen(ctx context.Context, activityID int64) (*HistoryRecord, error)
	ListByActivity(ctx context.Context, activityID int64) ([]HistoryRecord, error)
	CountByActivity(ctx context.Context, activityID int64) (int, error)
	Update(ctx context.Context, record *HistoryRecord) error
	SetVerification(ctx context.Context, id int64, photoURL string, verified bool, note string) error
}
