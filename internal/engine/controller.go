package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"focustrack/internal/domain"
)

// ActivityInfo is the activity configuration read once at session start.
type ActivityInfo struct {
	ID           int64
	Title        string
	TotalTime    int // minutes
	BreakMinutes int
	BreakCount   int
}

// RecordRequest carries a finished session's totals to reconciliation.
type RecordRequest struct {
	ActivityID     int64
	Title          string
	Description    string
	FocusSeconds   int
	UsedBreaks     int
	BreakLog       []domain.BreakRecord
	IdempotencyKey string
}

// RecordResult is reconciliation's answer: the durable history record's
// identity plus the refreshed aggregate counters.
type RecordResult struct {
	HistoryID      int64
	FocusSeconds   int
	TotalBreakTime int
	StreakCount    int
}

// Boundary is the server side of a session as the controller sees it.
type Boundary interface {
	// GetActivity reads the activity's configuration, used once at start.
	GetActivity(ctx context.Context, activityID int64) (*ActivityInfo, error)
	// StartSession opens the server-side history row for the session.
	StartSession(ctx context.Context, activityID int64, title, description string, breakCount int) (int64, error)
	// UpdateBreakCount is the best-effort mid-session break budget sync.
	UpdateBreakCount(ctx context.Context, activityID int64, newCount int) error
	// RecordSession durably records the finished session, exactly once.
	RecordSession(ctx context.Context, req RecordRequest) (*RecordResult, error)
	// EndOpenSession closes an orphaned open history row.
	EndOpenSession(ctx context.Context, activityID int64) error
	// AttachVerification asks the classifier for a verdict and attaches it
	// to the given history record.
	AttachVerification(ctx context.Context, activityID, historyID int64, description, imageBase64 string) (*domain.Verdict, error)
}

// Options tune controller behavior.
type Options struct {
	// ResumeFromSnapshot restores a crashed session's snapshot on Begin
	// instead of discarding it. Off by default: a fresh session always
	// initializes from the activity's current configuration.
	ResumeFromSnapshot bool
}

// Controller orchestrates one session's lifecycle: it locks configuration
// at start, serializes machine access, mirrors every mutation to the
// snapshot store, and talks to the boundary at the right transition points.
// The in-memory totals survive a failed RecordSession so the call can be
// retried without recomputing.
type Controller struct {
	boundary  Boundary
	snapshots *SnapshotStore
	clock     Clock
	opts      Options
	logger    *slog.Logger

	mu          sync.Mutex
	machine     *Machine
	description string
	idemKey     string
	position    Position
	historyID   int64 // open row created by StartSession
	recordedID  int64 // history row written by RecordSession
	pending     *RecordRequest
	resumed     bool
}

// NewController creates a controller over the given boundary and snapshot
// store.
func NewController(boundary Boundary, snapshots *SnapshotStore, clock Clock, opts Options) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	return &Controller{
		boundary:  boundary,
		snapshots: snapshots,
		clock:     clock,
		opts:      opts,
		logger:    slog.Default(),
	}
}

// Begin initializes a session for the activity: reads its configuration,
// locks it into a fresh machine (or restores the snapshot when resumption
// is enabled), and opens the server-side history row. A stale snapshot from
// a crashed session is purged on a fresh start.
func (c *Controller) Begin(ctx context.Context, activityID int64, description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine != nil && !c.machine.Done() {
		return fmt.Errorf("%w: a session is already live", domain.ErrInvalidTransition)
	}

	info, err := c.boundary.GetActivity(ctx, activityID)
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}

	c.description = description
	c.resumed = false

	if c.opts.ResumeFromSnapshot {
		snap, err := c.snapshots.Load(activityID)
		if err != nil {
			c.logger.Warn("load session snapshot", "activity_id", activityID, "error", err)
		} else if snap != nil {
			c.machine = NewMachineFromSnapshot(*snap, c.clock)
			c.idemKey = snap.IdempotencyKey
			c.historyID = snap.HistoryID
			c.position = snap.Position
			c.resumed = true
			return nil
		}
	}

	if err := c.snapshots.Clear(activityID); err != nil {
		c.logger.Warn("purge stale snapshot", "activity_id", activityID, "error", err)
	}

	cfg := ConfigFromMinutes(info.ID, info.Title, info.TotalTime, info.BreakMinutes, info.BreakCount)
	c.machine = NewMachine(cfg, c.clock)
	c.idemKey = uuid.New().String()
	c.recordedID = 0
	c.pending = nil

	historyID, err := c.boundary.StartSession(ctx, activityID, info.Title, description, info.BreakCount)
	if err != nil {
		// Nothing started server-side; leave the controller idle so Begin
		// can be retried.
		c.machine = nil
		c.idemKey = ""
		return fmt.Errorf("start session: %w", err)
	}
	c.historyID = historyID
	c.save()
	return nil
}

// Resumed reports whether Begin restored a snapshot instead of starting
// fresh.
func (c *Controller) Resumed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumed
}

// Start resumes the focus countdown.
func (c *Controller) Start() error { return c.mutate((*Machine).Start) }

// Pause stops the focus countdown.
func (c *Controller) Pause() error { return c.mutate((*Machine).Pause) }

// SkipBreak abandons the current break and resumes focus.
func (c *Controller) SkipBreak() error { return c.mutate((*Machine).SkipBreak) }

// PauseBreak stops the break countdown.
func (c *Controller) PauseBreak() error { return c.mutate((*Machine).PauseBreak) }

// ResumeBreak restarts a paused break.
func (c *Controller) ResumeBreak() error { return c.mutate((*Machine).ResumeBreak) }

// ReturnToFocus cuts the break short and resumes focus.
func (c *Controller) ReturnToFocus() error { return c.mutate((*Machine).ReturnToFocus) }

func (c *Controller) mutate(op func(*Machine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return fmt.Errorf("%w: no live session", domain.ErrInvalidTransition)
	}
	if err := op(c.machine); err != nil {
		return err
	}
	c.save()
	return nil
}

// TakeBreak consumes one break and fires the best-effort budget sync to the
// activity. A sync failure is logged and ignored; reconciliation at session
// end is the authoritative write.
func (c *Controller) TakeBreak(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return fmt.Errorf("%w: no live session", domain.ErrInvalidTransition)
	}
	if err := c.machine.TakeBreak(); err != nil {
		return err
	}
	c.save()

	activityID := c.machine.Config().ActivityID
	newCount := c.machine.Config().BreakBudget - c.machine.UsedBreaks()
	go func() {
		if err := c.boundary.UpdateBreakCount(context.WithoutCancel(ctx), activityID, newCount); err != nil {
			c.logger.Warn("sync break count", "activity_id", activityID, "error", err)
		}
	}()
	return nil
}

// Tick advances the live countdown by one second. When the focus budget
// runs out it reconciles the completed session before returning.
func (c *Controller) Tick(ctx context.Context) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil || c.machine.Done() {
		return EventNone, nil
	}
	ev := c.machine.Tick()
	c.save()
	if ev == EventCompleted {
		return ev, c.reconcile(ctx)
	}
	return ev, nil
}

// End terminates the session early and reconciles it.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return fmt.Errorf("%w: no live session", domain.ErrInvalidTransition)
	}
	if _, err := c.machine.End(); err != nil {
		return err
	}
	return c.reconcile(ctx)
}

// Retry re-attempts a reconciliation that failed after the session reached
// its terminal state. The already-computed totals are reused as-is.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return fmt.Errorf("%w: nothing to retry", domain.ErrInvalidTransition)
	}
	return c.reconcile(ctx)
}

// reconcile sends the terminal machine's totals to RecordSession. The
// snapshot is cleared only after the record is durably written; on failure
// the request is kept for Retry. Callers hold c.mu.
func (c *Controller) reconcile(ctx context.Context) error {
	if c.pending == nil {
		res := c.machine.Result()
		cfg := c.machine.Config()
		c.pending = &RecordRequest{
			ActivityID:     cfg.ActivityID,
			Title:          cfg.Title,
			Description:    c.description,
			FocusSeconds:   res.FocusSeconds,
			UsedBreaks:     res.UsedBreaks,
			BreakLog:       res.BreakLog,
			IdempotencyKey: c.idemKey,
		}
	}

	result, err := c.boundary.RecordSession(ctx, *c.pending)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	c.recordedID = result.HistoryID
	c.pending = nil
	if err := c.snapshots.Clear(c.machine.Config().ActivityID); err != nil {
		c.logger.Warn("clear session snapshot", "error", err)
	}
	return nil
}

// Verify submits a verification for the recorded session. It carries the
// exact history id RecordSession returned, so a concurrent session on the
// same activity can never receive this session's verdict.
func (c *Controller) Verify(ctx context.Context, description, imageBase64 string) (*domain.Verdict, error) {
	c.mu.Lock()
	activityID := int64(0)
	if c.machine != nil {
		activityID = c.machine.Config().ActivityID
	}
	historyID := c.recordedID
	c.mu.Unlock()

	if historyID == 0 {
		return nil, fmt.Errorf("%w: session not yet recorded", domain.ErrInvalidTransition)
	}
	return c.boundary.AttachVerification(ctx, activityID, historyID, description, imageBase64)
}

// SetPosition records the widget position mirrored into the snapshot.
func (c *Controller) SetPosition(pos Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = pos
	if c.machine != nil && !c.machine.Done() {
		c.save()
	}
}

// State returns a point-in-time view of the live session for rendering.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machine == nil {
		return Snapshot{}
	}
	return c.snapshotLocked()
}

// RecordedHistoryID returns the history row id written by reconciliation,
// or zero while the session is live or unrecorded.
func (c *Controller) RecordedHistoryID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordedID
}

// save mirrors the machine state to the snapshot slot. Callers hold c.mu.
func (c *Controller) save() {
	if c.machine.Done() {
		return
	}
	snap := c.snapshotLocked()
	if err := c.snapshots.Save(c.machine.Config().ActivityID, snap); err != nil {
		c.logger.Warn("save session snapshot", "error", err)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := c.machine.Snapshot()
	snap.IdempotencyKey = c.idemKey
	snap.HistoryID = c.historyID
	snap.Position = c.position
	return snap
}
