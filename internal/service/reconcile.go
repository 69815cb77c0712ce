package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focustrack/internal/domain"
	"focustrack/internal/timeutil"
)

// ReconciliationService folds finished sessions into the durable ledger:
// one history record per termination, plus the owning activity's aggregate
// counters.
type ReconciliationService struct {
	activities domain.ActivityRepository
	history    domain.HistoryRepository
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(activities domain.ActivityRepository, history domain.HistoryRepository) *ReconciliationService {
	return &ReconciliationService{activities: activities, history: history}
}

// ownedActivity loads the activity and checks it belongs to the principal.
func (s *ReconciliationService) ownedActivity(ctx context.Context, activityID, userID int64) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return activity, nil
}

// StartSession opens a history row for a session that is beginning. The
// row stays open (no end time) until RecordSession or EndOpenSession
// closes it. When the caller sends a positive break budget it is written
// to the activity so other clients see the session's allowance.
func (s *ReconciliationService) StartSession(ctx context.Context, activityID, userID int64, title, description string, breakCount int) (*domain.HistoryRecord, error) {
	activity, err := s.ownedActivity(ctx, activityID, userID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = activity.Title
	}
	record := &domain.HistoryRecord{
		ActivityID:  activityID,
		UserID:      userID,
		Title:       title,
		Description: description,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.history.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create history record: %w", err)
	}

	if breakCount > 0 {
		update := domain.ActivityUpdate{BreakCount: &breakCount}
		if err := s.activities.Update(ctx, activityID, update); err != nil {
			return nil, fmt.Errorf("update break count: %w", err)
		}
	}
	return record, nil
}

// RecordSessionInput is a finished session's totals.
type RecordSessionInput struct {
	ActivityID     int64
	UserID         int64
	Title          string
	Description    string
	FocusSeconds   int
	BreakLog       []domain.BreakRecord
	IdempotencyKey string
}

// RecordSession durably records a finished or terminated session and folds
// its totals into the activity's counters:
//
//   - a session opened through StartSession is completed in place: the
//     totals land on its open row, so start plus record yields exactly one
//     history row and the row count below stays an exact session count
//   - total break time is the sum of completed break durations; skipped
//     breaks contribute nothing
//   - breakTime accumulates across sessions and is never reset
//   - streakCount is recomputed from the history row count, never
//     incremented, so a double call cannot drift it
//   - totalTime is the user's fixed plan and is never written here
//
// A repeated idempotency key returns the already-recorded row without
// writing anything. Callers that send no key get the legacy behavior: each
// call writes a row.
func (s *ReconciliationService) RecordSession(ctx context.Context, input RecordSessionInput) (*domain.HistoryRecord, error) {
	activity, err := s.ownedActivity(ctx, input.ActivityID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.FocusSeconds < 0 {
		return nil, fmt.Errorf("%w: focus seconds cannot be negative", domain.ErrInvalidInput)
	}

	if input.IdempotencyKey != "" {
		existing, err := s.history.GetByIdempotencyKey(ctx, input.ActivityID, input.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	totalBreak := 0
	for _, rec := range input.BreakLog {
		if rec.Kind == domain.BreakCompleted {
			totalBreak += rec.DurationSeconds
		}
	}

	title := input.Title
	if title == "" {
		title = activity.Title
	}
	now := time.Now().UTC()

	record, err := s.history.GetLatestOpen(ctx, input.ActivityID)
	switch {
	case err == nil:
		record.Title = title
		if input.Description != "" {
			record.Description = input.Description
		}
		record.EndedAt = &now
		record.FocusSeconds = input.FocusSeconds
		record.TotalBreakTime = totalBreak
		record.DurationMin = timeutil.SecondsToMinutes(input.FocusSeconds + totalBreak)
		record.BreakLog = input.BreakLog
		record.IdempotencyKey = input.IdempotencyKey
		if err := s.history.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("close started session: %w", err)
		}
	case errors.Is(err, domain.ErrNotFound):
		record = &domain.HistoryRecord{
			ActivityID:     input.ActivityID,
			UserID:         input.UserID,
			Title:          title,
			Description:    input.Description,
			StartedAt:      now,
			EndedAt:        &now,
			FocusSeconds:   input.FocusSeconds,
			TotalBreakTime: totalBreak,
			DurationMin:    timeutil.SecondsToMinutes(input.FocusSeconds + totalBreak),
			BreakLog:       input.BreakLog,
			IdempotencyKey: input.IdempotencyKey,
		}
		if err := s.history.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("create history record: %w", err)
		}
	default:
		return nil, fmt.Errorf("find started session: %w", err)
	}

	count, err := s.history.CountByActivity(ctx, input.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}

	breakTime := activity.BreakTime + totalBreak
	update := domain.ActivityUpdate{
		BreakTime:   &breakTime,
		StreakCount: &count,
	}
	if err := s.activities.Update(ctx, input.ActivityID, update); err != nil {
		return nil, fmt.Errorf("update activity counters: %w", err)
	}
	return record, nil
}

// EndOpenSession closes the newest open history row for the activity,
// stamping the end time and the wall-clock duration. This is the degraded
// path for sessions that never came back through the engine; it
// deliberately leaves breakTime and streakCount untouched, since no
// reconciled totals exist for them.
func (s *ReconciliationService) EndOpenSession(ctx context.Context, activityID, userID int64) (*domain.HistoryRecord, error) {
	if _, err := s.ownedActivity(ctx, activityID, userID); err != nil {
		return nil, err
	}

	record, err := s.history.GetLatestOpen(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("find open session: %w", err)
	}

	now := time.Now().UTC()
	record.EndedAt = &now
	record.DurationMin = timeutil.SecondsToMinutes(int(now.Sub(record.StartedAt).Seconds()))
	if err := s.history.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	return record, nil
}

// History returns the activity's recorded sessions, newest first.
func (s *ReconciliationService) History(ctx context.Context, activityID, userID int64) ([]domain.HistoryRecord, error) {
	if _, err := s.ownedActivity(ctx, activityID, userID); err != nil {
		return nil, err
	}
	return s.history.ListByActivity(ctx, activityID)
}
