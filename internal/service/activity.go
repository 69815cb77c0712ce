package service

import (
	"context"
	"fmt"

	"focustrack/internal/domain"
)

// ActivityService handles activity configuration reads and the narrow set
// of aggregate-field writes the session paths are allowed to make.
type ActivityService struct {
	activities domain.ActivityRepository
}

// NewActivityService creates a new ActivityService.
func NewActivityService(activities domain.ActivityRepository) *ActivityService {
	return &ActivityService{activities: activities}
}

// Create validates and stores a new activity for the user.
func (s *ActivityService) Create(ctx context.Context, activity *domain.Activity) error {
	if activity.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if activity.TotalTime <= 0 {
		return fmt.Errorf("%w: total time must be positive", domain.ErrInvalidInput)
	}
	if activity.BreakMinutes < 0 || activity.BreakCount < 0 {
		return fmt.Errorf("%w: break configuration cannot be negative", domain.ErrInvalidInput)
	}
	return s.activities.Create(ctx, activity)
}

// Get returns the activity after checking ownership.
func (s *ActivityService) Get(ctx context.Context, id, userID int64) (*domain.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return activity, nil
}

// ListByUser returns all of the user's activities.
func (s *ActivityService) ListByUser(ctx context.Context, userID int64) ([]domain.Activity, error) {
	return s.activities.ListByUser(ctx, userID)
}

// Update applies a partial update to the activity's mutable fields. The
// planned total time is not among them: domain.ActivityUpdate cannot
// express it, which keeps the plan immutable across every session path.
func (s *ActivityService) Update(ctx context.Context, id, userID int64, update domain.ActivityUpdate) (*domain.Activity, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	if update.BreakCount != nil && *update.BreakCount < 0 {
		return nil, fmt.Errorf("%w: break count cannot be negative", domain.ErrInvalidInput)
	}
	if update.BreakMinutes != nil && *update.BreakMinutes < 0 {
		return nil, fmt.Errorf("%w: break minutes cannot be negative", domain.ErrInvalidInput)
	}
	if err := s.activities.Update(ctx, id, update); err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	return s.activities.GetByID(ctx, id)
}

// UpdateBreakCount is the mid-session best-effort budget sync.
func (s *ActivityService) UpdateBreakCount(ctx context.Context, id, userID int64, newCount int) error {
	_, err := s.Update(ctx, id, userID, domain.ActivityUpdate{BreakCount: &newCount})
	return err
}

// Delete removes the activity after checking ownership.
func (s *ActivityService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	return s.activities.Delete(ctx, id)
}
