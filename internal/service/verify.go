package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"focustrack/internal/domain"
)

// VerificationService asks the classifier for a verdict on a recorded
// session and attaches it to the session's history record.
type VerificationService struct {
	classifier    domain.Classifier
	activities    domain.ActivityRepository
	history       domain.HistoryRepository
	verifications domain.VerificationRepository
}

// NewVerificationService creates a new VerificationService.
func NewVerificationService(classifier domain.Classifier, activities domain.ActivityRepository, history domain.HistoryRepository, verifications domain.VerificationRepository) *VerificationService {
	return &VerificationService{
		classifier:    classifier,
		activities:    activities,
		history:       history,
		verifications: verifications,
	}
}

// Attach verifies a session and attaches the verdict to the exact history
// record named by the caller. The history id is required: attaching to
// "the newest row for the activity" would let a concurrent session steal
// the verdict.
//
// A record that has already been through the classifier is left untouched
// (the stored verification is returned, whichever way the verdict went),
// so repeated submissions cannot double-attach or re-run the classifier.
// The activity's counters are not written here: streakCount's single
// source of truth is the history row count maintained by reconciliation.
func (s *VerificationService) Attach(ctx context.Context, activityID, userID, historyID int64, description, imageBase64 string) (*domain.Verification, error) {
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrInvalidInput)
	}

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity.UserID != userID {
		return nil, domain.ErrForbidden
	}

	record, err := s.history.GetByID(ctx, historyID)
	if err != nil {
		return nil, fmt.Errorf("get history record: %w", err)
	}
	if record.ActivityID != activityID || record.UserID != userID {
		return nil, domain.ErrForbidden
	}

	existing, err := s.verifications.GetByHistory(ctx, historyID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing verification: %w", err)
	}

	verdict, err := s.classifier.Verify(ctx, description, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}

	resultText, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("serialize verdict: %w", err)
	}
	verification := &domain.Verification{
		ActivityID:  activityID,
		HistoryID:   historyID,
		Description: description,
		ImageURL:    imageBase64,
		Verified:    verdict.Verified,
		Confidence:  verdict.Confidence,
		ResultText:  string(resultText),
	}
	if err := s.verifications.Create(ctx, verification); err != nil {
		return nil, fmt.Errorf("create verification: %w", err)
	}

	if err := s.history.SetVerification(ctx, historyID, imageBase64, verdict.Verified, verdict.Reasoning); err != nil {
		return nil, fmt.Errorf("attach verification: %w", err)
	}
	return verification, nil
}
