package service_test

import (
	"context"
	"errors"
	"testing"

	"focustrack/internal/domain"
	"focustrack/internal/repository/sqlite"
	"focustrack/internal/service"
)

// fakeClassifier returns a canned verdict and counts calls.
type fakeClassifier struct {
	verdict domain.Verdict
	err     error
	calls   int
}

func (f *fakeClassifier) Verify(ctx context.Context, description, imageBase64 string) (*domain.Verdict, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v := f.verdict
	return &v, nil
}

func newVerifyFixture(t *testing.T, classifier domain.Classifier) (*service.VerificationService, *sqlite.DB, *domain.User, *domain.Activity, int64) {
	t.Helper()
	recon, db, user, activity := newReconcileFixture(t)

	record, err := recon.RecordSession(context.Background(), service.RecordSessionInput{
		ActivityID:     activity.ID,
		UserID:         user.ID,
		FocusSeconds:   600,
		IdempotencyKey: "verify-fixture",
	})
	if err != nil {
		t.Fatalf("record session: %v", err)
	}

	verify := service.NewVerificationService(classifier, db.Activities(), db.History(), db.Verifications())
	return verify, db, user, activity, record.ID
}

func TestVerificationService_AttachesToNamedRecord(t *testing.T) {
	classifier := &fakeClassifier{verdict: domain.Verdict{
		Authentic: true, Matches: true, Confidence: 0.92, Verified: true, Reasoning: "plausible",
	}}
	verify, db, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	v, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "wrote the chapter", "img-data")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if !v.Verified || v.Confidence != 0.92 || v.HistoryID != historyID {
		t.Fatalf("verification = %+v", v)
	}

	got, err := db.History().GetByID(ctx, historyID)
	if err != nil {
		t.Fatalf("reload history: %v", err)
	}
	if !got.Verified || got.VerificationNote != "plausible" || got.PhotoURL != "img-data" {
		t.Fatalf("history row missing verdict: %+v", got)
	}
}

func TestVerificationService_DoesNotTouchStreak(t *testing.T) {
	classifier := &fakeClassifier{verdict: domain.Verdict{Verified: true}}
	verify, db, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	if _, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done", ""); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	count, err := db.History().CountByActivity(ctx, activity.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("verification must not add history rows, got %d", count)
	}
	// One recorded session; the verdict never bumps the streak past that.
	updated, err := db.Activities().GetByID(ctx, activity.ID)
	if err != nil {
		t.Fatalf("reload activity: %v", err)
	}
	if updated.StreakCount != 1 {
		t.Fatalf("streak count = %d, want 1", updated.StreakCount)
	}
}

func TestVerificationService_RepeatAttachIsIdempotent(t *testing.T) {
	classifier := &fakeClassifier{verdict: domain.Verdict{Verified: true, Confidence: 0.8}}
	verify, _, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	first, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done", "")
	if err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	second, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done again", "")
	if err != nil {
		t.Fatalf("second Attach: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat attach created a new verification: %d != %d", second.ID, first.ID)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", classifier.calls)
	}
}

func TestVerificationService_NegativeVerdictIsNotRerun(t *testing.T) {
	classifier := &fakeClassifier{verdict: domain.Verdict{
		Verified: false, Confidence: 0.2, Reasoning: "no evidence",
	}}
	verify, db, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	first, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done", "")
	if err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if first.Verified {
		t.Fatalf("verification = %+v, want a negative verdict", first)
	}

	// A failed verdict is still a verdict: resubmitting returns it instead
	// of consulting the classifier again.
	second, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done again", "")
	if err != nil {
		t.Fatalf("second Attach: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmit created a new verification: %d != %d", second.ID, first.ID)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier calls = %d, want 1", classifier.calls)
	}

	got, err := db.History().GetByID(ctx, historyID)
	if err != nil {
		t.Fatalf("reload history: %v", err)
	}
	if got.Verified {
		t.Fatal("record marked verified despite the negative verdict")
	}
}

func TestVerificationService_ClassifierDown(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("upstream 503")}
	verify, db, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	_, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "done", "")
	if !errors.Is(err, domain.ErrClassifierUnavailable) {
		t.Fatalf("expected ErrClassifierUnavailable, got %v", err)
	}

	// A failed classification leaves the record untouched.
	got, _ := db.History().GetByID(ctx, historyID)
	if got.Verified {
		t.Fatal("record marked verified despite classifier failure")
	}
}

func TestVerificationService_Validation(t *testing.T) {
	classifier := &fakeClassifier{verdict: domain.Verdict{Verified: true}}
	verify, _, user, activity, historyID := newVerifyFixture(t, classifier)
	ctx := context.Background()

	if _, err := verify.Attach(ctx, activity.ID, user.ID, historyID, "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty description: expected ErrInvalidInput, got %v", err)
	}
	if _, err := verify.Attach(ctx, activity.ID, user.ID+1, historyID, "done", ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign user: expected ErrForbidden, got %v", err)
	}
	if _, err := verify.Attach(ctx, activity.ID, user.ID, 9999, "done", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown history id: expected ErrNotFound, got %v", err)
	}
}
