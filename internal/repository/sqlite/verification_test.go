package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"focustrack/internal/domain"
	"focustrack/internal/repository/sqlite"
)

func TestVerificationRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, "v@example.com")
	activity := newTestActivity(t, db, user.ID)
	historyRepo := sqlite.NewHistoryRepository(db)
	repo := sqlite.NewVerificationRepository(db)
	ctx := context.Background()

	record := &domain.HistoryRecord{
		ActivityID: activity.ID, UserID: user.ID, Title: activity.Title,
		StartedAt: time.Now().UTC(),
	}
	if err := historyRepo.Create(ctx, record); err != nil {
		t.Fatalf("create history: %v", err)
	}

	v := &domain.Verification{
		ActivityID:  activity.ID,
		HistoryID:   record.ID,
		Description: "wrote the chapter",
		Verified:    true,
		Confidence:  0.87,
		ResultText:  `{"verified":true}`,
	}
	if err := repo.Create(ctx, v); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.ID == 0 {
		t.Fatal("expected verification ID to be set")
	}

	got, err := repo.GetByHistory(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByHistory: %v", err)
	}
	if got.ID != v.ID || !got.Verified || got.Confidence != 0.87 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	if _, err := repo.GetByHistory(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
