package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"focustrack/internal/domain"
)

// VerificationRepository implements domain.VerificationRepository using SQLite.
type VerificationRepository struct {
	db *sql.DB
}

// NewVerificationRepository creates a new SQLite-backed VerificationRepository.
func NewVerificationRepository(db *DB) *VerificationRepository {
	return &VerificationRepository{db: db.SqlDB}
}

func (r *VerificationRepository) Create(ctx context.Context, v *domain.Verification) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO verifications (activity_id, history_id, description, image_url, verified, confidence, result_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ActivityID, v.HistoryID, v.Description, v.ImageURL, v.Verified, v.Confidence, v.ResultText, now,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	v.ID = id
	v.CreatedAt = now
	return nil
}

// GetByHistory returns the newest verification attached to the history row.
func (r *VerificationRepository) GetByHistory(ctx context.Context, historyID int64) (*domain.Verification, error) {
	v := &domain.Verification{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, activity_id, history_id, description, image_url, verified, confidence, result_text, created_at
		 FROM verifications WHERE history_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		historyID,
	).Scan(&v.ID, &v.ActivityID, &v.HistoryID, &v.Description, &v.ImageURL,
		&v.Verified, &v.Confidence, &v.ResultText, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query verification by history: %w", err)
	}
	return v, nil
}
