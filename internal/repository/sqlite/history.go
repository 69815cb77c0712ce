package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focustrack/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository using SQLite. The
// break log is stored as a JSON array in a TEXT column; it is an opaque,
// append-only artifact and never queried by its contents.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new SQLite-backed HistoryRepository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db.SqlDB}
}

const historyColumns = `id, activity_id, user_id, title, description, started_at, ended_at,
	focus_seconds, total_break_time, duration_min, break_log, idempotency_key,
	photo_url, verified, verification_note, created_at`

func scanHistory(row interface{ Scan(...any) error }) (*domain.HistoryRecord, error) {
	rec := &domain.HistoryRecord{}
	var breakLog string
	err := row.Scan(&rec.ID, &rec.ActivityID, &rec.UserID, &rec.Title, &rec.Description,
		&rec.StartedAt, &rec.EndedAt, &rec.FocusSeconds, &rec.TotalBreakTime,
		&rec.DurationMin, &breakLog, &rec.IdempotencyKey,
		&rec.PhotoURL, &rec.Verified, &rec.VerificationNote, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(breakLog), &rec.BreakLog); err != nil {
		return nil, fmt.Errorf("decode break log: %w", err)
	}
	return rec, nil
}

func (r *HistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	breakLog, err := json.Marshal(record.BreakLog)
	if err != nil {
		return fmt.Errorf("encode break log: %w", err)
	}
	if record.BreakLog == nil {
		breakLog = []byte("[]")
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO history (activity_id, user_id, title, description, started_at, ended_at,
		 focus_seconds, total_break_time, duration_min, break_log, idempotency_key,
		 photo_url, verified, verification_note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ActivityID, record.UserID, record.Title, record.Description,
		record.StartedAt, record.EndedAt, record.FocusSeconds, record.TotalBreakTime,
		record.DurationMin, string(breakLog), record.IdempotencyKey,
		record.PhotoURL, record.Verified, record.VerificationNote, now,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	return nil
}

func (r *HistoryRepository) GetByID(ctx context.Context, id int64) (*domain.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE id = ?`, id)
	record, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query history by id: %w", err)
	}
	return record, nil
}

func (r *HistoryRepository) GetByIdempotencyKey(ctx context.Context, activityID int64, key string) (*domain.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE activity_id = ? AND idempotency_key = ?`,
		activityID, key)
	record, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query history by idempotency key: %w", err)
	}
	return record, nil
}

// GetLatestOpen returns the newest history row for the activity that has no
// end time yet.
func (r *HistoryRepository) GetLatestOpen(ctx context.Context, activityID int64) (*domain.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history
		 WHERE activity_id = ? AND ended_at IS NULL
		 ORDER BY started_at DESC, id DESC LIMIT 1`, activityID)
	record, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query latest open session: %w", err)
	}
	return record, nil
}

func (r *HistoryRepository) ListByActivity(ctx context.Context, activityID int64) ([]domain.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history
		 WHERE activity_id = ? ORDER BY started_at DESC, id DESC`, activityID)
	if err != nil {
		return nil, fmt.Errorf("query history by activity: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (r *HistoryRepository) CountByActivity(ctx context.Context, activityID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE activity_id = ?`, activityID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}

func (r *HistoryRepository) Update(ctx context.Context, record *domain.HistoryRecord) error {
	breakLog, err := json.Marshal(record.BreakLog)
	if err != nil {
		return fmt.Errorf("encode break log: %w", err)
	}
	if record.BreakLog == nil {
		breakLog = []byte("[]")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE history SET title = ?, description = ?, started_at = ?, ended_at = ?,
		 focus_seconds = ?, total_break_time = ?, duration_min = ?, break_log = ?,
		 idempotency_key = ?
		 WHERE id = ?`,
		record.Title, record.Description, record.StartedAt, record.EndedAt,
		record.FocusSeconds, record.TotalBreakTime, record.DurationMin, string(breakLog),
		record.IdempotencyKey, record.ID,
	)
	if err != nil {
		return fmt.Errorf("update history record: %w", err)
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

// SetVerification stamps the verification outcome onto the record. It is
// the only write path for the verification columns.
func (r *HistoryRepository) SetVerification(ctx context.Context, id int64, photoURL string, verified bool, note string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE history SET photo_url = ?, verified = ?, verification_note = ? WHERE id = ?`,
		photoURL, verified, note, id,
	)
	if err != nil {
		return fmt.Errorf("set verification: %w", err)
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
