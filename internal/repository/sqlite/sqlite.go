// Package sqlite provides SQLite-backed implementations of the domain
// repository interfaces using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"focustrack/internal/domain"
	"focustrack/internal/repository/sqlite/migrations"
)

// DB wraps the sql.DB connection and provides access to repositories.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for
// concurrent access.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies all pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.SqlDB.Close()
}

// Users returns the user repository.
func (d *DB) Users() domain.UserRepository { return NewUserRepository(d) }

// Activities returns the activity repository.
func (d *DB) Activities() domain.ActivityRepository { return NewActivityRepository(d) }

// History returns the session history repository.
func (d *DB) History() domain.HistoryRepository { return NewHistoryRepository(d) }

// Verifications returns the verification repository.
func (d *DB) Verifications() domain.VerificationRepository { return NewVerificationRepository(d) }

var _ domain.Database = (*DB)(nil)
