package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// SQLiteStore implements Store using SQLite.
//
// It writes to the readings and alarms tables created by the initial
// schema migration.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite history store.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteStore: Store instance ready for use
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// RecordReading inserts a new reading row.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - uid: Board identifier of the module
//   - signal: Signal token
//   - value: Decoded numeric magnitude
//   - unit: Unit text from the instrument
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (s *SQLiteStore) RecordReading(ctx context.Context, uid, signal string, value float64, unit string) error {
	if uid == "" {
		return fmt.Errorf("module uid is required")
	}
	if signal == "" {
		return fmt.Errorf("signal is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO readings (module, signal, value, unit, recorded_at) VALUES (?, ?, ?, ?, ?)",
		uid,
		signal,
		value,
		unit,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	return nil
}

// Readings returns recent readings for a module, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - uid: Board identifier of the module
//   - signal: Signal token (empty matches all signals of the module)
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []ReadingEntry: Entries ordered by recorded_at DESC
//   - error: nil on success, otherwise the underlying query error
func (s *SQLiteStore) Readings(ctx context.Context, uid, signal string, limit int) ([]ReadingEntry, error) {
	if uid == "" {
		return nil, fmt.Errorf("module uid is required")
	}
	limit = clampLimit(limit)

	query := `SELECT id, module, signal, value, unit, recorded_at
		 FROM readings
		 WHERE module = ?`
	args := []interface{}{uid}
	if signal != "" {
		query += " AND signal = ?"
		args = append(args, signal)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	entries := make([]ReadingEntry, 0, limit)
	for rows.Next() {
		var entry ReadingEntry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.Module, &entry.Signal, &entry.Value, &entry.Unit, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}

		timestamp, err := parseTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}

	return entries, nil
}

// RecordAlarm inserts a new alarm row.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - uid: Board identifier the alarm refers to
//   - message: Alarm text reported by the instrument
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (s *SQLiteStore) RecordAlarm(ctx context.Context, uid, message string) error {
	if uid == "" {
		return fmt.Errorf("module uid is required")
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO alarms (module, message, recorded_at) VALUES (?, ?, ?)",
		uid,
		message,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting alarm: %w", err)
	}

	return nil
}

// Alarms returns recent alarm entries, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - uid: Board identifier (empty matches all modules)
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []AlarmEntry: Entries ordered by recorded_at DESC
//   - error: nil on success, otherwise the underlying query error
func (s *SQLiteStore) Alarms(ctx context.Context, uid string, limit int) ([]AlarmEntry, error) {
	limit = clampLimit(limit)

	query := "SELECT id, module, message, recorded_at FROM alarms"
	args := []interface{}{}
	if uid != "" {
		query += " WHERE module = ?"
		args = append(args, uid)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alarms: %w", err)
	}
	defer rows.Close()

	entries := make([]AlarmEntry, 0, limit)
	for rows.Next() {
		var entry AlarmEntry
		var recordedAt string

		if err := rows.Scan(&entry.ID, &entry.Module, &entry.Message, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning alarm: %w", err)
		}

		timestamp, err := parseTimestamp(recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = timestamp

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alarms: %w", err)
	}

	return entries, nil
}

// Prune deletes readings and alarms older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (rows older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted across both tables
//   - error: nil on success, otherwise the underlying database error
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)

	var total int64
	for _, table := range []string{"readings", "alarms"} {
		result, err := s.db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE recorded_at < ?", table),
			cutoff,
		)
		if err != nil {
			return total, fmt.Errorf("pruning %s: %w", table, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("checking rows affected: %w", err)
		}
		total += rowsAffected
	}

	return total, nil
}

// clampLimit applies the default and maximum history limits.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("recorded_at is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing recorded_at: %w", err)
	}
	return timestamp, nil
}
