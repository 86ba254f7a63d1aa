package history

import (
	"context"
	"time"
)

// ReadingEntry represents a single recorded signal reading.
//
// Each entry stores the decoded magnitude and unit of one polled signal.
// This provides a local record even when the time-series sinks are
// unavailable.
type ReadingEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// Module is the board identifier of the module (e.g., "MB1.T1").
	Module string `json:"module"`

	// Signal is the signal token (e.g., "SIG:TEMP").
	Signal string `json:"signal"`

	// Value is the decoded numeric magnitude.
	Value float64 `json:"value"`

	// Unit is the unit text the instrument appended (e.g., "K").
	Unit string `json:"unit"`

	// RecordedAt is the timestamp of the reading (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// AlarmEntry represents a single recorded alarm log entry.
type AlarmEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// Module is the board identifier the alarm refers to.
	Module string `json:"module"`

	// Message is the alarm text reported by the instrument.
	Message string `json:"message"`

	// RecordedAt is the timestamp of the alarm observation (UTC).
	RecordedAt time.Time `json:"recorded_at"`
}

// Store persists and retrieves polled readings and alarm log entries.
//
// Implementations must be thread-safe and use UTC timestamps.
type Store interface {
	// RecordReading records one polled signal reading.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - uid: Board identifier of the module
	//   - signal: Signal token
	//   - value: Decoded numeric magnitude
	//   - unit: Unit text from the instrument
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordReading(ctx context.Context, uid, signal string, value float64, unit string) error

	// Readings returns recent readings for a module signal, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - uid: Board identifier of the module
	//   - signal: Signal token (empty matches all signals of the module)
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []ReadingEntry: Ordered newest-first entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	Readings(ctx context.Context, uid, signal string, limit int) ([]ReadingEntry, error)

	// RecordAlarm records one alarm log entry.
	RecordAlarm(ctx context.Context, uid, message string) error

	// Alarms returns recent alarm entries, newest first.
	//
	// An empty uid matches alarms from all modules.
	Alarms(ctx context.Context, uid string, limit int) ([]AlarmEntry, error)
}
