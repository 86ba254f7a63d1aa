// Package history persists polled readings and alarm log entries to SQLite.
//
// The telemetry poller records every decoded signal reading and every new
// alarm here, alongside the optional time-series sinks. Unlike InfluxDB or
// VictoriaMetrics, the local store needs no external service, so a recent
// window of data is always queryable through the HTTP API.
//
// # Usage
//
//	store := history.NewSQLiteStore(db.DB)
//
//	err := store.RecordReading(ctx, "MB1.T1", "SIG:TEMP", 4.2, "K")
//
//	entries, err := store.Readings(ctx, "MB1.T1", "SIG:TEMP", 100)
//
// # Retention
//
// Prune removes rows older than a retention window. The daemon calls it
// periodically so the database file stays bounded.
//
// # Thread Safety
//
// All methods are safe for concurrent use. SQLite serialises writers via
// the connection pool configured in the database package.
package history
