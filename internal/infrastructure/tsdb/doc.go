// Package tsdb provides VictoriaMetrics connectivity for the cryo-core daemon.
//
// It writes using InfluxDB line protocol over HTTP and queries using PromQL.
// Zero external dependencies — uses only net/http.
//
// # Purpose
//
// This package is an alternative readings sink to the influxdb package,
// for labs that run VictoriaMetrics instead of (or alongside) InfluxDB:
//   - Polled instrument signal readings (temperature, heater output, gas flow)
//   - Alarm log entries
//   - Daemon self-monitoring points
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Enabled:       true,
//	    URL:           "http://localhost:8428",
//	    BatchSize:     1000,
//	    FlushInterval: 1,
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write a signal reading
//	client.WriteReading("MB1.T1", "SIG:TEMP", 4.2, "K")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are batched internally and flushed on size threshold or timer.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// Batch flush is a single HTTP POST with newline-delimited line protocol.
// VictoriaMetrics processes these with minimal overhead.
package tsdb
