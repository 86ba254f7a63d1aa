// Package influxdb provides InfluxDB connectivity for the cryo-core daemon.
//
// It wraps the official influxdb-client-go v2 library with cryo-core-specific
// patterns for connection management, reading writes, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Polled instrument signal readings (temperature, heater output, gas flow)
//   - Alarm log entries
//   - Daemon self-monitoring points
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "lab",
//	    Bucket: "cryostat",
//	}
//
//	client, err := influxdb.Connect(cfg)
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
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
