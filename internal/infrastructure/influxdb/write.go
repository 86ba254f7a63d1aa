package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading writes a single polled signal reading to InfluxDB.
//
// This is the primary method for recording instrument telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - uid: Board identifier of the module (e.g., "MB1.T1")
//   - signal: Signal token (e.g., "SIG:TEMP")
//   - value: The decoded numeric magnitude
//   - unit: The unit text the instrument appended (e.g., "K", "mA")
//
// Example:
//
//	client.WriteReading("MB1.T1", "SIG:TEMP", 4.2, "K")
//	client.WriteReading("MB0.H1", "SIG:VOLT", 2.5, "V")
func (c *Client) WriteReading(uid string, signal string, value float64, unit string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"readings",
		map[string]string{
			"module": uid,
			"signal": signal,
			"unit":   unit,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAlarm records one alarm log entry.
//
// Alarms are written as events with the message in a field so that high
// message cardinality does not blow up the tag index.
//
// Parameters:
//   - uid: Board identifier the alarm refers to
//   - message: The alarm text reported by the instrument
func (c *Client) WriteAlarm(uid string, message string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"alarms",
		map[string]string{
			"module": uid,
		},
		map[string]interface{}{
			"message": message,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("daemon_stats",
//	    map[string]string{"host": "cryo-01"},
//	    map[string]interface{}{"poll_ms": 45.2, "cache_entries": 12})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
