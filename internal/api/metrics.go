package api

import (
	"net/http"
	"runtime"
	"time"
)

// metricsResponse is a point-in-time snapshot of daemon internals for
// dashboards and debugging. It is deliberately plain JSON rather than a
// metrics exposition format; the time-series sinks carry the trend data.
type metricsResponse struct {
	Version    string            `json:"version"`
	UptimeS    int64             `json:"uptime_s"`
	Runtime    runtimeMetrics    `json:"runtime"`
	Instrument instrumentMetrics `json:"instrument"`
	MQTT       *linkMetrics      `json:"mqtt,omitempty"`
	Database   *databaseMetrics  `json:"database,omitempty"`
}

type runtimeMetrics struct {
	Goroutines  int    `json:"goroutines"`
	HeapAllocKB uint64 `json:"heap_alloc_kb"`
	HeapSysKB   uint64 `json:"heap_sys_kb"`
	NumGC       uint32 `json:"num_gc"`
	GoVersion   string `json:"go_version"`
}

type instrumentMetrics struct {
	Status      string `json:"status"`
	ModuleCount int    `json:"module_count"`
}

type linkMetrics struct {
	Connected bool `json:"connected"`
}

type databaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns a snapshot of daemon internals.
// GET /api/v1/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := metricsResponse{
		Version: s.version,
		UptimeS: int64(time.Since(s.startTime).Seconds()),
		Runtime: runtimeMetrics{
			Goroutines:  runtime.NumGoroutine(),
			HeapAllocKB: mem.HeapAlloc / 1024,
			HeapSysKB:   mem.HeapSys / 1024,
			NumGC:       mem.NumGC,
			GoVersion:   runtime.Version(),
		},
		Instrument: instrumentMetrics{
			Status:      string(s.driver.Status()),
			ModuleCount: len(s.driver.Modules()),
		},
	}

	if s.mqtt != nil {
		resp.MQTT = &linkMetrics{Connected: s.mqtt.IsConnected()}
	}
	if s.db != nil {
		stats := s.db.Stats()
		resp.Database = &databaseMetrics{
			OpenConnections: stats.OpenConnections,
			InUse:           stats.InUse,
			WaitCount:       stats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
