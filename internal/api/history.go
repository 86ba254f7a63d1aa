package api

import (
	"net/http"
	"strconv"
	"time"
)

// historyLimitCap bounds how many history rows one request may fetch.
const historyLimitCap = 200

// parseHistoryLimit reads the ?limit query parameter. Zero means "use the
// store default"; anything non-numeric, negative, or above the cap is a
// client error.
func parseHistoryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > historyLimitCap {
		return 0, &Error{
			Status:  http.StatusBadRequest,
			Code:    ErrCodeBadRequest,
			Message: "limit must be an integer between 1 and " + strconv.Itoa(historyLimitCap),
		}
	}
	return limit, nil
}

// requireStore writes a 503 and returns false when the daemon is running
// without a local history database.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable,
			"history store is not configured")
		return false
	}
	return true
}

// handleModuleReadings returns recent stored readings for one module,
// newest first. The optional ?signal parameter narrows to one signal.
// GET /api/v1/modules/{uid}/readings
func (s *Server) handleModuleReadings(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	limit, err := parseHistoryLimit(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	signal := r.URL.Query().Get("signal")

	readings, err := s.store.Readings(r.Context(), module.UID(), signal, limit)
	if err != nil {
		s.logger.Error("reading history query failed", "uid", module.UID(), "error", err)
		writeInternalError(w, "failed to query reading history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":      module.UID(),
		"readings": readings,
		"count":    len(readings),
	})
}

// Defaults for the reading series endpoint.
const (
	seriesWindowDefault = time.Hour
	seriesStepDefault   = time.Minute
)

// parseDurationParam reads an optional positive duration query parameter.
func parseDurationParam(r *http.Request, name string, def time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, &Error{
			Status:  http.StatusBadRequest,
			Code:    ErrCodeBadRequest,
			Message: name + " must be a positive duration such as 30m",
		}
	}
	return d, nil
}

// handleReadingSeries returns a downsampled series for one module signal
// from the time-series store, averaged per step over the requested
// window. Unlike the readings endpoint this covers arbitrary spans, not
// just the most recent rows.
// GET /api/v1/modules/{uid}/readings/series?signal=SIG:TEMP&window=1h&step=1m
func (s *Server) handleReadingSeries(w http.ResponseWriter, r *http.Request) {
	if s.tsdb == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable,
			"time-series store is not configured")
		return
	}
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	signal := r.URL.Query().Get("signal")
	if signal == "" {
		writeBadRequest(w, "signal query parameter is required")
		return
	}
	window, err := parseDurationParam(r, "window", seriesWindowDefault)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	step, err := parseDurationParam(r, "step", seriesStepDefault)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	end := time.Now()
	series, err := s.tsdb.ReadingSeries(r.Context(), module.UID(), signal, end.Add(-window), end, step)
	if err != nil {
		s.logger.Error("reading series query failed", "uid", module.UID(), "signal", signal, "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeInternal, "time-series query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":    module.UID(),
		"signal": signal,
		"window": window.String(),
		"step":   step.String(),
		"series": series,
	})
}

// handleLiveAlarms returns the instrument's current alarm register.
// GET /api/v1/alarms
func (s *Server) handleLiveAlarms(w http.ResponseWriter, _ *http.Request) {
	alarms, err := s.driver.Alarms()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alarms": alarms,
		"count":  len(alarms),
	})
}

// handleAlarmHistory returns stored alarm transitions, newest first. The
// optional ?module parameter narrows to one module UID.
// GET /api/v1/alarms/history
func (s *Server) handleAlarmHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	limit, err := parseHistoryLimit(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	uid := r.URL.Query().Get("module")

	alarms, err := s.store.Alarms(r.Context(), uid, limit)
	if err != nil {
		s.logger.Error("alarm history query failed", "module", uid, "error", err)
		writeInternalError(w, "failed to query alarm history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alarms": alarms,
		"count":  len(alarms),
	})
}
