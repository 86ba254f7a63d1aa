package api

import (
	"encoding/json"
	"net/http"
)

// resetConfirmPhrase must be supplied verbatim in the reset request body.
// A system reset reboots the controller and drops the serial link, so an
// accidental POST should never be enough to trigger it.
const resetConfirmPhrase = "RESET CONTROLLER"

// systemResponse describes the controller board identity.
type systemResponse struct {
	SerialNumber    string  `json:"serial_number"`
	FirmwareVersion string  `json:"firmware_version"`
	HardwareVersion string  `json:"hardware_version"`
	FlashFreeKB     float64 `json:"flash_free_kb"`
	Status          string  `json:"status"`
}

// handleGetSystem returns the controller identity and link status.
// GET /api/v1/system
func (s *Server) handleGetSystem(w http.ResponseWriter, _ *http.Request) {
	serial, err := s.driver.SerialNumber()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	firmware, err := s.driver.FirmwareVersion()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	hardware, err := s.driver.HardwareVersion()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	flashFree, err := s.driver.FlashFree()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, systemResponse{
		SerialNumber:    serial,
		FirmwareVersion: firmware,
		HardwareVersion: hardware,
		FlashFreeKB:     flashFree,
		Status:          string(s.driver.Status()),
	})
}

// displayResponse describes the front-panel display settings.
type displayResponse struct {
	AutoDim    string  `json:"auto_dim"`
	DimTime    int     `json:"dim_time_s"`
	Brightness float64 `json:"brightness"`
}

// handleGetDisplay returns the front-panel display settings.
// GET /api/v1/system/display
func (s *Server) handleGetDisplay(w http.ResponseWriter, _ *http.Request) {
	autoDim, err := s.driver.AutoDim()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	dimTime, err := s.driver.DimTime()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	brightness, err := s.driver.Brightness()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, displayResponse{
		AutoDim:    autoDim,
		DimTime:    dimTime,
		Brightness: brightness,
	})
}

// updateDisplayRequest carries a partial display update. Omitted fields
// are left unchanged on the instrument.
type updateDisplayRequest struct {
	AutoDim    *string  `json:"auto_dim"`
	DimTime    *int     `json:"dim_time_s"`
	Brightness *float64 `json:"brightness"`
}

// handleUpdateDisplay applies a partial update to the display settings.
// PATCH /api/v1/system/display
func (s *Server) handleUpdateDisplay(w http.ResponseWriter, r *http.Request) {
	var req updateDisplayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.AutoDim == nil && req.DimTime == nil && req.Brightness == nil {
		writeBadRequest(w, "at least one of auto_dim, dim_time_s, brightness is required")
		return
	}

	if req.AutoDim != nil {
		if err := s.driver.SetAutoDim(*req.AutoDim); err != nil {
			writeInstrumentError(w, err)
			return
		}
	}
	if req.DimTime != nil {
		if err := s.driver.SetDimTime(*req.DimTime); err != nil {
			writeInstrumentError(w, err)
			return
		}
	}
	if req.Brightness != nil {
		if err := s.driver.SetBrightness(*req.Brightness); err != nil {
			writeInstrumentError(w, err)
			return
		}
	}

	s.handleGetDisplay(w, r)
}

// clockResponse carries the instrument's wall clock.
type clockResponse struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

// handleGetClock returns the instrument clock and calendar date.
// GET /api/v1/system/clock
func (s *Server) handleGetClock(w http.ResponseWriter, _ *http.Request) {
	clock, err := s.driver.Clock()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	date, err := s.driver.Date()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, clockResponse{Time: clock, Date: date})
}

// setClockRequest carries a clock update. Either field may be omitted.
type setClockRequest struct {
	Time *string `json:"time"` // "hh:mm:ss"
	Date *string `json:"date"` // "yyyy:mm:dd"
}

// handleSetClock sets the instrument clock and/or calendar date.
// PUT /api/v1/system/clock
func (s *Server) handleSetClock(w http.ResponseWriter, r *http.Request) {
	var req setClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Time == nil && req.Date == nil {
		writeBadRequest(w, "at least one of time, date is required")
		return
	}

	if req.Time != nil {
		if err := s.driver.SetClock(*req.Time); err != nil {
			writeInstrumentError(w, err)
			return
		}
	}
	if req.Date != nil {
		if err := s.driver.SetDate(*req.Date); err != nil {
			writeInstrumentError(w, err)
			return
		}
	}

	s.handleGetClock(w, r)
}

// resetRequest guards the system reset behind an explicit confirmation.
type resetRequest struct {
	Confirm string `json:"confirm"`
}

// handleReset issues a controller system reset.
// POST /api/v1/system/reset
//
// The body must contain {"confirm": "RESET CONTROLLER"} exactly.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Confirm != resetConfirmPhrase {
		writeBadRequest(w, "reset requires confirm: \""+resetConfirmPhrase+"\"")
		return
	}

	s.logger.Warn("system reset requested via API",
		"request_id", r.Context().Value(ctxKeyRequestID),
	)

	if err := s.driver.Reset(); err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "reset issued",
	})
}
