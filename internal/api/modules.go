package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kelvinworks/cryo-core/internal/itc"
)

// moduleSummary is the list-view representation of a module.
type moduleSummary struct {
	UID     string `json:"uid"`
	Class   string `json:"class"`
	Address string `json:"address"`
	Nick    string `json:"nick,omitempty"`
}

// moduleDetail is the full identity of one module.
type moduleDetail struct {
	moduleSummary
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	HardwareVersion string `json:"hardware_version"`
}

// lookupModule resolves the {uid} route parameter to a discovered module,
// writing a 404 and returning false when the UID is unknown.
func (s *Server) lookupModule(w http.ResponseWriter, r *http.Request) (itc.Module, bool) {
	uid := chi.URLParam(r, "uid")
	module, ok := s.driver.ModuleByUID(uid)
	if !ok {
		writeNotFound(w, "no module with uid "+uid)
		return nil, false
	}
	return module, true
}

// handleListModules returns a summary of every discovered module.
// GET /api/v1/modules
func (s *Server) handleListModules(w http.ResponseWriter, _ *http.Request) {
	modules := s.driver.Modules()
	summaries := make([]moduleSummary, 0, len(modules))
	for _, m := range modules {
		// Nicknames are cosmetic; a failed read should not break the list.
		nick, err := m.Nick()
		if err != nil {
			nick = ""
		}
		summaries = append(summaries, moduleSummary{
			UID:     m.UID(),
			Class:   string(m.Class()),
			Address: m.Address(),
			Nick:    nick,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"modules": summaries,
		"count":   len(summaries),
	})
}

// handleGetModule returns the full identity of one module.
// GET /api/v1/modules/{uid}
func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	nick, err := module.Nick()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	serial, err := module.SerialNumber()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	firmware, err := module.FirmwareVersion()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}
	hardware, err := module.HardwareVersion()
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, moduleDetail{
		moduleSummary: moduleSummary{
			UID:     module.UID(),
			Class:   string(module.Class()),
			Address: module.Address(),
			Nick:    nick,
		},
		SerialNumber:    serial,
		FirmwareVersion: firmware,
		HardwareVersion: hardware,
	})
}

// handleListAttributes returns the attribute contracts of one module.
// GET /api/v1/modules/{uid}/attributes
func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	attributes := module.Attributes()
	writeJSON(w, http.StatusOK, map[string]any{
		"uid":        module.UID(),
		"attributes": attributes,
		"count":      len(attributes),
	})
}

// attributeValueResponse carries one attribute's raw wire value.
type attributeValueResponse struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
	Value string `json:"value"`
}

// handleReadAttribute reads one attribute by protocol token.
// GET /api/v1/modules/{uid}/attributes/{token}
func (s *Server) handleReadAttribute(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	token := chi.URLParam(r, "token")
	value, err := module.ReadAttribute(token)
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attributeValueResponse{
		UID:   module.UID(),
		Token: token,
		Value: value,
	})
}

// writeAttributeRequest carries the new value for a writable attribute.
type writeAttributeRequest struct {
	Value string `json:"value"`
}

// handleWriteAttribute writes one attribute by protocol token. The value
// is validated against the attribute's contract before it is sent, so
// out-of-range or off-list values never reach the instrument.
// PUT /api/v1/modules/{uid}/attributes/{token}
func (s *Server) handleWriteAttribute(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	var req writeAttributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	token := chi.URLParam(r, "token")
	if err := module.WriteAttribute(token, req.Value); err != nil {
		writeInstrumentError(w, err)
		return
	}

	// Return the device-confirmed value rather than echoing the request.
	value, err := module.ReadAttribute(token)
	if err != nil {
		writeInstrumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, attributeValueResponse{
		UID:   module.UID(),
		Token: token,
		Value: value,
	})
}

// handleModuleSignals reads every live signal of one module and returns
// them keyed by signal token. Signals that fail to read are reported in a
// separate errors map rather than failing the whole snapshot; the heater
// power N/A sentinel is omitted entirely.
// GET /api/v1/modules/{uid}/signals
func (s *Server) handleModuleSignals(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	signals := make(map[string]itc.Reading)
	failures := make(map[string]string)

	read := func(token string, fn func() (itc.Reading, error)) {
		reading, err := fn()
		if err != nil {
			failures[token] = err.Error()
			return
		}
		signals[token] = reading
	}

	switch m := module.(type) {
	case *itc.TempSensor:
		read("SIG:TEMP", m.Temperature)
		read("SIG:VOLT", m.Voltage)
		read("SIG:RES", m.Resistance)
		read("SIG:SLOP", m.Slope)
	case *itc.Heater:
		read("SIG:VOLT", m.Voltage)
		read("SIG:CURR", m.Current)
		if power, err := m.Power(); err == nil {
			signals["SIG:POWR"] = itc.Reading{Value: power, Unit: "W"}
		} else if !errors.Is(err, itc.ErrUnsupported) {
			failures["SIG:POWR"] = err.Error()
		}
	case *itc.Aux:
		read("SIG:STEP", m.StepperPosition)
		read("SIG:PERC", m.PercentOpen)
		read("SIG:IN", m.InputState)
	}

	resp := map[string]any{
		"uid":     module.UID(),
		"class":   string(module.Class()),
		"signals": signals,
	}
	if len(failures) > 0 {
		resp["errors"] = failures
	}
	writeJSON(w, http.StatusOK, resp)
}

// invalidateRequest names cached tokens to drop. An empty list clears the
// whole module cache.
type invalidateRequest struct {
	Tokens []string `json:"tokens"`
}

// handleInvalidate drops cached attribute values so subsequent reads
// re-query the instrument.
// POST /api/v1/modules/{uid}/invalidate
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	module, ok := s.lookupModule(w, r)
	if !ok {
		return
	}

	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if len(req.Tokens) == 0 {
		module.ClearCache()
	} else {
		for _, token := range req.Tokens {
			module.Invalidate(token)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uid":         module.UID(),
		"invalidated": len(req.Tokens),
	})
}
