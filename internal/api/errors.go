package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kelvinworks/cryo-core/internal/itc"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnavailable = "service_unavailable"
	ErrCodeTimeout     = "instrument_timeout"
	ErrCodeUnsupported = "unsupported"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeInstrumentError maps a driver error onto an HTTP error response.
//
// The mapping follows the driver's error taxonomy:
//   - validation failures are client errors (422)
//   - unknown attributes and read-only writes are client errors
//   - instrument rejections are conflicts (the value was legal to ask for
//     but the device said no)
//   - timeouts and lost connections are upstream failures
func writeInstrumentError(w http.ResponseWriter, err error) {
	var validationErr *itc.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, err.Error())
		return
	}

	switch {
	case errors.Is(err, itc.ErrUnknownAttribute):
		writeNotFound(w, err.Error())
	case errors.Is(err, itc.ErrReadOnly):
		writeError(w, http.StatusMethodNotAllowed, ErrCodeBadRequest, err.Error())
	case errors.Is(err, itc.ErrRejected):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, itc.ErrUnsupported):
		writeError(w, http.StatusNotImplemented, ErrCodeUnsupported, err.Error())
	case errors.Is(err, itc.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, err.Error())
	case errors.Is(err, itc.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadGateway, ErrCodeInternal, err.Error())
	}
}
