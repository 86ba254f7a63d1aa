package itc

import (
	"errors"
	"fmt"
)

// Domain errors for the instrument driver package.
var (
	// ErrNotConnected is returned when an exchange is attempted while the
	// driver is not connected to the instrument.
	ErrNotConnected = errors.New("itc: not connected to instrument")

	// ErrConnectionFailed is returned when connecting to the instrument fails.
	ErrConnectionFailed = errors.New("itc: connection failed")

	// ErrTimeout is returned when no response line arrives within the
	// transport read timeout.
	ErrTimeout = errors.New("itc: exchange timed out")

	// ErrRejected is returned when the instrument answers a SET command
	// with a terminal token other than VALID.
	ErrRejected = errors.New("itc: write rejected by instrument")

	// ErrMalformed is returned when a response cannot be parsed into the
	// expected shape.
	ErrMalformed = errors.New("itc: malformed response")

	// ErrUnsupported is returned when a physical precondition makes an
	// otherwise valid operation meaningless, e.g. setting heater power
	// while the sense line reports N/A in a dry environment. It is
	// deliberately distinct from ValidationError: the value is fine, the
	// instrument state is not.
	ErrUnsupported = errors.New("itc: operation not supported in current environment")

	// ErrUnknownAttribute is returned when an attribute name is not part
	// of the module's descriptor table.
	ErrUnknownAttribute = errors.New("itc: unknown attribute")

	// ErrReadOnly is returned when a write is attempted on a read-only
	// attribute through the generic attribute surface.
	ErrReadOnly = errors.New("itc: attribute is read-only")
)

// ProtocolError describes a failed request/response exchange. It wraps
// either ErrRejected or ErrMalformed and carries the raw request and
// response lines for diagnostics.
type ProtocolError struct {
	Request  string
	Response string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Response == "" {
		return fmt.Sprintf("%v (request %q)", e.Err, e.Request)
	}
	return fmt.Sprintf("%v (request %q, response %q)", e.Err, e.Request, e.Response)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a caller-supplied value fails the
// attribute's range, allowed-set or shape check. Validation always happens
// before any bytes reach the transport.
type ValidationError struct {
	Attribute  string
	Value      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("itc: invalid value %q for %s: %s", e.Value, e.Attribute, e.Constraint)
}

// newValidationError builds a ValidationError with a formatted value.
func newValidationError(attribute string, value any, constraint string) error {
	return &ValidationError{
		Attribute:  attribute,
		Value:      fmt.Sprintf("%v", value),
		Constraint: constraint,
	}
}
