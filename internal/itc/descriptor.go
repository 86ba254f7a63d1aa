package itc

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies an attribute's value type on the wire.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindEnum
	KindString
	KindTime
	KindDate
	KindSignal // numeric value with trailing unit text, e.g. "2.50V"
)

// String returns a human-readable kind name for the API and error text.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// Direction states whether an attribute accepts writes.
type Direction int

const (
	ReadOnly Direction = iota
	ReadWrite
)

// Range is an attribute's numeric validator. Bounds are inclusive unless
// MinExclusive is set (the gas-flow minimum requires strictly greater
// than its lower bound).
type Range struct {
	Min, Max     float64
	MinExclusive bool
}

// contains reports whether v satisfies the range.
func (r Range) contains(v float64) bool {
	if r.MinExclusive {
		if v <= r.Min {
			return false
		}
	} else if v < r.Min {
		return false
	}
	return v <= r.Max
}

// constraint renders the range for validation error messages.
func (r Range) constraint() string {
	if r.MinExclusive {
		return fmt.Sprintf("must be greater than %g and at most %g", r.Min, r.Max)
	}
	return fmt.Sprintf("must be between %g and %g", r.Min, r.Max)
}

// descriptor is the static contract for one attribute: its protocol
// token, value kind, direction, cacheability and validator. Descriptor
// tables are closed and compile-time enumerated per module class; they
// never change at runtime.
type descriptor struct {
	token     string
	kind      Kind
	direction Direction
	cacheable bool

	// bounds applies to KindFloat and KindInt attributes.
	bounds *Range

	// allowed applies to KindEnum attributes.
	allowed []string

	// valueSegments is the number of trailing colon-delimited response
	// segments that form the value (see parseRead). Zero means 1.
	valueSegments int
}

// segments returns the effective value segment count.
func (d descriptor) segments() int {
	if d.valueSegments == 0 {
		return 1
	}
	return d.valueSegments
}

// validateFloat checks a float against the descriptor's range.
func (d descriptor) validateFloat(v float64) error {
	if d.bounds != nil && !d.bounds.contains(v) {
		return newValidationError(d.token, v, d.bounds.constraint())
	}
	return nil
}

// validateInt checks an integer against the descriptor's range.
func (d descriptor) validateInt(v int) error {
	if d.bounds != nil && !d.bounds.contains(float64(v)) {
		return newValidationError(d.token, v, d.bounds.constraint())
	}
	return nil
}

// validateEnum checks membership of the descriptor's allowed set. The
// error always lists the full set so the caller can see every legal value.
func (d descriptor) validateEnum(v string) error {
	return validateAllowed(d.token, v, d.allowed)
}

// validateAllowed is the shared allowed-set check, also used for the
// dynamically computed loop association sets.
func validateAllowed(attribute, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return newValidationError(attribute, v,
		fmt.Sprintf("must be one of {%s}", strings.Join(allowed, ", ")))
}

// Time and date composites are validated field by field and re-serialised
// zero-padded before transmission. A malformed composite fails the shape
// check before any field range is considered.

// parseClock validates an "hh:mm:ss" string and returns the zero-padded
// wire form.
func parseClock(s string) (string, error) {
	fields, err := splitComposite("TIME", s)
	if err != nil {
		return "", err
	}
	hh, mm, ss := fields[0], fields[1], fields[2]
	if hh < 0 || hh > 23 {
		return "", newValidationError("TIME", s, "hours must be between 0 and 23")
	}
	if mm < 0 || mm > 59 {
		return "", newValidationError("TIME", s, "minutes must be between 0 and 59")
	}
	if ss < 0 || ss > 59 {
		return "", newValidationError("TIME", s, "seconds must be between 0 and 59")
	}
	return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss), nil
}

// parseCalendar validates a "yyyy:mm:dd" string and returns the
// zero-padded wire form.
func parseCalendar(s string) (string, error) {
	fields, err := splitComposite("DATE", s)
	if err != nil {
		return "", err
	}
	yyyy, mm, dd := fields[0], fields[1], fields[2]
	if mm < 1 || mm > 12 {
		return "", newValidationError("DATE", s, "month must be between 1 and 12")
	}
	if dd < 1 || dd > 31 {
		return "", newValidationError("DATE", s, "day must be between 1 and 31")
	}
	return fmt.Sprintf("%04d:%02d:%02d", yyyy, mm, dd), nil
}

// splitComposite parses a three-field colon composite into integers.
func splitComposite(attribute, s string) ([3]int, error) {
	var fields [3]int
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return fields, newValidationError(attribute, s, "expected three colon-separated fields")
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fields, newValidationError(attribute, s, "fields must be integers")
		}
		fields[i] = n
	}
	return fields, nil
}
