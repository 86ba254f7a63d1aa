package itc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire protocol tokens.
const (
	verbRead   = "READ"
	verbSet    = "SET"
	tokenValid = "VALID"

	// infiniteRate is the sentinel the instrument returns for an unlimited
	// temperature ramp rate. It contains no leading digits, so it must be
	// special-cased before the generic scaled-value splitter.
	infiniteRate = "infK/m"
)

// buildRead formats a READ command for the given device address and
// attribute token, e.g. "READ:DEV:MB1.T1:TEMP:SIG:TEMP".
func buildRead(address, name string) string {
	return verbRead + ":" + address + ":" + name
}

// buildSet formats a SET command. The value must already be rendered in
// its wire form (fixed-point float, decimal int or literal string).
func buildSet(address, name, value string) string {
	return verbSet + ":" + address + ":" + name + ":" + value
}

// parseRead extracts the value from a READ response. The response echoes
// the address and attribute name followed by the value, all colon
// delimited. valueSegments is the number of trailing segments that form
// the value itself; it is 1 for plain values and larger for composites
// that legitimately contain colons (TIME and DATE use 3).
func parseRead(request, response string, valueSegments int) (string, error) {
	if valueSegments < 1 {
		valueSegments = 1
	}
	segments := strings.Split(response, ":")
	if len(segments) < valueSegments+1 {
		return "", &ProtocolError{Request: request, Response: response, Err: ErrMalformed}
	}
	return strings.Join(segments[len(segments)-valueSegments:], ":"), nil
}

// parseWrite validates a SET response. The instrument echoes the command,
// then the value it actually applied, then the terminal token VALID. Any
// other terminal token is a rejection. The returned string is the
// device-confirmed value, which is authoritative over whatever the caller
// asked for.
func parseWrite(request, response string) (string, error) {
	segments := strings.Split(response, ":")
	if len(segments) < 2 {
		return "", &ProtocolError{Request: request, Response: response, Err: ErrMalformed}
	}
	if segments[len(segments)-1] != tokenValid {
		return "", &ProtocolError{Request: request, Response: response, Err: ErrRejected}
	}
	return segments[len(segments)-2], nil
}

// splitScaled splits a "numeric value + unit suffix" response such as
// "2.50V" or "19.061mK/min" into its magnitude and unit. The magnitude is
// the maximal leading run of digits and dots; the remainder is the unit.
func splitScaled(s string) (float64, string, error) {
	if s == infiniteRate {
		return math.Inf(1), "K/m", nil
	}

	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, "", &ProtocolError{Response: s, Err: ErrMalformed}
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, "", &ProtocolError{Response: s, Err: ErrMalformed}
	}
	return value, s[end:], nil
}

// parseWireFloat parses a numeric wire value, tolerating surrounding
// whitespace.
func parseWireFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// renderFloat renders a float in the fixed-point form the instrument
// expects for SET commands.
func renderFloat(v float64) string {
	return fmt.Sprintf("%f", v)
}

// renderInt renders an integer for SET commands.
func renderInt(v int) string {
	return strconv.Itoa(v)
}
