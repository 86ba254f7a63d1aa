package itc

import (
	"sort"
	"strconv"
	"strings"
)

// exchanger funnels one request-line-out/response-line-in round trip
// through the driver's single serialization point. Modules hold their
// parent driver through this interface.
type exchanger interface {
	exchange(request string) (string, error)
}

// Reading is a decoded scaled-signal value: a magnitude plus the unit
// text the instrument appended, e.g. {4.2, "V"} or {19.061, "mK/min"}.
type Reading struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// AttributeInfo describes one attribute of a module for introspection.
type AttributeInfo struct {
	Token     string `json:"token"`
	Kind      string `json:"kind"`
	Writable  bool   `json:"writable"`
	Cacheable bool   `json:"cacheable"`
}

// attrs implements descriptor-driven attribute access for one device
// address. The Driver embeds one instance for the SYS root and every
// module embeds its own; all of them delegate wire exchanges to the same
// driver-owned serialization point.
type attrs struct {
	address string
	cache   attrCache
	x       exchanger
	table   map[string]descriptor
}

// readRaw returns the raw wire value of an attribute, serving cacheable
// attributes from the cache when populated. Signal attributes always hit
// the instrument and are never stored.
func (a *attrs) readRaw(d descriptor) (string, error) {
	if d.cacheable {
		if v, ok := a.cache.lookup(d.token); ok {
			return v, nil
		}
	}

	request := buildRead(a.address, d.token)
	response, err := a.x.exchange(request)
	if err != nil {
		return "", err
	}
	value, err := parseRead(request, response, d.segments())
	if err != nil {
		return "", err
	}

	if d.cacheable {
		a.cache.store(d.token, value)
	}
	return value, nil
}

// writeRaw sends a SET exchange for an already-validated, already-rendered
// value. Only the device-confirmed value from a successful exchange ever
// reaches the cache; a rejected write leaves any prior entry untouched.
func (a *attrs) writeRaw(d descriptor, rendered string) error {
	request := buildSet(a.address, d.token, rendered)
	response, err := a.x.exchange(request)
	if err != nil {
		return err
	}
	confirmed, err := parseWrite(request, response)
	if err != nil {
		return err
	}
	if d.cacheable {
		a.cache.store(d.token, confirmed)
	}
	return nil
}

func (a *attrs) readFloat(d descriptor) (float64, error) {
	s, err := a.readRaw(d)
	if err != nil {
		return 0, err
	}
	v, err := parseWireFloat(s)
	if err != nil {
		return 0, &ProtocolError{Response: s, Err: ErrMalformed}
	}
	return v, nil
}

func (a *attrs) readInt(d descriptor) (int, error) {
	s, err := a.readRaw(d)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ProtocolError{Response: s, Err: ErrMalformed}
	}
	return v, nil
}

func (a *attrs) readString(d descriptor) (string, error) {
	return a.readRaw(d)
}

func (a *attrs) readScaled(d descriptor) (Reading, error) {
	s, err := a.readRaw(d)
	if err != nil {
		return Reading{}, err
	}
	value, unit, err := splitScaled(s)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Value: value, Unit: unit}, nil
}

func (a *attrs) writeFloat(d descriptor, v float64) error {
	if err := d.validateFloat(v); err != nil {
		return err
	}
	return a.writeRaw(d, renderFloat(v))
}

func (a *attrs) writeInt(d descriptor, v int) error {
	if err := d.validateInt(v); err != nil {
		return err
	}
	return a.writeRaw(d, renderInt(v))
}

func (a *attrs) writeEnum(d descriptor, v string) error {
	if err := d.validateEnum(v); err != nil {
		return err
	}
	return a.writeRaw(d, v)
}

func (a *attrs) writeString(d descriptor, v string) error {
	return a.writeRaw(d, v)
}

// Address returns the device address commands for this object are
// prefixed with.
func (a *attrs) Address() string {
	return a.address
}

// Attributes lists this object's descriptor table, sorted by token.
func (a *attrs) Attributes() []AttributeInfo {
	infos := make([]AttributeInfo, 0, len(a.table))
	for _, d := range a.table {
		infos = append(infos, AttributeInfo{
			Token:     d.token,
			Kind:      d.kind.String(),
			Writable:  d.direction == ReadWrite,
			Cacheable: d.cacheable,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Token < infos[j].Token })
	return infos
}

// ReadAttribute reads any attribute from this object's table by protocol
// token and returns its raw wire value. Cacheable attributes are served
// from cache as usual.
func (a *attrs) ReadAttribute(token string) (string, error) {
	d, ok := a.table[token]
	if !ok {
		return "", ErrUnknownAttribute
	}
	return a.readRaw(d)
}

// parseWriteFloat parses a caller-supplied attribute value as a float.
// A malformed value is the caller's fault, so the failure is a
// validation error, not a protocol error.
func parseWriteFloat(token, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, newValidationError(token, value, "not a number")
	}
	return v, nil
}

// WriteAttribute writes any writable attribute from this object's table
// by protocol token. The raw string value is parsed and validated per the
// attribute's kind before anything reaches the wire, so the same range and
// allowed-set policies apply as for the typed setters. Module classes
// whose policies live outside the descriptor tables (the live heater
// voltage limit, the dynamic loop association sets, the gas-flow
// minimum) override this method and route those tokens through their
// typed setters.
func (a *attrs) WriteAttribute(token, value string) error {
	d, ok := a.table[token]
	if !ok {
		return ErrUnknownAttribute
	}
	if d.direction != ReadWrite {
		return ErrReadOnly
	}

	switch d.kind {
	case KindFloat, KindSignal:
		v, err := parseWriteFloat(d.token, value)
		if err != nil {
			return err
		}
		return a.writeFloat(d, v)
	case KindInt:
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return newValidationError(d.token, value, "not an integer")
		}
		return a.writeInt(d, v)
	case KindEnum:
		return a.writeEnum(d, value)
	case KindTime:
		rendered, err := parseClock(value)
		if err != nil {
			return err
		}
		return a.writeRaw(d, rendered)
	case KindDate:
		rendered, err := parseCalendar(value)
		if err != nil {
			return err
		}
		return a.writeRaw(d, rendered)
	default:
		return a.writeString(d, value)
	}
}

// Invalidate drops one cached attribute so the next read re-queries the
// instrument. Unknown or uncached tokens are a no-op.
func (a *attrs) Invalidate(token string) {
	a.cache.invalidate(token)
}

// ClearCache drops every cached attribute of this object.
func (a *attrs) ClearCache() {
	a.cache.clear()
}
