package itc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// systemAddress is the root device address for system-level attributes.
const systemAddress = "SYS"

// Status represents the driver's connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Logger is the optional logging interface accepted by the driver.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Driver is the root object for one instrument. It owns the transport,
// the system-level attributes and the discovered module list.
//
// Concurrency: the transport session has no notion of request identity,
// so two interleaved exchanges would corrupt each other's response
// framing. Every exchange — root or module, read, write or catalogue —
// passes through a single mutex around "write one request line, read one
// response line". There is no queueing and no cancellation; contention is
// resolved by lock acquisition order. A timed-out exchange clears pending
// transport bytes before releasing the lock so the link stays usable.
//
// The driver makes no process-wide uniqueness assumption: callers may
// hold any number of independent Driver instances. De-duplicating
// drivers per connection address is the surrounding application's job.
type Driver struct {
	attrs

	transport Transport
	exchMu    sync.Mutex

	stateMu sync.RWMutex
	state   Status

	modules []Module

	logger   Logger
	loggerMu sync.RWMutex
}

// System root descriptors. Identity and display settings are cached;
// the clock and alarm log are live.
var (
	descSysSerial   = descriptor{token: "MAN:SERL", kind: KindString, direction: ReadOnly, cacheable: true}
	descSysFirmware = descriptor{token: "MAN:FVER", kind: KindString, direction: ReadOnly, cacheable: true}
	descSysHardware = descriptor{token: "MAN:HVER", kind: KindString, direction: ReadOnly, cacheable: true}
	descFlashFree   = descriptor{token: "FLSH", kind: KindFloat, direction: ReadOnly, cacheable: true}
	descAutoDim     = descriptor{token: "DISP:DIMA", kind: KindEnum, direction: ReadWrite, cacheable: true, allowed: []string{"ON", "OFF"}}
	descDimTime     = descriptor{token: "DISP:DIMT", kind: KindInt, direction: ReadWrite, cacheable: true}
	descBrightness  = descriptor{token: "DISP:BRIG", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 100}}
	descClock       = descriptor{token: "TIME", kind: KindTime, direction: ReadWrite, valueSegments: 3}
	descCalendar    = descriptor{token: "DATE", kind: KindDate, direction: ReadWrite, valueSegments: 3}
	descAlarms      = descriptor{token: "ALRM", kind: KindString, direction: ReadOnly}
)

func sysTable() map[string]descriptor {
	return buildTable(
		descSysSerial, descSysFirmware, descSysHardware,
		descFlashFree, descAutoDim, descDimTime, descBrightness,
		descClock, descCalendar, descAlarms,
	)
}

// buildTable assembles a descriptor table keyed by protocol token.
func buildTable(ds ...descriptor) map[string]descriptor {
	t := make(map[string]descriptor, len(ds))
	for _, d := range ds {
		t[d.token] = d
	}
	return t
}

// Connect takes ownership of an opened transport, queries the module
// catalogue and builds one typed module per recognised catalogue entry.
//
// On any failure the transport is closed and the driver is left
// Disconnected; connecting is never retried automatically.
func Connect(transport Transport) (*Driver, error) {
	d := &Driver{
		transport: transport,
		state:     StatusConnecting,
		logger:    noopLogger{},
	}
	d.attrs = attrs{address: systemAddress, x: d, table: sysTable()}

	if err := d.discoverModules(); err != nil {
		transport.Close() //nolint:errcheck // best effort on the failure path
		d.setState(StatusDisconnected)
		return nil, fmt.Errorf("%w: discovery: %w", ErrConnectionFailed, err)
	}

	d.setState(StatusConnected)
	return d, nil
}

// SetLogger sets the logger for this driver.
func (d *Driver) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

func (d *Driver) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// Status returns the driver's connection state.
func (d *Driver) Status() Status {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.state
}

func (d *Driver) setState(s Status) {
	d.stateMu.Lock()
	d.state = s
	d.stateMu.Unlock()
}

// Close tears down the transport and marks the driver Disconnected.
// Cached attribute values survive; reconnecting callers decide what to
// invalidate.
func (d *Driver) Close() error {
	d.setState(StatusDisconnected)
	if d.transport == nil {
		return nil
	}
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("itc: close transport: %w", err)
	}
	return nil
}

// exchange is the single serialization point for every request/response
// round trip. It blocks until the response line arrives or the transport
// read timeout elapses; on timeout it clears pending bytes before
// releasing the lock so the next caller starts with clean framing.
func (d *Driver) exchange(request string) (string, error) {
	d.exchMu.Lock()
	defer d.exchMu.Unlock()

	if d.Status() == StatusDisconnected {
		return "", ErrNotConnected
	}

	if err := d.transport.WriteLine(request); err != nil {
		return "", fmt.Errorf("itc: send %q: %w", request, err)
	}

	response, err := d.transport.ReadLine()
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			if clearErr := d.transport.Clear(); clearErr != nil {
				d.getLogger().Warn("clearing transport after timeout failed", "error", clearErr)
			}
		}
		return "", err
	}
	return response, nil
}

// Catalogue reads the instrument's raw module catalogue. Always a live
// exchange, never cached.
func (d *Driver) Catalogue() (string, error) {
	return d.exchange(buildRead(systemAddress, "CAT"))
}

// discoverModules parses the catalogue into the typed module list.
//
// Each entry carries a class token; unknown classes are skipped so that
// an instrument fitted with modules this driver does not understand
// still connects. Catalogue order is preserved and not otherwise
// meaningful.
func (d *Driver) discoverModules() error {
	cat, err := d.Catalogue()
	if err != nil {
		return err
	}

	entries := strings.Split(cat, ":DEV:")
	if len(entries) > 0 {
		entries = entries[1:] // leading segment echoes the command
	}

	d.modules = d.modules[:0]
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) < 2 {
			d.getLogger().Debug("skipping malformed catalogue entry", "entry", entry)
			continue
		}
		address := "DEV:" + entry
		uid := parts[0]

		switch ModuleClass(parts[1]) {
		case ClassTemperature:
			d.modules = append(d.modules, newTempSensor(address, uid, d))
		case ClassHeater:
			d.modules = append(d.modules, newHeater(address, uid, d))
		case ClassAux:
			d.modules = append(d.modules, newAux(address, uid, d))
		default:
			d.getLogger().Debug("skipping unknown module class",
				"class", parts[1], "address", address)
		}
	}

	return nil
}

// Modules returns the discovered modules in catalogue order.
func (d *Driver) Modules() []Module {
	out := make([]Module, len(d.modules))
	copy(out, d.modules)
	return out
}

// Heaters returns the discovered heater modules in catalogue order.
func (d *Driver) Heaters() []*Heater {
	var out []*Heater
	for _, m := range d.modules {
		if h, ok := m.(*Heater); ok {
			out = append(out, h)
		}
	}
	return out
}

// TempSensors returns the discovered temperature modules in catalogue order.
func (d *Driver) TempSensors() []*TempSensor {
	var out []*TempSensor
	for _, m := range d.modules {
		if t, ok := m.(*TempSensor); ok {
			out = append(out, t)
		}
	}
	return out
}

// Auxes returns the discovered auxiliary (gas flow) modules in catalogue order.
func (d *Driver) Auxes() []*Aux {
	var out []*Aux
	for _, m := range d.modules {
		if a, ok := m.(*Aux); ok {
			out = append(out, a)
		}
	}
	return out
}

// ModuleByUID returns the module with the given board UID, if discovered.
func (d *Driver) ModuleByUID(uid string) (Module, bool) {
	for _, m := range d.modules {
		if m.UID() == uid {
			return m, true
		}
	}
	return nil, false
}

// System root attributes.

// SerialNumber reads the instrument serial number (cached).
func (d *Driver) SerialNumber() (string, error) {
	return d.readString(descSysSerial)
}

// FirmwareVersion reads the firmware version (cached).
func (d *Driver) FirmwareVersion() (string, error) {
	return d.readString(descSysFirmware)
}

// HardwareVersion reads the hardware version (cached).
func (d *Driver) HardwareVersion() (string, error) {
	return d.readString(descSysHardware)
}

// FlashFree reads the free flash memory in kByte (cached).
func (d *Driver) FlashFree() (float64, error) {
	return d.readFloat(descFlashFree)
}

// AutoDim reads the display auto-dim setting, ON or OFF.
func (d *Driver) AutoDim() (string, error) {
	return d.readString(descAutoDim)
}

// SetAutoDim sets the display auto-dim setting to ON or OFF.
func (d *Driver) SetAutoDim(v string) error {
	return d.writeEnum(descAutoDim, v)
}

// DimTime reads the display auto-dim delay in seconds.
func (d *Driver) DimTime() (int, error) {
	return d.readInt(descDimTime)
}

// SetDimTime sets the display auto-dim delay in seconds.
func (d *Driver) SetDimTime(seconds int) error {
	if seconds < 0 {
		return newValidationError(descDimTime.token, seconds, "must not be negative")
	}
	return d.writeInt(descDimTime, seconds)
}

// Brightness reads the display brightness in percent.
func (d *Driver) Brightness() (float64, error) {
	return d.readFloat(descBrightness)
}

// SetBrightness sets the display brightness, 0 to 100 percent.
func (d *Driver) SetBrightness(v float64) error {
	return d.writeFloat(descBrightness, v)
}

// Clock reads the instrument's 24-hour clock as "hh:mm:ss". Live, never
// cached — the value changes every second.
func (d *Driver) Clock() (string, error) {
	return d.readRaw(descClock)
}

// SetClock sets the instrument clock. The value is validated field by
// field (hours 0-23, minutes and seconds 0-59) and re-serialised
// zero-padded before transmission.
func (d *Driver) SetClock(hhmmss string) error {
	wire, err := parseClock(hhmmss)
	if err != nil {
		return err
	}
	return d.writeRaw(descClock, wire)
}

// Date reads the instrument's date as "yyyy:mm:dd". Live, never cached.
func (d *Driver) Date() (string, error) {
	return d.readRaw(descCalendar)
}

// SetDate sets the instrument date. Month and day are validated before
// the zero-padded composite is transmitted. The instrument stores the
// timestamp as a signed unix value, so far-future dates may still be
// rejected on the wire.
func (d *Driver) SetDate(yyyymmdd string) error {
	wire, err := parseCalendar(yyyymmdd)
	if err != nil {
		return err
	}
	return d.writeRaw(descCalendar, wire)
}

// Alarms reads the system alarm log. Entries are semicolon separated with
// tab-separated key/value pairs; empty entries are skipped.
func (d *Driver) Alarms() (map[string]string, error) {
	raw, err := d.readRaw(descAlarms)
	if err != nil {
		return nil, err
	}

	alarms := make(map[string]string)
	for _, item := range strings.Split(raw, ";") {
		if item == "" {
			continue
		}
		key, value, found := strings.Cut(item, "\t")
		if !found {
			return nil, &ProtocolError{Response: raw, Err: ErrMalformed}
		}
		alarms[key] = value
	}
	return alarms, nil
}

// Reset issues a system reset. The command carries no value; the
// instrument confirms with the usual VALID terminal token.
func (d *Driver) Reset() error {
	request := verbSet + ":" + systemAddress + ":RST"
	response, err := d.exchange(request)
	if err != nil {
		return err
	}
	if _, err := parseWrite(request, response); err != nil {
		return err
	}
	return nil
}

// heaterNicks returns the nicknames of all discovered heaters plus the
// None sentinel, for validating loop heater association writes.
func (d *Driver) heaterNicks() ([]string, error) {
	nicks := []string{}
	for _, h := range d.Heaters() {
		nick, err := h.Nick()
		if err != nil {
			return nil, err
		}
		nicks = append(nicks, nick)
	}
	return append(nicks, loopNone), nil
}

// auxNicks returns the nicknames of all discovered aux modules plus the
// None sentinel, for validating loop aux association writes.
func (d *Driver) auxNicks() ([]string, error) {
	nicks := []string{}
	for _, a := range d.Auxes() {
		nick, err := a.Nick()
		if err != nil {
			return nil, err
		}
		nicks = append(nicks, nick)
	}
	return append(nicks, loopNone), nil
}
