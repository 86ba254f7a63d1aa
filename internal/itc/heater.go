package itc

import "fmt"

// sentinelNotApplicable is what the heater returns for power readings
// when no load is sensed (dry environment).
const sentinelNotApplicable = "N/A"

// Heater descriptors. Hardware limits are fixed configuration and
// cached; the live electrical signals never are.
var (
	descMaxPower   = descriptor{token: "PMAX", kind: KindFloat, direction: ReadOnly, cacheable: true}
	descResistance = descriptor{token: "RES", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 20, Max: 100}}
	descVoltLimit  = descriptor{token: "VLIM", kind: KindFloat, direction: ReadWrite, cacheable: true, bounds: &Range{Min: 0, Max: 40}}
	descHtrVoltage = descriptor{token: "SIG:VOLT", kind: KindSignal, direction: ReadWrite}
	descHtrCurrent = descriptor{token: "SIG:CURR", kind: KindSignal, direction: ReadOnly}
	descHtrPower   = descriptor{token: "SIG:POWR", kind: KindFloat, direction: ReadWrite}
)

func heaterTable() map[string]descriptor {
	ds := append(identityDescriptors(),
		descMaxPower, descResistance, descVoltLimit,
		descHtrVoltage, descHtrCurrent, descHtrPower,
	)
	return buildTable(ds...)
}

// Heater is a heater output module.
type Heater struct {
	moduleBase
}

func newHeater(address, uid string, driver *Driver) *Heater {
	return &Heater{moduleBase: newModuleBase(address, uid, ClassHeater, driver, heaterTable())}
}

// MaxPower reads the heater's maximum power rating in watts (cached).
func (h *Heater) MaxPower() (float64, error) {
	return h.readFloat(descMaxPower)
}

// Resistance reads the configured load resistance in ohms (cached).
func (h *Heater) Resistance() (float64, error) {
	return h.readFloat(descResistance)
}

// SetResistance sets the load resistance, 20 to 100 ohms.
func (h *Heater) SetResistance(ohms float64) error {
	return h.writeFloat(descResistance, ohms)
}

// VoltageLimit reads the output voltage limit in volts (cached).
func (h *Heater) VoltageLimit() (float64, error) {
	return h.readFloat(descVoltLimit)
}

// SetVoltageLimit sets the output voltage limit, 0 to 40 volts.
func (h *Heater) SetVoltageLimit(volts float64) error {
	return h.writeFloat(descVoltLimit, volts)
}

// Voltage reads the live output voltage. Never cached.
func (h *Heater) Voltage() (Reading, error) {
	return h.readScaled(descHtrVoltage)
}

// SetVoltage sets the output voltage directly. The upper bound is the
// current voltage limit, re-evaluated against VLIM on every call so a
// limit change between writes is honoured immediately.
func (h *Heater) SetVoltage(volts float64) error {
	limit, err := h.VoltageLimit()
	if err != nil {
		return err
	}
	if volts < 0 || volts > limit {
		return newValidationError(descHtrVoltage.token, volts,
			fmt.Sprintf("must be between 0 and the voltage limit %g", limit))
	}
	return h.writeRaw(descHtrVoltage, renderFloat(volts))
}

// Current reads the live output current. Never cached.
func (h *Heater) Current() (Reading, error) {
	return h.readScaled(descHtrCurrent)
}

// Power reads the live output power in watts. When the heater senses no
// load it reports a not-applicable sentinel, surfaced as ErrUnsupported.
func (h *Heater) Power() (float64, error) {
	raw, err := h.readRaw(descHtrPower)
	if err != nil {
		return 0, err
	}
	if raw == sentinelNotApplicable {
		return 0, fmt.Errorf("%w: heater power unavailable in this environment", ErrUnsupported)
	}
	v, err := parseWireFloat(raw)
	if err != nil {
		return 0, &ProtocolError{Response: raw, Err: ErrMalformed}
	}
	return v, nil
}

// WriteAttribute routes the electrical signals through their typed
// setters so the live voltage limit and the no-load check apply to
// generic writes too.
func (h *Heater) WriteAttribute(token, value string) error {
	switch token {
	case descHtrVoltage.token:
		v, err := parseWriteFloat(token, value)
		if err != nil {
			return err
		}
		return h.SetVoltage(v)
	case descHtrPower.token:
		v, err := parseWriteFloat(token, value)
		if err != nil {
			return err
		}
		return h.SetPower(v)
	}
	return h.attrs.WriteAttribute(token, value)
}

// SetPower sets the output power directly, 0 to the maximum power
// rating. Like reads, writing power is unsupported when the heater
// senses no load; the sentinel is checked with a live read first.
func (h *Heater) SetPower(watts float64) error {
	raw, err := h.readRaw(descHtrPower)
	if err != nil {
		return err
	}
	if raw == sentinelNotApplicable {
		return fmt.Errorf("%w: heater power unavailable in this environment", ErrUnsupported)
	}

	max, err := h.MaxPower()
	if err != nil {
		return err
	}
	if watts < 0 || watts > max {
		return newValidationError(descHtrPower.token, watts,
			fmt.Sprintf("must be between 0 and the maximum power %g", max))
	}
	return h.writeRaw(descHtrPower, renderFloat(watts))
}
