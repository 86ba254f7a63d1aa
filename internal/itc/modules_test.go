package itc

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestHeaterVoltageBoundByLiveLimit(t *testing.T) {
	d, mt := newTestDriver(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:VLIM":              "STAT:DEV:MB0.H1:HTR:VLIM:10.0000",
		"SET:DEV:MB0.H1:HTR:SIG:VOLT:5.000000":  "STAT:SET:DEV:MB0.H1:HTR:SIG:VOLT:5.0000:VALID",
		"SET:DEV:MB0.H1:HTR:SIG:VOLT:12.000000": "STAT:SET:DEV:MB0.H1:HTR:SIG:VOLT:12.0000:VALID",
	})
	h := d.Heaters()[0]

	if err := h.SetVoltage(5); err != nil {
		t.Fatalf("SetVoltage(5) unexpected error: %v", err)
	}

	err := h.SetVoltage(12)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("SetVoltage(12) error = %v, want *ValidationError", err)
	}
	if got := mt.count("SET:DEV:MB0.H1:HTR:SIG:VOLT:12.000000"); got != 0 {
		t.Error("out-of-limit voltage write reached the wire")
	}

	// The bound tracks the limit: after raising VLIM, 12 V is legal.
	h.Invalidate("VLIM")
	mt.mu.Lock()
	mt.responses["READ:DEV:MB0.H1:HTR:VLIM"] = "STAT:DEV:MB0.H1:HTR:VLIM:20.0000"
	mt.mu.Unlock()
	if err := h.SetVoltage(12); err != nil {
		t.Fatalf("SetVoltage(12) after limit raise unexpected error: %v", err)
	}
}

func TestHeaterPowerUnsupportedSentinel(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:SIG:POWR": "STAT:DEV:MB0.H1:HTR:SIG:POWR:N/A",
	})
	h := d.Heaters()[0]

	if _, err := h.Power(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Power() error = %v, want %v", err, ErrUnsupported)
	}
	if err := h.SetPower(10); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetPower() error = %v, want %v", err, ErrUnsupported)
	}
}

func TestHeaterPowerBoundByRating(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:SIG:POWR":          "STAT:DEV:MB0.H1:HTR:SIG:POWR:25.0000",
		"READ:DEV:MB0.H1:HTR:PMAX":              "STAT:DEV:MB0.H1:HTR:PMAX:80.0000",
		"SET:DEV:MB0.H1:HTR:SIG:POWR:40.000000": "STAT:SET:DEV:MB0.H1:HTR:SIG:POWR:40.0000:VALID",
	})
	h := d.Heaters()[0]

	v, err := h.Power()
	if err != nil {
		t.Fatalf("Power() unexpected error: %v", err)
	}
	if v != 25 {
		t.Errorf("Power() = %v, want 25", v)
	}

	if err := h.SetPower(40); err != nil {
		t.Fatalf("SetPower(40) unexpected error: %v", err)
	}

	err = h.SetPower(100)
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("SetPower(100) error = %v, want *ValidationError", err)
	}
}

func TestLoopHeaterAllowedSetIsDynamic(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:NICK":            "STAT:DEV:MB0.H1:HTR:NICK:MainHeater",
		"SET:DEV:MB1.T1:TEMP:LOOP:HTR:MainHeater": "STAT:SET:DEV:MB1.T1:TEMP:LOOP:HTR:MainHeater:VALID",
		"SET:DEV:MB1.T1:TEMP:LOOP:HTR:None":       "STAT:SET:DEV:MB1.T1:TEMP:LOOP:HTR:None:VALID",
	})
	s := d.TempSensors()[0]

	if err := s.SetLoopHeater("MainHeater"); err != nil {
		t.Fatalf("SetLoopHeater(MainHeater) unexpected error: %v", err)
	}
	if err := s.SetLoopHeater("None"); err != nil {
		t.Fatalf("SetLoopHeater(None) unexpected error: %v", err)
	}

	err := s.SetLoopHeater("Bogus")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("SetLoopHeater(Bogus) error = %v, want *ValidationError", err)
	}
	for _, member := range []string{"MainHeater", "None"} {
		if !strings.Contains(err.Error(), member) {
			t.Errorf("validation error %q does not list %q", err.Error(), member)
		}
	}
}

func TestLoopAuxAllowedSetIsDynamic(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"READ:DEV:DB4.G1:AUX:NICK":             "STAT:DEV:DB4.G1:AUX:NICK:NeedleValve",
		"SET:DEV:MB1.T1:TEMP:LOOP:AUX:NeedleValve": "STAT:SET:DEV:MB1.T1:TEMP:LOOP:AUX:NeedleValve:VALID",
	})
	s := d.TempSensors()[0]

	if err := s.SetLoopAux("NeedleValve"); err != nil {
		t.Fatalf("SetLoopAux(NeedleValve) unexpected error: %v", err)
	}
	var valErr *ValidationError
	if err := s.SetLoopAux("MainHeater"); !errors.As(err, &valErr) {
		t.Errorf("SetLoopAux(MainHeater) error = %v, want *ValidationError", err)
	}
}

func TestRampRateInfiniteSentinel(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"READ:DEV:MB1.T1:TEMP:LOOP:RSET": "STAT:DEV:MB1.T1:TEMP:LOOP:RSET:infK/m",
	})
	s := d.TempSensors()[0]

	r, err := s.RampRate()
	if err != nil {
		t.Fatalf("RampRate() unexpected error: %v", err)
	}
	if !math.IsInf(r.Value, 1) {
		t.Errorf("RampRate() value = %v, want +Inf", r.Value)
	}
	if r.Unit != "K/m" {
		t.Errorf("RampRate() unit = %q, want K/m", r.Unit)
	}
}

func TestSetpointNeverCached(t *testing.T) {
	request := "READ:DEV:MB1.T1:TEMP:LOOP:TSET"
	d, mt := newTestDriver(t, map[string]string{
		request: "STAT:DEV:MB1.T1:TEMP:LOOP:TSET:77.0000K",
	})
	s := d.TempSensors()[0]

	for i := 0; i < 2; i++ {
		r, err := s.Setpoint()
		if err != nil {
			t.Fatalf("Setpoint() unexpected error: %v", err)
		}
		if r.Value != 77 || r.Unit != "K" {
			t.Errorf("Setpoint() = %+v, want {77 K}", r)
		}
	}
	if got := mt.count(request); got != 2 {
		t.Errorf("setpoint fetched %d times, want 2 (ramping moves it)", got)
	}
}

func TestTempSensorEnumValidation(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"SET:DEV:MB1.T1:TEMP:TYPE:NTC": "STAT:SET:DEV:MB1.T1:TEMP:TYPE:NTC:VALID",
	})
	s := d.TempSensors()[0]

	if err := s.SetSensorType("NTC"); err != nil {
		t.Fatalf("SetSensorType(NTC) unexpected error: %v", err)
	}
	var valErr *ValidationError
	if err := s.SetSensorType("RTD"); !errors.As(err, &valErr) {
		t.Errorf("SetSensorType(RTD) error = %v, want *ValidationError", err)
	}
	if err := s.SetFlowAuto("MAYBE"); !errors.As(err, &valErr) {
		t.Errorf("SetFlowAuto(MAYBE) error = %v, want *ValidationError", err)
	}
}

func TestAuxFlowMinExclusiveBound(t *testing.T) {
	d, mt := newTestDriver(t, map[string]string{
		"SET:DEV:DB4.G1:AUX:GMIN:1.500000": "STAT:SET:DEV:DB4.G1:AUX:GMIN:1.5000:VALID",
	})
	a := d.Auxes()[0]

	var valErr *ValidationError
	if err := a.SetFlowMin(1); !errors.As(err, &valErr) {
		t.Errorf("SetFlowMin(1) error = %v, want *ValidationError (bound is exclusive)", err)
	}
	if err := a.SetFlowMin(0.5); !errors.As(err, &valErr) {
		t.Errorf("SetFlowMin(0.5) error = %v, want *ValidationError", err)
	}
	if err := a.SetFlowMin(1.5); err != nil {
		t.Fatalf("SetFlowMin(1.5) unexpected error: %v", err)
	}
	if got := mt.count("SET:DEV:DB4.G1:AUX:GMIN:1.500000"); got != 1 {
		t.Errorf("GMIN write sent %d times, want 1", got)
	}
}

func TestAuxIntegerBounds(t *testing.T) {
	d, _ := newTestDriver(t, map[string]string{
		"SET:DEV:DB4.G1:AUX:GEAR:4": "STAT:SET:DEV:DB4.G1:AUX:GEAR:4:VALID",
		"SET:DEV:DB4.G1:AUX:SPD:2":  "STAT:SET:DEV:DB4.G1:AUX:SPD:2:VALID",
	})
	a := d.Auxes()[0]

	if err := a.SetGearing(4); err != nil {
		t.Fatalf("SetGearing(4) unexpected error: %v", err)
	}
	if err := a.SetStepperSpeed(2); err != nil {
		t.Fatalf("SetStepperSpeed(2) unexpected error: %v", err)
	}

	var valErr *ValidationError
	if err := a.SetGearing(8); !errors.As(err, &valErr) {
		t.Errorf("SetGearing(8) error = %v, want *ValidationError", err)
	}
	if err := a.SetStepperSpeed(3); !errors.As(err, &valErr) {
		t.Errorf("SetStepperSpeed(3) error = %v, want *ValidationError", err)
	}
}

func TestNickConfirmedValueCached(t *testing.T) {
	d, mt := newTestDriver(t, map[string]string{
		"SET:DEV:MB0.H1:HTR:NICK:Probe": "STAT:SET:DEV:MB0.H1:HTR:NICK:Probe:VALID",
	})
	h := d.Heaters()[0]

	if err := h.SetNick("Probe"); err != nil {
		t.Fatalf("SetNick() unexpected error: %v", err)
	}
	nick, err := h.Nick()
	if err != nil {
		t.Fatalf("Nick() unexpected error: %v", err)
	}
	if nick != "Probe" {
		t.Errorf("Nick() = %q, want Probe", nick)
	}
	if got := mt.count("READ:DEV:MB0.H1:HTR:NICK"); got != 0 {
		t.Errorf("nick read hit the wire %d times, want 0", got)
	}
}

func TestAttributesIntrospection(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	h := d.Heaters()[0]

	infos := h.Attributes()
	byToken := make(map[string]AttributeInfo, len(infos))
	for i, info := range infos {
		byToken[info.Token] = info
		if i > 0 && infos[i-1].Token >= info.Token {
			t.Fatalf("Attributes() not sorted: %q before %q", infos[i-1].Token, info.Token)
		}
	}

	pmax, ok := byToken["PMAX"]
	if !ok {
		t.Fatal("Attributes() missing PMAX")
	}
	if pmax.Writable || !pmax.Cacheable {
		t.Errorf("PMAX = %+v, want read-only and cacheable", pmax)
	}

	volt, ok := byToken["SIG:VOLT"]
	if !ok {
		t.Fatal("Attributes() missing SIG:VOLT")
	}
	if !volt.Writable || volt.Cacheable {
		t.Errorf("SIG:VOLT = %+v, want writable and not cacheable", volt)
	}
	if volt.Kind != "signal" {
		t.Errorf("SIG:VOLT kind = %q, want signal", volt.Kind)
	}
}

func TestGenericWriteAttribute(t *testing.T) {
	d, mt := newTestDriver(t, map[string]string{
		"SET:DEV:DB4.G1:AUX:GEAR:4":         "STAT:SET:DEV:DB4.G1:AUX:GEAR:4:VALID",
		"SET:DEV:DB4.G1:AUX:GFSF:12.000000": "STAT:SET:DEV:DB4.G1:AUX:GFSF:12.000000:VALID",
		"SET:DEV:DB4.G1:AUX:NICK:FlowValve": "STAT:SET:DEV:DB4.G1:AUX:NICK:FlowValve:VALID",
	})
	a := d.Auxes()[0]

	if err := a.WriteAttribute("GEAR", "4"); err != nil {
		t.Fatalf("WriteAttribute(GEAR, 4) unexpected error: %v", err)
	}
	if err := a.WriteAttribute("GFSF", "12"); err != nil {
		t.Fatalf("WriteAttribute(GFSF, 12) unexpected error: %v", err)
	}
	if err := a.WriteAttribute("NICK", "FlowValve"); err != nil {
		t.Fatalf("WriteAttribute(NICK, FlowValve) unexpected error: %v", err)
	}
	if got := mt.count("SET:DEV:DB4.G1:AUX:GEAR:4"); got != 1 {
		t.Errorf("GEAR write sent %d times, want 1", got)
	}
}

func TestGenericWriteAttributeValidation(t *testing.T) {
	d, mt := newTestDriver(t, nil)
	a := d.Auxes()[0]

	var valErr *ValidationError
	if err := a.WriteAttribute("GEAR", "8"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(GEAR, 8) error = %v, want *ValidationError", err)
	}
	if err := a.WriteAttribute("GEAR", "four"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(GEAR, four) error = %v, want *ValidationError", err)
	}
	if err := a.WriteAttribute("GFSF", "lots"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(GFSF, lots) error = %v, want *ValidationError", err)
	}

	if err := a.WriteAttribute("SIG:PERC", "50"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("WriteAttribute(SIG:PERC) error = %v, want ErrReadOnly", err)
	}
	if err := a.WriteAttribute("NOPE", "1"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("WriteAttribute(NOPE) error = %v, want ErrUnknownAttribute", err)
	}

	// Nothing invalid may reach the wire.
	for _, req := range []string{"SET:DEV:DB4.G1:AUX:GEAR:8", "SET:DEV:DB4.G1:AUX:SIG:PERC:50"} {
		if got := mt.count(req); got != 0 {
			t.Errorf("request %q hit the wire %d times, want 0", req, got)
		}
	}
}

func TestGenericWriteAttributeDelegatesClassPolicies(t *testing.T) {
	d, mt := newTestDriver(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:VLIM":     "STAT:DEV:MB0.H1:HTR:VLIM:10.0000",
		"READ:DEV:MB0.H1:HTR:SIG:POWR": "STAT:DEV:MB0.H1:HTR:SIG:POWR:N/A",
		"READ:DEV:MB0.H1:HTR:NICK":     "STAT:DEV:MB0.H1:HTR:NICK:MainHeater",
	})
	a := d.Auxes()[0]
	h := d.Heaters()[0]
	s := d.TempSensors()[0]

	// The gas-flow minimum keeps its exclusive bound even though the
	// descriptor table carries none.
	var valErr *ValidationError
	if err := a.WriteAttribute("GMIN", "0.5"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(GMIN, 0.5) error = %v, want *ValidationError", err)
	}

	// Heater voltage: non-numeric values fail before the wire, numeric
	// ones are checked against the live limit.
	if err := h.WriteAttribute("SIG:VOLT", "junk"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(SIG:VOLT, junk) error = %v, want *ValidationError", err)
	}
	if err := h.WriteAttribute("SIG:VOLT", "12"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(SIG:VOLT, 12) error = %v, want *ValidationError (above VLIM)", err)
	}

	// Heater power honours the no-load sentinel.
	if err := h.WriteAttribute("SIG:POWR", "5"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("WriteAttribute(SIG:POWR, 5) error = %v, want ErrUnsupported", err)
	}

	// Loop associations honour the dynamic nickname set.
	err := s.WriteAttribute("LOOP:HTR", "Bogus")
	if !errors.As(err, &valErr) {
		t.Fatalf("WriteAttribute(LOOP:HTR, Bogus) error = %v, want *ValidationError", err)
	}
	if !strings.Contains(err.Error(), "MainHeater") {
		t.Errorf("validation error %q does not list the discovered heater", err.Error())
	}

	// Instrument-moved setpoints reject negatives like the typed setters.
	if err := s.WriteAttribute("LOOP:TSET", "-1"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(LOOP:TSET, -1) error = %v, want *ValidationError", err)
	}
	if err := s.WriteAttribute("LOOP:RSET", "-0.5"); !errors.As(err, &valErr) {
		t.Errorf("WriteAttribute(LOOP:RSET, -0.5) error = %v, want *ValidationError", err)
	}

	// None of the rejected values may reach the wire.
	for _, req := range []string{
		"SET:DEV:DB4.G1:AUX:GMIN:0.500000",
		"SET:DEV:MB0.H1:HTR:SIG:VOLT:junk",
		"SET:DEV:MB0.H1:HTR:SIG:VOLT:12.000000",
		"SET:DEV:MB0.H1:HTR:SIG:POWR:5.000000",
		"SET:DEV:MB1.T1:TEMP:LOOP:HTR:Bogus",
		"SET:DEV:MB1.T1:TEMP:LOOP:TSET:-1.000000",
	} {
		if got := mt.count(req); got != 0 {
			t.Errorf("request %q hit the wire %d times, want 0", req, got)
		}
	}
}
