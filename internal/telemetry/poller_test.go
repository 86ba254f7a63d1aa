package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kelvinworks/cryo-core/internal/history"
	"github.com/kelvinworks/cryo-core/internal/itc"
)

// fakeModule implements the itc.Module identity surface for poller tests.
type fakeModule struct {
	uid   string
	class itc.ModuleClass
}

func (f *fakeModule) Address() string                     { return "DEV:" + f.uid + ":" + string(f.class) }
func (f *fakeModule) UID() string                         { return f.uid }
func (f *fakeModule) Class() itc.ModuleClass              { return f.class }
func (f *fakeModule) Nick() (string, error)               { return f.uid, nil }
func (f *fakeModule) SetNick(string) error                { return nil }
func (f *fakeModule) SerialNumber() (string, error)       { return "", nil }
func (f *fakeModule) FirmwareVersion() (string, error)    { return "", nil }
func (f *fakeModule) HardwareVersion() (string, error)    { return "", nil }
func (f *fakeModule) Attributes() []itc.AttributeInfo     { return nil }
func (f *fakeModule) ReadAttribute(string) (string, error) { return "", nil }
func (f *fakeModule) WriteAttribute(string, string) error  { return nil }
func (f *fakeModule) Invalidate(string)                   {}
func (f *fakeModule) ClearCache()                         {}

type fakeSensor struct {
	fakeModule
	temp, volt, res, slope itc.Reading
	err                    error
}

func (f *fakeSensor) Temperature() (itc.Reading, error) { return f.temp, f.err }
func (f *fakeSensor) Voltage() (itc.Reading, error)     { return f.volt, f.err }
func (f *fakeSensor) Resistance() (itc.Reading, error)  { return f.res, f.err }
func (f *fakeSensor) Slope() (itc.Reading, error)       { return f.slope, f.err }

type fakeHeater struct {
	fakeModule
	volt     itc.Reading
	curr     itc.Reading
	power    float64
	powerErr error
}

func (f *fakeHeater) Voltage() (itc.Reading, error) { return f.volt, nil }
func (f *fakeHeater) Current() (itc.Reading, error) { return f.curr, nil }
func (f *fakeHeater) Power() (float64, error)       { return f.power, f.powerErr }

type fakeAux struct {
	fakeModule
	percent itc.Reading
}

func (f *fakeAux) PercentOpen() (itc.Reading, error) { return f.percent, nil }

// fakeInstrument provides modules and an alarm register.
type fakeInstrument struct {
	mu      sync.Mutex
	modules []itc.Module
	alarms  map[string]string
	polls   int
}

func (f *fakeInstrument) Modules() []itc.Module {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.modules
}

func (f *fakeInstrument) Alarms() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.alarms))
	for k, v := range f.alarms {
		out[k] = v
	}
	return out, nil
}

func (f *fakeInstrument) setAlarms(alarms map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alarms = alarms
}

func (f *fakeInstrument) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

// memStore records history calls in memory.
type memStore struct {
	mu       sync.Mutex
	readings []history.ReadingEntry
	alarms   []history.AlarmEntry
}

func (m *memStore) RecordReading(_ context.Context, uid, signal string, value float64, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, history.ReadingEntry{Module: uid, Signal: signal, Value: value, Unit: unit})
	return nil
}

func (m *memStore) Readings(context.Context, string, string, int) ([]history.ReadingEntry, error) {
	return nil, nil
}

func (m *memStore) RecordAlarm(_ context.Context, uid, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alarms = append(m.alarms, history.AlarmEntry{Module: uid, Message: message})
	return nil
}

func (m *memStore) Alarms(context.Context, string, int) ([]history.AlarmEntry, error) {
	return nil, nil
}

// fakeBroker captures published messages.
type fakeBroker struct {
	mu       sync.Mutex
	messages map[string]string
}

func (b *fakeBroker) Publish(topic string, payload []byte, _ byte, _ bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.messages == nil {
		b.messages = make(map[string]string)
	}
	b.messages[topic] = string(payload)
	return nil
}

// fakeSink captures time-series writes.
type fakeSink struct {
	mu       sync.Mutex
	readings []string
	alarms   []string
}

func (s *fakeSink) WriteReading(uid, signal string, _ float64, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, uid+"/"+signal)
}

func (s *fakeSink) WriteAlarm(uid, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = append(s.alarms, uid+": "+message)
}

func newTestPoller(instrument *fakeInstrument) (*Poller, *memStore, *fakeBroker, *fakeSink) {
	poller := New(instrument, Config{Interval: time.Hour, QoS: 1})
	store := &memStore{}
	broker := &fakeBroker{}
	sink := &fakeSink{}
	poller.SetStore(store)
	poller.SetBroker(broker)
	poller.AddSink(sink)
	return poller, store, broker, sink
}

// TestPollDistributesReadings verifies one cycle fans every signal out to
// the store, the broker, and the sinks.
func TestPollDistributesReadings(t *testing.T) {
	instrument := &fakeInstrument{
		modules: []itc.Module{
			&fakeSensor{
				fakeModule: fakeModule{uid: "MB1.T1", class: itc.ClassTemperature},
				temp:       itc.Reading{Value: 4.2, Unit: "K"},
				volt:       itc.Reading{Value: 1.3, Unit: "mV"},
				res:        itc.Reading{Value: 2170.5, Unit: "Ohm"},
				slope:      itc.Reading{Value: 19.061, Unit: "mK/min"},
			},
			&fakeHeater{
				fakeModule: fakeModule{uid: "MB0.H1", class: itc.ClassHeater},
				volt:       itc.Reading{Value: 2.5, Unit: "V"},
				curr:       itc.Reading{Value: 0.1, Unit: "A"},
				power:      0.25,
			},
			&fakeAux{
				fakeModule: fakeModule{uid: "DB4.G1", class: itc.ClassAux},
				percent:    itc.Reading{Value: 33.0, Unit: "%"},
			},
		},
	}
	poller, store, broker, sink := newTestPoller(instrument)

	poller.Poll(context.Background())

	wantSignals := []string{
		"MB1.T1/SIG:TEMP",
		"MB1.T1/SIG:VOLT",
		"MB1.T1/SIG:RES",
		"MB1.T1/SIG:SLOP",
		"MB0.H1/SIG:VOLT",
		"MB0.H1/SIG:CURR",
		"MB0.H1/SIG:POWR",
		"DB4.G1/SIG:PERC",
	}
	if len(store.readings) != len(wantSignals) {
		t.Fatalf("store readings = %d, want %d", len(store.readings), len(wantSignals))
	}
	if len(sink.readings) != len(wantSignals) {
		t.Fatalf("sink readings = %d, want %d", len(sink.readings), len(wantSignals))
	}
	for i, want := range wantSignals {
		if sink.readings[i] != want {
			t.Errorf("sink reading[%d] = %q, want %q", i, sink.readings[i], want)
		}
	}

	payload, ok := broker.messages["cryocore/reading/MB1.T1/SIG:TEMP"]
	if !ok {
		t.Fatal("temperature reading was not published")
	}
	if payload != `{"value":4.2,"unit":"K"}` {
		t.Errorf("published payload = %q, want %q", payload, `{"value":4.2,"unit":"K"}`)
	}
}

// TestPollSkipsFailedSignal verifies one faulted sensor does not stall
// the rest of the cycle.
func TestPollSkipsFailedSignal(t *testing.T) {
	instrument := &fakeInstrument{
		modules: []itc.Module{
			&fakeSensor{
				fakeModule: fakeModule{uid: "MB1.T1", class: itc.ClassTemperature},
				err:        errors.New("read failed"),
			},
			&fakeAux{
				fakeModule: fakeModule{uid: "DB4.G1", class: itc.ClassAux},
				percent:    itc.Reading{Value: 50.0, Unit: "%"},
			},
		},
	}
	poller, store, _, _ := newTestPoller(instrument)

	poller.Poll(context.Background())

	if len(store.readings) != 1 {
		t.Fatalf("store readings = %d, want 1", len(store.readings))
	}
	if store.readings[0].Module != "DB4.G1" {
		t.Errorf("recorded module = %q, want DB4.G1", store.readings[0].Module)
	}
}

// TestPollHeaterPowerUnsupported verifies the power sentinel is skipped
// quietly rather than treated as a failure.
func TestPollHeaterPowerUnsupported(t *testing.T) {
	instrument := &fakeInstrument{
		modules: []itc.Module{
			&fakeHeater{
				fakeModule: fakeModule{uid: "MB0.H1", class: itc.ClassHeater},
				volt:       itc.Reading{Value: 2.5, Unit: "V"},
				curr:       itc.Reading{Value: 0.1, Unit: "A"},
				powerErr:   itc.ErrUnsupported,
			},
		},
	}
	poller, store, _, sink := newTestPoller(instrument)

	poller.Poll(context.Background())

	if len(store.readings) != 2 {
		t.Fatalf("store readings = %d, want 2 (volt and curr only)", len(store.readings))
	}
	for _, r := range sink.readings {
		if r == "MB0.H1/SIG:POWR" {
			t.Error("unsupported power signal should not be distributed")
		}
	}
}

// TestAlarmDeduplication verifies a persistent alarm is recorded once
// and a changed message is recorded again.
func TestAlarmDeduplication(t *testing.T) {
	instrument := &fakeInstrument{}
	instrument.setAlarms(map[string]string{"MB0.H1": "open circuit"})

	poller, store, broker, sink := newTestPoller(instrument)
	ctx := context.Background()

	poller.Poll(ctx)
	poller.Poll(ctx)

	if len(store.alarms) != 1 {
		t.Fatalf("store alarms = %d, want 1 after repeated polls", len(store.alarms))
	}
	if len(sink.alarms) != 1 {
		t.Fatalf("sink alarms = %d, want 1", len(sink.alarms))
	}
	if got := broker.messages["cryocore/alarm/MB0.H1"]; got != "open circuit" {
		t.Errorf("published alarm = %q, want %q", got, "open circuit")
	}

	instrument.setAlarms(map[string]string{"MB0.H1": "over temperature"})
	poller.Poll(ctx)

	if len(store.alarms) != 2 {
		t.Fatalf("store alarms = %d, want 2 after message change", len(store.alarms))
	}
	if store.alarms[1].Message != "over temperature" {
		t.Errorf("second alarm = %q, want %q", store.alarms[1].Message, "over temperature")
	}
}

// TestStartStop verifies the lifecycle guards and the immediate first cycle.
func TestStartStop(t *testing.T) {
	instrument := &fakeInstrument{}
	poller := New(instrument, Config{Interval: time.Hour})

	ctx := context.Background()
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := poller.Start(ctx); err == nil {
		t.Error("second Start() should fail while running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for instrument.pollCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if instrument.pollCount() == 0 {
		t.Error("first poll cycle did not run")
	}

	poller.Stop()
	poller.Stop() // idempotent

	if err := poller.Start(ctx); err != nil {
		t.Errorf("Start() after Stop() error = %v", err)
	}
	poller.Stop()
}
