package telemetry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kelvinworks/cryo-core/internal/infrastructure/mqtt"
	"github.com/kelvinworks/cryo-core/internal/itc"
)

// fakeWritable records attribute writes and serves a fixed device-
// confirmed value.
type fakeWritable struct {
	fakeModule
	writes   map[string]string
	writeErr error
	readback string
}

func (f *fakeWritable) WriteAttribute(token, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.writes == nil {
		f.writes = make(map[string]string)
	}
	f.writes[token] = value
	return nil
}

func (f *fakeWritable) ReadAttribute(string) (string, error) { return f.readback, nil }

// fakeIndex resolves modules by uid.
type fakeIndex map[string]itc.Module

func (f fakeIndex) ModuleByUID(uid string) (itc.Module, bool) {
	m, ok := f[uid]
	return m, ok
}

// fakeCommandBroker captures the subscription and published results.
type fakeCommandBroker struct {
	fakeBroker
	subTopic     string
	subQoS       byte
	handler      mqtt.MessageHandler
	unsubscribed string
}

func (b *fakeCommandBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	b.subTopic = topic
	b.subQoS = qos
	b.handler = handler
	return nil
}

func (b *fakeCommandBroker) Unsubscribe(topic string) error {
	b.unsubscribed = topic
	return nil
}

func decodeResult(t *testing.T, broker *fakeCommandBroker, topic string) commandResult {
	t.Helper()
	payload, ok := broker.messages[topic]
	if !ok {
		t.Fatalf("no result published on %q (got %v)", topic, broker.messages)
	}
	var result commandResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("invalid result JSON %q: %v", payload, err)
	}
	return result
}

func TestCommandAppliesWriteAndAnswersConfirmedValue(t *testing.T) {
	heater := &fakeWritable{
		fakeModule: fakeModule{uid: "MB0.H1", class: itc.ClassHeater},
		readback:   "35.000000",
	}
	broker := &fakeCommandBroker{}
	commands := NewCommands(fakeIndex{"MB0.H1": heater}, broker, 1)

	if err := commands.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if broker.subTopic != "cryocore/command/+/+" {
		t.Fatalf("subscribed to %q, want cryocore/command/+/+", broker.subTopic)
	}

	if err := broker.handler("cryocore/command/MB0.H1/VLIM", []byte("35")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if got := heater.writes["VLIM"]; got != "35" {
		t.Errorf("VLIM written as %q, want 35", got)
	}

	result := decodeResult(t, broker, "cryocore/command/MB0.H1/VLIM/result")
	if result.Value != "35.000000" || result.Error != "" {
		t.Errorf("result = %+v, want device-confirmed value and no error", result)
	}
}

func TestCommandRejectedWriteAnswersError(t *testing.T) {
	heater := &fakeWritable{
		fakeModule: fakeModule{uid: "MB0.H1", class: itc.ClassHeater},
		writeErr:   errors.New("VLIM: value 150 invalid: must be between 0 and 40"),
	}
	broker := &fakeCommandBroker{}
	commands := NewCommands(fakeIndex{"MB0.H1": heater}, broker, 0)
	if err := commands.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := broker.handler("cryocore/command/MB0.H1/VLIM", []byte("150")); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	result := decodeResult(t, broker, "cryocore/command/MB0.H1/VLIM/result")
	if result.Error == "" || result.Value != "" {
		t.Errorf("result = %+v, want error and no value", result)
	}
}

func TestCommandUnknownModuleAnswersError(t *testing.T) {
	broker := &fakeCommandBroker{}
	commands := NewCommands(fakeIndex{}, broker, 0)
	if err := commands.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := broker.handler("cryocore/command/XX9.Z9/NICK", []byte("Ghost")); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	result := decodeResult(t, broker, "cryocore/command/XX9.Z9/NICK/result")
	if result.Error == "" {
		t.Errorf("result = %+v, want error for unknown module", result)
	}
}

func TestCommandMalformedTopicIsNotAnswered(t *testing.T) {
	broker := &fakeCommandBroker{}
	commands := NewCommands(fakeIndex{}, broker, 0)
	if err := commands.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := broker.handler("cryocore/command/MB0.H1", []byte("1")); err == nil {
		t.Error("handler accepted a malformed topic")
	}
	if len(broker.messages) != 0 {
		t.Errorf("published %v for a malformed topic, want nothing", broker.messages)
	}
}

func TestCommandsCloseUnsubscribes(t *testing.T) {
	broker := &fakeCommandBroker{}
	commands := NewCommands(fakeIndex{}, broker, 0)
	if err := commands.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := commands.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if broker.unsubscribed != "cryocore/command/+/+" {
		t.Errorf("unsubscribed from %q, want cryocore/command/+/+", broker.unsubscribed)
	}
}
