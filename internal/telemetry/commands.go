package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kelvinworks/cryo-core/internal/infrastructure/mqtt"
	"github.com/kelvinworks/cryo-core/internal/itc"
)

// ModuleIndex resolves modules by board identifier. *itc.Driver
// satisfies it.
type ModuleIndex interface {
	ModuleByUID(uid string) (itc.Module, bool)
}

// CommandBroker is the broker surface the command listener needs:
// publishing results and managing its subscription. mqtt.Client
// satisfies it.
type CommandBroker interface {
	Broker
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// commandResult is the JSON answer published for every handled command.
// Value carries the device-confirmed value on success; Error carries the
// failure text otherwise.
type commandResult struct {
	Token string `json:"token"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Commands accepts attribute writes over MQTT. A client publishes the
// raw value to cryocore/command/<uid>/<token>; the listener validates
// and applies it through the module's attribute surface and answers on
// the matching result topic. Reads stay on the REST API — the command
// channel exists so headless setups can drive setpoints without it.
type Commands struct {
	modules ModuleIndex
	broker  CommandBroker
	qos     byte

	logger Logger
}

// NewCommands creates a command listener. It does not subscribe until
// Start is called.
func NewCommands(modules ModuleIndex, broker CommandBroker, qos byte) *Commands {
	return &Commands{
		modules: modules,
		broker:  broker,
		qos:     qos,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for command diagnostics.
func (c *Commands) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// Start subscribes to the command topic pattern.
func (c *Commands) Start() error {
	topic := mqtt.Topics{}.AllCommands()
	if err := c.broker.Subscribe(topic, c.qos, c.handle); err != nil {
		return fmt.Errorf("telemetry: subscribing to commands: %w", err)
	}
	c.logger.Info("command listener started", "topic", topic)
	return nil
}

// Close drops the command subscription.
func (c *Commands) Close() error {
	if err := c.broker.Unsubscribe(mqtt.Topics{}.AllCommands()); err != nil {
		return fmt.Errorf("telemetry: unsubscribing from commands: %w", err)
	}
	return nil
}

// handle applies one attribute command and publishes the result. The
// same validation applies as for REST writes: bad values are rejected
// before anything reaches the instrument.
func (c *Commands) handle(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return fmt.Errorf("telemetry: malformed command topic %q", topic)
	}
	uid, token := parts[2], parts[3]
	value := strings.TrimSpace(string(payload))

	module, ok := c.modules.ModuleByUID(uid)
	if !ok {
		c.logger.Warn("command for unknown module", "uid", uid, "token", token)
		return c.publishResult(uid, token, commandResult{
			Token: token,
			Error: "no module with uid " + uid,
		})
	}

	if err := module.WriteAttribute(token, value); err != nil {
		c.logger.Warn("command rejected", "uid", uid, "token", token, "error", err)
		return c.publishResult(uid, token, commandResult{Token: token, Error: err.Error()})
	}

	// Answer with the device-confirmed value, not the caller's input.
	confirmed, err := module.ReadAttribute(token)
	if err != nil {
		return c.publishResult(uid, token, commandResult{Token: token, Error: err.Error()})
	}

	c.logger.Info("command applied", "uid", uid, "token", token, "value", confirmed)
	return c.publishResult(uid, token, commandResult{Token: token, Value: confirmed})
}

// publishResult answers one command on its result topic.
func (c *Commands) publishResult(uid, token string, result commandResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("telemetry: encoding command result: %w", err)
	}
	topic := mqtt.Topics{}.CommandResult(uid, token)
	if err := c.broker.Publish(topic, payload, c.qos, false); err != nil {
		return fmt.Errorf("telemetry: publishing command result: %w", err)
	}
	return nil
}
