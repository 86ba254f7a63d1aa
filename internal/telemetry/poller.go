package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/kelvinworks/cryo-core/internal/history"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/mqtt"
	"github.com/kelvinworks/cryo-core/internal/itc"
)

// defaultInterval is the polling period used when none is configured.
const defaultInterval = 10 * time.Second

// Instrument is the slice of the driver surface the poller uses.
type Instrument interface {
	Modules() []itc.Module
	Alarms() (map[string]string, error)
}

// Sink receives decoded readings and alarm entries.
//
// Both influxdb.Client and tsdb.Client satisfy this interface, so the
// poller fans out to whichever time-series stores are enabled.
type Sink interface {
	WriteReading(uid, signal string, value float64, unit string)
	WriteAlarm(uid, message string)
}

// Broker publishes reading and alarm messages. mqtt.Client satisfies it.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the logging interface for the poller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Per-class signal surfaces. Type switches use these rather than the
// concrete module types so tests can substitute fakes.
type temperatureSignals interface {
	Temperature() (itc.Reading, error)
	Voltage() (itc.Reading, error)
	Resistance() (itc.Reading, error)
	Slope() (itc.Reading, error)
}

type heaterSignals interface {
	Voltage() (itc.Reading, error)
	Current() (itc.Reading, error)
	Power() (float64, error)
}

type auxSignals interface {
	PercentOpen() (itc.Reading, error)
}

// Config holds poller settings.
type Config struct {
	// Interval is the polling period. Zero uses the default of 10s.
	Interval time.Duration

	// QoS is the MQTT quality of service for published readings.
	QoS byte
}

// Poller periodically reads the live signals of every discovered module
// and fans the decoded values out to the configured destinations:
// the local history store, the MQTT broker, and any time-series sinks.
// It also watches the instrument alarm register and records new alarms.
type Poller struct {
	instrument Instrument
	store      history.Store
	broker     Broker
	sinks      []Sink
	interval   time.Duration
	qos        byte

	logger   Logger
	loggerMu sync.RWMutex

	// lastAlarms tracks the previous alarm register so only new or
	// changed alarms are recorded.
	lastAlarms map[string]string

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a poller.
//
// Parameters:
//   - instrument: Source of modules and alarms (usually *itc.Driver)
//   - cfg: Poller settings
//
// Returns:
//   - *Poller: Poller ready to configure and start
func New(instrument Instrument, cfg Config) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		instrument: instrument,
		interval:   interval,
		qos:        cfg.QoS,
		logger:     noopLogger{},
		lastAlarms: make(map[string]string),
	}
}

// SetStore sets the local history store. Nil disables local recording.
func (p *Poller) SetStore(store history.Store) {
	p.store = store
}

// SetBroker sets the MQTT publisher. Nil disables publishing.
func (p *Poller) SetBroker(broker Broker) {
	p.broker = broker
}

// AddSink adds a time-series sink. Nil sinks are ignored.
func (p *Poller) AddSink(sink Sink) {
	if sink != nil {
		p.sinks = append(p.sinks, sink)
	}
}

// SetLogger sets the logger for poll cycle diagnostics.
func (p *Poller) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	defer p.loggerMu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

func (p *Poller) getLogger() Logger {
	p.loggerMu.RLock()
	defer p.loggerMu.RUnlock()
	return p.logger
}

// Start begins the polling loop. The first cycle runs immediately.
//
// Returns an error if the poller is already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("telemetry: poller already running")
	}
	p.running = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	p.getLogger().Info("telemetry poller starting", "interval", p.interval)

	p.wg.Add(1)
	go p.loop(ctx)

	return nil
}

// Stop stops the polling loop and waits for the current cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()
	p.getLogger().Info("telemetry poller stopped")
}

// loop runs poll cycles until Stop is called or the context ends.
func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one polling cycle: every module's live signals, then the
// alarm register. Individual read failures are logged and skipped so
// one faulted sensor does not stall the rest of the cycle.
func (p *Poller) Poll(ctx context.Context) {
	for _, module := range p.instrument.Modules() {
		p.pollModule(ctx, module)
	}
	p.pollAlarms(ctx)
}

// pollModule reads the live signals appropriate to the module's class.
func (p *Poller) pollModule(ctx context.Context, module itc.Module) {
	uid := module.UID()

	switch m := module.(type) {
	case temperatureSignals:
		p.readSignal(ctx, uid, "SIG:TEMP", m.Temperature)
		p.readSignal(ctx, uid, "SIG:VOLT", m.Voltage)
		p.readSignal(ctx, uid, "SIG:RES", m.Resistance)
		p.readSignal(ctx, uid, "SIG:SLOP", m.Slope)
	case heaterSignals:
		p.readSignal(ctx, uid, "SIG:VOLT", m.Voltage)
		p.readSignal(ctx, uid, "SIG:CURR", m.Current)
		p.readPower(ctx, uid, m)
	case auxSignals:
		p.readSignal(ctx, uid, "SIG:PERC", m.PercentOpen)
	default:
		p.getLogger().Debug("no live signals for module", "uid", uid, "class", module.Class())
	}
}

// readSignal reads one scaled signal and distributes the reading.
func (p *Poller) readSignal(ctx context.Context, uid, signal string, read func() (itc.Reading, error)) {
	reading, err := read()
	if err != nil {
		p.getLogger().Warn("signal read failed", "uid", uid, "signal", signal, "error", err)
		return
	}
	p.distribute(ctx, uid, signal, reading)
}

// readPower reads heater power, which some environments do not report.
func (p *Poller) readPower(ctx context.Context, uid string, m heaterSignals) {
	watts, err := m.Power()
	if err != nil {
		if errors.Is(err, itc.ErrUnsupported) {
			p.getLogger().Debug("heater power not reported", "uid", uid)
			return
		}
		p.getLogger().Warn("signal read failed", "uid", uid, "signal", "SIG:POWR", "error", err)
		return
	}
	p.distribute(ctx, uid, "SIG:POWR", itc.Reading{Value: watts, Unit: "W"})
}

// distribute fans one decoded reading out to every destination.
func (p *Poller) distribute(ctx context.Context, uid, signal string, reading itc.Reading) {
	log := p.getLogger()

	if p.store != nil {
		if err := p.store.RecordReading(ctx, uid, signal, reading.Value, reading.Unit); err != nil {
			log.Error("recording reading failed", "uid", uid, "signal", signal, "error", err)
		}
	}

	for _, sink := range p.sinks {
		sink.WriteReading(uid, signal, reading.Value, reading.Unit)
	}

	if p.broker != nil {
		payload, err := json.Marshal(reading)
		if err != nil {
			log.Error("encoding reading failed", "uid", uid, "signal", signal, "error", err)
			return
		}
		topic := mqtt.Topics{}.Reading(uid, signal)
		if err := p.broker.Publish(topic, payload, p.qos, false); err != nil {
			log.Warn("publishing reading failed", "topic", topic, "error", err)
		}
	}
}

// pollAlarms reads the alarm register and records new or changed alarms.
func (p *Poller) pollAlarms(ctx context.Context) {
	log := p.getLogger()

	alarms, err := p.instrument.Alarms()
	if err != nil {
		log.Warn("alarm poll failed", "error", err)
		return
	}

	for uid, message := range alarms {
		if p.lastAlarms[uid] == message {
			continue
		}
		log.Warn("instrument alarm", "uid", uid, "message", message)

		if p.store != nil {
			if err := p.store.RecordAlarm(ctx, uid, message); err != nil {
				log.Error("recording alarm failed", "uid", uid, "error", err)
			}
		}
		for _, sink := range p.sinks {
			sink.WriteAlarm(uid, message)
		}
		if p.broker != nil {
			topic := mqtt.Topics{}.Alarm(uid)
			if err := p.broker.Publish(topic, []byte(message), p.qos, false); err != nil {
				log.Warn("publishing alarm failed", "topic", topic, "error", err)
			}
		}
	}

	for uid := range p.lastAlarms {
		if _, still := alarms[uid]; !still {
			log.Info("instrument alarm cleared", "uid", uid)
		}
	}

	p.lastAlarms = alarms
}
