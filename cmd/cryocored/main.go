// cryocored - host-side daemon for Oxford MercuryITC temperature controllers.
//
// The daemon owns one instrument link (TCP or serial), exposes the
// controller over a REST API, polls live signals into a local SQLite
// history and fans readings out to MQTT and optional time-series sinks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/kelvinworks/cryo-core/migrations"

	"github.com/kelvinworks/cryo-core/internal/api"
	"github.com/kelvinworks/cryo-core/internal/history"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/config"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/database"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/influxdb"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/logging"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/mqtt"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/tsdb"
	"github.com/kelvinworks/cryo-core/internal/itc"
	"github.com/kelvinworks/cryo-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting cryocored",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to the instrument
	driver, err := connectInstrument(cfg)
	if err != nil {
		return fmt.Errorf("connecting to instrument: %w", err)
	}
	driver.SetLogger(log)
	defer func() {
		log.Info("closing instrument link")
		if closeErr := driver.Close(); closeErr != nil {
			log.Error("error closing instrument link", "error", closeErr)
		}
	}()
	log.Info("instrument connected", "modules", len(driver.Modules()))

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	store := history.NewSQLiteStore(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to VictoriaMetrics (optional)
	var tsdbClient *tsdb.Client
	if cfg.TSDB.Enabled {
		tsdbClient, err = tsdb.Connect(ctx, cfg.TSDB)
		if err != nil {
			return fmt.Errorf("connecting to tsdb: %w", err)
		}
		defer func() {
			log.Info("closing tsdb connection")
			if closeErr := tsdbClient.Close(); closeErr != nil {
				log.Error("error closing tsdb", "error", closeErr)
			}
		}()
		log.Info("tsdb connected", "url", cfg.TSDB.URL)

		tsdbClient.SetOnError(func(err error) {
			log.Error("tsdb write error", "error", err)
		})
	} else {
		log.Info("tsdb disabled")
	}

	// Start the telemetry poller (optional)
	if cfg.Telemetry.Enabled {
		poller := telemetry.New(driver, telemetry.Config{
			Interval: cfg.TelemetryInterval(),
			QoS:      byte(cfg.MQTT.QoS),
		})
		poller.SetLogger(log)
		poller.SetStore(store)
		if mqttClient != nil {
			poller.SetBroker(mqttClient)
		}
		if influxClient != nil {
			poller.AddSink(influxClient)
		}
		if tsdbClient != nil {
			poller.AddSink(tsdbClient)
		}

		if startErr := poller.Start(ctx); startErr != nil {
			return fmt.Errorf("starting telemetry poller: %w", startErr)
		}
		defer func() {
			log.Info("stopping telemetry poller")
			poller.Stop()
		}()
		log.Info("telemetry poller started", "interval", cfg.TelemetryInterval())
	} else {
		log.Info("telemetry poller disabled")
	}

	// Accept attribute commands over MQTT (optional)
	if mqttClient != nil {
		commands := telemetry.NewCommands(driver, mqttClient, byte(cfg.MQTT.QoS))
		commands.SetLogger(log)
		if startErr := commands.Start(); startErr != nil {
			return fmt.Errorf("starting command listener: %w", startErr)
		}
		defer func() {
			log.Info("stopping command listener")
			if closeErr := commands.Close(); closeErr != nil {
				log.Error("error closing command listener", "error", closeErr)
			}
		}()
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Driver:  driver,
		History: store,
		MQTT:    mqttClient,
		DB:      db,
		TSDB:    tsdbClient,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, tsdbClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API server, poller,
	// sinks, MQTT, database, instrument link.

	log.Info("cryocored stopped")
	return nil
}

// connectInstrument opens the configured transport and connects the
// instrument driver over it.
func connectInstrument(cfg *config.Config) (*itc.Driver, error) {
	var transport itc.Transport
	var err error

	switch cfg.Instrument.Transport {
	case "tcp":
		transport, err = itc.DialTCP(itc.TCPConfig{
			Address:     cfg.Instrument.Address,
			ReadTimeout: cfg.InstrumentReadTimeout(),
		})
	case "serial":
		transport, err = itc.OpenSerial(itc.SerialConfig{
			Device:      cfg.Instrument.Device,
			Baud:        cfg.Instrument.Baud,
			ReadTimeout: cfg.InstrumentReadTimeout(),
		})
	default:
		return nil, fmt.Errorf("unknown instrument transport %q", cfg.Instrument.Transport)
	}
	if err != nil {
		return nil, err
	}

	return itc.Connect(transport)
}

// getConfigPath returns the configuration file path.
// Uses CRYOCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CRYOCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - tsdbClient: VictoriaMetrics client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, tsdbClient *tsdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if tsdbClient != nil {
		if err := tsdbClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("tsdb: %w", err)
		}
	}

	return nil
}
