// Package telemetry polls live instrument signals on a fixed interval.
//
// Each cycle reads the signal attributes appropriate to every discovered
// module (temperature for sensors, voltage/current/power for heaters,
// valve opening for gas-flow boards) and fans the decoded readings out to:
//
//   - the local SQLite history store
//   - the MQTT broker (topic cryocore/reading/<uid>/<signal>)
//   - any enabled time-series sinks (InfluxDB, VictoriaMetrics)
//
// The alarm register is polled in the same cycle. Only new or changed
// alarm messages are recorded, so a persistent alarm produces one entry
// rather than one per cycle.
//
// The package also hosts the MQTT command listener: attribute writes
// published to cryocore/command/<uid>/<token> are applied through the
// driver and answered on the matching .../result topic.
//
// # Usage
//
//	poller := telemetry.New(driver, telemetry.Config{
//	    Interval: cfg.TelemetryInterval(),
//	    QoS:      byte(cfg.MQTT.QoS),
//	})
//	poller.SetStore(store)
//	poller.SetBroker(mqttClient)
//	poller.AddSink(influxClient)
//
//	if err := poller.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer poller.Stop()
//
// # Error Handling
//
// A failed signal read is logged and skipped; the cycle continues with
// the remaining signals. Destination failures never abort a cycle.
package telemetry
