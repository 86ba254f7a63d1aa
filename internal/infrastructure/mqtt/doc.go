// Package mqtt provides MQTT client connectivity for the cryo-core daemon.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// cryo-core publishes instrument telemetry over MQTT so lab dashboards,
// experiment scripts and recorders can consume live readings without
// holding their own connection to the instrument. The broker (Mosquitto)
// decouples the daemon from its consumers.
//
//	cryo-core ↔ MQTT Broker ↔ dashboards / loggers / experiment control
//
// # Security Considerations
//
//   - TLS is required for deployments outside the lab network (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all signal readings
//	err = client.Subscribe(mqtt.Topics{}.AllReadings(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a reading
//	topic := mqtt.Topics{}.Reading("MB1.T1", "SIG:TEMP")
//	client.Publish(topic, []byte(`{"value":4.2,"unit":"K"}`), 1, true)
package mqtt
