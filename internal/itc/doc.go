// Package itc drives an Oxford Instruments MercuryITC cryogenic
// temperature controller over its line-based text protocol.
//
// This package manages:
//   - Transport sessions over TCP (Ethernet) or raw serial (USB)
//   - The READ/SET command codec and response parsing
//   - Module discovery from the instrument's catalogue
//   - Typed, validated attribute access per module class
//   - A per-module cache of device-confirmed attribute values
//
// # Architecture
//
// One Driver owns one transport session. Connecting queries the module
// catalogue and materialises a typed object per fitted board:
//
//	Driver (SYS) ── TempSensor (DEV:MB1.T1:TEMP)
//	            ├── Heater     (DEV:MB0.H1:HTR)
//	            └── Aux        (DEV:DB4.G1:AUX)
//
// Every attribute read or write, on any module, funnels through the
// driver's single exchange point: one request line out, one response
// line in, under one mutex. The instrument has no request identities,
// so interleaved exchanges would corrupt response framing.
//
// # Attribute Contracts
//
// Each module class carries a closed, compile-time table of attribute
// descriptors: protocol token, value kind, writability, cacheability and
// validator. Writes are validated locally before anything touches the
// wire; values the instrument itself can change (measured signals,
// ramping setpoints) are never cached, and only device-confirmed values
// ever enter the cache.
//
// # Error Taxonomy
//
// Transport faults wrap ErrNotConnected, ErrConnectionFailed or
// ErrTimeout. Protocol faults are ProtocolError values wrapping
// ErrRejected or ErrMalformed. Locally refused writes are
// ValidationError values; environment-dependent attributes surface
// ErrUnsupported. All are matchable with errors.Is / errors.As.
//
// # Usage
//
//	transport, err := itc.DialTCP(itc.TCPConfig{Address: "10.0.0.5:7020"})
//	if err != nil {
//	    return err
//	}
//	driver, err := itc.Connect(transport)
//	if err != nil {
//	    return err
//	}
//	defer driver.Close()
//
//	for _, sensor := range driver.TempSensors() {
//	    reading, err := sensor.Temperature()
//	    ...
//	}
//
// # Thread Safety
//
// Driver and all module types are safe for concurrent use from multiple
// goroutines; exchanges serialise on the driver's mutex.
package itc
