// Package api implements the HTTP API server for the cryo-core daemon.
//
// The server exposes a versioned REST API under /api/v1 for the
// instrument's system settings, discovered modules, attribute access and
// alarm state, plus the local reading/alarm history recorded by the
// telemetry poller.
//
// # Architecture
//
// The server uses chi for routing with a standard middleware stack:
//
//	Request → RequestID → Logging → Recovery → CORS → BodyLimit → Handler
//
// Handlers talk to the instrument through the shared driver; the driver
// serializes wire exchanges internally, so concurrent HTTP requests are
// safe but slow requests queue behind each other at the instrument link.
//
// # Error Responses
//
// All errors use a consistent JSON shape:
//
//	{"status": 422, "code": "validation_error", "message": "..."}
//
// Driver errors map onto HTTP statuses: validation failures are 422,
// instrument rejections 409, unknown attributes 404, lost connections
// 503 and exchange timeouts 504.
//
// # Usage
//
//	server, err := api.New(api.Deps{
//	    Config:  cfg.API,
//	    Logger:  logger,
//	    Driver:  driver,
//	    History: store,
//	    Version: version,
//	})
//	if err != nil {
//	    return err
//	}
//	server.Start(ctx)
//	defer server.Close()
package api
