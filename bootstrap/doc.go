// Package bootstrap provides application initialization and lifecycle management.
// It wires configuration, logging, metrics, the heartbeat service and the
// scheduler into an App with a start/stop lifecycle.
//
// Usage:
//
//	app, err := bootstrap.NewApp(ctx, bootstrap.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
//
//	if err := app.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Wait for shutdown signal
//	app.WaitForShutdown(ctx)
package bootstrap
