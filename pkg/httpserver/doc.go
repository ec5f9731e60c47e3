// Package httpserver runs an http.Handler with graceful shutdown driven by a
// context, and provides a JSON health check handler for liveness and
// readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
package httpserver
