// Package httpserver runs the HTTP API with sane timeouts and graceful
// shutdown.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns when ctx is canceled or SIGINT/SIGTERM arrives, after in-flight
// requests have drained or Config.ShutdownTimeout has passed. Listen errors
// wrap ErrStart and drain errors wrap ErrShutdown.
package httpserver
