package di

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storycanvas/infrastructure/config"
)

const shutdownTimeout = 30 * time.Second

// Serve runs the HTTP server until ctx is cancelled and then shuts it down,
// flushing telemetry last. With a config file in use the log level follows it.
func (c *Container) Serve(ctx context.Context) error {
	logger := c.Logger

	if c.Config.ConfigFile != "" {
		watcher, err := config.NewWatcher(c.Config, logger.Named("config"))
		if err != nil {
			logger.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			config.FollowLogLevel(watcher, c.LogLevel)
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         c.Config.ServerAddress,
		Handler:      c.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: c.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logger.Info("Starting server",
			zap.String("address", c.Config.ServerAddress),
			zap.String("environment", c.Config.Environment),
			zap.String("storage", c.Config.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed to start", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	return c.Shutdown(shutdownCtx)
}
