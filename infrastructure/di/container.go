// Package di wires the backend service together with google/wire.
package di

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/application/services"
	"storycanvas/infrastructure/config"
	"storycanvas/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	LogLevel   zap.AtomicLevel
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Tracing    *observability.TracerProvider
	Repository ports.ProjectRepository
	Publisher  ports.EventPublisher
	Service    *services.ProjectService
	Handler    http.Handler
}

// Shutdown flushes traces and logs
func (c *Container) Shutdown(ctx context.Context) error {
	var err error
	if c.Tracing != nil {
		err = c.Tracing.Shutdown(ctx)
	}
	_ = c.Logger.Sync()
	return err
}
