// Package messaging holds event publishers that need no external bus.
package messaging

import (
	"context"

	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/events"
)

// LogPublisher writes domain events to the log. It is used when no event bus is configured.
type LogPublisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a publisher that logs at info level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish logs each event
func (p *LogPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for _, e := range domainEvents {
		p.logger.Info("Domain event",
			zap.String("event_type", e.GetEventType()),
			zap.String("aggregate_id", e.GetAggregateID()),
			zap.Int("version", e.GetVersion()),
			zap.Time("timestamp", e.GetTimestamp()))
	}
	return nil
}
