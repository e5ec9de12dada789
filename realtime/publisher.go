package realtime

import (
	"context"
	"sync/atomic"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

// Sink receives every published event.
type Sink interface {
	Send(ctx context.Context, event cloudevents.Event) error
	Close() error
}

// Publisher fans change events out to its sinks. Sink failures are logged and
// never returned to the caller.
type Publisher struct {
	sinks []Sink
	log   *zap.Logger
	now   func() time.Time

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// DeliveryStats counts sink deliveries since start.
type DeliveryStats struct {
	Delivered uint64
	Dropped   uint64
}

func NewPublisher(log *zap.Logger, sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, log: log, now: time.Now}
}

func (p *Publisher) Publish(ctx context.Context, change Change) {
	if p == nil {
		return
	}

	event, err := NewEvent(change, p.now())
	if err != nil {
		p.log.Error("failed to build change event", zap.String("type", change.Type()), zap.Error(err))
		return
	}

	for _, sink := range p.sinks {
		if err := sink.Send(ctx, event); err != nil {
			p.dropped.Add(1)
			p.log.Warn("change event not delivered",
				zap.String("type", event.Type()),
				zap.String("event_id", event.ID()),
				zap.Error(err))
			continue
		}
		p.delivered.Add(1)
	}
}

func (p *Publisher) Stats() DeliveryStats {
	if p == nil {
		return DeliveryStats{}
	}
	return DeliveryStats{Delivered: p.delivered.Load(), Dropped: p.dropped.Load()}
}

func (p *Publisher) Close() error {
	var firstErr error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
