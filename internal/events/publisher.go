package events

import (
	"context"
	"log"

	"property-backend/internal/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, PaymentEvent) error { return nil }

type sink struct {
	name string
	pub  Publisher
}

// Fanout delivers each event to every registered sink. A failing sink is
// logged and counted but never stops delivery to the others, and Publish
// never fails: the payment change is already committed.
type Fanout struct {
	sinks []sink
}

func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a named sink. Nil publishers are ignored.
func (f *Fanout) Add(name string, pub Publisher) *Fanout {
	if pub != nil {
		f.sinks = append(f.sinks, sink{name: name, pub: pub})
	}
	return f
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Publish(ctx context.Context, event PaymentEvent) error {
	for _, s := range f.sinks {
		if err := s.pub.Publish(ctx, event); err != nil {
			log.Printf("[Events] %s publish %s for payment %s failed: %v", s.name, event.Kind, event.PaymentID, err)
			metrics.EventPublishFailures.WithLabelValues(s.name).Inc()
		}
	}
	return nil
}
