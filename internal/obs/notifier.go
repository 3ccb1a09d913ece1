package obs

import (
	"context"

	"github.com/noah-isme/kasir-pos/internal/events"
)

// EventMetricsNotifier counts emitted domain events by topic. Register the
// domain metrics before wiring it onto the bus.
type EventMetricsNotifier struct{}

// Notify implements events.Notifier.
func (EventMetricsNotifier) Notify(_ context.Context, event events.Event) error {
	if EventsEmittedTotal != nil {
		EventsEmittedTotal.WithLabelValues(event.Topic).Inc()
	}
	return nil
}
