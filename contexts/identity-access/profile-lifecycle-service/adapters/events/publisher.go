package eventsadapter

import (
	"context"

	"paideia/internal/platform/messaging"
	"paideia/internal/shared/events"
)

// Topic carries every lifecycle event; consumers filter on event_type.
const Topic = "identity.lifecycle"

// BusPublisher publishes lifecycle envelopes on the in-process bus.
type BusPublisher struct {
	bus *messaging.Bus
}

func NewBusPublisher(bus *messaging.Bus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

func (p *BusPublisher) PublishLifecycleEvent(ctx context.Context, event events.Envelope) error {
	return p.bus.Publish(ctx, Topic, event)
}
