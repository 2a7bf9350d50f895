package order

import (
	"context"

	"github.com/dmitrymomot/tenantkit/pkg/events"
)

// SNSPublisher delivers order events to the platform notification topic.
// Downstream consumers filter on the tenant_id and event_type attributes.
type SNSPublisher struct {
	topic *events.SNSPublisher
}

// NewSNSPublisher wraps the shared SNS topic publisher.
func NewSNSPublisher(topic *events.SNSPublisher) *SNSPublisher {
	return &SNSPublisher{topic: topic}
}

func (p *SNSPublisher) Publish(ctx context.Context, evt Event) error {
	return p.topic.Publish(ctx, "Order Event: "+evt.EventType, evt, map[string]string{
		"tenant_id":  evt.TenantID,
		"event_type": evt.EventType,
	})
}

// BroadcastPublisher fans order events out to in-process subscribers,
// used in tests and single-node deployments.
type BroadcastPublisher struct {
	broadcaster events.Broadcaster[Event]
}

// NewBroadcastPublisher wraps an event broadcaster.
func NewBroadcastPublisher(b events.Broadcaster[Event]) *BroadcastPublisher {
	return &BroadcastPublisher{broadcaster: b}
}

func (p *BroadcastPublisher) Publish(ctx context.Context, evt Event) error {
	return p.broadcaster.Broadcast(ctx, events.Message[Event]{Data: evt})
}
