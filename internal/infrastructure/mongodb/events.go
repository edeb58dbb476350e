package mongodb

import (
	"context"
	"fmt"

	"github.com/wms-platform/posting-service/internal/domain"
	"github.com/wms-platform/posting-service/pkg/cloudevents"
	"github.com/wms-platform/posting-service/pkg/outbox"
)

const documentAggregateType = "Document"

// OutboxEventPublisher implements domain.EventPublisher by writing CloudEvents
// to the transactional outbox. Events become visible to the relay only when
// the surrounding transaction commits.
type OutboxEventPublisher struct {
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
	topic        string
}

// NewOutboxEventPublisher creates a new OutboxEventPublisher
func NewOutboxEventPublisher(outboxRepo outbox.Repository, eventFactory *cloudevents.EventFactory, topic string) *OutboxEventPublisher {
	return &OutboxEventPublisher{
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
		topic:        topic,
	}
}

// Publish stores events for a document within the caller's transaction
func (p *OutboxEventPublisher) Publish(ctx context.Context, aggregateID string, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		cloudEvent := p.eventFactory.CreateDocumentEvent(ctx, event.EventType(), aggregateID, event)
		cloudEvent.Time = event.OccurredAt().UTC()

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, documentAggregateType, p.topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := p.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}
