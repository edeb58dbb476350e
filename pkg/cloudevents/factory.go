package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/posting-service/pkg/logging"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// Source returns the factory's event source
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new CloudEvent. The correlation id and W3C trace
// parent are copied from the context when present.
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *CloudEvent {
	event := &CloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		event.TraceParent = traceParent(sc)
	}

	return event
}

// CreateDocumentEvent creates an event whose subject is the posted document
func (f *EventFactory) CreateDocumentEvent(
	ctx context.Context,
	eventType string,
	documentID string,
	data interface{},
) *CloudEvent {
	event := f.CreateEvent(ctx, eventType, "document/"+documentID, data)
	event.DocumentID = documentID
	return event
}

func traceParent(sc trace.SpanContext) string {
	return "00-" + sc.TraceID().String() + "-" + sc.SpanID().String() + "-" + sc.TraceFlags().String()
}
