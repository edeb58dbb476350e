package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/posting-service/pkg/logging"
	"github.com/wms-platform/posting-service/pkg/metrics"
	"github.com/wms-platform/posting-service/pkg/tracing"
)

// Instrumentation records metrics, spans and slow-query logs for
// repository operations. A nil *Instrumentation runs operations bare.
type Instrumentation struct {
	database      string
	metrics       *metrics.Metrics
	logger        *logging.Logger
	tracer        trace.Tracer
	slowThreshold time.Duration
}

// NewInstrumentation creates instrumentation for one database
func NewInstrumentation(database string, m *metrics.Metrics, logger *logging.Logger) *Instrumentation {
	return &Instrumentation{
		database:      database,
		metrics:       m,
		logger:        logger,
		tracer:        otel.Tracer("mongodb"),
		slowThreshold: 100 * time.Millisecond,
	}
}

// Observe runs fn as a named operation on collection. A missing document
// is not counted as a failure.
func (i *Instrumentation) Observe(ctx context.Context, collection, operation string, fn func(ctx context.Context) error) error {
	if i == nil {
		return fn(ctx)
	}

	start := time.Now()
	ctx, span := i.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(i.database, operation, collection)...),
	)

	err := fn(ctx)
	duration := time.Since(start)
	success := err == nil || errors.Is(err, mongo.ErrNoDocuments)

	if i.metrics != nil {
		i.metrics.RecordMongoDBOperation(collection, operation, success, duration)
	}
	if i.logger != nil && (!success || duration > i.slowThreshold) {
		i.logger.DatabaseQuery(ctx, collection, operation, duration, success, 0)
	}

	if success {
		tracing.EndSpan(span, nil)
	} else {
		tracing.EndSpan(span, err)
	}
	return err
}
