package kafka

import (
	"context"
	"io"

	"github.com/wms-platform/posting-service/pkg/cloudevents"
	"github.com/wms-platform/posting-service/pkg/logging"
	"github.com/wms-platform/posting-service/pkg/metrics"
	"github.com/wms-platform/posting-service/pkg/resilience"
)

// CircuitBreakerProducer guards a publisher with a circuit breaker
type CircuitBreakerProducer struct {
	producer       EventPublisher
	closer         io.Closer
	circuitBreaker *resilience.CircuitBreaker
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer EventPublisher, closer io.Closer, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5
	if m != nil {
		config.Observer = func(name string, state int, tripped bool) {
			m.SetCircuitBreakerState(name, state)
			if tripped {
				m.RecordCircuitBreakerTrip(name)
			}
		}
	}

	var cb *resilience.CircuitBreaker
	if logger != nil {
		cb = resilience.NewCircuitBreaker(config, logger.Logger)
	} else {
		cb = resilience.NewCircuitBreaker(config, nil)
	}

	return &CircuitBreakerProducer{
		producer:       producer,
		closer:         closer,
		circuitBreaker: cb,
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.CloudEvent) error {
	return p.circuitBreaker.Execute(ctx, func() error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// NewProductionProducer creates a Kafka producer with instrumentation and a circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	base := NewProducer(config)
	instrumented := NewInstrumentedProducer(base, m, logger)
	return NewCircuitBreakerProducer(instrumented, base, m, logger)
}
