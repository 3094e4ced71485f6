package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the part of *kgo.Client the publisher uses.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Metrics counts publisher activity.
type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
	Dropped   prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdi_resolver_audit_published_total",
			Help: "Resolution audit events acknowledged by the broker",
		}),
		Failed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdi_resolver_audit_failures_total",
			Help: "Resolution audit events the broker rejected",
		}),
		Dropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sdi_resolver_audit_dropped_total",
			Help: "Resolution audit events dropped while the circuit breaker was open",
		}),
	}
}

func (m *Metrics) incPublished() {
	if m != nil {
		m.Published.Inc()
	}
}

func (m *Metrics) incFailed() {
	if m != nil {
		m.Failed.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

// KafkaPublisher produces events asynchronously, keyed by DID so one
// identity's history stays in one partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *CircuitBreaker
	metrics  *Metrics
	logger   *slog.Logger
}

type KafkaOption func(*KafkaPublisher)

func WithBreaker(cb *CircuitBreaker) KafkaOption {
	return func(p *KafkaPublisher) { p.breaker = cb }
}

func WithMetrics(m *Metrics) KafkaOption {
	return func(p *KafkaPublisher) { p.metrics = m }
}

// NewKafkaPublisher produces to topic; an empty topic uses the client default.
func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger, opts ...KafkaOption) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  NewCircuitBreaker(0, 0),
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Emit hands the event to the producer and returns without waiting for the
// broker. Delivery failures are logged from the promise.
func (p *KafkaPublisher) Emit(ctx context.Context, event ResolutionEvent) error {
	if !p.breaker.Allow() {
		p.metrics.incDropped()
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode resolution event: %w", err)
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(event.DID), Value: value}
	// Delivery must outlive the request that triggered it.
	p.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.breaker.RecordFailure()
			p.metrics.incFailed()
			if p.logger != nil {
				p.logger.Warn("audit publish failed",
					"did", event.DID,
					"request_id", event.RequestID,
					"error", err,
				)
			}
			return
		}
		p.breaker.RecordSuccess()
		p.metrics.incPublished()
	})
	return nil
}
