package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes product events. It satisfies services.ProductNotifier.
type Producer struct {
	writer  messageWriter
	metrics *metrics.Metrics
	log     *zerolog.Logger
	now     func() time.Time
}

func NewProducer(brokers []string, topic string, m *metrics.Metrics) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	p := newProducer(w, m)
	l := p.log.With().Str("topic", topic).Logger()
	p.log = &l
	return p
}

func newProducer(w messageWriter, m *metrics.Metrics) *Producer {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Producer{
		writer:  w,
		metrics: m,
		log:     logger.WithComponent("kafka-producer"),
		now:     time.Now,
	}
}

func (p *Producer) ProductChanged(ctx context.Context, productID uuid.UUID) error {
	return p.publish(ctx, TypeProductChanged, productID)
}

func (p *Producer) ProductDeleted(ctx context.Context, productID uuid.UUID) error {
	return p.publish(ctx, TypeProductDeleted, productID)
}

func (p *Producer) publish(ctx context.Context, eventType string, productID uuid.UUID) error {
	msg, err := Encode(ProductEvent{Type: eventType, ProductID: productID, OccurredAt: p.now().UTC()})
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.ProductEventsTotal.WithLabelValues("published", "error").Inc()
		p.log.Error().Err(err).Str("type", eventType).Str("product_id", productID.String()).Msg("failed to publish product event")
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}
	p.metrics.ProductEventsTotal.WithLabelValues("published", "ok").Inc()
	p.log.Debug().Str("type", eventType).Str("product_id", productID.String()).Msg("product event published")
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
