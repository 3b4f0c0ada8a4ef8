package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/metrics"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProductSyncer refreshes the facet values of one product.
type ProductSyncer interface {
	SyncProduct(ctx context.Context, productID uuid.UUID) (models.SyncReport, error)
	DeleteProductFacets(ctx context.Context, productID uuid.UUID) error
}

// Consumer applies product events to the facet tables.
type Consumer struct {
	reader  messageReader
	syncer  ProductSyncer
	metrics *metrics.Metrics
	log     *zerolog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, syncer ProductSyncer, m *metrics.Metrics) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	c := newConsumer(r, syncer, m)
	l := c.log.With().Str("topic", topic).Str("group", groupID).Logger()
	c.log = &l
	return c
}

func newConsumer(r messageReader, syncer ProductSyncer, m *metrics.Metrics) *Consumer {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Consumer{
		reader:  r,
		syncer:  syncer,
		metrics: m,
		log:     logger.WithComponent("kafka-consumer"),
	}
}

// Run consumes until ctx is cancelled. A message is committed once handled;
// undecodable messages are committed and dropped, while store failures leave
// the offset in place so the event is redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info().Msg("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info().Msg("consumer stopping")
				return nil
			}
			c.log.Error().Err(err).Msg("failed to fetch message")
			return err
		}

		if err := c.Handle(ctx, msg.Value); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("failed to process message")
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error().Err(err).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("failed to commit message")
		}
	}
}

// Handle applies a single message value. Malformed events are logged and
// reported as handled.
func (c *Consumer) Handle(ctx context.Context, value []byte) error {
	ev, err := Decode(value)
	if err != nil {
		c.metrics.ProductEventsTotal.WithLabelValues("consumed", "invalid").Inc()
		c.log.Warn().Err(err).Msg("dropping malformed product event")
		return nil
	}

	switch ev.Type {
	case TypeProductChanged:
		_, err = c.syncer.SyncProduct(ctx, ev.ProductID)
		if errors.Is(err, apperrors.ErrNotFound) {
			// deleted since the event was published; its facets are already pruned
			err = nil
		}
	case TypeProductDeleted:
		err = c.syncer.DeleteProductFacets(ctx, ev.ProductID)
	}
	if err != nil {
		c.metrics.ProductEventsTotal.WithLabelValues("consumed", "error").Inc()
		return err
	}
	c.metrics.ProductEventsTotal.WithLabelValues("consumed", "ok").Inc()
	c.log.Debug().Str("type", ev.Type).Str("product_id", ev.ProductID.String()).Msg("product event applied")
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
