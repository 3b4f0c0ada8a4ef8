// Package events carries product catalog changes over Kafka so facet values
// can be refreshed outside the request that wrote the product.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeProductChanged = "product.changed"
	TypeProductDeleted = "product.deleted"
)

// ProductEvent is the JSON value of a product event message. The message key
// is the product id, so every event of one product lands on one partition and
// is consumed in order.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  uuid.UUID `json:"product_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e ProductEvent) Validate() error {
	if e.Type != TypeProductChanged && e.Type != TypeProductDeleted {
		return fmt.Errorf("unknown product event type %q", e.Type)
	}
	if e.ProductID == uuid.Nil {
		return fmt.Errorf("product event %q without product_id", e.Type)
	}
	return nil
}

// Encode renders the event as a Kafka message keyed by product id.
func Encode(e ProductEvent) (kafka.Message, error) {
	if err := e.Validate(); err != nil {
		return kafka.Message{}, err
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling product event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.ProductID.String()),
		Value: value,
		Time:  e.OccurredAt,
	}, nil
}

// Decode parses and validates a product event message value.
func Decode(value []byte) (ProductEvent, error) {
	var e ProductEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("decoding product event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}
