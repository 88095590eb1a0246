package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes every audit event to a Kafka topic for downstream
// compliance consumers. The store remains the local source of truth; the
// sink is best suited for fan-out to systems that must not query the ledger
// directly.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// kafkaPayload is the JSON structure published to the topic. Field names
// match Event for proper deserialization by consumers.
type kafkaPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	Action    string `json:"Action"`
	Identity  string `json:"Identity,omitempty"`
	Amount    uint64 `json:"Amount,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// NewKafkaSink connects to the given brokers. Returns nil when no brokers
// are configured so callers can wire it unconditionally.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

// Emit publishes one event synchronously. Audit delivery is part of the
// operation boundary, so a broker failure surfaces to the caller instead of
// being dropped.
func (s *KafkaSink) Emit(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(kafkaPayload{
		ID:        event.ID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    event.Action,
		Identity:  event.Identity.String(),
		Amount:    event.Amount,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Identity.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (s *KafkaSink) Close() {
	if s == nil {
		return
	}
	s.client.Close()
}
