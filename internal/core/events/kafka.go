package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder relays bus events to a Kafka topic as JSON envelopes.
type KafkaForwarder struct {
	writer messageWriter
	logger *slog.Logger
}

type envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func NewKafkaForwarder(brokers []string, topic string, logger *slog.Logger) *KafkaForwarder {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaForwarder(w, logger)
}

func newKafkaForwarder(w messageWriter, logger *slog.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: w, logger: logger}
}

// Attach subscribes the forwarder to every given event type.
func (f *KafkaForwarder) Attach(bus *EventBus, eventTypes ...string) {
	for _, t := range eventTypes {
		bus.Subscribe(t, f.Handle)
	}
}

func (f *KafkaForwarder) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(envelope{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal event %s: %w", event.EventID(), err)
	}

	key := event.EventType()
	if k, ok := event.(Keyed); ok && k.PartitionKey() != "" {
		key = k.PartitionKey()
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "event_id", Value: []byte(event.EventID())},
		},
	}

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write event %s: %w", event.EventID(), err)
	}

	f.logger.Debug("event forwarded to kafka", "event_type", event.EventType(), "event_id", event.EventID())
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
