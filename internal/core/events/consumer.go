package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer replays forwarded events from a topic onto a local bus.
type KafkaConsumer struct {
	reader messageReader
	bus    *EventBus
	logger *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, bus *EventBus, logger *slog.Logger) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newKafkaConsumer(r, bus, logger)
}

func newKafkaConsumer(r messageReader, bus *EventBus, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{reader: r, bus: bus, logger: logger}
}

// Run consumes until ctx is cancelled. A message is committed once every
// local handler accepted it; undecodable messages are logged and skipped.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka: fetch: %w", err)
		}

		if err := c.dispatch(ctx, msg); err != nil {
			c.logger.Error("event replay failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("kafka: commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *KafkaConsumer) dispatch(ctx context.Context, msg kafka.Message) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.logger.Warn("skipping undecodable event", "offset", msg.Offset, "error", err)
		return nil
	}

	data, _ := env.Payload.(map[string]interface{})
	return c.bus.PublishSync(ctx, BaseEvent{
		ID:        env.ID,
		Type:      env.Type,
		Key:       string(msg.Key),
		Timestamp: env.OccurredAt,
		Data:      data,
	})
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
