package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events and list the domain event types`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event on the bus; it is forwarded to Kafka when enabled in config`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var listEventTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List domain event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range events.AllEventTypes {
			fmt.Println(t)
		}
	},
}

var eventData string

func publishTestEvent(eventType string) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)

	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if k := config.Events.Kafka; k.Enabled {
		forwarder := events.NewKafkaForwarder(k.Brokers, k.Topic, lg)
		defer forwarder.Close()
		forwarder.Attach(bus, eventType)
	}

	testEvent := events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       "cli",
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)
	if err := bus.PublishSync(context.Background(), testEvent); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)
	eventCmd.AddCommand(listEventTypesCmd)

	rootCmd.AddCommand(eventCmd)
}
