package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/shop-backoffice/internal/core/events"
	"github.com/frahmantamala/shop-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that consume the domain event stream.`,
}

var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail domain events from Kafka into the audit log",
	Long:  `Consume the configured Kafka topic and log every domain event the API published.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startEventWorker()
	},
}

var consumerGroup string

func startEventWorker() error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	k := config.Events.Kafka
	if !k.Enabled {
		return errors.New("events.kafka.enabled is false; nothing to consume")
	}

	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	for _, t := range events.AllEventTypes {
		bus.Subscribe(t, func(ctx context.Context, event events.Event) error {
			lg.Info("domain event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"occurred_at", event.OccurredAt(),
				"payload", event.Payload())
			return nil
		})
	}

	consumer := events.NewKafkaConsumer(k.Brokers, k.Topic, consumerGroup, bus, lg)
	defer func() {
		if err := consumer.Close(); err != nil {
			lg.Error("kafka reader close error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("event worker started", "brokers", k.Brokers, "topic", k.Topic, "group", consumerGroup)
	if err := consumer.Run(ctx); err != nil {
		return fmt.Errorf("event worker: %w", err)
	}
	lg.Info("event worker stopped")
	return nil
}

func init() {
	eventWorkerCmd.Flags().StringVar(&consumerGroup, "group", "backoffice-audit", "Kafka consumer group id")

	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
