package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"resort/di"
	"resort/shared/logger"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.InitLogger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Notification consumer failed")
	}

	log.Info().Msg("Notification consumer stopped.")
}

func run() error {
	notifier, err := di.InitializeNotifier()
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	logger.SetLogLevel(notifier.Config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return consume(ctx, notifier)
}

// consume runs until ctx ends or the consumer fails, then flushes traces
// either way.
func consume(ctx context.Context, notifier *di.Notifier) error {
	topic, group := notifier.Config.Kafka.NotificationTopic, notifier.Config.Kafka.ConsumerGroup

	log.Info().Str("topic", topic).Str("group", group).Msg("Starting notification consumer.")

	consumeErr := notifier.Client.Consume(ctx, group, topic, notifier.Dispatcher.Handle)
	if consumeErr != nil {
		log.Error().Err(consumeErr).Msg("Notification consumer stopped with an error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := notifier.Otel.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}

	return consumeErr
}
