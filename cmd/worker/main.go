// Worker consumes auth events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, AUTH_EVENTS_TOPIC, KAFKA_GROUP_ID and LOKI_URL. Config validation
// also requires JWT_SECRET, which the worker does not use.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"craft-beer-store/backend/internal/config"
	"craft-beer-store/backend/internal/logging"
	"craft-beer-store/backend/internal/telemetry/loki"
	"craft-beer-store/backend/internal/telemetry/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "console", "worker").Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "auth-event-worker")

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal().Msg("KAFKA_BROKERS is required")
	}
	client, err := loki.NewClient(cfg.LokiURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.AuthEventsTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("topic", cfg.AuthEventsTopic).Str("group", cfg.KafkaGroupID).Str("loki", cfg.LokiURL).Msg("consuming auth events")
	worker.Run(ctx, reader, client, log)
}
