// Package worker forwards auth events from Kafka to Loki.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const pushTimeout = 10 * time.Second

// MessageReader is the part of *kafka.Reader the worker uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Pusher ships one JSON-encoded event (e.g. *loki.Client).
type Pusher interface {
	PushEventJSON(ctx context.Context, raw []byte) error
}

// Run reads messages until ctx is done. Read and push failures are logged and skipped;
// a failed push does not stop the loop.
func Run(ctx context.Context, reader MessageReader, pusher Pusher, log zerolog.Logger) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("worker stopped")
				return
			}
			log.Warn().Err(err).Msg("kafka read failed")
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		if err := pusher.PushEventJSON(pushCtx, msg.Value); err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("loki push failed")
		}
		cancel()
	}
}
