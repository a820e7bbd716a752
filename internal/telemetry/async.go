package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long shutdown waits for in-flight async emits before
// closing the sinks. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// AsyncEmitter runs the wrapped emitter in a goroutine so request handlers are never blocked
// by a slow sink. Errors are logged.
type AsyncEmitter struct {
	inner EventEmitter
	log   zerolog.Logger
	wg    sync.WaitGroup
}

// NewAsyncEmitter wraps inner. A nil inner yields an emitter that drops events.
func NewAsyncEmitter(inner EventEmitter, log zerolog.Logger) *AsyncEmitter {
	return &AsyncEmitter{inner: inner, log: log}
}

// Emit copies event and hands it to a goroutine that uses context.Background() with
// emitTimeout, so request cancellation does not abort the emit. Always returns nil.
func (a *AsyncEmitter) Emit(_ context.Context, event *domain.AuthEvent) error {
	if a == nil || a.inner == nil || event == nil {
		return nil
	}
	ev := *event
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.inner.Emit(emitCtx, &ev); err != nil {
			a.log.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("telemetry: async emit failed")
		}
	}()
	return nil
}

// Wait blocks until every in-flight emit has finished or ctx is done.
func (a *AsyncEmitter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
