// Package telemetry fans authentication events out to their sinks.
package telemetry

import (
	"context"
	"errors"

	"craft-beer-store/backend/internal/telemetry/domain"
)

// EventEmitter emits auth events (e.g. to Kafka, OTel logs, the audit table). Best-effort;
// callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.AuthEvent) error
}

// Multi emits each event to every non-nil emitter in order and joins their errors.
type Multi []EventEmitter

// NewMulti returns a Multi that skips nil emitters.
func NewMulti(emitters ...EventEmitter) Multi {
	out := make(Multi, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (m Multi) Emit(ctx context.Context, event *domain.AuthEvent) error {
	if event == nil {
		return nil
	}
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
