package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"craft-beer-store/backend/internal/telemetry"
	"craft-beer-store/backend/internal/telemetry/domain"
)

const instrumentationName = "craftbeer.auth"

// recordEmitter is the part of otellog.Logger the emitter uses.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends auth events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &logEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.AuthEvent) error { return nil }

type logEmitter struct {
	logger recordEmitter
}

// Emit converts the auth event to an OTel log record. Failed and blocked logins are WARN.
func (e *logEmitter) Emit(ctx context.Context, event *domain.AuthEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetEventName(string(event.Type))
	rec.SetSeverity(severity(event.Type))
	rec.SetSeverityText(severity(event.Type).String())
	if body, err := json.Marshal(event); err == nil {
		rec.SetBody(otellog.BytesValue(body))
	}
	rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	if event.Email != "" {
		rec.AddAttributes(otellog.String("email", event.Email))
	}
	if event.IP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.IP))
	}
	if event.Type == domain.EventLoginFailed {
		rec.AddAttributes(otellog.Int("remaining_attempts", event.RemainingAttempts))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severity(t domain.EventType) otellog.Severity {
	switch t {
	case domain.EventLoginFailed, domain.EventUnknownAccount, domain.EventLoginRejected, domain.EventAccountLocked:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
