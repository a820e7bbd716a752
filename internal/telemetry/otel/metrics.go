package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"craft-beer-store/backend/internal/telemetry/domain"
)

// Metric names.
const (
	LoginAttemptsMetric = "auth.login.attempts"
	LockoutsMetric      = "auth.account.lockouts"
)

// MetricEmitter counts auth events. It implements telemetry.EventEmitter.
type MetricEmitter struct {
	attempts metric.Int64Counter
	lockouts metric.Int64Counter
}

// NewMetricEmitter registers the auth counters on meter.
func NewMetricEmitter(meter metric.Meter) (*MetricEmitter, error) {
	attempts, err := meter.Int64Counter(LoginAttemptsMetric,
		metric.WithDescription("Login attempts by outcome"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", LoginAttemptsMetric, err)
	}
	lockouts, err := meter.Int64Counter(LockoutsMetric,
		metric.WithDescription("Accounts blocked after repeated failed logins"),
		metric.WithUnit("{account}"))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", LockoutsMetric, err)
	}
	return &MetricEmitter{attempts: attempts, lockouts: lockouts}, nil
}

// Emit increments the counter matching the event type. Registration and unblock events are not counted.
func (m *MetricEmitter) Emit(ctx context.Context, event *domain.AuthEvent) error {
	if m == nil || event == nil {
		return nil
	}
	switch event.Type {
	case domain.EventLoginSucceeded, domain.EventLoginFailed, domain.EventUnknownAccount, domain.EventLoginRejected:
		m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(event.Type))))
	case domain.EventAccountLocked:
		// The locking failure is itself a bad-password attempt.
		m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(domain.EventLoginFailed))))
		m.lockouts.Add(ctx, 1)
	}
	return nil
}

func outcome(t domain.EventType) string {
	switch t {
	case domain.EventLoginSucceeded:
		return "success"
	case domain.EventLoginFailed:
		return "bad_password"
	case domain.EventUnknownAccount:
		return "unknown_account"
	default:
		return "blocked"
	}
}
