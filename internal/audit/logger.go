// Package audit persists auth events to the audit_logs table.
package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/audit/domain"
	auditrepo "craft-beer-store/backend/internal/audit/repository"
	telemetrydomain "craft-beer-store/backend/internal/telemetry/domain"
)

// ResourceAccount is the resource recorded for every auth event.
const ResourceAccount = "account"

type eventMetadata struct {
	Source            string `json:"source,omitempty"`
	RemainingAttempts *int   `json:"remainingAttempts,omitempty"`
}

// Logger writes auth events to the audit repository. It implements telemetry.EventEmitter.
// Emit is best-effort: failures are logged and returned for the caller to ignore.
type Logger struct {
	repo auditrepo.Repository
	log  zerolog.Logger
}

// NewLogger returns a Logger that persists to repo.
func NewLogger(repo auditrepo.Repository, log zerolog.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Emit writes one audit log entry for event.
func (l *Logger) Emit(ctx context.Context, event *telemetrydomain.AuthEvent) error {
	if l == nil || l.repo == nil || event == nil {
		return nil
	}
	entry := FromEvent(event)
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn().Err(err).Str("action", entry.Action).Msg("audit: failed to log event")
		return err
	}
	return nil
}

// FromEvent maps an auth event to its audit row.
func FromEvent(event *telemetrydomain.AuthEvent) *domain.AuditLog {
	meta := eventMetadata{Source: event.Source}
	if event.Type == telemetrydomain.EventLoginFailed {
		n := event.RemainingAttempts
		meta.RemainingAttempts = &n
	}
	raw, _ := json.Marshal(meta)
	ip := event.IP
	if ip == "" {
		ip = "unknown"
	}
	return &domain.AuditLog{
		ID:        event.ID,
		Email:     event.Email,
		Action:    string(event.Type),
		Resource:  ResourceAccount,
		IP:        ip,
		Metadata:  string(raw),
		CreatedAt: event.CreatedAt,
	}
}
