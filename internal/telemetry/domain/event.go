package domain

import "time"

// EventType names an authentication outcome.
type EventType string

const (
	EventRegistered       EventType = "auth.register"
	EventLoginSucceeded   EventType = "auth.login.success"
	EventLoginFailed      EventType = "auth.login.failure"
	EventUnknownAccount   EventType = "auth.login.unknown_account"
	EventLoginRejected    EventType = "auth.login.rejected_blocked"
	EventAccountLocked    EventType = "auth.account.locked"
	EventAccountUnblocked EventType = "auth.account.unblocked"
)

// AuthEvent is one authentication outcome, fanned out to the audit table, Kafka, and OTel.
// It never carries passwords, hashes, or tokens.
type AuthEvent struct {
	ID                string    `json:"id"`
	Type              EventType `json:"eventType"`
	Email             string    `json:"email,omitempty"`
	Source            string    `json:"source"`
	IP                string    `json:"ip,omitempty"`
	RemainingAttempts int       `json:"remainingAttempts"`
	CreatedAt         time.Time `json:"createdAt"`
}
