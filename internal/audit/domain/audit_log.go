package domain

import "time"

// AuditLog is one persisted auth event.
type AuditLog struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
