// Package engine decides whether an authenticated account may perform an action.
package engine

import "context"

// Actions checked by the HTTP layer.
const (
	ActionProductCreate  = "product.create"
	ActionAccountUnblock = "account.unblock"
	ActionAuditRead      = "audit.read"
	ActionOrderCreate    = "order.create"
	ActionOrderList      = "order.list"
)

// Evaluator evaluates access policy using OPA or other engines.
type Evaluator interface {
	// Allow reports whether subject (an account email, "" if anonymous) may perform action.
	// On evaluation errors it returns false and the error.
	Allow(ctx context.Context, subject, action string) (bool, error)
	// HealthCheck verifies the engine can evaluate the policy.
	HealthCheck(ctx context.Context) error
}
