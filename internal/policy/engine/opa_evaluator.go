package engine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"
	"github.com/rs/zerolog"
)

const allowQuery = "data.craftbeer.access.allow"

//go:embed access.rego
var defaultRegoPolicy string

// ErrNoResult is returned when the policy query yields no decision.
var ErrNoResult = errors.New("policy query returned no result")

// OPAEvaluator evaluates the access policy with an in-process OPA Rego engine.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
	log   zerolog.Logger
}

// NewOPAEvaluator compiles the access policy once. admins are the emails allowed to
// perform administrative actions; they are matched case-insensitively.
func NewOPAEvaluator(ctx context.Context, admins []string, log zerolog.Logger) (*OPAEvaluator, error) {
	return newOPAEvaluator(ctx, defaultRegoPolicy, admins, log)
}

func newOPAEvaluator(ctx context.Context, policy string, admins []string, log zerolog.Logger) (*OPAEvaluator, error) {
	normalized := make([]interface{}, 0, len(admins))
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			normalized = append(normalized, a)
		}
	}
	store := inmem.NewFromObject(map[string]interface{}{
		"craftbeer": map[string]interface{}{"admins": normalized},
	})
	q, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("access.rego", policy),
		rego.Store(store),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	return &OPAEvaluator{query: q, log: log}, nil
}

// Allow evaluates data.craftbeer.access.allow for subject and action. Fails closed.
func (e *OPAEvaluator) Allow(ctx context.Context, subject, action string) (bool, error) {
	subject = strings.ToLower(strings.TrimSpace(subject))
	input := map[string]interface{}{
		"subject": map[string]interface{}{
			"email":         subject,
			"authenticated": subject != "",
		},
		"action": action,
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		e.log.Error().Err(err).Str("action", action).Msg("policy: evaluation failed")
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, ErrNoResult
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck verifies that the prepared policy still evaluates. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	if _, err := e.Allow(ctx, "", ActionOrderList); err != nil {
		return err
	}
	return nil
}
