// Package server assembles the HTTP router and the gRPC server from the application services.
package server

import (
	"github.com/rs/zerolog"

	auditrepo "craft-beer-store/backend/internal/audit/repository"
	authhandler "craft-beer-store/backend/internal/auth/handler"
	cataloghandler "craft-beer-store/backend/internal/catalog/handler"
	healthhandler "craft-beer-store/backend/internal/health/handler"
	orderhandler "craft-beer-store/backend/internal/order/handler"
	policyhandler "craft-beer-store/backend/internal/policy/handler"
)

// Deps holds the services the transports expose. Nil members disable their routes,
// except Policy: without it admin routes answer 403 for everyone.
type Deps struct {
	Auth    authhandler.AuthService
	Catalog cataloghandler.CatalogService
	Orders  orderhandler.OrderService
	// Audit backs GET /api/admin/audit.
	Audit  auditrepo.Repository
	Policy policyhandler.Policy
	// Health runs the readiness checks; nil reports ready.
	Health *healthhandler.Checker
	// CORSOrigins are the allowed browser origins; "*" allows any.
	CORSOrigins []string
	Log         zerolog.Logger
}

func (d Deps) checker() *healthhandler.Checker {
	if d.Health != nil {
		return d.Health
	}
	return healthhandler.NewChecker(nil, nil)
}
