package server

import (
	"context"

	"github.com/gin-gonic/gin"

	audithandler "craft-beer-store/backend/internal/audit/handler"
	authhandler "craft-beer-store/backend/internal/auth/handler"
	cataloghandler "craft-beer-store/backend/internal/catalog/handler"
	healthhandler "craft-beer-store/backend/internal/health/handler"
	orderhandler "craft-beer-store/backend/internal/order/handler"
	"craft-beer-store/backend/internal/policy/engine"
	policyhandler "craft-beer-store/backend/internal/policy/handler"
	"craft-beer-store/backend/internal/server/middleware"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string, string) (bool, error) { return false, nil }

// NewRouter builds the HTTP API.
//
//	GET  /health, /ready
//	POST /api/auth/register, /api/auth/login; GET /api/auth/me
//	POST /api/admin/accounts/unblock; GET /api/admin/audit
//	GET  /api/products; POST /api/products
//	POST /api/checkout; GET /api/orders/me
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestID(),
		middleware.CORS(middleware.DefaultCORSConfig(deps.CORSOrigins)),
		middleware.RequestLogger(deps.Log),
	)

	health := healthhandler.NewHTTPHandler(deps.checker(), deps.Log)
	r.GET("/health", health.Live)
	r.GET("/ready", health.Ready)

	policy := deps.Policy
	if policy == nil {
		policy = denyAll{}
	}
	allow := func(action string) gin.HandlerFunc {
		return policyhandler.RequirePermission(policy, action, deps.Log)
	}

	api := r.Group("/api")
	if deps.Auth == nil {
		return r
	}
	requireAuth := authhandler.RequireAuth(deps.Auth)

	auth := authhandler.NewHTTPHandler(deps.Auth, deps.Log)
	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	api.GET("/auth/me", requireAuth, auth.Me)

	admin := api.Group("/admin", requireAuth)
	admin.POST("/accounts/unblock", allow(engine.ActionAccountUnblock), auth.Unblock)
	if deps.Audit != nil {
		admin.GET("/audit", allow(engine.ActionAuditRead), audithandler.NewHTTPHandler(deps.Audit, deps.Log).List)
	}

	if deps.Catalog != nil {
		catalog := cataloghandler.NewHTTPHandler(deps.Catalog)
		api.GET("/products", catalog.List)
		api.POST("/products", requireAuth, allow(engine.ActionProductCreate), catalog.Create)
	}

	if deps.Orders != nil {
		orders := orderhandler.NewHTTPHandler(deps.Orders)
		api.POST("/checkout", requireAuth, allow(engine.ActionOrderCreate), orders.Checkout)
		api.GET("/orders/me", requireAuth, allow(engine.ActionOrderList), orders.Mine)
	}
	return r
}
