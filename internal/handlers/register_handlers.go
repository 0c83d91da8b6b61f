package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/middleware"
	"github.com/propstack/propstack_backend/internal/platform/config"
	"github.com/propstack/propstack_backend/internal/scheduler"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	sched *scheduler.Scheduler,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupAPIV1Routes(r, cfg, services, sched)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	sched *scheduler.Scheduler,
) {
	rate, _ := limiter.NewRateFromFormatted("300-M")
	store := memory.NewStore()
	ipLimiter := limiter.New(store, rate)

	v1 := r.Group("/api/v1",
		middleware.RateLimit(ipLimiter),
		middleware.AuthMiddleware(cfg.JWTSecret),
	)

	RegisterLedgerRoutes(v1, services.Ledger)
	registerJobRoutes(v1, services.Maintenance, services.LedgerEvent)
	RegisterSyncRoutes(v1, services.Sync)
	registerScheduleRoutes(v1, sched)
}
