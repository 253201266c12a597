package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/pageza/profiles/backend/internal/api"
	"github.com/pageza/profiles/backend/internal/metrics"
	"github.com/pageza/profiles/backend/internal/middleware"
	"github.com/pageza/profiles/backend/internal/service"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Log            *slog.Logger
	Metrics        *metrics.Metrics
	AuthService    service.IAuthService
	ProfileService service.IProfileService
	// LoginLimiter throttles POST /sessions. Nil disables throttling.
	LoginLimiter middleware.Limiter
	DB           api.Pinger
	CORSOrigins  []string
}

// SetupRouter configures the application routes
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(d.Log, d.Metrics),
		middleware.Recovery(),
		middleware.CORS(d.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck)
	router.GET("/ready", api.ReadinessCheck(d.DB))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	auth := middleware.AuthMiddleware(d.AuthService)

	var loginLimiter gin.HandlerFunc
	if d.LoginLimiter != nil {
		loginLimiter = middleware.RateLimit(d.LoginLimiter, middleware.ByClientIP)
	}

	v1 := router.Group("/api/v1")
	api.NewAuthHandler(d.AuthService, loginLimiter).RegisterRoutes(v1, auth)
	api.NewProfileHandler(d.ProfileService).RegisterRoutes(v1, auth)

	return router
}
