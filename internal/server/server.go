package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/profiles/backend/config"
	"github.com/pageza/profiles/backend/internal/metrics"
	"github.com/pageza/profiles/backend/internal/middleware"
	"github.com/pageza/profiles/backend/internal/router"
	"github.com/pageza/profiles/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    *slog.Logger
}

// New wires services and routes. redisClient may be nil, in which case login
// attempts are not throttled.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *slog.Logger) (*Server, error) {
	if cfg.Env == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("server.New: %w", err)
	}

	m := metrics.New(metrics.NewRegistry())

	deps := router.Deps{
		Log:            log,
		Metrics:        m,
		AuthService:    service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		ProfileService: service.NewProfileService(db, m),
		DB:             sqlDB,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
	}
	if redisClient != nil {
		deps.LoginLimiter = middleware.NewLoginRateLimiter(redisClient, cfg.LoginRateLimit.Window, cfg.LoginRateLimit.Limit)
	} else {
		log.Warn("redis not configured, login throttling disabled")
	}

	r := router.SetupRouter(deps)

	return &Server{
		router: r,
		log:    log,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           r,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		},
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("http server listening", slog.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
