package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/app"
	iauth "github.com/opencallhq/opencall/internal/auth"
	"github.com/opencallhq/opencall/internal/handlers"
	"github.com/opencallhq/opencall/internal/middleware"
	"github.com/opencallhq/opencall/internal/services"
)

// Dependencies bundles everything the router needs. All fields except Cron
// are required.
type Dependencies struct {
	DB          *gorm.DB
	JWT         *iauth.JWTService
	Config      *app.Config
	Settings    *services.SettingsService
	Email       *services.EmailService
	Submissions *services.SubmissionService
	OpenCalls   *services.OpenCallService
	Files       *services.FileService
	Cron        handlers.CronController
}

func (d Dependencies) validate() error {
	if d.DB == nil {
		return fmt.Errorf("database handle must be provided")
	}
	if d.JWT == nil {
		return fmt.Errorf("jwt service must be provided")
	}
	if d.Config == nil {
		return fmt.Errorf("config must be provided")
	}
	if d.Settings == nil {
		return fmt.Errorf("settings service must be provided")
	}
	if d.Email == nil {
		return fmt.Errorf("email service must be provided")
	}
	if d.Submissions == nil {
		return fmt.Errorf("submission service must be provided")
	}
	if d.OpenCalls == nil {
		return fmt.Errorf("open call service must be provided")
	}
	if d.Files == nil {
		return fmt.Errorf("file service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	r := gin.New()

	metricsEndpoint := deps.Config.Monitoring.Prometheus.Endpoint
	if metricsEndpoint == "" {
		metricsEndpoint = "/metrics"
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	// Basic rate limiting: 100 requests/minute per IP+path. Probes are exempt.
	r.Use(middleware.RateLimit(100, time.Minute, "/health", metricsEndpoint))

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	if deps.Config.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(deps.DB))
	}

	if deps.Config.Monitoring.Prometheus.Enabled {
		r.GET(metricsEndpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	api := r.Group("/api")
	api.Use(middleware.Auth(deps.JWT))

	api.GET("/auth/me", authHandler.Me)

	if err := registerAuditRoutes(api, deps.DB); err != nil {
		return nil, err
	}
	if err := registerSettingsRoutes(api, deps); err != nil {
		return nil, err
	}
	if err := registerFileRoutes(api, deps); err != nil {
		return nil, err
	}
	if err := registerDiagnosticsRoutes(api, deps); err != nil {
		return nil, err
	}

	return r, nil
}
