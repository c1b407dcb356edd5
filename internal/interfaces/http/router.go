package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/handlers"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/middleware"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/web"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the route tree.
type RouterConfig struct {
	// Handlers
	DashboardHandler *handlers.DashboardHandler
	APIHandler       *handlers.APIHandler
	HealthHandler    *handlers.HealthHandler

	// Middleware
	Logging      middleware.LoggingConfig
	CORS         *middleware.CORSConfig // nil disables cross-origin access
	RunLimiter   middleware.RateLimiter // nil disables the calculation limit
	MaxBodyBytes int64

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the gin engine: global middleware, health and
// metrics endpoints, the dashboard pages and the /api/v1 group.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prometheus.NewNopAppMetrics()
	}

	r := gin.New()

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", web.Static())

	// --- Health and metrics (no rate limit) ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	var run []gin.HandlerFunc
	if cfg.RunLimiter != nil {
		run = append(run, middleware.RateLimit(cfg.RunLimiter))
	}

	// --- Dashboard pages ---
	if cfg.DashboardHandler != nil {
		cfg.DashboardHandler.RegisterRoutes(r, run...)
	}

	// --- API v1 ---
	if cfg.APIHandler != nil {
		api := r.Group("/api/v1")
		if cfg.CORS != nil {
			api.Use(middleware.CORS(*cfg.CORS))
			// Preflight requests need a matching route.
			api.OPTIONS("/*path", func(*gin.Context) {})
		}
		cfg.APIHandler.RegisterRoutes(api, run...)
	}

	return r, nil
}
