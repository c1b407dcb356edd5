package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/turtacn/ClusterMST/internal/application/dashboard"
	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/domain/depict"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/database/redis"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClusterMST/internal/infrastructure/storage/memory"
	"github.com/turtacn/ClusterMST/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/ClusterMST/internal/interfaces/http"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/handlers"
	"github.com/turtacn/ClusterMST/internal/interfaces/http/middleware"
)

// storeSweepInterval is how often the memory store drops expired results.
const storeSweepInterval = time.Minute

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Cluster MST dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cliCtx.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cliCtx.Config.Server.Port = port
			}
			if err := cliCtx.Config.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cliCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, cliCtx *CLIContext) error {
	a, err := newApp(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	if cliCtx.ConfigPath != "" {
		watchLogLevel(cliCtx.ConfigPath, cliCtx.Logger)
	}

	srv := httpserver.NewServer(cliCtx.Config.Server, a.router, cliCtx.Logger)
	return srv.Run(ctx)
}

// watchLogLevel applies log level changes of the config file while the
// server runs. Other settings need a restart.
func watchLogLevel(path string, logger logging.Logger) {
	err := config.Watch(path, func(cfg *config.Config) {
		if err := logging.SetLevel(logger, cfg.Log.Level); err != nil {
			logger.Warn("ignoring log level from config", logging.Err(err))
			return
		}
		logger.Info("config reloaded", logging.String("log_level", cfg.Log.Level))
	}, func(err error) {
		logger.Warn("config reload failed", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

// app is the wired dashboard server.
type app struct {
	router  *gin.Engine
	closers []func() error
	logger  logging.Logger
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown step failed", logging.Err(err))
		}
	}
}

// newApp builds the store, archive, metrics, dashboard service and router
// from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*app, error) {
	gin.SetMode(cfg.Server.Mode)
	a := &app{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	metrics := prometheus.NewNopAppMetrics()
	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		collector = c
		metrics = prometheus.NewAppMetrics(c)
	}

	store, storeName, err := newStore(cfg, logger, a)
	if err != nil {
		return nil, err
	}

	checkers := []handlers.HealthChecker{}
	var archive result.Archive
	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(cfg.MinIO, logger.Named("minio"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mc.Close)
		archive = minio.NewExportArchive(mc, logger.Named("archive"))
		checkers = append(checkers, handlers.CheckerFunc{Component: "archive", Fn: mc.HealthCheck})
	}

	renderer := depict.NewRenderer(
		depict.WithSize(cfg.Render.ImageSize),
		depict.WithCacheSize(cfg.Render.ImageCacheSize),
		depict.WithRecorder(metrics),
	)

	svc, err := dashboard.NewService(dashboard.Deps{
		Store:     store,
		StoreName: storeName,
		Archive:   archive,
		Renderer:  renderer,
		Metrics:   metrics,
		Logger:    logger.Named("dashboard"),
		Cluster:   cfg.Cluster,
		Render:    cfg.Render,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.Ping(ctx); err != nil {
		logger.Warn("result store not reachable at startup", logging.Err(err))
	}

	dh, err := handlers.NewDashboardHandler(svc, logger.Named("http"))
	if err != nil {
		return nil, err
	}

	rc := httpserver.RouterConfig{
		DashboardHandler: dh,
		APIHandler:       handlers.NewAPIHandler(svc, logger.Named("api")),
		HealthHandler: handlers.NewHealthHandler(Version, append(checkers, handlers.CheckerFunc{
			Component: "result_store_" + storeName,
			Fn:        svc.Ping,
		})...),
		Logging: middleware.LoggingConfig{
			SkipPaths:     []string{"/healthz", "/readyz", cfg.Metrics.Path},
			SlowThreshold: cfg.Server.SlowRequest,
		},
		MaxBodyBytes:     cfg.Server.MaxBodySize,
		Logger:           logger.Named("http"),
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSAllowedOrigins
		cors.AllowWildcard = true
		rc.CORS = &cors
	}
	if cfg.Server.RunRate > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RunRate, cfg.Server.RunBurst, 10*time.Minute)
		a.closers = append(a.closers, func() error { limiter.Stop(); return nil })
		rc.RunLimiter = limiter
	}

	a.router, err = httpserver.NewRouter(rc)
	if err != nil {
		return nil, err
	}
	ok = true
	logger.Info("dashboard ready",
		logging.String("store", storeName),
		logging.Bool("archive", archive != nil),
		logging.Bool("metrics", collector != nil))
	return a, nil
}

func newStore(cfg *config.Config, logger logging.Logger, a *app) (result.Repository, string, error) {
	switch cfg.Store.Backend {
	case "redis":
		client, err := redis.NewClient(cfg.Redis, logger.Named("redis"))
		if err != nil {
			return nil, "", err
		}
		a.closers = append(a.closers, client.Close)
		return redis.NewResultStore(client, cfg.Store.TTL, logger.Named("store")), "redis", nil
	default:
		store := memory.NewResultStore(cfg.Store.TTL, storeSweepInterval, memory.WithLogger(logger.Named("store")))
		a.closers = append(a.closers, store.Close)
		return store, "memory", nil
	}
}
