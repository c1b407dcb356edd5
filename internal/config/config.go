// Package config defines the configuration structures of the Cluster MST
// service. Loading lives in loader.go, defaults in defaults.go.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SlowRequest     time.Duration `mapstructure:"slow_request"` // logged as a warning above this

	// RunRate and RunBurst limit calculations per client IP. A zero rate
	// disables the limit.
	RunRate  float64 `mapstructure:"run_rate"`
	RunBurst int     `mapstructure:"run_burst"`

	// CORSAllowedOrigins enables cross-origin access to /api/v1.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClusterConfig holds the defaults pre-filled into the dashboard form.
type ClusterConfig struct {
	IDCol       string  `mapstructure:"id_col"`
	ActCol      string  `mapstructure:"act_col"`
	TopNAct     int     `mapstructure:"top_n_act"`
	NumSim      int     `mapstructure:"num_sim"`
	SimCutoff   float64 `mapstructure:"sim_cutoff"`
	Reverse     bool    `mapstructure:"reverse"`
	Fingerprint string  `mapstructure:"fingerprint"`
	Similarity  string  `mapstructure:"similarity"` // "tanimoto" | "dice"
	ColorMap    string  `mapstructure:"color_map"`
	Layout      string  `mapstructure:"layout"` // "mds" | "eades"
	Workers     int     `mapstructure:"workers"`
}

// RenderConfig holds structure image and chart sizes.
type RenderConfig struct {
	ImageSize      int     `mapstructure:"image_size"`
	ImageCacheSize int     `mapstructure:"image_cache_size"`
	PlotWidth      int     `mapstructure:"plot_width"`
	PlotHeight     int     `mapstructure:"plot_height"`
	PointSize      float64 `mapstructure:"point_size"`
}

// StoreConfig selects where calculated results are kept between requests.
type StoreConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" | "redis"
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds Redis connection parameters for the shared result store.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds the optional export archive settings.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cluster ClusterConfig `mapstructure:"cluster"`
	Render  RenderConfig  `mapstructure:"render"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RunRate < 0 || (c.Server.RunRate > 0 && c.Server.RunBurst < 1) {
		return fmt.Errorf("config: server.run_rate must be >= 0 with run_burst >= 1, got %g/%d", c.Server.RunRate, c.Server.RunBurst)
	}
	if c.Server.MaxBodySize < 1 {
		return fmt.Errorf("config: server.max_body_size must be > 0, got %d", c.Server.MaxBodySize)
	}

	if c.Cluster.TopNAct < 1 {
		return fmt.Errorf("config: cluster.top_n_act must be ≥ 1, got %d", c.Cluster.TopNAct)
	}
	if c.Cluster.NumSim < 0 {
		return fmt.Errorf("config: cluster.num_sim must be ≥ 0, got %d", c.Cluster.NumSim)
	}
	if !(c.Cluster.SimCutoff >= MinSimCutoff && c.Cluster.SimCutoff <= MaxSimCutoff) {
		return fmt.Errorf("config: cluster.sim_cutoff %.2f is out of range [%.1f, %.1f]",
			c.Cluster.SimCutoff, MinSimCutoff, MaxSimCutoff)
	}
	switch c.Cluster.Similarity {
	case "tanimoto", "dice":
	default:
		return fmt.Errorf("config: cluster.similarity %q is invalid; expected tanimoto|dice", c.Cluster.Similarity)
	}
	switch c.Cluster.Layout {
	case "mds", "eades":
	default:
		return fmt.Errorf("config: cluster.layout %q is invalid; expected mds|eades", c.Cluster.Layout)
	}
	if c.Cluster.Workers < 1 {
		return fmt.Errorf("config: cluster.workers must be ≥ 1, got %d", c.Cluster.Workers)
	}

	if c.Render.ImageSize < 50 {
		return fmt.Errorf("config: render.image_size must be ≥ 50, got %d", c.Render.ImageSize)
	}
	if c.Render.PlotWidth < 100 || c.Render.PlotHeight < 100 {
		return fmt.Errorf("config: render plot size %dx%d is too small", c.Render.PlotWidth, c.Render.PlotHeight)
	}

	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Redis.Mode == "cluster" && len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config: redis.addrs is required in cluster mode")
		}
		if c.Redis.Mode != "cluster" && c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when store.backend is redis")
		}
	default:
		return fmt.Errorf("config: store.backend %q is invalid; expected memory|redis", c.Store.Backend)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("config: store.ttl must be positive")
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required when minio.enabled is set")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required when minio.enabled is set")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
