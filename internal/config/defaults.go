package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 2 * time.Minute
	DefaultServerShutdownTimeout = 15 * time.Second
	DefaultMaxBodySize           = 32 << 20
	DefaultSlowRequest           = 5 * time.Second
	DefaultRunRate               = 1.0
	DefaultRunBurst              = 10

	DefaultIDCol       = "Compound_Id"
	DefaultTopNAct     = 50
	DefaultNumSim      = 10
	DefaultSimCutoff   = 0.6
	DefaultFingerprint = "ECFC4"
	DefaultSimilarity  = "tanimoto"
	DefaultColorMap    = "brg"
	DefaultLayout      = "mds"

	MinSimCutoff = 0.2
	MaxSimCutoff = 0.9

	DefaultImageSize      = 250
	DefaultImageCacheSize = 4096
	DefaultPlotWidth      = 1200
	DefaultPlotHeight     = 800
	DefaultPointSize      = 12

	DefaultStoreBackend = "memory"
	DefaultStoreTTL     = time.Hour

	DefaultRedisMode      = "standalone"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "clustermst:"

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucket        = "clustermst-exports"
	DefaultMinIORegion        = "us-east-1"
	DefaultMinIOPresignExpiry = 24 * time.Hour

	DefaultMetricsNamespace = "clustermst"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultWorkers is the fingerprint worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Default returns a Config populated entirely from defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Cluster.NumSim = DefaultNumSim
	cfg.Server.RunRate = DefaultRunRate
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly set values are left alone. Fields whose zero value is valid
// (booleans, cluster.num_sim) are not touched; their defaults come from
// setViperDefaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.SlowRequest == 0 {
		cfg.Server.SlowRequest = DefaultSlowRequest
	}
	if cfg.Server.RunBurst == 0 {
		cfg.Server.RunBurst = DefaultRunBurst
	}

	if cfg.Cluster.IDCol == "" {
		cfg.Cluster.IDCol = DefaultIDCol
	}
	if cfg.Cluster.TopNAct == 0 {
		cfg.Cluster.TopNAct = DefaultTopNAct
	}
	if cfg.Cluster.SimCutoff == 0 {
		cfg.Cluster.SimCutoff = DefaultSimCutoff
	}
	if cfg.Cluster.Fingerprint == "" {
		cfg.Cluster.Fingerprint = DefaultFingerprint
	}
	if cfg.Cluster.Similarity == "" {
		cfg.Cluster.Similarity = DefaultSimilarity
	}
	if cfg.Cluster.ColorMap == "" {
		cfg.Cluster.ColorMap = DefaultColorMap
	}
	if cfg.Cluster.Layout == "" {
		cfg.Cluster.Layout = DefaultLayout
	}
	if cfg.Cluster.Workers == 0 {
		cfg.Cluster.Workers = DefaultWorkers()
	}

	if cfg.Render.ImageSize == 0 {
		cfg.Render.ImageSize = DefaultImageSize
	}
	if cfg.Render.ImageCacheSize == 0 {
		cfg.Render.ImageCacheSize = DefaultImageCacheSize
	}
	if cfg.Render.PlotWidth == 0 {
		cfg.Render.PlotWidth = DefaultPlotWidth
	}
	if cfg.Render.PlotHeight == 0 {
		cfg.Render.PlotHeight = DefaultPlotHeight
	}
	if cfg.Render.PointSize == 0 {
		cfg.Render.PointSize = DefaultPointSize
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.TTL == 0 {
		cfg.Store.TTL = DefaultStoreTTL
	}

	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = DefaultMinIORegion
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// setViperDefaults registers every key with viper. Without a registered key
// AutomaticEnv cannot resolve CLUSTERMST_* overrides during Unmarshal when no
// config file mentions the key.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.slow_request", DefaultSlowRequest)
	v.SetDefault("server.run_rate", DefaultRunRate)
	v.SetDefault("server.run_burst", DefaultRunBurst)
	v.SetDefault("server.cors_allowed_origins", []string{})

	v.SetDefault("cluster.id_col", DefaultIDCol)
	v.SetDefault("cluster.act_col", "")
	v.SetDefault("cluster.top_n_act", DefaultTopNAct)
	v.SetDefault("cluster.num_sim", DefaultNumSim)
	v.SetDefault("cluster.sim_cutoff", DefaultSimCutoff)
	v.SetDefault("cluster.reverse", false)
	v.SetDefault("cluster.fingerprint", DefaultFingerprint)
	v.SetDefault("cluster.similarity", DefaultSimilarity)
	v.SetDefault("cluster.color_map", DefaultColorMap)
	v.SetDefault("cluster.layout", DefaultLayout)
	v.SetDefault("cluster.workers", 0)

	v.SetDefault("render.image_size", DefaultImageSize)
	v.SetDefault("render.image_cache_size", DefaultImageCacheSize)
	v.SetDefault("render.plot_width", DefaultPlotWidth)
	v.SetDefault("render.plot_height", DefaultPlotHeight)
	v.SetDefault("render.point_size", DefaultPointSize)

	v.SetDefault("store.backend", DefaultStoreBackend)
	v.SetDefault("store.ttl", DefaultStoreTTL)

	v.SetDefault("redis.mode", DefaultRedisMode)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.addrs", []string{})
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", DefaultRedisPoolSize)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("minio.region", DefaultMinIORegion)
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.presign_expiry", DefaultMinIOPresignExpiry)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.path", DefaultMetricsPath)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})
	v.SetDefault("log.error_output_paths", []string{"stderr"})
}
