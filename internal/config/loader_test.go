package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
  mode: debug
cluster:
  act_col: pIC50
  top_n_act: 20
  num_sim: 5
  sim_cutoff: 0.7
  fingerprint: ECFP4
  similarity: dice
  color_map: viridis
store:
  backend: redis
  ttl: 30m
redis:
  addr: "redis:6379"
minio:
  enabled: true
  endpoint: "minio:9000"
  bucket: "mst"
log:
  level: debug
  format: console
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clustermst.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "pIC50", cfg.Cluster.ActCol)
	assert.Equal(t, 20, cfg.Cluster.TopNAct)
	assert.Equal(t, 5, cfg.Cluster.NumSim)
	assert.Equal(t, 0.7, cfg.Cluster.SimCutoff)
	assert.Equal(t, "ECFP4", cfg.Cluster.Fingerprint)
	assert.Equal(t, "dice", cfg.Cluster.Similarity)
	assert.Equal(t, "viridis", cfg.Cluster.ColorMap)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Store.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.MinIO.Enabled)
	assert.Equal(t, "mst", cfg.MinIO.Bucket)
	assert.Equal(t, "console", cfg.Log.Format)

	// untouched sections come from defaults
	assert.Equal(t, DefaultImageSize, cfg.Render.ImageSize)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "cluster:\n  sim_cutoff: 0.95\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CLUSTERMST_SERVER_PORT", "7070")
	t.Setenv("CLUSTERMST_CLUSTER_FINGERPRINT", "FCFP4")

	cfg, err := Load(writeConfig(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "FCFP4", cfg.Cluster.Fingerprint)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLUSTERMST_STORE_BACKEND", "redis")
	t.Setenv("CLUSTERMST_REDIS_ADDR", "cache:6380")
	t.Setenv("CLUSTERMST_CLUSTER_NUM_SIM", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Cluster.NumSim)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadFromEnv_DefaultNumSim(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultNumSim, cfg.Cluster.NumSim)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, validConfigYAML)

	var mu sync.Mutex
	var got *Config
	err := Watch(path, func(c *Config) {
		mu.Lock()
		got = c
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	updated := validConfigYAML + "\nrender:\n  image_size: 300\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil && got.Render.ImageSize == 300
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}
