package appconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "vectorhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_YAMLOverDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
server:
  port: 9000
  read_timeout: 5s
index:
  kind: memory
  dimensions: 256
  metric: euclidean
embedding:
  provider: mock
  models: [text-embedding-3-small]
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 256, cfg.Index.Dimensions)
	assert.Equal(t, "euclidean", cfg.Index.Metric)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, []string{"text-embedding-3-small"}, cfg.Embedding.Models)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "server: [")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid index kind", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "index:\n  kind: faiss\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index.kind")
	})
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"OPENAI_API_KEY":                 "sk-test",
		"EMBEDDING_DIMENSIONALITY":       "512",
		"DEFAULT_OPENAI_EMBEDDING_MODEL": "text-embedding-3-small",
		"DATABASE_DRIVER":                "postgres",
		"DATABASE_DSN":                   "host=db user=postgres",
		"PGVECTOR_DSN":                   "postgres://localhost/vectors",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, 512, cfg.Embedding.Dimensions)
	assert.Equal(t, 512, cfg.Index.Dimensions)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.DefaultModel)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=postgres", cfg.Database.DSN)
	assert.Equal(t, "pgvector", cfg.Index.Kind)
	assert.Equal(t, "postgres://localhost/vectors", cfg.Index.DSN)
	assert.NoError(t, cfg.Validate())

	t.Run("bad dimensionality", func(t *testing.T) {
		err := Default().ApplyEnv(envMap(map[string]string{"EMBEDDING_DIMENSIONALITY": "abc"}))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"pgvector without dsn", func(c *Config) { c.Index.Kind = "pgvector" }},
		{"dimensions", func(c *Config) { c.Index.Dimensions = 0 }},
		{"provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"jwt secret", func(c *Config) { c.Auth.JWT.Enabled = true }},
		{"rate limit", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logging:\n  level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		}, nil)
	}()

	// 等待 watcher 注册
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	// 一次保存可能触发多个事件, 中间状态可能是空文件
	timeout := time.After(5 * time.Second)
	for observed := false; !observed; {
		select {
		case cfg := <-changes:
			observed = cfg.Logging.Level == "debug"
		case <-timeout:
			t.Fatal("config change not observed")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}
