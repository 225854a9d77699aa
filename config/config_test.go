package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "LOG_LEVEL", "STORE_BACKEND", "REDIS_ADDR", "REDIS_DB",
		"DB_DRIVER", "DB_DSN", "PROJECT_KEY", "CORS_ALLOW_ORIGINS", "LOCAL_CACHE",
		"GEMINI_API_KEY", "API_KEY", "GENAI_RPM", "SAVED_STATUS_WINDOW", "ERROR_STATUS_WINDOW",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowOrigins)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, DefaultProjectKey, cfg.Store.ProjectKey)
	assert.Equal(t, CacheSQLite, cfg.Client.LocalCache)
	assert.Equal(t, 3*time.Second, cfg.Client.SavedStatusWindow)
	assert.Equal(t, 5*time.Second, cfg.Client.ErrorStatusWindow)
	assert.Equal(t, "imagen-4.0-generate-001", cfg.GenAI.AdImageModel)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_BACKEND", "sql")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("SAVED_STATUS_WINDOW", "1500ms")
	t.Setenv("ERROR_STATUS_WINDOW", "not-a-duration")
	t.Setenv("REDIS_DB", "x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendSQL, cfg.Store.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "fallback-key", cfg.GenAI.APIKey)
	assert.Equal(t, 1500*time.Millisecond, cfg.Client.SavedStatusWindow)
	assert.Equal(t, 5*time.Second, cfg.Client.ErrorStatusWindow)
	assert.Equal(t, 0, cfg.Redis.DB)

	t.Setenv("GEMINI_API_KEY", "primary-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.GenAI.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080"},
			Store:  StoreConfig{Backend: BackendRedis, ProjectKey: DefaultProjectKey},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			Client: ClientConfig{LocalCache: CacheFile},
			GenAI:  GenAIConfig{RequestsPerMinute: 10},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"no port":         func(c *Config) { c.Server.Port = "" },
		"unknown backend": func(c *Config) { c.Store.Backend = "mongo" },
		"redis no addr":   func(c *Config) { c.Redis.Addr = "" },
		"bad sql driver":  func(c *Config) { c.Store.Backend = BackendSQL; c.Database.Driver = "mysql" },
		"no project key":  func(c *Config) { c.Store.ProjectKey = "" },
		"unknown cache":   func(c *Config) { c.Client.LocalCache = "memory" },
		"zero rpm":        func(c *Config) { c.GenAI.RequestsPerMinute = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
