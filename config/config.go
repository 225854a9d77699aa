package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Client   ClientConfig
	GenAI    GenAIConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

// StoreConfig selects the backend behind the remote project store.
type StoreConfig struct {
	Backend    string // redis | sql
	ProjectKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Driver string // pgx | postgres
	DSN    string
}

// ClientConfig drives the assistant CLI: where the remote store lives and
// how the local backup tier is kept.
type ClientConfig struct {
	RemoteURL         string
	LocalCache        string // sqlite | file
	LocalCachePath    string
	SavedStatusWindow time.Duration
	ErrorStatusWindow time.Duration
}

type GenAIConfig struct {
	APIKey            string
	RequestsPerMinute int
	TextModel         string
	ChatModel         string
	ImageModel        string
	AdImageModel      string
	VoiceModel        string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

const (
	BackendRedis = "redis"
	BackendSQL   = "sql"

	CacheSQLite = "sqlite"
	CacheFile   = "file"

	DefaultProjectKey = "onoo-marketing-project-data"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", BackendRedis),
			ProjectKey: getEnv("PROJECT_KEY", DefaultProjectKey),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "pgx"),
			DSN:    getEnv("DB_DSN", ""),
		},
		Client: ClientConfig{
			RemoteURL:         getEnv("REMOTE_STORE_URL", "http://localhost:8080"),
			LocalCache:        getEnv("LOCAL_CACHE", CacheSQLite),
			LocalCachePath:    getEnv("LOCAL_CACHE_PATH", defaultCachePath()),
			SavedStatusWindow: getEnvAsDuration("SAVED_STATUS_WINDOW", 3*time.Second),
			ErrorStatusWindow: getEnvAsDuration("ERROR_STATUS_WINDOW", 5*time.Second),
		},
		GenAI: GenAIConfig{
			APIKey:            getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
			RequestsPerMinute: getEnvAsInt("GENAI_RPM", 30),
			TextModel:         getEnv("GENAI_TEXT_MODEL", "gemini-2.5-pro"),
			ChatModel:         getEnv("GENAI_CHAT_MODEL", "gemini-2.5-flash"),
			ImageModel:        getEnv("GENAI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			AdImageModel:      getEnv("GENAI_AD_IMAGE_MODEL", "imagen-4.0-generate-001"),
			VoiceModel:        getEnv("GENAI_VOICE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendSQL:
		if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
			return fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %s or %s, got %q", BackendRedis, BackendSQL, c.Store.Backend)
	}

	if c.Store.ProjectKey == "" {
		return fmt.Errorf("PROJECT_KEY is required")
	}

	if c.Client.LocalCache != CacheSQLite && c.Client.LocalCache != CacheFile {
		return fmt.Errorf("LOCAL_CACHE must be %s or %s, got %q", CacheSQLite, CacheFile, c.Client.LocalCache)
	}

	if c.GenAI.RequestsPerMinute <= 0 {
		return fmt.Errorf("GENAI_RPM must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return ".onoo"
	}
	return dir + string(os.PathSeparator) + "onoo"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil || value < 0 {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
