package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	LogLevel              string
	StorageDriver         string
	SQLitePath            string
	RedisURL              string
	NATSURL               string
	RealtimeChannel       string
	AIProvider            string
	GeminiAPIKey          string
	GeminiModel           string
	OpenAIAPIKey          string
	OpenAIModel           string
	GradingTimeout        time.Duration
	ChatTimeout           time.Duration
	NotificationTTL       time.Duration
	UploadMaxMB           int
	ConfirmedStudentName  string
	RateLimitPerMinute    int
	NotificationKeepAlive time.Duration
	CORSAllowOrigins      string
	RedisPoolSize         int
}

const (
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
)

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GradX API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", StorageDriverSQLite)
	v.SetDefault("storage.sqlite_path", "gradx.db")
	v.SetDefault("realtime.channel", "gradx")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("grading.timeout", "120s")
	v.SetDefault("chat.timeout", "60s")
	v.SetDefault("notification.ttl", "3s")
	v.SetDefault("notification.keepalive", "30s")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("rate_limit.per_minute", 30)
	v.SetDefault("cors.allow_origins", "*")

	gradingTimeout, err := parseDuration(v, "grading.timeout")
	if err != nil {
		return Config{}, err
	}
	chatTimeout, err := parseDuration(v, "chat.timeout")
	if err != nil {
		return Config{}, err
	}
	notificationTTL, err := parseDuration(v, "notification.ttl")
	if err != nil {
		return Config{}, err
	}
	keepAlive, err := parseDuration(v, "notification.keepalive")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		LogLevel:              strings.ToLower(v.GetString("log.level")),
		StorageDriver:         strings.ToLower(v.GetString("storage.driver")),
		SQLitePath:            v.GetString("storage.sqlite_path"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		RealtimeChannel:       v.GetString("realtime.channel"),
		AIProvider:            strings.ToLower(v.GetString("ai.provider")),
		GeminiAPIKey:          v.GetString("gemini_api_key"),
		GeminiModel:           v.GetString("gemini.model"),
		OpenAIAPIKey:          v.GetString("openai_api_key"),
		OpenAIModel:           v.GetString("openai.model"),
		GradingTimeout:        gradingTimeout,
		ChatTimeout:           chatTimeout,
		NotificationTTL:       notificationTTL,
		NotificationKeepAlive: keepAlive,
		UploadMaxMB:           v.GetInt("upload.max_mb"),
		ConfirmedStudentName:  strings.TrimSpace(v.GetString("grading.confirmed_student_name")),
		RateLimitPerMinute:    v.GetInt("rate_limit.per_minute"),
		CORSAllowOrigins:      v.GetString("cors.allow_origins"),
		RedisPoolSize:         v.GetInt("redis.pool_size"),
	}

	switch cfg.StorageDriver {
	case StorageDriverSQLite:
		if cfg.SQLitePath == "" {
			return Config{}, fmt.Errorf("sqlite path must be provided")
		}
	case StorageDriverRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("redis url must be provided for the redis storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("gemini api key must be provided")
	}
	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided when ai provider is openai")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}

	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 30
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ReplaceAll(key, ".", " "), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", strings.ReplaceAll(key, ".", " "))
	}
	return duration, nil
}
