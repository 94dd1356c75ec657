package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GRADX_GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "GradX API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, StorageDriverSQLite, cfg.StorageDriver)
	require.Equal(t, "gemini", cfg.AIProvider)
	require.Equal(t, 120*time.Second, cfg.GradingTimeout)
	require.Equal(t, 60*time.Second, cfg.ChatTimeout)
	require.Equal(t, 3*time.Second, cfg.NotificationTTL)
	require.Equal(t, 10, cfg.UploadMaxMB)
	require.Empty(t, cfg.ConfirmedStudentName)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
	require.Zero(t, cfg.RedisPoolSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRADX_GEMINI_API_KEY", "test-key")
	t.Setenv("GRADX_APP_PORT", ":9090")
	t.Setenv("GRADX_GRADING_TIMEOUT", "45s")
	t.Setenv("GRADX_GRADING_CONFIRMED_STUDENT_NAME", "  Rohan Sharma ")
	t.Setenv("GRADX_STORAGE_DRIVER", "redis")
	t.Setenv("GRADX_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GRADX_REDIS_POOL_SIZE", "4")
	t.Setenv("GRADX_CORS_ALLOW_ORIGINS", "https://gradx.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 45*time.Second, cfg.GradingTimeout)
	require.Equal(t, "Rohan Sharma", cfg.ConfirmedStudentName)
	require.Equal(t, StorageDriverRedis, cfg.StorageDriver)
	require.Equal(t, 4, cfg.RedisPoolSize)
	require.Equal(t, "https://gradx.example", cfg.CORSAllowOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing gemini key": {},
		"bad timeout": {
			"GRADX_GEMINI_API_KEY":  "test-key",
			"GRADX_GRADING_TIMEOUT": "soon",
		},
		"redis without url": {
			"GRADX_GEMINI_API_KEY": "test-key",
			"GRADX_STORAGE_DRIVER": "redis",
		},
		"unknown driver": {
			"GRADX_GEMINI_API_KEY": "test-key",
			"GRADX_STORAGE_DRIVER": "mongo",
		},
		"openai without key": {
			"GRADX_GEMINI_API_KEY": "test-key",
			"GRADX_AI_PROVIDER":    "openai",
		},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("GRADX_GEMINI_API_KEY", "")
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
