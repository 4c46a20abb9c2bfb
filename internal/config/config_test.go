package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SHORT_TERM_LIMIT", "")

	cfg := Load()

	assert.Equal(t, 10, cfg.Memory.ShortTermLimit)
	assert.Equal(t, 3, cfg.Memory.LongTermLimit)
	assert.Equal(t, 768, cfg.Ai.EmbeddingDimensions)
	assert.Equal(t, "token", cfg.Auth.CookieName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("LONG_TERM_LIMIT", "5")
	t.Setenv("IDENTITY_CACHE_TTL", "30s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("LLM_TEMPERATURE", "0.1")
	t.Setenv("VECTOR_STORE", "chromem")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://chat.example.com")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("CHROMEM_PATH", "/var/lib/memchat/index")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5, cfg.Memory.LongTermLimit)
	assert.Equal(t, 30*time.Second, cfg.Auth.IdentityCacheTTL)
	assert.True(t, cfg.Tracing.Enabled)
	assert.InDelta(t, 0.1, cfg.Ai.LLMTemperature, 1e-9)
	assert.Equal(t, "chromem", cfg.Memory.VectorStore)
	assert.Equal(t, "https://chat.example.com", cfg.App.CorsAllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Ai.LLMTimeout)
	assert.Equal(t, "/var/lib/memchat/index", cfg.Memory.ChromemPath)
}

func TestGetEnvHelpers_FallbackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.False(t, getEnvAsBool("X_BOOL", false))
	assert.Equal(t, time.Minute, getEnvAsDuration("X_DUR", time.Minute))
}

func TestCorsFallsBackToFrontendURL(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	os.Unsetenv("CORS_ALLOWED_ORIGINS")
	t.Setenv("FRONTEND_URL", "https://front.example.com")

	cfg := Load()
	assert.Equal(t, "https://front.example.com", cfg.App.CorsAllowedOrigins)
}
