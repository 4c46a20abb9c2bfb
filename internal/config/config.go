package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Memory   MemoryConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret        string
	CookieName       string
	IdentityCacheTTL time.Duration
}

type AIConfig struct {
	LLMProvider         string // "gemini", "ollama" or "anthropic"
	LLMModel            string
	LLMTemperature      float64
	LLMMaxTokens        int
	LLMTimeout          time.Duration
	EmbeddingProvider   string // "gemini", "ollama" or "jina"
	EmbeddingModel      string
	EmbeddingDimensions int
	OllamaBaseURL       string
	GoogleGeminiAPIKey  string
	AnthropicAPIKey     string
	JinaAPIKey          string
}

type MemoryConfig struct {
	ShortTermLimit int
	LongTermLimit  int
	VectorStore    string // "pgvector" or "chromem"
	ChatLock       string // "local", "redis" or "none"
	ChromemPath    string // empty keeps the chromem index in memory only
}

type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "ws.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", getEnv("FRONTEND_URL", "http://localhost:5173")),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			CookieName:       getEnv("AUTH_COOKIE_NAME", "token"),
			IdentityCacheTTL: getEnvAsDuration("IDENTITY_CACHE_TTL", 5*time.Minute),
		},
		Ai: AIConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:            getEnv("LLM_MODEL", "gemini-2.0-flash"),
			LLMTemperature:      getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			LLMMaxTokens:        getEnvAsInt("LLM_MAX_TOKENS", 1024),
			LLMTimeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:      getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GoogleGeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
			JinaAPIKey:          getEnv("JINA_API_KEY", ""),
		},
		Memory: MemoryConfig{
			ShortTermLimit: getEnvAsInt("SHORT_TERM_LIMIT", 10),
			LongTermLimit:  getEnvAsInt("LONG_TERM_LIMIT", 3),
			VectorStore:    getEnv("VECTOR_STORE", "pgvector"),
			ChatLock:       getEnv("CHAT_LOCK", "local"),
			ChromemPath:    getEnv("CHROMEM_PATH", ""),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
