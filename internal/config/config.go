package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis (optional)
	RedisURL string

	// JWT
	JWTSecret string

	// Chat relay
	UpstreamProvider string
	NLPWorkerURL     string
	UpstreamTimeout  time.Duration
	TokenInterval    time.Duration

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Anthropic
	AnthropicAPIKey string
	AnthropicModel  string

	// OCR
	SpeechVisionURL string
	MaxUploadMB     int

	// HTTP
	AllowedOrigins      []string
	APIRateLimitPerMin  int
	ChatRateLimitPerMin int

	// Build
	AppVersion string
	GitCommit  string
	BuildTime  string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "4000"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		UpstreamProvider:     strings.ToLower(getEnvOrDefault("UPSTREAM_PROVIDER", "http")),
		NLPWorkerURL:         getEnvOrDefault("NLP_WORKER_URL", "http://localhost:8002/chat"),
		UpstreamTimeout:      time.Duration(getEnvAsIntOrDefault("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		TokenInterval:        time.Duration(getEnvAsIntOrDefault("STREAM_TOKEN_INTERVAL_MS", 30)) * time.Millisecond,
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", ""),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		AnthropicAPIKey:      getEnvOrDefault("ANTHROPIC_API_KEY", ""),
		AnthropicModel:       getEnvOrDefault("ANTHROPIC_MODEL", ""),
		SpeechVisionURL:      getEnvOrDefault("SPEECH_VISION_URL", "http://localhost:8001"),
		MaxUploadMB:          getEnvAsIntOrDefault("MAX_UPLOAD_MB", 25),
		AllowedOrigins:       getEnvAsListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		APIRateLimitPerMin:   getEnvAsIntOrDefault("API_RATE_LIMIT_PER_MINUTE", 120),
		ChatRateLimitPerMin:  getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MINUTE", 30),
		AppVersion:           getEnvOrDefault("APP_VERSION", "0.1.0"),
		GitCommit:            getEnvOrDefault("GIT_COMMIT", ""),
		BuildTime:            getEnvOrDefault("BUILD_TIME", ""),
	}

	switch cfg.UpstreamProvider {
	case "gemini":
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	case "anthropic":
		cfg.AnthropicAPIKey = mustGetEnv("ANTHROPIC_API_KEY")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsListOrDefault splits a comma separated value, dropping blanks.
func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
