package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	LLM         LLMConfig
	Auth        AuthConfig
	Upload      UploadConfig
	Analysis    AnalysisConfig
	Bookkeeping BookkeepingConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	AllowOrigin string
}

// DatabaseConfig is optional. An empty URL runs the service without persistence.
type DatabaseConfig struct {
	URL string
}

type LLMConfig struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float32
	MaxTokens    int
	GeminiAPIKey string
	GeminiModel  string
}

type AuthConfig struct {
	ClerkSecretKey     string
	ClerkWebhookSecret string
}

type UploadConfig struct {
	MaxFileSize int64
}

type AnalysisConfig struct {
	Timeout    time.Duration
	FreeQuota  int
	MinTextLen int
}

type BookkeepingConfig struct {
	Concurrency int
	QueueSize   int
	JobTimeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         getEnv("ENV", "development"),
			AllowOrigin: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderPerplexity)),
			APIKey:       getEnv("PERPLEXITY_API_KEY", ""),
			BaseURL:      strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.perplexity.ai"), "/"),
			Model:        getEnv("LLM_MODEL", "sonar-pro"),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 2000),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Auth: AuthConfig{
			ClerkSecretKey:     getEnv("CLERK_SECRET_KEY", ""),
			ClerkWebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),
		},
		Upload: UploadConfig{
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 5*1024*1024),
		},
		Analysis: AnalysisConfig{
			Timeout:    getEnvAsDuration("ANALYSIS_TIMEOUT", "90s"),
			FreeQuota:  getEnvAsInt("FREE_ANALYSIS_QUOTA", 5),
			MinTextLen: 50,
		},
		Bookkeeping: BookkeepingConfig{
			Concurrency: getEnvAsInt("BOOKKEEPING_CONCURRENCY", 2),
			QueueSize:   getEnvAsInt("BOOKKEEPING_QUEUE_SIZE", 100),
			JobTimeout:  getEnvAsDuration("BOOKKEEPING_JOB_TIMEOUT", "5s"),
		},
	}
}

// HasDatabase reports whether a persistence connection string was configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
