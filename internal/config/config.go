// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	LLMBaseURL         string
	LLMAPIKey          string
	LLMModelName       string
	AnswerTemperature  float32
	AnswerMaxTokens    int
	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingDim       int
	EmbeddingRateLimit float64
	EmbeddingWorkers   int

	DBPath          string
	IndexDir        string
	DataDir         string
	FAQDir          string
	PinnedFactsPath string

	MaxChunks         int
	RetrievalK        int
	RecencyWindowDays int
	JudgeEnabled      bool
	WatchData         bool

	QdrantURL            string
	QdrantFAQCollection  string
	QdrantNewsCollection string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	// Walk up from the working directory to find a project-level .env
	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	llmBaseURL := getEnv("LLM_BASE_URL", "https://api.openai.com")
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		APIPort:              getEnv("API_PORT", "8000"),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LLMBaseURL:           llmBaseURL,
		LLMAPIKey:            getEnv("LLM_API_KEY", ""),
		LLMModelName:         getEnv("LLM_MODEL", "gpt-4o"),
		EmbeddingBaseURL:     getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModelName:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		DBPath:               getEnv("DB_PATH", filepath.Join(dataDir, "cbcg.db")),
		IndexDir:             getEnv("INDEX_DIR", filepath.Join(dataDir, "index")),
		DataDir:              dataDir,
		FAQDir:               getEnv("FAQ_DIR", ""),
		PinnedFactsPath:      getEnv("PINNED_FACTS_PATH", ""),
		QdrantURL:            getEnv("QDRANT_URL", ""),
		QdrantFAQCollection:  getEnv("QDRANT_FAQ_COLLECTION", "faq_sepa"),
		QdrantNewsCollection: getEnv("QDRANT_NEWS_COLLECTION", "news_cbcg"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"ANSWER_MAX_TOKENS", 800, &cfg.AnswerMaxTokens},
		{"EMBEDDING_DIM", 1536, &cfg.EmbeddingDim},
		{"EMBEDDING_CONCURRENCY", 4, &cfg.EmbeddingWorkers},
		{"MAX_CHUNKS", 12, &cfg.MaxChunks},
		{"RETRIEVAL_K", 8, &cfg.RetrievalK},
		{"RECENCY_WINDOW_DAYS", 90, &cfg.RecencyWindowDays},
	}
	for _, v := range ints {
		n, err := getPositiveInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dest = n
	}

	temperature, err := strconv.ParseFloat(getEnv("ANSWER_TEMPERATURE", "0.1"), 32)
	if err != nil || temperature < 0 {
		return nil, fmt.Errorf("ANSWER_TEMPERATURE must be a non-negative number")
	}
	cfg.AnswerTemperature = float32(temperature)

	rateLimit, err := strconv.ParseFloat(getEnv("EMBEDDING_RATE_LIMIT", "20"), 64)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("EMBEDDING_RATE_LIMIT must be a non-negative number")
	}
	cfg.EmbeddingRateLimit = rateLimit

	if cfg.JudgeEnabled, err = getBool("JUDGE_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.WatchData, err = getBool("WATCH_DATA", false); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}

	// Create the data and index directories if they don't exist
	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.IndexDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// UseHostedRetrieval reports whether a Qdrant deployment is configured.
func (c *Config) UseHostedRetrieval() bool {
	return c.QdrantURL != ""
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
