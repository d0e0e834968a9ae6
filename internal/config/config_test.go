package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
	"ANSWER_TEMPERATURE", "ANSWER_MAX_TOKENS",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL", "EMBEDDING_DIM",
	"EMBEDDING_RATE_LIMIT", "EMBEDDING_CONCURRENCY",
	"DB_PATH", "INDEX_DIR", "DATA_DIR", "FAQ_DIR", "PINNED_FACTS_PATH",
	"MAX_CHUNKS", "RETRIEVAL_K", "RECENCY_WINDOW_DAYS",
	"JUDGE_ENABLED", "WATCH_DATA",
	"QDRANT_URL", "QDRANT_FAQ_COLLECTION", "QDRANT_NEWS_COLLECTION",
}

// isolateEnv clears every config variable and moves into a temp directory
// without a .env file. Both are restored when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}

	originalWd, _ := os.Getwd()
	_ = os.Chdir(t.TempDir()) // Ignore error - test will fail if this doesn't work

	t.Cleanup(func() {
		_ = os.Chdir(originalWd) // Ignore error in cleanup
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "missing LLM_API_KEY",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "default values for optional fields",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.APIPort == "8000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.LLMBaseURL == "https://api.openai.com" &&
					cfg.LLMModelName == "gpt-4o" &&
					cfg.AnswerTemperature == float32(0.1) &&
					cfg.AnswerMaxTokens == 800 &&
					cfg.EmbeddingBaseURL == "https://api.openai.com" &&
					cfg.EmbeddingModelName == "text-embedding-3-small" &&
					cfg.EmbeddingDim == 1536 &&
					cfg.EmbeddingRateLimit == 20 &&
					cfg.EmbeddingWorkers == 4 &&
					cfg.DBPath == filepath.Join("data", "cbcg.db") &&
					cfg.IndexDir == filepath.Join("data", "index") &&
					cfg.MaxChunks == 12 &&
					cfg.RetrievalK == 8 &&
					cfg.RecencyWindowDays == 90 &&
					!cfg.JudgeEnabled &&
					!cfg.WatchData &&
					!cfg.UseHostedRetrieval() &&
					cfg.QdrantFAQCollection == "faq_sepa" &&
					cfg.QdrantNewsCollection == "news_cbcg"
			},
		},
		{
			name: "custom optional values",
			setupEnv: func(t *testing.T) {
				tmpDir := t.TempDir()
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_BASE_URL", "http://custom:9090")
				setEnv("LLM_MODEL", "custom-model")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("DB_PATH", filepath.Join(tmpDir, "custom", "db.db"))
				setEnv("MAX_CHUNKS", "5")
				setEnv("JUDGE_ENABLED", "true")
				setEnv("QDRANT_URL", "http://localhost:6334")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.LLMBaseURL == "http://custom:9090" &&
					cfg.LLMModelName == "custom-model" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					filepath.Base(cfg.DBPath) == "db.db" && // Just check filename, path will vary with temp dir
					cfg.MaxChunks == 5 &&
					cfg.JudgeEnabled &&
					cfg.UseHostedRetrieval()
			},
		},
		{
			name: "embedding endpoint follows LLM endpoint",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LLM_BASE_URL", "http://custom:9090")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.EmbeddingBaseURL == "http://custom:9090"
			},
		},
		{
			name: "data dir moves derived paths",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("DATA_DIR", "store")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.DataDir == "store" &&
					cfg.DBPath == filepath.Join("store", "cbcg.db") &&
					cfg.IndexDir == filepath.Join("store", "index")
			},
		},
		{
			name: "invalid MAX_CHUNKS",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("MAX_CHUNKS", "many")
			},
			wantErr: true,
		},
		{
			name: "zero RETRIEVAL_K",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("RETRIEVAL_K", "0")
			},
			wantErr: true,
		},
		{
			name: "negative EMBEDDING_DIM",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("EMBEDDING_DIM", "-1")
			},
			wantErr: true,
		},
		{
			name: "invalid ANSWER_TEMPERATURE",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("ANSWER_TEMPERATURE", "warm")
			},
			wantErr: true,
		},
		{
			name: "invalid JUDGE_ENABLED",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("JUDGE_ENABLED", "maybe")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LOG_LEVEL", "loud")
			},
			wantErr: true,
		},
		{
			name: "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) {
				setEnv("LLM_API_KEY", "sk-test")
				setEnv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	// Use a temporary directory for testing
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test", "db.db")
	indexDir := filepath.Join(tmpDir, "idx")

	setEnv("LLM_API_KEY", "sk-test")
	setEnv("DB_PATH", dbPath)
	setEnv("INDEX_DIR", indexDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, dir := range []string{filepath.Dir(dbPath), indexDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("Load() should create %s: %v", dir, err)
		}
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolateEnv(t)

	wd, _ := os.Getwd()
	content := "LLM_API_KEY=sk-from-file\nAPI_PORT=9100\n"
	if err := os.WriteFile(filepath.Join(wd, ".env"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		unsetEnv("LLM_API_KEY")
		unsetEnv("API_PORT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMAPIKey != "sk-from-file" || cfg.APIPort != "9100" {
		t.Errorf("Load() did not read .env: key=%q port=%q", cfg.LLMAPIKey, cfg.APIPort)
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name: "env var set",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "set-value")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name: "env var not set",
			setupEnv: func() {
				unsetEnv("TEST_ENV_VAR")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name: "empty env var uses default",
			setupEnv: func() {
				setEnv("TEST_ENV_VAR", "")
			},
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetPositiveInt(t *testing.T) {
	t.Cleanup(func() { unsetEnv("TEST_INT_VAR") })

	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "unset uses default", value: "", want: 7},
		{name: "valid", value: "12", want: 12},
		{name: "zero", value: "0", wantErr: true},
		{name: "not a number", value: "twelve", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv("TEST_INT_VAR", tt.value)
			got, err := getPositiveInt("TEST_INT_VAR", 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getPositiveInt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("getPositiveInt() = %d, want %d", got, tt.want)
			}
		})
	}
}
