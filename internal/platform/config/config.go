package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. It is read once at startup and
// treated as immutable afterwards.
type Config struct {
	Addr string

	// Feature flags gating engine startup.
	RecognitionEnabled    bool
	AnalysisEnabled       bool
	FraudEnabled          bool
	ClassificationEnabled bool

	// Analysis engine credentials and model selection.
	GeminiAPIKey string
	GeminiModel  string

	// Default OCR language for calls that do not specify one.
	OCRLanguage string

	// Collaborator endpoints. Empty values keep the in-memory/no-cache paths.
	DatabaseURL string
	RedisURL    string

	// RecognitionCacheTTL bounds retention of cached OCR results.
	RecognitionCacheTTL time.Duration

	// BatchConcurrency bounds parallel model calls during batch processing.
	// Kept at 1 by default so load on the rate-limited model backend stays
	// predictable.
	BatchConcurrency int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("CIVIS_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	lang := os.Getenv("OCR_LANGUAGE")
	if lang == "" {
		lang = "eng"
	}

	return Config{
		Addr:                  addr,
		RecognitionEnabled:    boolEnv("RECOGNITION_ENABLED", true),
		AnalysisEnabled:       boolEnv("ANALYSIS_ENABLED", true),
		FraudEnabled:          boolEnv("FRAUD_ENABLED", true),
		ClassificationEnabled: boolEnv("CLASSIFICATION_ENABLED", true),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           model,
		OCRLanguage:           lang,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		RecognitionCacheTTL:   durationEnv("RECOGNITION_CACHE_TTL", 15*time.Minute),
		BatchConcurrency:      intEnv("BATCH_CONCURRENCY", 1),
	}
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
