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
	// Text generation
	GeminiAPIKey   string
	GeminiModel    string
	TextGenTimeout time.Duration

	// Supabase
	SupabaseURL           string
	SupabaseKey           string
	SupabaseStorageBucket string

	// Auth
	JWTSecret string

	// Database
	DatabaseURL string

	// Redis (optional, enables the cross-instance run lock)
	RedisAddr string

	// Generation
	GenerationCost    int
	CancelRefund      int
	DefaultCredits    int
	StepTickDelay     time.Duration
	MaxConcurrentRuns int

	// Server
	Port        string
	Environment string
	CORSOrigins []string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TextGenTimeout: getEnvDuration("TEXTGEN_TIMEOUT", 30*time.Second),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseKey:           getEnv("SUPABASE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "generated-code"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", ""),

		GenerationCost:    getEnvInt("GENERATION_COST", 5),
		CancelRefund:      getEnvInt("CANCEL_REFUND", 2),
		DefaultCredits:    getEnvInt("DEFAULT_CREDITS", 50),
		StepTickDelay:     getEnvDuration("STEP_TICK_DELAY", 250*time.Millisecond),
		MaxConcurrentRuns: getEnvInt("MAX_CONCURRENT_RUNS", 8),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.GenerationCost <= 0 {
		return fmt.Errorf("GENERATION_COST must be positive")
	}
	if c.CancelRefund < 0 || c.CancelRefund > c.GenerationCost {
		return fmt.Errorf("CANCEL_REFUND must be between 0 and GENERATION_COST")
	}
	if c.MaxConcurrentRuns < 1 {
		return fmt.Errorf("MAX_CONCURRENT_RUNS must be at least 1")
	}
	return nil
}

// StorageEnabled reports whether artifact export to Supabase Storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
