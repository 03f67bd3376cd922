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
	DatabaseURL string
	HTTPAddr    string

	LogLevel string
	DevMode  bool

	GithubToken   string
	GithubAPIURL  string
	WebhookSecret string

	RulesPath string

	// Engine selects the review generator: "heuristic" or "llm".
	Engine                string
	AnthropicModel        string
	NeedsChangesThreshold float64

	Instructors []string

	DiffTimeout    time.Duration
	PublishTimeout time.Duration
	RetryAttempts  uint64

	WorkerPoolSize int
	TaskTimeout    time.Duration
}

func Load() (Config, error) {
	// Absent .env is fine; real deployments use the environment directly.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := Config{
		DatabaseURL:           dbURL,
		HTTPAddr:              envOr("HTTP_ADDR", ":8080"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		DevMode:               envBool("DEV_MODE"),
		GithubToken:           os.Getenv("GITHUB_TOKEN"),
		GithubAPIURL:          os.Getenv("GITHUB_API_URL"),
		WebhookSecret:         os.Getenv("WEBHOOK_SECRET"),
		RulesPath:             os.Getenv("RULES_PATH"),
		Engine:                envOr("REVIEW_ENGINE", "heuristic"),
		AnthropicModel:        os.Getenv("ANTHROPIC_MODEL"),
		NeedsChangesThreshold: envFloat("NEEDS_CHANGES_THRESHOLD", 0.3),
		Instructors:           envList("INSTRUCTORS"),
		DiffTimeout:           envDuration("DIFF_TIMEOUT", 10*time.Second),
		PublishTimeout:        envDuration("PUBLISH_TIMEOUT", 10*time.Second),
		RetryAttempts:         uint64(envInt("RETRY_ATTEMPTS", 3)),
		WorkerPoolSize:        envInt("WORKER_POOL_SIZE", 4),
		TaskTimeout:           envDuration("TASK_TIMEOUT", 60*time.Second),
	}

	if cfg.Engine != "heuristic" && cfg.Engine != "llm" {
		return Config{}, fmt.Errorf("REVIEW_ENGINE must be heuristic or llm, got %q", cfg.Engine)
	}
	if cfg.Engine == "llm" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		return Config{}, fmt.Errorf("ANTHROPIC_API_KEY is required for the llm engine")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
