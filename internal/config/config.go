package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Chat completions go to Groq's OpenAI-compatible endpoint by
	// default; embeddings always go to OpenAI proper.
	GroqAPIKey   string `envconfig:"GROQ_API_KEY"`
	LLMBaseURL   string `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel     string `envconfig:"LLM_MODEL" default:"llama-3.1-8b-instant"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	LLMRateLimit  int           `envconfig:"LLM_RATE_LIMIT" default:"20"`
	LLMRateWindow time.Duration `envconfig:"LLM_RATE_WINDOW" default:"60s"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"10s"`

	SentryDSN              string  `envconfig:"SENTRY_DSN"`
	SentryEnvironment      string  `envconfig:"SENTRY_ENVIRONMENT"`
	SentryTracesSampleRate float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE" default:"1.0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("POSTMIND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasGroq() bool {
	return c.GroqAPIKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
