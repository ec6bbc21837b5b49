package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"basebot/internal/usecase"
)

const (
	envTelegramToken = "TELEGRAM_BOT_TOKEN"
	envGroqAPIKey    = "GROQ_API_KEY"

	paramTelegramToken = "/telegram-bot-token"
	paramGroqAPIKey    = "/groq-api-key"
)

// SecretGetter resolves a named secret, e.g. from SSM Parameter Store.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Config holds the process configuration. It is read once at startup.
type Config struct {
	TelegramToken string
	GroqAPIKey    string
	GroqModel     string
	GroqBaseURL   string

	ParamPrefix   string
	KnowledgeFile string
	DedupTable    string
	WebhookSecret string
	Location      *time.Location

	LogLevel  string
	LogFormat string

	// Lambda is true when running inside AWS Lambda (webhook mode).
	Lambda bool
}

// Load reads configuration from the environment, after loading a .env file
// when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: getEnv(envTelegramToken, ""),
		GroqAPIKey:    getEnv(envGroqAPIKey, ""),
		GroqModel:     getEnv("GROQ_MODEL", usecase.DefaultModel),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", ""),
		ParamPrefix:   strings.TrimRight(getEnv("PARAM_PREFIX", ""), "/"),
		KnowledgeFile: getEnv("KNOWLEDGE_FILE", ""),
		DedupTable:    getEnv("DEDUP_TABLE", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		Lambda:        getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",
		Location:      time.Local,
	}

	if tz := getEnv("BOT_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("config: invalid BOT_TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}
	return cfg, nil
}

// NeedsParamStore reports whether a secret is missing from the environment
// and a parameter prefix is available to fetch it from.
func (c *Config) NeedsParamStore() bool {
	return c.ParamPrefix != "" && (c.TelegramToken == "" || c.GroqAPIKey == "")
}

// ResolveSecrets fills secrets missing from the environment from
// <prefix>/telegram-bot-token and <prefix>/groq-api-key.
func (c *Config) ResolveSecrets(ctx context.Context, getter SecretGetter) error {
	if getter == nil {
		return errors.New("config: secret getter must not be nil")
	}
	if c.ParamPrefix == "" {
		return errors.New("config: PARAM_PREFIX is not set")
	}
	if c.TelegramToken == "" {
		v, err := getter.GetSecret(ctx, c.ParamPrefix+paramTelegramToken)
		if err != nil {
			return fmt.Errorf("config: resolve telegram token: %w", err)
		}
		c.TelegramToken = v
	}
	if c.GroqAPIKey == "" {
		v, err := getter.GetSecret(ctx, c.ParamPrefix+paramGroqAPIKey)
		if err != nil {
			return fmt.Errorf("config: resolve groq api key: %w", err)
		}
		c.GroqAPIKey = v
	}
	return nil
}

// Validate checks that both secrets are present.
func (c *Config) Validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, envTelegramToken)
	}
	if c.GroqAPIKey == "" {
		missing = append(missing, envGroqAPIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required secrets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Warnings lists settings that are valid but unsafe.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Lambda && c.WebhookSecret == "" {
		warnings = append(warnings, "WEBHOOK_SECRET is not set; the webhook accepts unauthenticated updates")
	}
	return warnings
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}
