package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spetersoncode/imagegate/client"
	"github.com/spetersoncode/imagegate/poll"
)

// Config holds the server configuration loaded from environment variables.
type Config struct {
	// Server
	Port           string
	LogLevel       string // debug, info, warn, error
	RequestTimeout time.Duration

	// API Keys
	HuggingFaceKey string
	OpenAIKey      string
	StabilityKey   string
	GoogleKey      string
	DeepAIKey      string
	AdobeKey       string
	AdobeToken     string
	MidjourneyKey  string

	// Endpoint overrides
	MidjourneyBaseURL string

	// Provider behavior
	ProviderTimeout time.Duration
	PollAttempts    int
	PollInterval    time.Duration
}

// LoadConfig loads configuration from environment variables.
// It loads a .env file if present (silent fail if not found).
func LoadConfig() (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := &Config{
		Port:              getEnvOrDefault("IMAGEGATE_PORT", "3000"),
		LogLevel:          getEnvOrDefault("IMAGEGATE_LOG_LEVEL", "info"),
		RequestTimeout:    getEnvDurationOrDefault("IMAGEGATE_REQUEST_TIMEOUT", 6*time.Minute),
		HuggingFaceKey:    os.Getenv("HUGGINGFACE_API_KEY"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		StabilityKey:      os.Getenv("STABILITY_API_KEY"),
		GoogleKey:         os.Getenv("GOOGLE_API_KEY"),
		DeepAIKey:         os.Getenv("DEEPAI_API_KEY"),
		AdobeKey:          os.Getenv("ADOBE_API_KEY"),
		AdobeToken:        os.Getenv("ADOBE_ACCESS_TOKEN"),
		MidjourneyKey:     os.Getenv("MIDJOURNEY_API_KEY"),
		MidjourneyBaseURL: os.Getenv("MIDJOURNEY_BASE_URL"),
		ProviderTimeout:   getEnvDurationOrDefault("IMAGEGATE_PROVIDER_TIMEOUT", 2*time.Minute),
		PollAttempts:      getEnvIntOrDefault("IMAGEGATE_POLL_ATTEMPTS", 30),
		PollInterval:      getEnvDurationOrDefault("IMAGEGATE_POLL_INTERVAL", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. Missing API keys are
// allowed; those providers are reported as unconfigured.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("IMAGEGATE_PORT must be numeric, got %q", c.Port)
	}
	if c.PollAttempts < 1 {
		return fmt.Errorf("IMAGEGATE_POLL_ATTEMPTS must be at least 1, got %d", c.PollAttempts)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("IMAGEGATE_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("IMAGEGATE_PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("IMAGEGATE_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// ClientConfig converts the server configuration into a client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		APIKeys: client.APIKeys{
			HuggingFace:  c.HuggingFaceKey,
			OpenAI:       c.OpenAIKey,
			Stability:    c.StabilityKey,
			Google:       c.GoogleKey,
			DeepAI:       c.DeepAIKey,
			Firefly:      c.AdobeKey,
			FireflyToken: c.AdobeToken,
			Midjourney:   c.MidjourneyKey,
		},
		BaseURLs: client.BaseURLs{
			Midjourney: c.MidjourneyBaseURL,
		},
		ProviderTimeout: c.ProviderTimeout,
		PollConfig: &poll.Config{
			MaxAttempts: c.PollAttempts,
			Interval:    c.PollInterval,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
