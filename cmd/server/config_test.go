package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"IMAGEGATE_PORT", "IMAGEGATE_LOG_LEVEL", "IMAGEGATE_REQUEST_TIMEOUT",
		"IMAGEGATE_PROVIDER_TIMEOUT", "IMAGEGATE_POLL_ATTEMPTS", "IMAGEGATE_POLL_INTERVAL",
		"HUGGINGFACE_API_KEY", "OPENAI_API_KEY", "STABILITY_API_KEY", "GOOGLE_API_KEY",
		"DEEPAI_API_KEY", "ADOBE_API_KEY", "ADOBE_ACCESS_TOKEN",
		"MIDJOURNEY_API_KEY", "MIDJOURNEY_BASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 6*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ProviderTimeout)
	assert.Equal(t, 30, cfg.PollAttempts)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Empty(t, cfg.OpenAIKey)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("IMAGEGATE_PORT", "8080")
	t.Setenv("IMAGEGATE_POLL_ATTEMPTS", "5")
	t.Setenv("IMAGEGATE_POLL_INTERVAL", "2s")
	t.Setenv("IMAGEGATE_PROVIDER_TIMEOUT", "not-a-duration")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STABILITY_API_KEY", "sk-stability")
	t.Setenv("ADOBE_API_KEY", "adobe-client")
	t.Setenv("ADOBE_ACCESS_TOKEN", "adobe-token")
	t.Setenv("MIDJOURNEY_BASE_URL", "https://mj.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.PollAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.ProviderTimeout)

	cc := cfg.ClientConfig()
	assert.Equal(t, "sk-test", cc.APIKeys.OpenAI)
	assert.Equal(t, "sk-stability", cc.APIKeys.Stability)
	assert.Equal(t, "adobe-client", cc.APIKeys.Firefly)
	assert.Equal(t, "adobe-token", cc.APIKeys.FireflyToken)
	assert.Equal(t, "https://mj.example.com", cc.BaseURLs.Midjourney)
	require.NotNil(t, cc.PollConfig)
	assert.Equal(t, 5, cc.PollConfig.MaxAttempts)
	assert.Equal(t, 2*time.Second, cc.PollConfig.Interval)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Port:            "3000",
		RequestTimeout:  time.Minute,
		ProviderTimeout: time.Minute,
		PollAttempts:    1,
		PollInterval:    time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"port":             func(c *Config) { c.Port = "http" },
		"poll attempts":    func(c *Config) { c.PollAttempts = 0 },
		"poll interval":    func(c *Config) { c.PollInterval = 0 },
		"provider timeout": func(c *Config) { c.ProviderTimeout = 0 },
		"request timeout":  func(c *Config) { c.RequestTimeout = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
