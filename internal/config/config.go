// Package config reads process configuration from the environment. It is the
// only place environment variables other than the API key are read.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultModel         = "gemini-1.5-pro"
	DefaultBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultSecretsFile   = ".streamlit/secrets.toml"
	DefaultMaxMessageLen = 4000
	DefaultTimeout       = 60 * time.Second

	// APIKeyName is the secret looked up in every credential source.
	APIKeyName = "GEMINI_API_KEY"
)

type Config struct {
	Model         string
	BaseURL       string
	Timeout       time.Duration
	ParamPrefix   string
	SecretsFile   string
	MaxMessageLen int
	LogFile       string
}

// Load reads Config from the environment, applying defaults for unset or
// unparsable values.
func Load() Config {
	return Config{
		Model:         envString("GEMINI_MODEL", DefaultModel),
		BaseURL:       envString("GEMINI_BASE_URL", DefaultBaseURL),
		Timeout:       time.Duration(envInt("GEMINI_TIMEOUT_SECONDS", int(DefaultTimeout/time.Second))) * time.Second,
		ParamPrefix:   strings.TrimRight(strings.TrimSpace(os.Getenv("PARAM_PREFIX")), "/"),
		SecretsFile:   envString("SECRETS_FILE", DefaultSecretsFile),
		MaxMessageLen: envInt("MAX_MESSAGE_LENGTH", DefaultMaxMessageLen),
		LogFile:       strings.TrimSpace(os.Getenv("CHAT_LOG_FILE")),
	}
}

// APIKeyParameter is the SSM parameter holding the API key, or "" when no
// parameter prefix is configured.
func (c Config) APIKeyParameter() string {
	if c.ParamPrefix == "" {
		return ""
	}
	return c.ParamPrefix + "/gemini-api-key"
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
