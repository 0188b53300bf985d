package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults preserved from the service this relay replaces.
const (
	DefaultModel     = "@cf/meta/llama-4-scout-17b-16e-instruct"
	DefaultMaxTokens = 8000
)

// Config holds the relay service configuration.
type Config struct {
	Port        string
	Environment string
	CORSOrigins string

	// Inference backend
	BackendBaseURL string
	CFAccountID    string
	CFAPIToken     string
	Model          string
	MaxTokens      int
}

// fileConfig is the optional YAML config file shape. Environment variables
// always win over file values.
type fileConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	CORSOrigins string `yaml:"cors_origins"`
	BackendURL  string `yaml:"backend_url"`
	AccountID   string `yaml:"account_id"`
	APIToken    string `yaml:"api_token"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// Load builds the configuration from defaults, then the YAML file named by
// RELAY_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        "8080",
		Environment: "dev",
		CORSOrigins: "http://localhost:3000",
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
	}

	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.BackendBaseURL = getEnv("BACKEND_URL", cfg.BackendBaseURL)
	cfg.CFAccountID = getEnv("CLOUDFLARE_ACCOUNT_ID", cfg.CFAccountID)
	cfg.CFAPIToken = getEnv("CLOUDFLARE_API_TOKEN", cfg.CFAPIToken)
	cfg.Model = getEnv("MODEL", cfg.Model)

	if v := os.Getenv("MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_TOKENS %q: %w", v, err)
		}
		cfg.MaxTokens = n
	}

	return cfg, nil
}

// applyFile overlays values from the YAML file at path onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.CORSOrigins != "" {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.BackendURL != "" {
		cfg.BackendBaseURL = fc.BackendURL
	}
	if fc.AccountID != "" {
		cfg.CFAccountID = fc.AccountID
	}
	if fc.APIToken != "" {
		cfg.CFAPIToken = fc.APIToken
	}
	if fc.Model != "" {
		cfg.Model = fc.Model
	}
	if fc.MaxTokens > 0 {
		cfg.MaxTokens = fc.MaxTokens
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
