// Package config loads routineforge configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all routineforge configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration for narrative and template generation
	LLM LLMConfig `yaml:"llm"`

	// Catalog of bundle templates
	Catalog CatalogConfig `yaml:"catalog"`

	// Workspace storage for generated artifacts
	Workspace WorkspaceConfig `yaml:"workspace"`

	// Delivery channels
	Delivery DeliveryConfig `yaml:"delivery"`

	// Records database
	Records RecordsConfig `yaml:"records"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language model providers. Provider is the
// preferred provider; the narrative generator still falls through the
// remaining configured providers in order.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// CatalogConfig configures the bundle template catalog.
type CatalogConfig struct {
	// StaticPath points at a YAML template file that overrides the
	// embedded defaults. Watched for changes when WatchReload is set.
	StaticPath   string `yaml:"static_path"`
	DatabasePath string `yaml:"database_path"`
	WatchReload  bool   `yaml:"watch_reload"`
}

// WorkspaceConfig configures artifact storage.
type WorkspaceConfig struct {
	// Root is the base directory for order folders.
	Root string `yaml:"root"`
}

// DeliveryConfig configures the customer-facing channels.
type DeliveryConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Email   EmailConfig   `yaml:"email"`

	// OperatorEmail receives abandonment alerts.
	OperatorEmail string `yaml:"operator_email"`
}

// WebhookConfig configures the direct-message webhook.
type WebhookConfig struct {
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// EmailConfig configures the SMTP sender.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RecordsConfig configures the records database.
type RecordsConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "routineforge",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider: "anthropic",
			Timeout:  "120s",
		},

		Catalog: CatalogConfig{
			DatabasePath: ".forge/catalog.db",
		},

		Workspace: WorkspaceConfig{
			Root: ".forge/workspace",
		},

		Delivery: DeliveryConfig{
			Webhook: WebhookConfig{
				Timeout: "30s",
			},
			Email: EmailConfig{
				Port: 587,
			},
		},

		Records: RecordsConfig{
			DatabasePath: ".forge/records.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// API key in priority order; the last match wins so the most
	// specific provider takes precedence.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "anthropic"
	}

	if url := os.Getenv("FORGE_WEBHOOK_URL"); url != "" {
		c.Delivery.Webhook.URL = url
	}
	if token := os.Getenv("FORGE_WEBHOOK_TOKEN"); token != "" {
		c.Delivery.Webhook.Token = token
	}
	if host := os.Getenv("FORGE_SMTP_HOST"); host != "" {
		c.Delivery.Email.Host = host
	}
	if pass := os.Getenv("FORGE_SMTP_PASSWORD"); pass != "" {
		c.Delivery.Email.Password = pass
	}

	if path := os.Getenv("FORGE_RECORDS_DB"); path != "" {
		c.Records.DatabasePath = path
	}
	if path := os.Getenv("FORGE_CATALOG_DB"); path != "" {
		c.Catalog.DatabasePath = path
	}
	if root := os.Getenv("FORGE_WORKSPACE"); root != "" {
		c.Workspace.Root = root
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetWebhookTimeout returns the webhook timeout as a duration.
func (c *Config) GetWebhookTimeout() time.Duration {
	d, err := time.ParseDuration(c.Delivery.Webhook.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
