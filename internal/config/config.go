// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the MDA filter.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultDKIMKeyDir is where per-domain key files live unless overridden.
const defaultDKIMKeyDir = "/etc/mail/dkim"

// Config holds the complete application configuration.
type Config struct {
	Provider     string             `yaml:"provider"`
	MailChannels MailChannelsConfig `yaml:"mailchannels"`
	SES          SESConfig          `yaml:"ses"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// MailChannelsConfig holds MailChannels API configuration.
type MailChannelsConfig struct {
	APIKey       string `yaml:"api_key"`
	DKIMSelector string `yaml:"dkim_selector"`
	DKIMKeyDir   string `yaml:"dkim_key_dir"`
	Endpoint     string `yaml:"endpoint"`

	// Transactional marks submissions explicitly; nil means "unset",
	// which is still communicated to the API.
	Transactional *bool `yaml:"transactional"`

	// ClickTracking and OpenTracking opt in or out of provider-side
	// tracking. Nil leaves the setting out of the request.
	ClickTracking *bool `yaml:"click_tracking"`
	OpenTracking  *bool `yaml:"open_tracking"`
}

// SESConfig holds AWS SES configuration for the fallback relay provider.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// MailChannelsConfigured returns true if the API key and DKIM selector are
// both set.
func (c *Config) MailChannelsConfigured() bool {
	return c.MailChannels.APIKey != "" && c.MailChannels.DKIMSelector != ""
}

// SESConfigured returns true if an AWS region is set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Provider = "mailchannels"
	c.MailChannels.DKIMKeyDir = defaultDKIMKeyDir
	c.Logging.Level = "warn"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MDA_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("MDA_MAILCHANNELS_API_KEY"); v != "" {
		c.MailChannels.APIKey = v
	}
	if v := os.Getenv("MDA_MAILCHANNELS_DKIM_SELECTOR"); v != "" {
		c.MailChannels.DKIMSelector = v
	}
	if v := os.Getenv("MDA_MAILCHANNELS_DKIM_KEY_DIR"); v != "" {
		c.MailChannels.DKIMKeyDir = v
	}
	if v := os.Getenv("MDA_MAILCHANNELS_ENDPOINT"); v != "" {
		c.MailChannels.Endpoint = v
	}
	if v := os.Getenv("MDA_MAILCHANNELS_TRANSACTIONAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MailChannels.Transactional = &b
		}
	}
	if v := os.Getenv("MDA_MAILCHANNELS_CLICK_TRACKING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MailChannels.ClickTracking = &b
		}
	}
	if v := os.Getenv("MDA_MAILCHANNELS_OPEN_TRACKING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MailChannels.OpenTracking = &b
		}
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
