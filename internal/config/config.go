// Package config loads process configuration for the assistant. Values come
// from an optional YAML config file overridden by environment variables;
// credentials are validated at construction so misconfiguration fails before
// any network call.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults mirror the hosted-API conventions the assistant targets.
const (
	DefaultModel         = "gpt-3.5-turbo"
	DefaultTemperature   = 0.3
	DefaultMaxTokens     = 1000
	DefaultContextTokens = 12000
	DefaultChunkSize     = 2000
	DefaultHost          = "localhost"
	DefaultPort          = 8080
)

// Config is the resolved runtime configuration.
type Config struct {
	// Confluence side.
	ConfluenceURL      string `yaml:"confluence_url"`
	ConfluenceEmail    string `yaml:"confluence_email"`
	ConfluenceAPIToken string `yaml:"confluence_api_token"`
	DefaultPageID      string `yaml:"default_page_id"`

	// Completion side.
	OpenAIAPIKey  string  `yaml:"openai_api_key"`
	OpenAIBaseURL string  `yaml:"openai_base_url"`
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature"`
	MaxTokens     int     `yaml:"max_tokens"`
	ContextTokens int     `yaml:"context_tokens"`

	// Server side.
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Debug     bool   `yaml:"debug"`
	ExportDir string `yaml:"export_dir"`
}

// ConfigurationError reports a missing or invalid required setting. It is
// fatal at construction time.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// EnvLookup resolves one environment variable, reporting presence.
type EnvLookup func(key string) (string, bool)

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	configPath string
}

// Option customizes Load, mainly so tests can inject a fake environment.
type Option func(*loadOptions)

// WithEnvLookup replaces the os.LookupEnv source.
func WithEnvLookup(lookup EnvLookup) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithConfigPath forces a specific config file path instead of the
// WIKIQA_CONFIG / default resolution.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) { o.configPath = path }
}

// Load resolves the configuration: defaults, then the config file when one
// exists, then environment overrides. Load itself never fails on missing
// credentials; call Validate variants at client construction.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{
		envLookup: os.LookupEnv,
		readFile:  os.ReadFile,
	}
	for _, opt := range opts {
		opt(&options)
	}

	cfg := Config{
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		MaxTokens:     DefaultMaxTokens,
		ContextTokens: DefaultContextTokens,
		Host:          DefaultHost,
		Port:          DefaultPort,
	}

	if err := applyFile(&cfg, options); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, options.envLookup); err != nil {
		return Config{}, err
	}

	cfg.ConfluenceURL = strings.TrimRight(strings.TrimSpace(cfg.ConfluenceURL), "/")
	return cfg, nil
}

func applyEnv(cfg *Config, lookup EnvLookup) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if value, ok := lookup("CONFLUENCE_URL"); ok && value != "" {
		cfg.ConfluenceURL = value
	}
	if value, ok := lookup("CONFLUENCE_EMAIL"); ok && value != "" {
		cfg.ConfluenceEmail = value
	}
	if value, ok := lookup("CONFLUENCE_API_TOKEN"); ok && value != "" {
		cfg.ConfluenceAPIToken = value
	}
	if value, ok := lookup("DEFAULT_PAGE_ID"); ok && value != "" {
		cfg.DefaultPageID = value
	}
	if value, ok := lookup("OPENAI_API_KEY"); ok && value != "" {
		cfg.OpenAIAPIKey = value
	}
	if value, ok := lookup("OPENAI_BASE_URL"); ok && value != "" {
		cfg.OpenAIBaseURL = value
	}
	if value, ok := lookup("OPENAI_MODEL"); ok && value != "" {
		cfg.Model = value
	}
	if value, ok := lookup("OPENAI_TEMPERATURE"); ok && value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parse OPENAI_TEMPERATURE: %w", err)
		}
		cfg.Temperature = parsed
	}
	if value, ok := lookup("OPENAI_MAX_TOKENS"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse OPENAI_MAX_TOKENS: %w", err)
		}
		cfg.MaxTokens = parsed
	}
	if value, ok := lookup("WIKIQA_CONTEXT_TOKENS"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse WIKIQA_CONTEXT_TOKENS: %w", err)
		}
		cfg.ContextTokens = parsed
	}
	if value, ok := lookup("WIKIQA_HOST"); ok && value != "" {
		cfg.Host = value
	}
	if value, ok := lookup("WIKIQA_PORT"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse WIKIQA_PORT: %w", err)
		}
		cfg.Port = parsed
	}
	if value, ok := lookup("WIKIQA_DEBUG"); ok && value != "" {
		cfg.Debug = strings.EqualFold(value, "true") || value == "1"
	}
	if value, ok := lookup("WIKIQA_EXPORT_DIR"); ok && value != "" {
		cfg.ExportDir = value
	}
	return nil
}

// ValidateConfluence reports the Confluence credentials missing from cfg.
func (c Config) ValidateConfluence() error {
	var missing []string
	if c.ConfluenceURL == "" {
		missing = append(missing, "CONFLUENCE_URL")
	}
	if c.ConfluenceEmail == "" {
		missing = append(missing, "CONFLUENCE_EMAIL")
	}
	if c.ConfluenceAPIToken == "" {
		missing = append(missing, "CONFLUENCE_API_TOKEN")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateOpenAI reports whether the completion API key is configured.
func (c Config) ValidateOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return &ConfigurationError{Missing: []string{"OPENAI_API_KEY"}}
	}
	return nil
}
