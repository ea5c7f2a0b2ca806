// Package config loads codewing runtime configuration from a TOML file and
// environment variables, exposing typed structs for provider profiles,
// user-defined commands, and named placeholders.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultRequestTimeout bounds one provider send when the config is silent.
const DefaultRequestTimeout = 60 * time.Second

// Config is the runtime configuration loaded from defaults and config.toml.
type Config struct {
	// HomeDir is runtime-resolved from CODEWING_HOME and not read from config.
	HomeDir string `mapstructure:"-"`

	RequestTimeout  time.Duration             `mapstructure:"request_timeout"`
	DefaultProvider string                    `mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	Commands        []CommandConfig           `mapstructure:"commands"`
	Placeholders    map[string]string         `mapstructure:"placeholders"`
}

// ProviderConfig overrides one provider profile. Zero fields fall back to the
// provider descriptor's defaults.
type ProviderConfig struct {
	BaseURL   string         `mapstructure:"base_url"`
	APIKey    string         `mapstructure:"api_key"`
	Format    string         `mapstructure:"format"`
	Tokenizer string         `mapstructure:"tokenizer"`
	Params    map[string]any `mapstructure:"params"`
}

// CommandConfig is one user-defined command template as written in
// config.toml. It overlays the builtin catalog by id.
type CommandConfig struct {
	ID                   string            `mapstructure:"id"`
	Label                string            `mapstructure:"label"`
	Category             string            `mapstructure:"category"`
	Message              string            `mapstructure:"message"`
	System               string            `mapstructure:"system"`
	Insertion            string            `mapstructure:"insertion"`
	Provider             string            `mapstructure:"provider"`
	Model                string            `mapstructure:"model"`
	Temperature          *float64          `mapstructure:"temperature"`
	MaxTokens            *int              `mapstructure:"max_tokens"`
	Choices              *int              `mapstructure:"choices"`
	LanguageInstructions map[string]string `mapstructure:"language_instructions"`
}

// homeDir returns the codewing home directory. Uses CODEWING_HOME if set,
// otherwise ~/.codewing.
func homeDir() (string, error) {
	if dir := os.Getenv("CODEWING_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".codewing"), nil
}

// Load merges hardcoded defaults and config file values in that order.
// Config is always at $CODEWING_HOME/config.toml.
func Load() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	return loadFrom(home)
}

func loadFrom(home string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filepath.Join(home, "config.toml"))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = home
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("default_provider", "openai")
}

// ConfigPath returns the path of the config file under this home.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// SecretsDir returns the directory holding provider API keys.
func (c *Config) SecretsDir() string {
	return filepath.Join(c.HomeDir, "secrets")
}

// HistoryPath returns the chat transcript file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.HomeDir, "history.jsonl")
}

// Provider returns the named provider profile, or a zero profile so callers
// always have descriptor defaults to fall back on.
func (c *Config) Provider(name string) ProviderConfig {
	if p, ok := c.Providers[name]; ok {
		return p
	}
	return ProviderConfig{}
}

// Validate validates startup configuration and returns the first fatal error.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be > 0")
	}
	if c.DefaultProvider == "" {
		return errors.New("default_provider is required")
	}
	for i, cmd := range c.Commands {
		if err := cmd.Validate(); err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks required user-command fields. A command with no user
// message template is invalid.
func (c CommandConfig) Validate() error {
	if c.Label == "" && c.ID == "" {
		return errors.New("id or label is required")
	}
	if c.Message == "" {
		return errors.New("message is required")
	}
	if c.Insertion != "" {
		switch c.Insertion {
		case "none", "replace", "before", "after", "new":
		default:
			return fmt.Errorf("invalid insertion %q (allowed: none, replace, before, after, new)", c.Insertion)
		}
	}
	return nil
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
