package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL      = "https://api.buildkite.com/v2/"
	DefaultPollInterval = 10 * time.Second
	DefaultPerPage      = 30
	DefaultLogLevel     = "info"
)

// Config holds bk-tui settings. File values are overridden by the
// environment, which is overridden by command-line flags.
type Config struct {
	Org          string   `toml:"org" validate:"required"`
	Pipeline     string   `toml:"pipeline,omitempty"`
	Token        string   `toml:"token,omitempty"`
	BaseURL      string   `toml:"base_url" validate:"required,url"`
	PollInterval Duration `toml:"poll_interval"`
	UTC          bool     `toml:"utc"`
	PerPage      int      `toml:"per_page" validate:"min=1,max=100"`
	LogFile      string   `toml:"log_file,omitempty"`
	LogLevel     string   `toml:"log_level" validate:"oneof=trace debug info warn error fatal"`
}

// Duration decodes TOML strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a config with every optional field populated.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		PollInterval: Duration{DefaultPollInterval},
		PerPage:      DefaultPerPage,
		LogLevel:     DefaultLogLevel,
	}
}

var loadDotEnv sync.Once

// LoadFrom reads configuration from the given TOML file path on top of the
// defaults. A missing file is not an error. A .env file in the working
// directory is loaded first; variables already set in the process win.
// Environment variables always take precedence over file values:
//   - BUILDKITE_TOKEN   overrides token
//   - BUILDKITE_ORG     overrides org
//   - BUILDKITE_API_URL overrides base_url
func LoadFrom(path string) (Config, error) {
	loadDotEnv.Do(func() { _ = godotenv.Load() })

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	cfg.fillDefaults()
	return cfg, nil
}

// DefaultConfigPath returns the default path for the bk-tui config file.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bk-tui", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "bk-tui", "config.toml")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BUILDKITE_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("BUILDKITE_ORG"); v != "" {
		cfg.Org = v
	}
	if v := os.Getenv("BUILDKITE_API_URL"); v != "" {
		cfg.BaseURL = v
	}
}

// fillDefaults restores defaults a file explicitly zeroed.
func (c *Config) fillDefaults() {
	d := Default()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.PollInterval.Duration <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PerPage == 0 {
		c.PerPage = d.PerPage
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
}

var validate = validator.New()

// Validate checks field constraints and reports the first problem in terms
// of the config key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Org":
		return fmt.Errorf("organization is required (use -org, BUILDKITE_ORG or org in the config file)")
	case "BaseURL":
		return fmt.Errorf("base_url %q is not a valid URL", c.BaseURL)
	case "PerPage":
		return fmt.Errorf("per_page must be between 1 and 100, got %d", c.PerPage)
	case "LogLevel":
		return fmt.Errorf("log_level %q is not one of trace, debug, info, warn, error, fatal", c.LogLevel)
	}
	return fmt.Errorf("invalid %s: failed %s", fe.Field(), fe.Tag())
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
