// Package config loads the daemon configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcus/autodoist/internal/classify"
	"github.com/marcus/autodoist/internal/dateparse"
	"github.com/marcus/autodoist/internal/models"
	"gopkg.in/yaml.v3"
)

// Defaults. Labelling is opt-in; DefaultLabel is what "config init" writes.
const (
	DefaultLabel     = "next_action"
	DefaultDelay     = 5 // seconds
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ErrMissingAPIKey is returned by Validate when no API key is configured
var ErrMissingAPIKey = errors.New("no API key: set api_key, TODOIST_API_KEY or --api-key")

// Config holds every setting of the daemon
type Config struct {
	APIKey string `yaml:"api_key,omitempty"`

	// Label is the next-action label. Empty disables labelling.
	Label string `yaml:"label"`
	// Regeneration is off, all or if-completed. Empty disables regeneration.
	Regeneration string `yaml:"regeneration,omitempty"`
	// EndHour moves the end of the day to this hour (1-24). Zero disables it.
	EndHour    int    `yaml:"end_hour,omitempty"`
	HideFuture int    `yaml:"hide_future,omitempty"`
	DateFormat string `yaml:"date_format"`

	Suffixes classify.Suffixes `yaml:"suffixes"`

	// Inbox forces the type of the inbox project: none, parallel,
	// sequential, p-s or s-p
	Inbox     string `yaml:"inbox,omitempty"`
	InboxName string `yaml:"inbox_name"`

	Delay    int    `yaml:"delay"` // seconds between cycle starts
	StateDir string `yaml:"state_dir,omitempty"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	NoUpdateCheck bool `yaml:"no_update_check,omitempty"`

	// Runtime-only switches, set from flags
	OneTime bool `yaml:"-"`
	NoCache bool `yaml:"-"`
	DryRun  bool `yaml:"-"`
	Debug   bool `yaml:"-"`
}

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		DateFormat: dateparse.DefaultFormat,
		Suffixes:   classify.DefaultSuffixes(),
		InboxName:  classify.DefaultInboxName,
		Delay:      DefaultDelay,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// Dir returns ~/.config/autodoist
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "autodoist"), nil
}

// Path returns the config file location.
// Priority: AUTODOIST_CONFIG env > ~/.config/autodoist/config.yaml.
func Path() (string, error) {
	if v := os.Getenv("AUTODOIST_CONFIG"); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultStateDir returns $XDG_STATE_HOME/autodoist or
// ~/.local/state/autodoist
func DefaultStateDir() (string, error) {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "autodoist"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "autodoist"), nil
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory. The API key is written
// only when keepKey is set.
func Save(path string, cfg *Config, keepKey bool) error {
	out := *cfg
	if !keepKey {
		out.APIKey = ""
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides file values with AUTODOIST_* variables. The API key
// also honours TODOIST_API_KEY. Unparseable numbers are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TODOIST_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("AUTODOIST_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v, ok := os.LookupEnv("AUTODOIST_LABEL"); ok {
		c.Label = v
	}
	if v := os.Getenv("AUTODOIST_REGENERATION"); v != "" {
		c.Regeneration = v
	}
	envInt("AUTODOIST_END", &c.EndHour)
	envInt("AUTODOIST_HIDE_FUTURE", &c.HideFuture)
	envInt("AUTODOIST_DELAY", &c.Delay)
	if v := os.Getenv("AUTODOIST_DATEFORMAT"); v != "" {
		c.DateFormat = v
	}
	if v := os.Getenv("AUTODOIST_INBOX"); v != "" {
		c.Inbox = v
	}
	if v := os.Getenv("AUTODOIST_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("AUTODOIST_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("AUTODOIST_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("AUTODOIST_NO_UPDATE_CHECK"); v == "1" || v == "true" {
		c.NoUpdateCheck = true
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the settings that must be right before start-up
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return c.ValidateOptions()
}

// ValidateOptions checks everything except the API key
func (c *Config) ValidateOptions() error {
	if c.Regeneration != "" {
		if _, ok := models.ParseRegenMode(c.Regeneration); !ok {
			return fmt.Errorf("invalid regeneration mode %q (want off, all or if-completed)", c.Regeneration)
		}
	}
	if c.EndHour < 0 || c.EndHour > 24 {
		return fmt.Errorf("end hour %d out of range (1-24)", c.EndHour)
	}
	if c.HideFuture < 0 {
		return fmt.Errorf("hide-future must not be negative, got %d", c.HideFuture)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %d", c.Delay)
	}
	if _, err := c.InboxType(); err != nil {
		return err
	}
	if err := dateparse.ValidateFormat(c.DateFormat); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// RegenMode returns the global regeneration mode, or nil when regeneration
// is not configured. Call after Validate.
func (c *Config) RegenMode() *models.RegenMode {
	if c.Regeneration == "" {
		return nil
	}
	m, ok := models.ParseRegenMode(c.Regeneration)
	if !ok {
		return nil
	}
	return &m
}

// InboxType maps the inbox setting to a type
func (c *Config) InboxType() (models.Type, error) {
	switch strings.ToLower(c.Inbox) {
	case "", "none":
		return models.TypeNone, nil
	case "parallel":
		return models.TypeParallel, nil
	case "sequential":
		return models.TypeSequential, nil
	case "p-s":
		return models.TypeParallelSequential, nil
	case "s-p":
		return models.TypeSequentialParallel, nil
	}
	return models.TypeNone, fmt.Errorf("unknown inbox mode %q (want none, parallel, sequential, p-s or s-p)", c.Inbox)
}

// ResolveStateDir returns the configured state dir or the default one
func (c *Config) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	return DefaultStateDir()
}

// MaskedKey returns the API key with all but the last four characters hidden
func (c *Config) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
