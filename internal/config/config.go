package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Storage       StorageConfig  `toml:"storage"`
	Calendar      CalendarConfig `toml:"calendar"`
	Trello        TrelloConfig   `toml:"trello"`
	Reminder      ReminderConfig `toml:"reminder"`
	Notifications NotifyConfig   `toml:"notifications"`
}

type StorageConfig struct {
	// DBPath defaults to worklog.db in the config directory.
	DBPath string `toml:"db_path"`
	// Timezone names the IANA zone dates are bucketed in; empty means local.
	Timezone string `toml:"timezone"`
	// Inbox is the directory `worklog watch` imports from.
	Inbox string `toml:"inbox"`
}

type CalendarConfig struct {
	// RecurrenceLookbackDays bounds how far back recurring events expand.
	RecurrenceLookbackDays int `toml:"recurrence_lookback_days"`
	MaxOccurrences         int `toml:"max_occurrences"`
}

type TrelloConfig struct {
	APIKey        string `toml:"api_key"`
	Token         string `toml:"token"`
	Username      string `toml:"username"`
	BaseURL       string `toml:"base_url"`
	LookbackYears int    `toml:"lookback_years"`
}

type ReminderConfig struct {
	// Schedule is a five-field cron expression.
	Schedule string `toml:"schedule"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Calendar: CalendarConfig{
			RecurrenceLookbackDays: 365,
			MaxOccurrences:         1000,
		},
		Trello: TrelloConfig{
			LookbackYears: 3,
		},
		Reminder: ReminderConfig{
			Schedule: "0 17 * * 1-5",
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

// ConfigDir is ~/.config/worklog unless WORKLOG_HOME is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv("WORKLOG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "worklog"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Storage.DBPath == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.DBPath = filepath.Join(dir, "worklog.db")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKLOG_DB"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("WORKLOG_TZ"); v != "" {
		cfg.Storage.Timezone = v
	}
	if v := os.Getenv("TRELLO_API_KEY"); v != "" {
		cfg.Trello.APIKey = v
	}
	if v := os.Getenv("TRELLO_TOKEN"); v != "" {
		cfg.Trello.Token = v
	}
	if v := os.Getenv("TRELLO_USERNAME"); v != "" {
		cfg.Trello.Username = v
	}
	if v := os.Getenv("TRELLO_BASE_URL"); v != "" {
		cfg.Trello.BaseURL = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config to path unless a file exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
