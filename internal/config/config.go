// Package config loads ragsync settings from flags, environment variables,
// a .env file and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. RAGSYNC_API_KEY.
const EnvPrefix = "RAGSYNC"

// Configuration keys.
const (
	KeyAPIKey        = "api_key"
	KeyBaseURL       = "base_url"
	KeyCollection    = "collection"
	KeyDir           = "dir"
	KeyBatchSize     = "batch_size"
	KeyNoParse       = "no_parse"
	KeySkipExisting  = "skip_existing"
	KeyLogFile       = "log_file"
	KeyLogMaxSizeMB  = "log_max_size_mb"
	KeyLogMaxAgeDays = "log_max_age_days"
	KeyLogCompress   = "log_compress"
	KeyTimeout       = "timeout"
	KeyReport        = "report"
	KeyDashboardPort = "dashboard_port"
	KeyHistoryDB     = "history_db"
)

// Config holds the effective settings of a sync run.
type Config struct {
	APIKey        string        `mapstructure:"api_key" toml:"api_key"`
	BaseURL       string        `mapstructure:"base_url" toml:"base_url"`
	Collection    string        `mapstructure:"collection" toml:"collection"`
	Dir           string        `mapstructure:"dir" toml:"dir"`
	BatchSize     int           `mapstructure:"batch_size" toml:"batch_size"`
	NoParse       bool          `mapstructure:"no_parse" toml:"no_parse"`
	SkipExisting  bool          `mapstructure:"skip_existing" toml:"skip_existing"`
	LogFile       string        `mapstructure:"log_file" toml:"log_file"`
	LogMaxSizeMB  int           `mapstructure:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxAgeDays int           `mapstructure:"log_max_age_days" toml:"log_max_age_days"`
	LogCompress   bool          `mapstructure:"log_compress" toml:"log_compress"`
	Timeout       time.Duration `mapstructure:"timeout" toml:"timeout"`
	Report        string        `mapstructure:"report" toml:"report"`
	DashboardPort int           `mapstructure:"dashboard_port" toml:"dashboard_port"`
	HistoryDB     string        `mapstructure:"history_db" toml:"history_db"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"api-key":        KeyAPIKey,
	"base-url":       KeyBaseURL,
	"collection":     KeyCollection,
	"dir":            KeyDir,
	"batch-size":     KeyBatchSize,
	"no-parse":       KeyNoParse,
	"skip-existing":  KeySkipExisting,
	"log-file":       KeyLogFile,
	"timeout":        KeyTimeout,
	"report":         KeyReport,
	"dashboard-port": KeyDashboardPort,
	"history-db":     KeyHistoryDB,
}

var allKeys = []string{
	KeyAPIKey, KeyBaseURL, KeyCollection, KeyDir, KeyBatchSize, KeyNoParse,
	KeySkipExisting, KeyLogFile, KeyLogMaxSizeMB, KeyLogMaxAgeDays, KeyLogCompress,
	KeyTimeout, KeyReport, KeyDashboardPort, KeyHistoryDB,
}

// DefaultHistoryDB returns the default run ledger location (~/.ragsync/history.db).
func DefaultHistoryDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ragsync", "history.db")
	}
	return filepath.Join(home, ".ragsync", "history.db")
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Bind every key so env values are visible even without a matching flag.
	for _, key := range allKeys {
		_ = v.BindEnv(key)
	}

	v.SetDefault(KeyBatchSize, 5)
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxAgeDays, 7)
	v.SetDefault(KeyLogCompress, true)
	v.SetDefault(KeyHistoryDB, DefaultHistoryDB())
	return v
}

// BindFlags binds every known flag present in flags to its config key.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// LoadDotEnv loads variables from path into the process environment.
// A missing file is not an error; existing variables are never overridden.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ReadFile reads the config file at path, or searches ./ragsync.* and
// ~/.ragsync/ragsync.* when path is empty. Not finding a file during the
// search is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("ragsync")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".ragsync"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load decodes the effective configuration from v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every required setting is present and sane.
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api-key")
	}
	if c.BaseURL == "" {
		missing = append(missing, "base-url")
	}
	if c.Collection == "" {
		missing = append(missing, "collection")
	}
	if c.Dir == "" {
		missing = append(missing, "dir")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("batch-size must be a positive integer, got %d", c.BatchSize)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base-url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.DashboardPort < 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("dashboard-port out of range: %d", c.DashboardPort)
	}
	return nil
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Masked returns a copy of c that is safe to print or log.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = MaskKey(c.APIKey)
	}
	return c
}
