package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"battery-revenue/internal/revenue"

	"gopkg.in/yaml.v3"
)

// Defaults for a run with no config file.
const (
	DefaultFilePath  = "./coding_practice_python_battery_dispatch_dataset.csv"
	DefaultDate      = "2024-04-01"
	DefaultBatchSize = 100
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Input           InputConfig   `yaml:"input"`
	IntervalMinutes int           `yaml:"interval_minutes"`
	Ledger          LedgerConfig  `yaml:"ledger"`
	Logging         LoggingConfig `yaml:"logging"`
	API             APIConfig     `yaml:"api"`
}

type InputConfig struct {
	FilePath  string `yaml:"file_path"`
	Date      string `yaml:"date"`
	BatchSize int    `yaml:"batch_size"`
}

type LedgerConfig struct {
	// Path is the default --out of the ledger subcommand; empty means results/ledger.csv.
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type APIConfig struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Input: InputConfig{
			FilePath:  DefaultFilePath,
			Date:      DefaultDate,
			BatchSize: DefaultBatchSize,
		},
		IntervalMinutes: 5,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		API: APIConfig{
			Port:           "8080",
			ResultTTL:      time.Hour,
			MaxUploadMB:    512,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads path over the defaults, applies environment overrides and validates.
// An empty path means defaults plus environment.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return &c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fromFile Config
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c = Merge(c, fromFile)
	return &c, nil
}

// ApplyEnv overlays LOG_LEVEL, API_PORT, API_ENV, REVENUE_FILE, REVENUE_DATE and REVENUE_BATCH_SIZE.
// A REVENUE_BATCH_SIZE that is not an integer is an error.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		c.API.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.API.Env = v
	}
	if v := os.Getenv("REVENUE_FILE"); v != "" {
		c.Input.FilePath = v
	}
	if v := os.Getenv("REVENUE_DATE"); v != "" {
		c.Input.Date = v
	}
	if v := os.Getenv("REVENUE_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REVENUE_BATCH_SIZE: %w", err)
		}
		c.Input.BatchSize = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Input.BatchSize <= 0 {
		return fmt.Errorf("input.batch_size must be > 0, got %d", c.Input.BatchSize)
	}
	if _, err := revenue.ParseDate(c.Input.Date); err != nil {
		return fmt.Errorf("input.date: %w", err)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be > 0, got %d", c.IntervalMinutes)
	}
	if c.API.ResultTTL < 0 {
		return errors.New("api.result_ttl must be >= 0")
	}
	if c.API.MaxUploadMB <= 0 {
		return errors.New("api.max_upload_mb must be > 0")
	}
	return nil
}

// IntervalLength is the dispatch interval as a duration.
func (c *Config) IntervalLength() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// TargetDate parses Input.Date. Call Validate first.
func (c *Config) TargetDate() (time.Time, error) {
	return revenue.ParseDate(c.Input.Date)
}

// Merge overlays non-zero fields from override onto base.
func Merge(base, override Config) Config {
	out := base
	if override.Input.FilePath != "" {
		out.Input.FilePath = override.Input.FilePath
	}
	if override.Input.Date != "" {
		out.Input.Date = override.Input.Date
	}
	if override.Input.BatchSize != 0 {
		out.Input.BatchSize = override.Input.BatchSize
	}
	if override.IntervalMinutes != 0 {
		out.IntervalMinutes = override.IntervalMinutes
	}
	if override.Ledger.Path != "" {
		out.Ledger.Path = override.Ledger.Path
	}
	if override.Logging.Level != "" {
		out.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		out.Logging.Format = override.Logging.Format
	}
	if override.Logging.Output != "" {
		out.Logging.Output = override.Logging.Output
	}
	if override.Logging.MaxAgeDays != 0 {
		out.Logging.MaxAgeDays = override.Logging.MaxAgeDays
	}
	if override.API.Port != "" {
		out.API.Port = override.API.Port
	}
	if override.API.Env != "" {
		out.API.Env = override.API.Env
	}
	if override.API.ResultTTL != 0 {
		out.API.ResultTTL = override.API.ResultTTL
	}
	if override.API.MaxUploadMB != 0 {
		out.API.MaxUploadMB = override.API.MaxUploadMB
	}
	if len(override.API.AllowedOrigins) > 0 {
		out.API.AllowedOrigins = override.API.AllowedOrigins
	}
	return out
}
