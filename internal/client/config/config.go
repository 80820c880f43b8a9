package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatZap  = "zap"
)

// Config holds runtime settings for the cashbook CLI.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration

	StoreDriver string
	StorePath   string

	CacheDefaultTTL      time.Duration
	CacheMaxSize         int
	CacheCleanupInterval time.Duration

	PollInterval       time.Duration
	AccountDebounce    time.Duration
	MembershipDebounce time.Duration
	PendingGrace       time.Duration
	SequenceGuard      bool

	RealtimeURL   string
	RealtimeQueue string

	LogFormat string

	Token       string
	CacheSecret string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8000/api/"
	c.RequestTimeout = 12 * time.Second
	c.StoreDriver = "sqlite"
	c.StorePath = "cashbook.db"
	c.CacheDefaultTTL = 5 * time.Minute
	c.CacheMaxSize = 100
	c.CacheCleanupInterval = time.Hour
	c.PollInterval = 30 * time.Second
	c.AccountDebounce = 100 * time.Millisecond
	c.MembershipDebounce = 300 * time.Millisecond
	c.PendingGrace = 2 * time.Minute
	c.SequenceGuard = true
	c.LogFormat = LogFormatAuto
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case "sqlite", "leveldb", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.CacheMaxSize <= 0 {
		errs = append(errs, errors.New("cache max size must be positive"))
	}
	switch c.LogFormat {
	case LogFormatAuto, LogFormatText, LogFormatJSON, LogFormatZap:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if (c.RealtimeURL == "") != (c.RealtimeQueue == "") {
		errs = append(errs, errors.New("realtime url and queue must be set together"))
	}
	return errors.Join(errs...)
}

// Load constructs a Config from args (without the program name) and
// getenv: defaults, then JSON, then environment, then flags.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, getenv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadConfig is Load over the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Getenv)
}
