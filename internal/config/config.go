package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/retry"
)

// EnvConfigPath names the environment variable consulted by ResolvePath.
const EnvConfigPath = "JOBRADAR_CONFIG"

// Config is the root configuration for jobradar.
type Config struct {
	Schedule      string // robfig/cron spec
	Concurrency   int
	Sources       []SourceConfig
	Filters       FilterConfig
	Notifications []NotificationConfig
	Retry         retry.Policy
	RateLimit     RateLimitConfig
	Archive       ArchiveConfig
	Server        ServerConfig
	Log           LogConfig
}

// SourceConfig describes a single job source.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`  // greenhouse, lever, rss, file
	Token   string `yaml:"token"` // board token or company slug
	URL     string `yaml:"url"`
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// FilterConfig mirrors the filters section. Criteria turns it into a
// filter.Criteria.
type FilterConfig struct {
	Preset                      string              `yaml:"preset"`
	Keywords                    []string            `yaml:"keywords"`
	Locations                   []string            `yaml:"locations"`
	IncludeUnspecifiedLocations *bool               `yaml:"include_unspecified_locations"`
	MaxDaysOld                  *int                `yaml:"max_days_old"`
	Strategy                    string              `yaml:"strategy"`
	ExactMatch                  bool                `yaml:"exact_match"`
	UseRegex                    bool                `yaml:"use_regex"`
	Categories                  []string            `yaml:"categories"`
	ExcludedTitles              []string            `yaml:"excluded_titles"`
	RelatedTerms                map[string][]string `yaml:"related_terms"`
}

// NotificationConfig configures one delivery channel.
type NotificationConfig struct {
	Type       string `yaml:"type"` // log, slack, telegram, email
	WebhookURL string `yaml:"webhook_url"`

	BotToken  string `yaml:"bot_token"`
	ChatID    string `yaml:"chat_id"`
	ParseMode string `yaml:"parse_mode"` // HTML or MarkdownV2
	ChunkSize int    `yaml:"chunk_size"`

	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// TelegramChatID parses ChatID.
func (n NotificationConfig) TelegramChatID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(n.ChatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat_id %q: %w", n.ChatID, err)
	}
	return id, nil
}

// RateLimitConfig controls per-source-type request spacing.
type RateLimitConfig struct {
	MinDelay  time.Duration            // minimum gap between requests to the same source type
	Overrides map[string]time.Duration // keyed by source type
}

// MinDelayFor returns the configured delay for the given source type,
// falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(kind string) time.Duration {
	if d, ok := r.Overrides[kind]; ok {
		return d
	}
	return r.MinDelay
}

// ArchiveConfig controls the write-only SQLite archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig controls the HTTP filter API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"` // text or json
}

const (
	defaultSchedule    = "@every 6h"
	defaultConcurrency = 4
	defaultMinDelay    = 2 * time.Second
	defaultArchivePath = "jobradar.db"
	defaultServerAddr  = ":8080"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Schedule        string               `yaml:"schedule"`
	PollingInterval string               `yaml:"polling_interval"`
	Concurrency     int                  `yaml:"concurrency"`
	Sources         []SourceConfig       `yaml:"sources"`
	Filters         FilterConfig         `yaml:"filters"`
	Notifications   []NotificationConfig `yaml:"notifications"`
	Retry           rawRetryConfig       `yaml:"retry"`
	RateLimit       rawRateLimitConfig   `yaml:"rate_limit"`
	Archive         ArchiveConfig        `yaml:"archive"`
	Server          ServerConfig         `yaml:"server"`
	Log             LogConfig            `yaml:"log"`
}

type rawRetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   string   `yaml:"base_delay"`
	Multiplier  float64  `yaml:"multiplier"`
	MaxDelay    string   `yaml:"max_delay"`
	Jitter      *float64 `yaml:"jitter"`
}

type rawRateLimitConfig struct {
	MinDelay  string            `yaml:"min_delay"`
	Overrides map[string]string `yaml:"overrides"`
}

// ResolvePath picks the config file: the flag value, then $JOBRADAR_CONFIG,
// then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return "config.yaml"
}

// Load reads the YAML config at path, expands ${VAR} references (after
// loading any .env next to the config or in the working directory),
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	schedule := raw.Schedule
	if schedule == "" && raw.PollingInterval != "" {
		interval, err := time.ParseDuration(raw.PollingInterval)
		if err != nil {
			return nil, fmt.Errorf("parse polling_interval %q: %w", raw.PollingInterval, err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("polling_interval must be positive, got %v", interval)
		}
		schedule = "@every " + interval.String()
	}
	if schedule == "" {
		schedule = defaultSchedule
	}

	policy, err := raw.Retry.policy()
	if err != nil {
		return nil, err
	}

	minDelay := defaultMinDelay
	if raw.RateLimit.MinDelay != "" {
		minDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}
	overrides := make(map[string]time.Duration, len(raw.RateLimit.Overrides))
	for kind, v := range raw.RateLimit.Overrides {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.overrides[%q]: %w", kind, err)
		}
		overrides[strings.ToLower(kind)] = d
	}

	cfg := &Config{
		Schedule:      schedule,
		Concurrency:   raw.Concurrency,
		Sources:       raw.Sources,
		Filters:       raw.Filters,
		Notifications: raw.Notifications,
		Retry:         policy,
		RateLimit: RateLimitConfig{
			MinDelay:  minDelay,
			Overrides: overrides,
		},
		Archive: raw.Archive,
		Server:  raw.Server,
		Log:     raw.Log,
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func loadDotEnv(configPath string) error {
	candidates := []string{filepath.Join(filepath.Dir(configPath), ".env"), ".env"}
	seen := make(map[string]bool, len(candidates))
	for _, p := range candidates {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (r rawRetryConfig) policy() (retry.Policy, error) {
	p := retry.DefaultPolicy()
	if r.MaxAttempts != 0 {
		p.MaxAttempts = r.MaxAttempts
	}
	if r.Multiplier != 0 {
		p.Multiplier = r.Multiplier
	}
	if r.Jitter != nil {
		p.Jitter = *r.Jitter
	}
	var err error
	if r.BaseDelay != "" {
		if p.BaseDelay, err = time.ParseDuration(r.BaseDelay); err != nil {
			return p, fmt.Errorf("parse retry.base_delay %q: %w", r.BaseDelay, err)
		}
	}
	if r.MaxDelay != "" {
		if p.MaxDelay, err = time.ParseDuration(r.MaxDelay); err != nil {
			return p, fmt.Errorf("parse retry.max_delay %q: %w", r.MaxDelay, err)
		}
	}
	return p, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		s.Type = strings.ToLower(strings.TrimSpace(s.Type))
		if s.Name == "" {
			s.Name = firstNonEmpty(s.Token, s.Type)
		}
	}
	for i := range cfg.Notifications {
		n := &cfg.Notifications[i]
		n.Type = strings.ToLower(strings.TrimSpace(n.Type))
		if n.Type == "telegram" && n.ChunkSize == 0 {
			n.ChunkSize = 5
		}
		if n.Type == "email" && n.SMTPPort == 0 {
			n.SMTPPort = 587
		}
	}
	if len(cfg.Notifications) == 0 {
		cfg.Notifications = []NotificationConfig{{Type: "log"}}
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = defaultArchivePath
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Criteria builds the filter criteria: the preset (if any) overlaid with
// every field set explicitly in the config.
func (f FilterConfig) Criteria() (filter.Criteria, error) {
	var c filter.Criteria
	if f.Preset != "" {
		p, ok := filter.Preset(f.Preset)
		if !ok {
			return c, fmt.Errorf("%w: unknown preset %q (available: %s)",
				filter.ErrInvalidCriteria, f.Preset, strings.Join(filter.PresetNames(), ", "))
		}
		c = p
	}

	if len(f.Keywords) > 0 {
		c.Keywords = f.Keywords
	}
	if len(f.Locations) > 0 {
		c.Locations = f.Locations
	}
	if f.IncludeUnspecifiedLocations != nil {
		c.IncludeUnspecifiedLocations = *f.IncludeUnspecifiedLocations
	}
	if f.MaxDaysOld != nil {
		c.MaxDaysOld = *f.MaxDaysOld
	}
	if len(f.Categories) > 0 {
		c.Categories = f.Categories
	}
	if len(f.ExcludedTitles) > 0 {
		c.ExcludedTitles = f.ExcludedTitles
	}
	if len(f.RelatedTerms) > 0 {
		c.RelatedTerms = f.RelatedTerms
	}

	switch {
	case f.Strategy != "":
		s, err := filter.ParseStrategy(f.Strategy)
		if err != nil {
			return c, err
		}
		c.Strategy = s
	case f.ExactMatch || f.UseRegex:
		c.Strategy = filter.StrategyFromFlags(f.ExactMatch, f.UseRegex)
	}
	return c, nil
}

var knownSourceTypes = map[string]bool{"greenhouse": true, "lever": true, "rss": true, "file": true}

func validate(cfg *Config) error {
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	enabled := 0
	names := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if !knownSourceTypes[s.Type] {
			return fmt.Errorf("sources[%d]: unknown type %q", i, s.Type)
		}
		switch s.Type {
		case "greenhouse", "lever":
			if s.Token == "" {
				return fmt.Errorf("sources[%d] (%s): token is required for %s", i, s.Name, s.Type)
			}
		case "rss":
			if s.URL == "" {
				return fmt.Errorf("sources[%d] (%s): url is required for rss", i, s.Name)
			}
		case "file":
			if s.Path == "" {
				return fmt.Errorf("sources[%d] (%s): path is required for file", i, s.Name)
			}
		}
		if names[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		names[s.Name] = true
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return errors.New("at least one source must be enabled")
	}

	criteria, err := cfg.Filters.Criteria()
	if err != nil {
		return fmt.Errorf("filters: %w", err)
	}
	if len(criteria.Keywords) == 0 {
		return errors.New("filters: keywords (or a preset) are required")
	}
	if _, err := filter.Compile(criteria); err != nil {
		return fmt.Errorf("filters: %w", err)
	}

	for i, n := range cfg.Notifications {
		if err := validateNotification(n); err != nil {
			return fmt.Errorf("notifications[%d]: %w", i, err)
		}
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

func validateNotification(n NotificationConfig) error {
	switch n.Type {
	case "log":
		return nil
	case "slack":
		if n.WebhookURL == "" {
			return errors.New("webhook_url is required for slack")
		}
		if !strings.HasPrefix(n.WebhookURL, "https://hooks.slack.com/") {
			return errors.New("webhook_url must start with https://hooks.slack.com/")
		}
	case "telegram":
		if n.BotToken == "" {
			return errors.New("bot_token is required for telegram")
		}
		if _, err := n.TelegramChatID(); err != nil {
			return err
		}
		switch n.ParseMode {
		case "", "HTML", "MarkdownV2":
		default:
			return fmt.Errorf("parse_mode must be HTML or MarkdownV2, got %q", n.ParseMode)
		}
	case "email":
		if n.SMTPHost == "" || n.From == "" || len(n.To) == 0 {
			return errors.New("smtp_host, from and to are required for email")
		}
	default:
		return fmt.Errorf("unknown type %q", n.Type)
	}
	return nil
}
