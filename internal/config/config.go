// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Flat snake_case keys so the same names work in YAML and FANTALEDGER_* env vars.
// - New() returns defaults; Load(ctx) layers file and environment on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
	"time"
)

// SeasonStartLayout is the layout of season_start (DD-MM-YYYY HH:MM:SS).
const SeasonStartLayout = "02-01-2006 15:04:05"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Fantasy platform endpoints.
	LoginURL   string `koanf:"login_url"`
	LeagueURL  string `koanf:"league_url"`
	PlayersURL string `koanf:"players_url"`
	MarketURL  string `koanf:"market_url"`

	// Credentials and league scenario.
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
	LeagueID string `koanf:"league_id"`
	UserID   string `koanf:"user_id"`

	// PageSize is the board page size requested per call.
	PageSize int `koanf:"page_size"`
	// SeasonStart is the feed cutoff in the configured timezone.
	SeasonStart string `koanf:"season_start"`
	// Timezone names the location used for the cutoff and sale dates.
	Timezone string `koanf:"timezone"`
	// InitialBudget is the league starting budget in millions.
	InitialBudget float64 `koanf:"initial_budget"`
	// IncludeTradingOnlyMembers adds members with market activity but no rounds to the balance table.
	IncludeTradingOnlyMembers bool `koanf:"include_trading_only_members"`
	// RequestTimeoutMS bounds each upstream request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
	// MaxTopN caps GET /api/players/top?limit.
	MaxTopN int `koanf:"max_top_n"`

	// RefreshCron schedules report snapshots (six fields, seconds first). Empty disables it.
	RefreshCron string `koanf:"refresh_cron"`
	// SQLitePath enables the snapshot recorder when set.
	SQLitePath string `koanf:"sqlite_path"`

	// Export bucket (S3 compatible). Empty bucket disables uploads.
	ExportBucket          string `koanf:"export_bucket"`
	ExportEndpoint        string `koanf:"export_endpoint"`
	ExportRegion          string `koanf:"export_region"`
	ExportAccessKeyID     string `koanf:"export_access_key_id"`
	ExportSecretAccessKey string `koanf:"export_secret_access_key"`
	ExportPublicBaseURL   string `koanf:"export_public_base_url"`
	// ExportFormat is csv or yaml.
	ExportFormat string `koanf:"export_format"`
	// ExportPrefix is prepended to every uploaded object key.
	ExportPrefix string `koanf:"export_prefix"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		LoginURL:         "https://biwenger.as.com/api/v2/auth/login",
		LeagueURL:        "https://biwenger.as.com/api/v2/league/",
		PlayersURL:       "https://cf.biwenger.com/api/v2/competitions/la-liga/data?lang=es&score=1&callback=jsonp_1465365482",
		MarketURL:        "https://biwenger.as.com/api/v2/market",
		PageSize:         200,
		SeasonStart:      "01-08-2025 00:00:00",
		Timezone:         "Local",
		InitialBudget:    20,
		RequestTimeoutMS: 15_000,
		MaxTopN:          100,
		ExportRegion:     "auto",
		ExportFormat:     "csv",
		ExportPrefix:     "exports",
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Cutoff parses SeasonStart in the configured location.
func (c *Config) Cutoff() (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(SeasonStartLayout, strings.TrimSpace(c.SeasonStart), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: season_start %q: %w", ErrInvalidConfig, c.SeasonStart, err)
	}
	return t, nil
}

// RequestTimeout returns the upstream timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	}
	if c.MaxTopN <= 0 {
		return fmt.Errorf("%w: max_top_n must be positive", ErrInvalidConfig)
	}
	if _, err := c.Cutoff(); err != nil {
		return err
	}
	return nil
}

// MaskedPassword returns the password with most characters hidden for logging.
func (c *Config) MaskedPassword() string {
	return maskSecret(c.Password)
}

// maskSecret hides all but the first and last 2 characters of a secret.
func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) <= 6:
		return "****"
	default:
		return s[:2] + "****" + s[len(s)-2:]
	}
}
