// Package config provides configuration loading and validation for oeelog.
package config

import (
	"regexp"
	"time"

	"github.com/ccollicutt/oeelog/pkg/status"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	LogSources     []string        `yaml:"log_sources"`
	FileDate       FileDateConfig  `yaml:"file_date"`
	Encoding       string          `yaml:"encoding"`
	FallbackStatus string          `yaml:"fallback_status"`
	Markers        MarkersConfig   `yaml:"markers"`
	Database       DatabaseConfig  `yaml:"database,omitempty"`
	Webhooks       []WebhookConfig `yaml:"webhooks,omitempty"`
	Logging        LoggingConfig   `yaml:"logging"`

	// fallback is the parsed FallbackStatus (populated during validation).
	fallback status.State
}

// Fallback returns the validated fallback state.
func (c *Config) Fallback() status.State {
	return c.fallback
}

// FileDateConfig defines how calendar dates are read from log file names.
type FileDateConfig struct {
	// Pattern is a regex with three capture groups: year, month, day.
	Pattern string `yaml:"pattern"`

	// Strict turns an undatable file into a fatal error instead of a
	// skipped, reported file.
	Strict bool `yaml:"strict"`

	// compiledPattern is the pre-compiled regex (populated during validation).
	compiledPattern *regexp.Regexp
}

// CompiledPattern returns the pre-compiled regex pattern.
func (f *FileDateConfig) CompiledPattern() *regexp.Regexp {
	return f.compiledPattern
}

// MarkersConfig holds the message literals driving the state machine and
// the product declaration marker.
type MarkersConfig struct {
	status.Markers `yaml:",inline"`

	// Product precedes the product program path in a message.
	Product string `yaml:"product"`
}

// DatabaseDriver selects the SQL sink backend.
type DatabaseDriver string

const (
	// DatabaseDriverSQLite is the embedded modernc.org/sqlite driver.
	DatabaseDriverSQLite DatabaseDriver = "sqlite"
	// DatabaseDriverPgx is the PostgreSQL driver from jackc/pgx.
	DatabaseDriverPgx DatabaseDriver = "pgx"
)

// DatabaseConfig defines the optional SQL sink.
type DatabaseConfig struct {
	// Driver is sqlite or pgx. Defaults to sqlite.
	Driver DatabaseDriver `yaml:"driver,omitempty"`

	// DSN is the data source name. An empty DSN disables the sink.
	DSN string `yaml:"dsn,omitempty"`

	// TablePrefix is prepended to every table name.
	TablePrefix string `yaml:"table_prefix,omitempty"`
}

// Enabled reports whether a sink is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnDowntime fires when the report contains downtime (default).
	WebhookTriggerOnDowntime WebhookTrigger = "on_downtime"
	// WebhookTriggerOnRejected fires when log files were rejected.
	WebhookTriggerOnRejected WebhookTrigger = "on_rejected"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_downtime" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is console or json.
	Format string `yaml:"format"`
}
