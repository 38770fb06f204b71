package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, compiles regex patterns and
// fills defaults for empty fields.
func Validate(cfg *Config) error {
	if len(cfg.LogSources) == 0 {
		return errors.New("log_sources: at least one log source is required")
	}

	if err := validateFileDate(&cfg.FileDate); err != nil {
		return fmt.Errorf("file_date: %w", err)
	}

	if cfg.Encoding == "" {
		cfg.Encoding = parser.EncodingLatin1
	}
	if _, err := parser.Decoder(cfg.Encoding); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	if cfg.FallbackStatus == "" {
		cfg.FallbackStatus = string(status.DefaultFallback)
	}
	fallback, err := status.ParseState(cfg.FallbackStatus)
	if err != nil {
		return fmt.Errorf("fallback_status: %w", err)
	}
	if !fallback.Closable() {
		return fmt.Errorf("fallback_status: %q must be Productive, Idle or Standby", cfg.FallbackStatus)
	}
	cfg.fallback = fallback

	cfg.Markers.Markers = cfg.Markers.Normalize()
	if strings.TrimSpace(cfg.Markers.Product) == "" {
		cfg.Markers.Product = parser.DefaultProductMarker
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := ValidateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

func validateFileDate(fd *FileDateConfig) error {
	if fd.Pattern == "" {
		fd.Pattern = parser.DefaultFileDatePattern
	}

	re, err := regexp.Compile(fd.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	if re.NumSubexp() < 3 {
		return errors.New("pattern must have three capture groups (year, month, day)")
	}

	fd.compiledPattern = re
	return nil
}

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateDatabase(db *DatabaseConfig) error {
	if db.Driver == "" {
		db.Driver = DatabaseDriverSQLite
	}

	switch db.Driver {
	case DatabaseDriverSQLite, DatabaseDriverPgx:
		// Valid
	default:
		return fmt.Errorf("invalid driver %q (must be sqlite or pgx)", db.Driver)
	}

	// Table names are interpolated into DDL
	if db.TablePrefix != "" && !tablePrefixPattern.MatchString(db.TablePrefix) {
		return fmt.Errorf("invalid table_prefix %q (letters, digits and underscores only)", db.TablePrefix)
	}

	return nil
}

// ValidateWebhook checks a webhook definition and fills its defaults.
func ValidateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	// Validate URL format
	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnDowntime, WebhookTriggerOnRejected, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_downtime, on_rejected, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnDowntime
	}

	// Default timeout
	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

func validateLogging(lc *LoggingConfig) error {
	lc.Level = strings.ToLower(strings.TrimSpace(lc.Level))
	if lc.Level == "" {
		lc.Level = DefaultLogLevel
	}
	switch lc.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q (must be debug, info, warn, or error)", lc.Level)
	}

	lc.Format = strings.ToLower(strings.TrimSpace(lc.Format))
	if lc.Format == "" {
		lc.Format = DefaultLogFormat
	}
	if lc.Format != "console" && lc.Format != "json" {
		return fmt.Errorf("invalid format %q (must be console or json)", lc.Format)
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
