package config

import (
	"os"
	"strings"
	"time"

	"github.com/ccollicutt/oeelog/pkg/parser"
	"github.com/ccollicutt/oeelog/pkg/status"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// Environment variable names.
const (
	EnvLogSources  = "OEELOG_LOG_SOURCES"
	EnvDatabaseDSN = "OEELOG_DATABASE_DSN"
	EnvLogLevel    = "OEELOG_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		FileDate: FileDateConfig{
			Pattern: parser.DefaultFileDatePattern,
		},
		Encoding:       parser.EncodingLatin1,
		FallbackStatus: string(status.DefaultFallback),
		Markers: MarkersConfig{
			Markers: status.DefaultMarkers(),
			Product: parser.DefaultProductMarker,
		},
		Database: DatabaseConfig{
			Driver: DatabaseDriverSQLite,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	// Comma-separated globs replace the configured sources
	if sources := os.Getenv(EnvLogSources); sources != "" {
		var globs []string
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				globs = append(globs, s)
			}
		}
		c.LogSources = globs
	}

	if dsn := os.Getenv(EnvDatabaseDSN); dsn != "" {
		c.Database.DSN = dsn
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}
