// Package config provides centralized configuration for the snapshot
// pipeline. Settings come from environment variables with defaults and are
// validated on startup so misconfiguration fails before any fetch begins.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/sheetsnap/internal/sheet"
)

// Config holds all application configuration.
type Config struct {
	Source   SourceConfig
	Server   ServerConfig
	Refresh  RefreshConfig
	Database DatabaseConfig
	Output   OutputConfig
	Static   StaticConfig
	Logging  LoggingConfig
}

// SourceConfig identifies the remote sheet collection and its layout.
type SourceConfig struct {
	// SpreadsheetID is the opaque token for the remote collection (required).
	// Its absence is the one configuration error that aborts a run.
	SpreadsheetID string `env:"SOURCE_SPREADSHEET_ID" required:"true"`

	// BaseURL is the export endpoint root.
	BaseURL string `env:"SOURCE_BASE_URL" default:"https://docs.google.com"`

	// Sheets lists the sheet descriptors as "Name|gid|primary_key" entries
	// separated by semicolons. gid and primary_key may be empty; an empty
	// primary_key inherits PrimaryKey below.
	Sheets string `env:"SOURCE_SHEETS" default:"Locations|0|;Services|1|;Announcements|2|"`

	// PrimaryKey is the collection-wide default primary-key column.
	PrimaryKey string `env:"SOURCE_PRIMARY_KEY" default:"Name"`

	// FetchTimeout bounds each sheet fetch uniformly.
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`
}

// ServerConfig holds HTTP server settings for service mode.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// RefreshConfig controls the background refresh scheduler in service mode.
type RefreshConfig struct {
	Interval time.Duration `env:"REFRESH_INTERVAL" default:"15m"`
}

// DatabaseConfig holds optional snapshot-archive settings. Archiving is
// enabled only when URL is set.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns int    `env:"DB_MAX_CONNS" default:"4"`

	// Retention is how long archived runs are kept; older rows are pruned
	// during scheduled refreshes. Zero keeps runs forever. Default: 90 days.
	Retention time.Duration `env:"ARCHIVE_RETENTION" default:"2160h"`
}

// OutputConfig holds one-shot mode settings.
type OutputConfig struct {
	// Path is where the artifact is written; "-" means stdout.
	Path string `env:"OUTPUT_PATH" default:"snapshot.json"`

	// Pretty controls indented serialization.
	Pretty bool `env:"OUTPUT_PRETTY" default:"true"`
}

// StaticConfig is passed through into the artifact's config block verbatim.
type StaticConfig struct {
	MapEnabled          bool   `env:"SNAPSHOT_MAP_ENABLED" default:"true"`
	SharePreviewEnabled bool   `env:"SNAPSHOT_SHARE_PREVIEW_ENABLED" default:"false"`
	DefaultLocationID   string `env:"SNAPSHOT_DEFAULT_LOCATION_ID"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SheetDescriptors parses the compact Sheets string into descriptors.
// Entries missing a primary key inherit the collection-wide default.
// Duplicate derived keys are rejected: two sheets with the same key would
// collapse to one entry in the snapshot document, silently discarding one
// sheet's results.
func (c *SourceConfig) SheetDescriptors() ([]sheet.Descriptor, error) {
	var out []sheet.Descriptor
	seen := make(map[string]string)
	for _, entry := range strings.Split(c.Sheets, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) > 3 {
			return nil, fmt.Errorf("sheet entry %q: expected Name|gid|primary_key", entry)
		}
		d := sheet.Descriptor{Name: strings.TrimSpace(parts[0])}
		if d.Name == "" {
			return nil, fmt.Errorf("sheet entry %q: name is required", entry)
		}
		if len(parts) > 1 {
			d.GID = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			d.PrimaryKey = strings.TrimSpace(parts[2])
		}
		if prev, ok := seen[d.Key()]; ok {
			return nil, fmt.Errorf("sheet entry %q: key %q collides with sheet %q", entry, d.Key(), prev)
		}
		seen[d.Key()] = d.Name
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sheets configured")
	}
	return out, nil
}
