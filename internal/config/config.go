// Package config centralises configuration parsing for babylog.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

// Config captures runtime configuration values.
type Config struct {
	DBPath        string
	LogPath       string // empty discards logs
	Locale        string // BCP 47 tag for export section names and headers
	ExportDir     string
	PDFFont       string // optional TTF for non-Latin PDF text
	ReminderCheck time.Duration
	Location      *time.Location
}

// Load reads environment variables into Config, applying defaults for a
// single-user install.
func Load() Config {
	return Config{
		DBPath:        getEnv("BABYLOG_DB", defaultDBPath()),
		LogPath:       getEnv("BABYLOG_LOG", ""),
		Locale:        getEnv("BABYLOG_LOCALE", "en"),
		ExportDir:     getEnv("BABYLOG_EXPORT_DIR", defaultExportDir()),
		PDFFont:       getEnv("BABYLOG_PDF_FONT", ""),
		ReminderCheck: getDurationEnv("BABYLOG_REMINDER_CHECK", time.Minute),
		Location:      getLocationEnv("BABYLOG_TZ", time.Local),
	}
}

// ExportPath joins name onto the export directory unless it is already a path.
func (c Config) ExportPath(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(c.ExportDir, name)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getLocationEnv(key string, fallback *time.Location) *time.Location {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if loc, err := time.LoadLocation(value); err == nil {
			return loc
		}
	}
	return fallback
}

func defaultDBPath() string {
	if p, err := store.DefaultDBPath(); err == nil {
		return p
	}
	return "babylog.db"
}

func defaultExportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
