// Package config loads the console configuration.
//
// Values are layered: built-in defaults, then the TOML file, then
// CONSOLE_ prefixed environment variables. Nested keys in the environment
// are separated by a double underscore, e.g. CONSOLE_SERVER__LISTEN.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
)

const envPrefix = "CONSOLE_"

type MainConfig struct {
	General   GeneralConfig   `koanf:"general"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Prefs     PrefsConfig     `koanf:"prefs"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Table     TableConfig     `koanf:"table"`
	OAuth     OAuthConfig     `koanf:"oauth"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

// GeneralConfig holds logging settings.
type GeneralConfig struct {
	LogLevel      string `koanf:"log_level"`
	LogFile       string `koanf:"log_file"`
	LogFileSize   int    `koanf:"log_file_size"`
	LogFileCount  uint8  `koanf:"log_file_count"`
	LogCompress   bool   `koanf:"log_compress"`
	LogColorize   bool   `koanf:"log_colorize"`
	LogToFileOnly bool   `koanf:"log_to_file_only"`
	TimeFormat    string `koanf:"time_format"`
}

type ServerConfig struct {
	Listen string `koanf:"listen"`
	// Debug mounts pprof handlers and puts gin into debug mode.
	Debug         bool          `koanf:"debug"`
	CORSOrigins   []string      `koanf:"cors_origins"`
	AdminUser     string        `koanf:"admin_user"`
	AdminPassword string        `koanf:"admin_password"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	SecureCookies bool          `koanf:"secure_cookies"`
}

type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	BackupDir    string `koanf:"backup_dir"`
	// MaxBackups of zero keeps every backup.
	MaxBackups int `koanf:"max_backups"`
}

type PrefsConfig struct {
	Path string `koanf:"path"`
}

// CatalogConfig selects the catalog source. An empty BaseURL serves the
// catalogs from the local database.
type CatalogConfig struct {
	BaseURL         string        `koanf:"base_url"`
	Timeout         time.Duration `koanf:"timeout"`
	RatePerSecond   float64       `koanf:"rate_per_second"`
	Burst           int           `koanf:"burst"`
	BreakerFailures int           `koanf:"breaker_failures"`
	BreakerReset    time.Duration `koanf:"breaker_reset"`
}

type TableConfig struct {
	DefaultPageSize int   `koanf:"default_page_size"`
	PageSizes       []int `koanf:"page_sizes"`
}

type OAuthConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	RedirectURL  string        `koanf:"redirect_url"`
	Scopes       []string      `koanf:"scopes"`
	StateTTL     time.Duration `koanf:"state_ttl"`
	// The URLs below override the GitHub endpoints, e.g. for GitHub
	// Enterprise.
	AuthURL    string `koanf:"auth_url"`
	TokenURL   string `koanf:"token_url"`
	AccountURL string `koanf:"account_url"`
}

// Enabled reports whether credential linking is configured.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// SchedulerConfig holds cron expressions for housekeeping jobs.
type SchedulerConfig struct {
	SessionCleanup string `koanf:"session_cleanup"`
	StatePurge     string `koanf:"state_purge"`
	// Backup is empty to disable database backups.
	Backup string `koanf:"backup"`
}

func defaults() map[string]any {
	return map[string]any{
		"general.log_level":         "info",
		"general.log_file":          "./logs/console.log",
		"general.log_file_size":     10,
		"general.log_file_count":    5,
		"general.time_format":       "rfc3339",
		"server.listen":             ":9090",
		"server.admin_user":         "admin",
		"server.admin_password":     "admin",
		"server.session_ttl":        "12h",
		"database.path":             "./databases/console.db",
		"database.max_open_conns":   1,
		"database.backup_dir":       "./backup",
		"database.max_backups":      7,
		"prefs.path":                "./databases/prefs.pudge",
		"catalog.timeout":           "10s",
		"catalog.rate_per_second":   10.0,
		"catalog.burst":             5,
		"catalog.breaker_failures":  5,
		"catalog.breaker_reset":     "30s",
		"table.default_page_size":   10,
		"table.page_sizes":          []int{10, 25, 50, 100},
		"oauth.scopes":              []string{"repo", "read:org"},
		"oauth.state_ttl":           "10m",
		"scheduler.session_cleanup": "@every 15m",
		"scheduler.state_purge":     "@every 5m",
		"scheduler.backup":          "0 3 * * *",
	}
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// Parse builds a configuration from defaults, the optional TOML file at path
// and the environment. The result is validated but not published.
func Parse(path string) (*MainConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassConfig, "load_defaults", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassConfig, "load_file", "could not read config", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassConfig, "load_env", err)
	}

	var cfg MainConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassConfig, "unmarshal", err)
	}
	if err := validateConfiguration(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
