package config

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/knadh/koanf/providers/file"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// ConfigSnapshot is a validated configuration that is never mutated after
// it has been published.
type ConfigSnapshot struct {
	*MainConfig
	Source      string
	ValidatedAt time.Time
}

var (
	configSnapshot atomic.Value // *ConfigSnapshot
	reloadMutex    sync.Mutex
)

// Get returns the current configuration snapshot or nil before Load.
func Get() *ConfigSnapshot {
	if snapshot, ok := configSnapshot.Load().(*ConfigSnapshot); ok {
		return snapshot
	}
	return nil
}

// Load parses the configuration and publishes it as the current snapshot.
func Load(path string) (*ConfigSnapshot, error) {
	reloadMutex.Lock()
	defer reloadMutex.Unlock()

	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	snapshot := &ConfigSnapshot{MainConfig: cfg, Source: path, ValidatedAt: time.Now()}
	configSnapshot.Store(snapshot)
	return snapshot, nil
}

// Watch reloads the configuration whenever the file at path changes. A file
// that fails validation is logged and the previous snapshot stays active.
func Watch(path string, onChange func(*ConfigSnapshot)) error {
	if path == "" {
		return apperrors.New(apperrors.ErrClassConfig, "watch", "no config file to watch")
	}
	return file.Provider(path).Watch(func(_ any, err error) {
		if err != nil {
			logger.LogDynamicanyErr(logger.StrError, "config watch failed", err)
			return
		}
		snapshot, err := Load(path)
		if err != nil {
			logger.LogDynamicanyErr(logger.StrWarn, "config reload rejected", err)
			return
		}
		logger.LogDynamicany(logger.StrInfo, "config reloaded", logger.StrPath, path)
		if onChange != nil {
			onChange(snapshot)
		}
	})
}

func validateConfiguration(cfg *MainConfig) error {
	if cfg.Server.Listen == "" {
		return configError("server.listen must not be empty")
	}
	if cfg.Database.Path == "" {
		return configError("database.path must not be empty")
	}
	if cfg.Prefs.Path == "" {
		return configError("prefs.path must not be empty")
	}
	if cfg.Database.MaxOpenConns < 1 {
		cfg.Database.MaxOpenConns = 1
	}
	if cfg.Database.MaxBackups < 0 {
		return configError("database.max_backups must not be negative")
	}
	if cfg.Scheduler.Backup != "" && cfg.Database.BackupDir == "" {
		return configError("database.backup_dir is required when backups are scheduled")
	}
	if cfg.Table.DefaultPageSize < 0 {
		return configError("table.default_page_size must not be negative")
	}
	for _, size := range cfg.Table.PageSizes {
		if size <= 0 {
			return configError(fmt.Sprintf("table.page_sizes contains invalid size %d", size))
		}
	}
	if cfg.Catalog.RatePerSecond <= 0 {
		return configError("catalog.rate_per_second must be positive")
	}
	if cfg.Catalog.Burst < 1 {
		cfg.Catalog.Burst = 1
	}
	if cfg.Server.SessionTTL <= 0 {
		return configError("server.session_ttl must be positive")
	}
	if cfg.OAuth.StateTTL <= 0 {
		return configError("oauth.state_ttl must be positive")
	}
	if (cfg.OAuth.ClientID == "") != (cfg.OAuth.ClientSecret == "") {
		return configError("oauth.client_id and oauth.client_secret must be set together")
	}
	return nil
}

func configError(msg string) error {
	return apperrors.New(apperrors.ErrClassConfig, "validation", msg)
}
