package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tripleh1701-dev/ppp-fe-sub014/api"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"github.com/tripleh1701-dev/ppp-fe-sub014/prefs"
	"github.com/tripleh1701-dev/ppp-fe-sub014/scheduler"
)

var (
	version    string
	githash    string
	buildstamp string
)

func initLogger(cfg config.GeneralConfig) {
	logger.InitLogger(logger.Config{
		LogLevel:      cfg.LogLevel,
		LogFile:       cfg.LogFile,
		LogFileSize:   cfg.LogFileSize,
		LogFileCount:  cfg.LogFileCount,
		LogCompress:   cfg.LogCompress,
		LogColorize:   cfg.LogColorize,
		TimeFormat:    cfg.TimeFormat,
		LogToFileOnly: cfg.LogToFileOnly,
	})
}

func catalogSource(cfg config.CatalogConfig, db *database.DB) (catalog.Source, error) {
	if cfg.BaseURL == "" {
		return catalog.NewStore(db), nil
	}
	return catalog.NewClient(catalog.ClientConfig{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.Timeout,
		RatePerSecond:   cfg.RatePerSecond,
		Burst:           cfg.Burst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerReset:    cfg.BreakerReset,
	})
}

func main() {
	configPath := flag.String("config", "./config/config.toml", "path of the TOML configuration file")
	flag.Parse()

	if _, err := os.Stat(*configPath); err != nil {
		*configPath = ""
	}
	snapshot, err := config.Load(*configPath)
	if err != nil {
		logger.LogDynamicanyErr(logger.StrFatal, "could not load configuration", err)
	}
	cfg := snapshot.MainConfig
	initLogger(cfg.General)
	logger.LogDynamicany(logger.StrInfo, "starting console", "version", version, "commit", githash, "build", buildstamp)

	if *configPath != "" {
		err := config.Watch(*configPath, func(s *config.ConfigSnapshot) {
			initLogger(s.General)
			logger.LogDynamicany(logger.StrInfo, "configuration reloaded, restart to apply server settings", logger.StrPath, s.Source)
		})
		if err != nil {
			logger.LogDynamicanyErr(logger.StrWarn, "config watch disabled", err)
		}
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.LogDynamicanyErr(logger.StrFatal, "could not open database", err)
	}
	defer db.Close()

	store, err := prefs.Open(cfg.Prefs)
	if err != nil {
		logger.LogDynamicanyErr(logger.StrFatal, "could not open preferences", err)
	}
	defer store.Close()

	catalogs, err := catalogSource(cfg.Catalog, db)
	if err != nil {
		logger.LogDynamicanyErr(logger.StrFatal, "could not set up catalogs", err)
	}

	sched := scheduler.New()
	server := api.New(api.Deps{
		Config:    cfg,
		DB:        db,
		Catalogs:  catalogs,
		Prefs:     store,
		Scheduler: sched,
	})
	housekeeping := scheduler.Housekeeping{
		Sessions: server.Sessions(),
		States:   server.States(),
		Database: db,
	}
	if err := housekeeping.Register(sched, cfg); err != nil {
		logger.LogDynamicanyErr(logger.StrFatal, "could not register jobs", err)
	}
	sched.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.ListenAndServe(ctx); err != nil {
		logger.LogDynamicanyErr(logger.StrError, "webserver stopped", err)
	}
	logger.LogDynamicany(logger.StrInfo, "receive interrupt signal")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sched.Stop(stopCtx)
	logger.LogDynamicany(logger.StrInfo, "server exiting")
}
