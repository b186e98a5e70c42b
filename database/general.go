// Package database stores the console resources in sqlite.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"

	_ "github.com/mattn/go-sqlite3" // Needed for DB
)

//go:embed schema/*.sql
var schemaFS embed.FS

const backupTimeFormat = "20060102_150405"

// DB is the console database.
type DB struct {
	*sqlx.DB
	path string
}

// Open connects to the sqlite file in cfg, creating it if needed, and
// applies pending migrations.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "open", "could not create directory", dir, err)
		}
	}
	conn, err := sqlx.Connect("sqlite3", "file:"+cfg.Path+"?_fk=1&_mutex=no&_cslike=0&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "open", "could not connect", cfg.Path, err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	db := &DB{DB: conn, path: cfg.Path}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate() error {
	src, err := iofs.New(schemaFS, "schema")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}
	driver, err := sqlite3.WithInstance(db.DB.DB, &sqlite3.Config{})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrClassDatabase, "migrate", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "migrate", "an error occurred while syncing the database", db.path, err)
	}
	version, dirty, _ := m.Version()
	logger.LogDynamicany(logger.StrInfo, "database ready", logger.StrPath, db.path, "version", int(version), "dirty", dirty)
	return nil
}

// Backup writes a consistent copy of the database into dir and keeps at
// most maxBackups copies.
func (db *DB) Backup(ctx context.Context, dir string, maxBackups int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrClassDatabase, "backup", err)
	}
	prefix := filepath.Base(db.path) + "."
	target := filepath.Join(dir, prefix+time.Now().Format(backupTimeFormat))
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, target); err != nil {
		return "", apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "backup", "vacuum failed", target, err)
	}
	if err := RemoveOldBackups(dir, prefix, maxBackups); err != nil {
		logger.LogDynamicanyErr(logger.StrWarn, "could not remove old backups", err)
	}
	return target, nil
}

type backupInfo struct {
	timestamp time.Time
	name      string
}

// RemoveOldBackups deletes all but the newest max backups named prefix+timestamp.
// A max of zero keeps everything.
func RemoveOldBackups(dir, prefix string, max int) error {
	if max <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("can't read backup directory: %w", err)
	}

	var backups []backupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if t, err := time.Parse(backupTimeFormat, strings.TrimPrefix(e.Name(), prefix)); err == nil {
			backups = append(backups, backupInfo{timestamp: t, name: e.Name()})
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].timestamp.After(backups[j].timestamp)
	})

	for i := max; i < len(backups); i++ {
		if errRemove := os.Remove(filepath.Join(dir, backups[i].name)); errRemove != nil && err == nil {
			err = errRemove
		}
	}
	return err
}
