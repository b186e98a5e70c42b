// Package prefs persists per user table preferences (hidden columns and
// page size) in a pudge key-value file.
package prefs

import (
	"errors"
	"slices"
	"strings"

	"github.com/recoilme/pudge"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

const keyPrefix = "table_"

// TablePrefs is what is remembered of one table.
type TablePrefs struct {
	Hidden   []string
	PageSize int
}

// Store reads and writes table preferences.
type Store struct {
	db *pudge.Db
}

// Open opens or creates the preference file of cfg.
func Open(cfg config.PrefsConfig) (*Store, error) {
	db, err := pudge.Open(cfg.Path, &pudge.Config{
		SyncInterval: 1, // every second fsync
	})
	if err != nil {
		return nil, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "open_prefs", "could not open preferences", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the file.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(user, table string) string {
	return keyPrefix + user + "_" + table
}

// Get returns the preferences of user for table. The bool is false if none
// were saved.
func (s *Store) Get(user, table string) (TablePrefs, bool, error) {
	var p TablePrefs
	if err := s.db.Get(key(user, table), &p); err != nil {
		if errors.Is(err, pudge.ErrKeyNotFound) {
			return TablePrefs{}, false, nil
		}
		return TablePrefs{}, false, apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "get_prefs", "could not read preferences", table, err)
	}
	return p, true, nil
}

// Save stores p for user and table.
func (s *Store) Save(user, table string, p TablePrefs) error {
	p.Hidden = slices.Clone(p.Hidden)
	slices.Sort(p.Hidden)
	if err := s.db.Set(key(user, table), p); err != nil {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "save_prefs", "could not write preferences", table, err)
	}
	return nil
}

// SaveState stores the hidden columns and page size of state.
func (s *Store) SaveState(user, table string, state *datatable.ControlState) error {
	return s.Save(user, table, TablePrefs{Hidden: state.Hidden.Keys(), PageSize: state.PageSize})
}

// Restore applies saved preferences to state. Hidden keys that are not in
// columns are dropped. It reports whether anything was restored.
func (s *Store) Restore(user, table string, state *datatable.ControlState, columns []string) bool {
	p, ok, err := s.Get(user, table)
	if err != nil {
		logger.Logtype(logger.StrWarn, 0).Err(err).Str(logger.StrUser, user).Str(logger.StrTable, table).Msg("preferences ignored")
		return false
	}
	if !ok {
		return false
	}
	state.Hidden = datatable.NewSet()
	for _, h := range p.Hidden {
		if slices.Contains(columns, h) {
			state.Hidden[h] = struct{}{}
		}
	}
	if p.PageSize != 0 {
		state.SetPageSize(p.PageSize)
	}
	return true
}

// Delete forgets the preferences of user for table.
func (s *Store) Delete(user, table string) error {
	if err := s.db.Delete(key(user, table)); err != nil && !errors.Is(err, pudge.ErrKeyNotFound) {
		return apperrors.WrapWithMessageFor(apperrors.ErrClassDatabase, "delete_prefs", "could not delete preferences", table, err)
	}
	return nil
}

// Tables lists the tables user saved preferences for.
func (s *Store) Tables(user string) ([]string, error) {
	prefix := keyPrefix + user + "_"
	keys, err := s.db.Keys([]byte(prefix+"*"), 0, 0, true)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassDatabase, "list_prefs", err)
	}
	tables := make([]string, 0, len(keys))
	for _, k := range keys {
		tables = append(tables, strings.TrimPrefix(string(k), prefix))
	}
	return tables, nil
}
