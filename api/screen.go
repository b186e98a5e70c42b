package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
	"github.com/tripleh1701-dev/ppp-fe-sub014/editor"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

const writeTimeout = 10 * time.Second

// cellEdit is the open editor of a screen.
type cellEdit struct {
	rowID string
	key   string
	text  *editor.TextEditor
	chips *editor.ChipSelector
}

// screen is a console table as one session sees it.
type screen struct {
	def   *screenDef
	res   *database.Resource
	table *datatable.Table[record]

	mu      sync.Mutex
	editing *cellEdit
}

func (s *Server) newScreen(session *Session, def *screenDef) (*screen, error) {
	res, err := database.Lookup(def.Resource)
	if err != nil {
		return nil, err
	}
	sc := &screen{def: def, res: res}

	state := datatable.NewControlState(s.cfg.Table.DefaultPageSize)
	if s.prefs != nil {
		keys := make([]string, len(def.Columns))
		for i := range def.Columns {
			keys[i] = def.Columns[i].Key
		}
		s.prefs.Restore(session.UserID, def.Resource, state, keys)
	}

	tableOpts := datatable.Options[record]{
		Name:        def.Resource,
		Columns:     def.Columns,
		RowKey:      datatable.KeyField[record](StrID),
		State:       state,
		Reorderable: def.Reorderable,
		Expandable:  def.Expandable,
		Selectable:  def.Selectable,
		InlineEdit:  true,
		AsyncSelect: s.catalogs != nil,
		OnRowUpdate: func(rowID, field string, value any) error {
			return s.persistCell(sc, rowID, field, value)
		},
		OnDelete: func(rowID string) error {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			return s.db.Delete(ctx, res, rowID)
		},
	}
	if def.QuickAdd && def.NewRow != nil {
		tableOpts.OnQuickAddRow = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			row, err := s.db.Create(ctx, res, prepareValues(res, def.NewRow()))
			if err != nil {
				return err
			}
			return sc.table.Append(record(row))
		}
	}

	sc.table, err = datatable.New(tableOpts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrClassTable, "new_screen", err).WithContext("screen", def.Resource)
	}
	return sc, nil
}

// persistCell writes a committed cell and refreshes the stored row.
func (s *Server) persistCell(sc *screen, rowID, field string, value any) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	row, err := s.db.Update(ctx, sc.res, rowID, prepareValues(sc.res, map[string]any{field: value}))
	if err != nil {
		return err
	}
	logger.Logtype(logger.StrDebug, 0).Str(logger.StrTable, sc.res.Name).Str(logger.StrRow, rowID).Str(logger.StrField, field).Msg("cell updated")
	return sc.table.Put(record(row))
}

// screenFor returns the screen of session for name, creating and loading it
// on first use.
func (s *Server) screenFor(ctx context.Context, session *Session, name string) (*screen, error) {
	def, ok := screenDefs[name]
	if !ok {
		return nil, apperrors.New(apperrors.ErrClassNotFound, "screen", "unknown screen").WithContext("screen", name)
	}

	session.mu.Lock()
	sc, ok := session.screens[name]
	if !ok {
		var err error
		if sc, err = s.newScreen(session, &def); err != nil {
			session.mu.Unlock()
			return nil, err
		}
		session.screens[name] = sc
	}
	session.mu.Unlock()

	if !ok {
		if err := s.reload(ctx, sc); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// reload replaces the rows of sc with the stored records.
func (s *Server) reload(ctx context.Context, sc *screen) error {
	rows, err := s.db.List(ctx, sc.res, "")
	if err != nil {
		return err
	}
	records := make([]record, len(rows))
	for i := range rows {
		records[i] = record(rows[i])
	}
	return sc.table.Replace(records)
}

// startEditor opens the editor of a cell. A chip selector loads its
// unfiltered options before it returns.
func (s *Server) startEditor(ctx context.Context, sc *screen, rowID, key string) error {
	if err := s.openEditor(sc, rowID, key); err != nil {
		return err
	}
	if edit := sc.current(rowID, key); edit != nil && edit.chips != nil && len(edit.chips.Options()) == 0 {
		edit.chips.Search(ctx, edit.chips.Query())
	}
	return nil
}

// openEditor starts editing the cell key of rowID, closing any other
// open editor.
func (s *Server) openEditor(sc *screen, rowID, key string) error {
	col, ok := sc.table.Column(key)
	if !ok {
		return datatable.ErrUnknownColumn
	}
	if !sc.table.CellEditable(key) {
		return datatable.ErrNotEditable
	}
	row, ok := sc.table.Row(rowID)
	if !ok {
		return datatable.ErrUnknownRow
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.editing != nil && sc.editing.rowID == rowID && sc.editing.key == key {
		return nil
	}
	sc.closeEditorLocked()

	edit := &cellEdit{rowID: rowID, key: key}
	if col.AsyncSelect() {
		kind, err := catalog.ParseKind(col.DropdownType)
		if err != nil {
			return err
		}
		edit.chips = editor.NewChipSelector(s.catalogs, kind, col.Multi, datatable.ChipValues(col.Value(row)), func(values []string) error {
			var value any = values
			if !col.Multi {
				value = ""
				if len(values) > 0 {
					value = values[0]
				}
			}
			return sc.table.UpdateCell(rowID, key, value)
		})
	} else {
		edit.text = editor.NewTextEditor(func(value string) error {
			return sc.table.UpdateCell(rowID, key, value)
		})
		edit.text.Begin(datatable.Stringify(col.Value(row)))
	}
	sc.editing = edit
	return nil
}

func (sc *screen) closeEditorLocked() {
	if sc.editing != nil && sc.editing.chips != nil {
		sc.editing.chips.Close()
	}
	sc.editing = nil
}

// closeEditor closes the editor of rowID and key if it is open.
func (sc *screen) closeEditor(rowID, key string) {
	sc.mu.Lock()
	if sc.editing != nil && sc.editing.rowID == rowID && sc.editing.key == key {
		sc.closeEditorLocked()
	}
	sc.mu.Unlock()
}

// closeRow closes the editor of any cell of rowID.
func (sc *screen) closeRow(rowID string) {
	sc.mu.Lock()
	if sc.editing != nil && sc.editing.rowID == rowID {
		sc.closeEditorLocked()
	}
	sc.mu.Unlock()
}

// current returns the open editor of rowID and key.
func (sc *screen) current(rowID, key string) *cellEdit {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.editing != nil && sc.editing.rowID == rowID && sc.editing.key == key {
		return sc.editing
	}
	return nil
}

var errNoEditor = apperrors.New(apperrors.ErrClassValidation, "editor", "no editor open for this cell")

// commitText feeds value and key into the text editor of the cell. After a
// Tab the editor moves to the next editable cell of the row.
func (s *Server) commitText(ctx context.Context, sc *screen, rowID, key, value, pressed string) error {
	edit := sc.current(rowID, key)
	if edit == nil || edit.text == nil {
		return errNoEditor
	}
	edit.text.Input(value)
	result, err := edit.text.Key(pressed)
	if err != nil {
		return err
	}
	if edit.text.Active() {
		return nil
	}
	sc.closeEditor(rowID, key)

	if result.Move == editor.MoveNone {
		return nil
	}
	next, ok := sc.table.NextEditableCell(key, result.Move == editor.MovePrev)
	if !ok {
		return nil
	}
	if err := s.startEditor(ctx, sc, rowID, next); err != nil && !errors.Is(err, datatable.ErrNotEditable) {
		return err
	}
	return nil
}
