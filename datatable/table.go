// Package datatable is a generic table engine: a column model, a row store
// with manual reordering, a search/filter/sort/paginate pipeline and a
// gomponents renderer driven by htmx.
package datatable

import (
	"fmt"
	"sync"

	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// Options configures a Table. Columns and RowKey are required.
type Options[T any] struct {
	// Name identifies the table in logs and DOM ids.
	Name    string
	Columns []Column[T]
	RowKey  RowKey[T]
	// PageSize <= 0 disables pagination. Ignored when State is set.
	PageSize int
	// State lifts the control state to the caller. A nil State is owned by
	// the table.
	State *ControlState

	Reorderable bool
	Expandable  bool
	Selectable  bool
	InlineEdit  bool
	AsyncSelect bool

	OnRowUpdate   func(rowID, field string, value any) error
	OnEdit        func(row T)
	OnDelete      func(rowID string) error
	OnAdd         func()
	OnQuickAddRow func() error
}

// Table combines the column model, the row store and the control state.
// It is safe for concurrent use.
type Table[T any] struct {
	mu    sync.RWMutex
	opts  Options[T]
	cols  []Column[T]
	store rowStore[T]
	state *ControlState
}

// New validates the column model and returns an empty table.
func New[T any](opts Options[T]) (*Table[T], error) {
	if opts.RowKey == nil {
		return nil, ErrMissingRowKey
	}
	seen := make(map[string]struct{}, len(opts.Columns))
	cols := make([]Column[T], len(opts.Columns))
	for i, col := range opts.Columns {
		if col.Key == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrUnknownColumn)
		}
		if _, dup := seen[col.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Key)
		}
		seen[col.Key] = struct{}{}
		if col.Type == "" {
			col.Type = TypeText
		}
		if col.Label == "" {
			col.Label = col.Key
		}
		cols[i] = col
	}

	state := opts.State
	if state == nil {
		state = NewControlState(opts.PageSize)
	}
	state.ensure()

	t := &Table[T]{opts: opts, cols: cols, state: state}
	t.store.index = make(map[string]int)
	return t, nil
}

func (t *Table[T]) Name() string {
	return t.opts.Name
}

// Columns returns the full column model, hidden columns included.
func (t *Table[T]) Columns() []Column[T] {
	return append([]Column[T](nil), t.cols...)
}

// Column returns the column named key.
func (t *Table[T]) Column(key string) (Column[T], bool) {
	if col := findColumn(t.cols, key); col != nil {
		return *col, true
	}
	return Column[T]{}, false
}

// Replace resets the row store to rows. Any manual reorder is lost and
// expanded or selected ids that no longer exist are dropped.
func (t *Table[T]) Replace(rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.replace(rows, t.opts.RowKey); err != nil {
		logger.Logtype(logger.StrWarn, 1).Err(err).Str(logger.StrTable, t.opts.Name).Msg("rejected row data")
		return err
	}
	for _, set := range []Set{t.state.Expanded, t.state.Selected} {
		for id := range set {
			if !t.store.has(id) {
				delete(set, id)
			}
		}
	}
	return nil
}

// Rows returns all rows in store order.
func (t *Table[T]) Rows() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.snapshot()
}

func (t *Table[T]) Row(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.store.get(id)
}

// Put replaces a single stored row, located by its id, keeping its position.
func (t *Table[T]) Put(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.opts.RowKey(row)
	if !t.store.set(id, row) {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	return nil
}

// Append adds a row after the last one.
func (t *Table[T]) Append(row T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.opts.RowKey(row)
	if id == "" {
		return ErrMissingRowKey
	}
	if !t.store.add(id, row) {
		return fmt.Errorf("%w: %s", ErrDuplicateRowKey, id)
	}
	return nil
}

// Remove drops a row from the store without calling OnDelete.
func (t *Table[T]) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.state.Expanded, id)
	delete(t.state.Selected, id)
	return t.store.remove(id)
}

// State returns a copy of the control state.
func (t *Table[T]) State() *ControlState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Update mutates the control state under the table lock.
func (t *Table[T]) Update(fn func(*ControlState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.state)
	t.state.ensure()
}

func (t *Table[T]) SetSearch(query string) {
	t.Update(func(s *ControlState) { s.SetSearch(query) })
}

// SetFilter sets the filter of a filterable column. A blank value clears it.
func (t *Table[T]) SetFilter(key, value string) error {
	col := findColumn(t.cols, key)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !col.Filterable {
		return fmt.Errorf("%w: %s", ErrNotFilterable, key)
	}
	t.Update(func(s *ControlState) { s.SetFilter(key, value) })
	return nil
}

// ToggleSort cycles a sortable column through asc, desc and insertion order.
func (t *Table[T]) ToggleSort(key string) error {
	col := findColumn(t.cols, key)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !col.Sortable {
		return fmt.Errorf("%w: %s", ErrNotSortable, key)
	}
	t.Update(func(s *ControlState) { s.ToggleSort(key) })
	return nil
}

func (t *Table[T]) SetPage(page int) {
	t.Update(func(s *ControlState) { s.SetPage(page) })
}

func (t *Table[T]) SetPageSize(size int) {
	t.Update(func(s *ControlState) { s.SetPageSize(size) })
}

// ToggleColumn hides or shows a column and reports whether it is now hidden.
func (t *Table[T]) ToggleColumn(key string) (bool, error) {
	if findColumn(t.cols, key) == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	var hidden bool
	t.Update(func(s *ControlState) { hidden = s.Hidden.Toggle(key) })
	return hidden, nil
}

// ToggleExpanded flips the expansion of a row and reports the new state.
func (t *Table[T]) ToggleExpanded(id string) (bool, error) {
	return t.toggleRow(id, func(s *ControlState) Set { return s.Expanded })
}

// ToggleSelected flips the selection of a row and reports the new state.
func (t *Table[T]) ToggleSelected(id string) (bool, error) {
	return t.toggleRow(id, func(s *ControlState) Set { return s.Selected })
}

func (t *Table[T]) toggleRow(id string, pick func(*ControlState) Set) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.store.has(id) {
		return false, fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	return pick(t.state).Toggle(id), nil
}

// ReorderEnabled reports whether Reorder would currently be accepted.
func (t *Table[T]) ReorderEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.opts.Reorderable && !t.state.QueryActive()
}

// Reorder moves row activeID to the position of row overID. It fails with
// ErrReorderDisabled while a sort, filter or search is active.
func (t *Table[T]) Reorder(activeID, overID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opts.Reorderable || t.state.QueryActive() {
		logger.Logtype(logger.StrDebug, 1).Str(logger.StrTable, t.opts.Name).Str(logger.StrRow, activeID).Msg("reorder rejected")
		return ErrReorderDisabled
	}
	return t.store.move(activeID, overID)
}

// CellEditable reports whether the default cell of key offers inline editing.
func (t *Table[T]) CellEditable(key string) bool {
	col := findColumn(t.cols, key)
	return col != nil && t.cellEditable(col)
}

func (t *Table[T]) cellEditable(col *Column[T]) bool {
	if !t.opts.InlineEdit || t.opts.OnRowUpdate == nil || !col.Interactive() {
		return false
	}
	if col.AsyncSelect() {
		return t.opts.AsyncSelect
	}
	return true
}

// UpdateCell forwards a committed value to OnRowUpdate. The table does not
// change the row itself; the owner persists the value and then calls Put or
// Replace.
func (t *Table[T]) UpdateCell(rowID, key string, value any) error {
	col := findColumn(t.cols, key)
	if col == nil {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	if !t.cellEditable(col) {
		return fmt.Errorf("%w: %s", ErrNotEditable, key)
	}
	t.mu.RLock()
	known := t.store.has(rowID)
	t.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	return t.opts.OnRowUpdate(rowID, key, value)
}

// Delete forwards a row deletion to OnDelete and drops the row on success.
func (t *Table[T]) Delete(rowID string) error {
	t.mu.RLock()
	known := t.store.has(rowID)
	t.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if t.opts.OnDelete != nil {
		if err := t.opts.OnDelete(rowID); err != nil {
			return err
		}
	}
	t.Remove(rowID)
	return nil
}

// Edit hands a row to OnEdit.
func (t *Table[T]) Edit(rowID string) error {
	row, ok := t.Row(rowID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if t.opts.OnEdit != nil {
		t.opts.OnEdit(row)
	}
	return nil
}

func (t *Table[T]) Add() {
	if t.opts.OnAdd != nil {
		t.opts.OnAdd()
	}
}

// QuickAddRow asks the owner to append a blank row.
func (t *Table[T]) QuickAddRow() error {
	if t.opts.OnQuickAddRow == nil {
		return nil
	}
	return t.opts.OnQuickAddRow()
}
