package datatable

// Tab navigation stays inside a row: it moves over the visible, editable,
// non custom-rendered columns and wraps from the last to the first.

// NextEditableCell returns the key of the editable column after current, or
// before it when backward is set. It reports false if no column qualifies
// besides current itself.
func NextEditableCell[T any](cols []Column[T], hidden Set, current string, backward bool) (string, bool) {
	keys := make([]string, 0, len(cols))
	pos := -1
	for i := range cols {
		if hidden.Has(cols[i].Key) || !cols[i].Interactive() {
			continue
		}
		if cols[i].Key == current {
			pos = len(keys)
		}
		keys = append(keys, cols[i].Key)
	}
	if len(keys) == 0 {
		return "", false
	}
	if pos == -1 {
		if backward {
			return keys[len(keys)-1], true
		}
		return keys[0], true
	}
	if len(keys) == 1 {
		return "", false
	}

	step := 1
	if backward {
		step = -1
	}
	return keys[(pos+step+len(keys))%len(keys)], true
}

// NextEditableCell resolves Tab order against the table's visible columns,
// honouring the inline-edit and async-select capabilities.
func (t *Table[T]) NextEditableCell(current string, backward bool) (string, bool) {
	t.mu.RLock()
	hidden := t.state.Hidden.clone()
	t.mu.RUnlock()

	cols := make([]Column[T], 0, len(t.cols))
	for i := range t.cols {
		if t.cellEditable(&t.cols[i]) {
			cols = append(cols, t.cols[i])
		}
	}
	return NextEditableCell(cols, hidden, current, backward)
}
