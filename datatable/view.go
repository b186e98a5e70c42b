package datatable

// ViewRow is one displayed row.
type ViewRow[T any] struct {
	ID string
	// Index is the position within the displayed page.
	Index    int
	Data     T
	Expanded bool
	Selected bool
}

// View is the result of running the pipeline over the current rows.
type View[T any] struct {
	Name string
	// Columns are the visible columns, All includes hidden ones.
	Columns []Column[T]
	All     []Column[T]
	Rows    []ViewRow[T]
	// Editable marks the visible columns whose default cell can be edited.
	Editable Set

	Page     int
	PageSize int
	MaxPage  int
	// Matched counts rows after search and filters, Total all stored rows.
	Matched int
	Total   int
	Offset  int

	Search  string
	Filters map[string]string
	Sort    *SortSpec
	Hidden  Set

	ReorderEnabled bool
	Expandable     bool
	Selectable     bool
	Actions        bool
	Addable        bool
	QuickAdd       bool
}

// View runs search, filters, sort and pagination. The page held in the
// control state is clamped to the resulting page range.
func (t *Table[T]) View() View[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	page := Apply(t.store.rows, t.cols, t.state)
	t.state.Page = page.Number

	v := View[T]{
		Name:           t.opts.Name,
		Columns:        t.visibleColumns(),
		All:            append([]Column[T](nil), t.cols...),
		Editable:       make(Set),
		Rows:           make([]ViewRow[T], len(page.Rows)),
		Page:           page.Number,
		PageSize:       page.Size,
		MaxPage:        page.MaxPage,
		Matched:        page.Total,
		Total:          len(t.store.rows),
		Offset:         page.Offset,
		Search:         t.state.Search,
		Filters:        make(map[string]string, len(t.state.Filters)),
		Hidden:         t.state.Hidden.clone(),
		ReorderEnabled: t.opts.Reorderable && !t.state.QueryActive(),
		Expandable:     t.opts.Expandable,
		Selectable:     t.opts.Selectable,
		Actions:        t.opts.OnDelete != nil || t.opts.OnEdit != nil,
		Addable:        t.opts.OnAdd != nil,
		QuickAdd:       t.opts.OnQuickAddRow != nil,
	}
	for i := range v.Columns {
		if t.cellEditable(&v.Columns[i]) {
			v.Editable[v.Columns[i].Key] = struct{}{}
		}
	}
	for k, val := range t.state.Filters {
		v.Filters[k] = val
	}
	if t.state.Sort != nil {
		sortSpec := *t.state.Sort
		v.Sort = &sortSpec
	}
	for i, row := range page.Rows {
		id := t.opts.RowKey(row)
		v.Rows[i] = ViewRow[T]{
			ID:       id,
			Index:    i,
			Data:     row,
			Expanded: t.state.Expanded.Has(id),
			Selected: t.state.Selected.Has(id),
		}
	}
	return v
}

// IDs returns the ids of the displayed rows in order.
func (v View[T]) IDs() []string {
	ids := make([]string, len(v.Rows))
	for i := range v.Rows {
		ids[i] = v.Rows[i].ID
	}
	return ids
}

// Data returns the displayed rows in order.
func (v View[T]) Data() []T {
	out := make([]T, len(v.Rows))
	for i := range v.Rows {
		out[i] = v.Rows[i].Data
	}
	return out
}

func (t *Table[T]) visibleColumns() []Column[T] {
	out := make([]Column[T], 0, len(t.cols))
	for _, col := range t.cols {
		if !t.state.Hidden.Has(col.Key) {
			out = append(out, col)
		}
	}
	return out
}
