package datatable

import (
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"maragu.dev/gomponents"
	htmx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"
)

const placeholder = "—"

// Endpoint is the base URL of a table's htmx handlers. The handlers are
// mounted below it:
//
//	GET    {base}/grid
//	POST   {base}/search | filter | sort | page | pagesize | columns | reorder | quick-add
//	POST   {base}/rows/{id}/expand | select
//	DELETE {base}/rows/{id}
//	GET    {base}/rows/{id}/cells/{key}/edit
//	POST   {base}/rows/{id}/cells/{key}/commit | cancel
//	GET    {base}/rows/{id}/cells/{key}/options
//	POST   {base}/rows/{id}/cells/{key}/chips | chips/create | chips/remove
type Endpoint string

// URL joins escaped path segments to the endpoint.
func (e Endpoint) URL(parts ...string) string {
	var bld strings.Builder
	bld.WriteString(strings.TrimRight(string(e), "/"))
	for _, p := range parts {
		bld.WriteByte('/')
		bld.WriteString(url.PathEscape(p))
	}
	return bld.String()
}

// RenderConfig controls markup generation. Without an Endpoint the grid is
// rendered read-only with no htmx attributes.
type RenderConfig[T any] struct {
	Endpoint  Endpoint
	CSRFToken string
	PageSizes []int
	// Cell overrides the cell of a row when it returns a non-nil node. The
	// console uses it to place live editors.
	Cell func(row ViewRow[T], col *Column[T]) gomponents.Node
	// Expanded renders the detail panel of an expanded row.
	Expanded func(row T) gomponents.Node
}

// ContainerID is the DOM id of the table wrapper.
func ContainerID(name string) string {
	return "dt-" + name
}

// GridID is the DOM id swapped by every htmx action.
func GridID(name string) string {
	return "dt-" + name + "-grid"
}

func vals(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// HeadersJSON is the hx-headers value carrying the CSRF token.
func HeadersJSON(csrfToken string) string {
	return vals(map[string]any{"X-CSRF-Token": csrfToken})
}

func (cfg *RenderConfig[T]) live() bool {
	return cfg.Endpoint != ""
}

// trigger and confirm drop their attribute on read-only grids.
func (cfg *RenderConfig[T]) trigger(spec string) gomponents.Node {
	if !cfg.live() {
		return nil
	}
	return htmx.Trigger(spec)
}

func (cfg *RenderConfig[T]) confirm(msg string) gomponents.Node {
	if !cfg.live() {
		return nil
	}
	return htmx.Confirm(msg)
}

// action returns the htmx attributes of a request that swaps the grid.
func (cfg *RenderConfig[T]) action(name, method string, values map[string]any, parts ...string) gomponents.Node {
	if !cfg.live() {
		return nil
	}
	target := cfg.Endpoint.URL(parts...)
	nodes := []gomponents.Node{
		htmx.Target("#" + GridID(name)),
		htmx.Swap("outerHTML"),
	}
	switch method {
	case "GET":
		nodes = append(nodes, htmx.Get(target))
	case "DELETE":
		nodes = append(nodes, htmx.Delete(target))
	default:
		nodes = append(nodes, htmx.Post(target))
	}
	if len(values) > 0 {
		nodes = append(nodes, htmx.Vals(vals(values)))
	}
	return gomponents.Group(nodes)
}

// Render runs the pipeline and renders the complete table.
func (t *Table[T]) Render(cfg RenderConfig[T]) gomponents.Node {
	return RenderView(t.View(), cfg)
}

// RenderGrid runs the pipeline and renders only the swappable grid.
func (t *Table[T]) RenderGrid(cfg RenderConfig[T]) gomponents.Node {
	return RenderGridView(t.View(), cfg)
}

// RenderView renders the toolbar and the grid of v.
func RenderView[T any](v View[T], cfg RenderConfig[T]) gomponents.Node {
	var headers gomponents.Node
	if cfg.live() && cfg.CSRFToken != "" {
		headers = htmx.Headers(HeadersJSON(cfg.CSRFToken))
	}
	return html.Div(
		html.ID(ContainerID(v.Name)),
		html.Class("datatable"),
		headers,
		renderToolbar(v, &cfg),
		RenderGridView(v, cfg),
	)
}

func renderToolbar[T any](v View[T], cfg *RenderConfig[T]) gomponents.Node {
	if !cfg.live() {
		return nil
	}

	var filters []gomponents.Node
	for i := range v.All {
		col := &v.All[i]
		if !col.Filterable {
			continue
		}
		filters = append(filters, html.Input(
			html.Type("text"),
			html.Name("value"),
			html.Class("form-control form-control-sm dt-filter"),
			html.Placeholder("Filter "+col.Label),
			html.Value(v.Filters[col.Key]),
			html.Data("column", col.Key),
			cfg.action(v.Name, "POST", map[string]any{"key": col.Key}, "filter"),
			cfg.trigger("keyup changed delay:300ms, search"),
		))
	}

	var toggles []gomponents.Node
	for i := range v.All {
		col := &v.All[i]
		toggles = append(toggles, html.Label(
			html.Class("dropdown-item"),
			html.Input(
				html.Type("checkbox"),
				gomponents.If(!v.Hidden.Has(col.Key), html.Checked()),
				cfg.action(v.Name, "POST", map[string]any{"key": col.Key}, "columns"),
				cfg.trigger("change"),
			),
			gomponents.Text(" "+col.Label),
		))
	}

	return html.Div(
		html.Class("dt-toolbar d-flex flex-wrap gap-2 mb-2"),
		html.Input(
			html.Type("search"),
			html.Name("search"),
			html.Class("form-control form-control-sm dt-search"),
			html.Placeholder("Search..."),
			html.Value(v.Search),
			cfg.action(v.Name, "POST", nil, "search"),
			cfg.trigger("keyup changed delay:300ms, search"),
		),
		gomponents.Group(filters),
		html.Details(
			html.Class("dt-columns"),
			html.Summary(html.Class("btn btn-sm btn-outline-secondary"), gomponents.Text("Columns")),
			html.Div(html.Class("dropdown-menu show"), gomponents.Group(toggles)),
		),
		gomponents.If(v.QuickAdd, html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-primary"),
			cfg.action(v.Name, "POST", nil, "quick-add"),
			gomponents.Text("+ Add row"),
		)),
	)
}

// RenderGridView renders the header, rows and pagination bar of v.
func RenderGridView[T any](v View[T], cfg RenderConfig[T]) gomponents.Node {
	leading := v.Expandable || v.Selectable || v.ReorderEnabled
	template := v.GridTemplate()

	rows := make([]gomponents.Node, 0, len(v.Rows))
	for i := range v.Rows {
		rows = append(rows, renderRow(v, &cfg, i, leading, template))
	}
	if len(v.Rows) == 0 {
		rows = append(rows, html.Div(
			html.Class("dt-empty text-muted p-3"),
			gomponents.Text("No records found"),
		))
	}

	return html.Div(
		html.ID(GridID(v.Name)),
		html.Class("dt-grid"),
		html.Role("table"),
		html.Data("page", strconv.Itoa(v.Page)),
		renderHeader(v, &cfg, leading, template),
		html.Div(html.Class("dt-body"), html.Role("rowgroup"), gomponents.Group(rows)),
		renderPagination(v, &cfg),
	)
}

func gridStyle(template string) gomponents.Node {
	return html.Style("display:grid;grid-template-columns:" + template)
}

func renderHeader[T any](v View[T], cfg *RenderConfig[T], leading bool, template string) gomponents.Node {
	cells := make([]gomponents.Node, 0, len(v.Columns)+2)
	if leading {
		cells = append(cells, html.Div(html.Class("dt-th dt-lead"), html.Role("columnheader")))
	}
	for i := range v.Columns {
		col := &v.Columns[i]
		var indicator string
		ariaSort := "none"
		if v.Sort != nil && v.Sort.Key == col.Key {
			if v.Sort.Direction == Desc {
				indicator, ariaSort = " ▼", "descending"
			} else {
				indicator, ariaSort = " ▲", "ascending"
			}
		}

		label := gomponents.Text(col.Label + indicator)
		if col.Sortable && cfg.live() {
			label = html.Button(
				html.Type("button"),
				html.Class("btn btn-link btn-sm p-0 dt-sort"),
				cfg.action(v.Name, "POST", map[string]any{"key": col.Key}, "sort"),
				label,
			)
		}
		cells = append(cells, html.Div(
			html.Class("dt-th"),
			html.Role("columnheader"),
			html.Data("column", col.Key),
			gomponents.If(col.Sortable, gomponents.Attr("aria-sort", ariaSort)),
			label,
		))
	}
	if v.Actions {
		cells = append(cells, html.Div(html.Class("dt-th dt-actions"), html.Role("columnheader"), gomponents.Text("Actions")))
	}
	return html.Div(html.Class("dt-head"), html.Role("row"), gridStyle(template), gomponents.Group(cells))
}

func renderRow[T any](v View[T], cfg *RenderConfig[T], i int, leading bool, template string) gomponents.Node {
	row := &v.Rows[i]
	cells := make([]gomponents.Node, 0, len(v.Columns)+2)

	if leading {
		cells = append(cells, renderLeadCell(v, cfg, i))
	}
	for c := range v.Columns {
		col := &v.Columns[c]
		if cfg.Cell != nil {
			if node := cfg.Cell(*row, col); node != nil {
				cells = append(cells, html.Div(html.Class("dt-td dt-editing"), html.Role("cell"), html.Data("column", col.Key), node))
				continue
			}
		}
		cells = append(cells, renderCell(v, cfg, row, col))
	}
	if v.Actions {
		cells = append(cells, html.Div(
			html.Class("dt-td dt-actions"),
			html.Role("cell"),
			gomponents.If(cfg.live(), html.Button(
				html.Type("button"),
				html.Class("btn btn-sm btn-outline-danger"),
				cfg.action(v.Name, "DELETE", nil, "rows", row.ID),
				cfg.confirm("Delete this row?"),
				gomponents.Text("Delete"),
			)),
		))
	}

	class := "dt-row"
	if row.Selected {
		class += " dt-selected"
	}
	nodes := []gomponents.Node{
		html.Div(
			html.Class(class),
			html.Role("row"),
			html.Data("row-id", row.ID),
			gridStyle(template),
			gomponents.Group(cells),
		),
	}
	if row.Expanded {
		nodes = append(nodes, html.Div(
			html.Class("dt-detail"),
			html.Data("row-id", row.ID),
			renderDetail(v, cfg, row),
		))
	}
	return gomponents.Group(nodes)
}

func renderLeadCell[T any](v View[T], cfg *RenderConfig[T], i int) gomponents.Node {
	row := &v.Rows[i]
	var nodes []gomponents.Node
	if v.Expandable {
		mark := "▸"
		if row.Expanded {
			mark = "▾"
		}
		nodes = append(nodes, html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-link p-0 dt-expand"),
			gomponents.Attr("aria-expanded", strconv.FormatBool(row.Expanded)),
			cfg.action(v.Name, "POST", nil, "rows", row.ID, "expand"),
			gomponents.Text(mark),
		))
	}
	if v.Selectable {
		nodes = append(nodes, html.Input(
			html.Type("checkbox"),
			html.Class("form-check-input dt-select"),
			gomponents.If(row.Selected, html.Checked()),
			cfg.action(v.Name, "POST", nil, "rows", row.ID, "select"),
			cfg.trigger("change"),
		))
	}
	if v.ReorderEnabled && cfg.live() {
		if i > 0 {
			nodes = append(nodes, html.Button(
				html.Type("button"),
				html.Class("btn btn-sm btn-link p-0 dt-move"),
				html.Title("Move up"),
				cfg.action(v.Name, "POST", map[string]any{"active": row.ID, "over": v.Rows[i-1].ID}, "reorder"),
				gomponents.Text("↑"),
			))
		}
		if i < len(v.Rows)-1 {
			nodes = append(nodes, html.Button(
				html.Type("button"),
				html.Class("btn btn-sm btn-link p-0 dt-move"),
				html.Title("Move down"),
				cfg.action(v.Name, "POST", map[string]any{"active": row.ID, "over": v.Rows[i+1].ID}, "reorder"),
				gomponents.Text("↓"),
			))
		}
	}
	return html.Div(html.Class("dt-td dt-lead"), html.Role("cell"), gomponents.Group(nodes))
}

func renderCell[T any](v View[T], cfg *RenderConfig[T], row *ViewRow[T], col *Column[T]) gomponents.Node {
	value := col.Value(row.Data)
	attrs := []gomponents.Node{
		html.Role("cell"),
		html.Data("column", col.Key),
	}

	if col.Renderer != nil {
		return html.Div(html.Class("dt-td"), gomponents.Group(attrs), col.Renderer(value, row.Data, row.Index))
	}

	editable := v.Editable.Has(col.Key) && cfg.live()
	if col.Multi || col.AsyncSelect() {
		return html.Div(html.Class("dt-td"), gomponents.Group(attrs), renderChips(v, cfg, row.ID, col, ChipValues(value), editable))
	}

	text := Stringify(value)
	if col.Type == TypeSelect || col.Type == TypeDropdown {
		text = col.OptionLabel(text)
	}
	var content gomponents.Node = html.Span(html.Class("text-muted"), gomponents.Text(placeholder))
	if text != "" {
		content = Highlight(text, v.Search)
	}
	if !editable {
		return html.Div(html.Class("dt-td"), gomponents.Group(attrs), content)
	}
	return html.Div(
		html.Class("dt-td dt-editable"),
		gomponents.Group(attrs),
		html.TabIndex("0"),
		cfg.action(v.Name, "GET", nil, "rows", row.ID, "cells", col.Key, "edit"),
		content,
	)
}

func renderChips[T any](v View[T], cfg *RenderConfig[T], rowID string, col *Column[T], values []string, editable bool) gomponents.Node {
	if len(values) == 0 {
		return html.Span(
			html.Class("text-muted dt-chip-placeholder"),
			gomponents.If(editable, cfg.action(v.Name, "GET", nil, "rows", rowID, "cells", col.Key, "edit")),
			gomponents.Text(placeholder),
		)
	}
	chips := make([]gomponents.Node, 0, len(values)+1)
	for _, value := range values {
		chips = append(chips, html.Span(
			html.Class("badge bg-secondary dt-chip"),
			Highlight(col.OptionLabel(value), v.Search),
			gomponents.If(editable, html.Button(
				html.Type("button"),
				html.Class("btn-close btn-close-white ms-1"),
				gomponents.Attr("aria-label", "Remove "+value),
				cfg.action(v.Name, "POST", map[string]any{"value": value}, "rows", rowID, "cells", col.Key, "chips", "remove"),
			)),
		))
	}
	if editable {
		chips = append(chips, html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-link p-0 dt-chip-add"),
			cfg.action(v.Name, "GET", nil, "rows", rowID, "cells", col.Key, "edit"),
			gomponents.Text("+"),
		))
	}
	return html.Div(html.Class("dt-chips d-flex flex-wrap gap-1"), gomponents.Group(chips))
}

func renderDetail[T any](v View[T], cfg *RenderConfig[T], row *ViewRow[T]) gomponents.Node {
	if cfg.Expanded != nil {
		return cfg.Expanded(row.Data)
	}
	items := make([]gomponents.Node, 0, len(v.All)*2)
	for i := range v.All {
		col := &v.All[i]
		items = append(items,
			html.Dt(gomponents.Text(col.Label)),
			html.Dd(gomponents.Text(Stringify(col.Value(row.Data)))),
		)
	}
	return html.Dl(html.Class("row mb-0"), gomponents.Group(items))
}

func renderPagination[T any](v View[T], cfg *RenderConfig[T]) gomponents.Node {
	first, last := 0, 0
	if v.Matched > 0 {
		first = v.Offset + 1
		last = v.Offset + len(v.Rows)
	}
	summary := gomponents.Textf("Showing %d to %d of %d entries", first, last, v.Matched)
	if v.Matched != v.Total {
		summary = gomponents.Textf("Showing %d to %d of %d entries (filtered from %d)", first, last, v.Matched, v.Total)
	}

	var sizes gomponents.Node
	if len(cfg.PageSizes) > 0 && cfg.live() {
		opts := make([]gomponents.Node, 0, len(cfg.PageSizes))
		for _, size := range cfg.PageSizes {
			opts = append(opts, html.Option(
				html.Value(strconv.Itoa(size)),
				gomponents.If(size == v.PageSize, html.Selected()),
				gomponents.Text(strconv.Itoa(size)),
			))
		}
		sizes = html.Select(
			html.Name("size"),
			html.Class("form-select form-select-sm w-auto dt-pagesize"),
			cfg.action(v.Name, "POST", nil, "pagesize"),
			cfg.trigger("change"),
			gomponents.Group(opts),
		)
	}

	pageButton := func(label string, page int, disabled bool) gomponents.Node {
		return html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-outline-secondary"),
			gomponents.If(disabled, html.Disabled()),
			gomponents.If(!disabled, cfg.action(v.Name, "POST", map[string]any{"page": page}, "page")),
			gomponents.Text(label),
		)
	}

	return html.Div(
		html.Class("dt-pagination d-flex align-items-center gap-2 mt-2"),
		html.Span(html.Class("dt-summary"), summary),
		sizes,
		gomponents.If(v.MaxPage > 1 && cfg.live(), gomponents.Group([]gomponents.Node{
			pageButton("‹ Prev", v.Page-1, v.Page <= 1),
			html.Span(gomponents.Textf("Page %d of %d", v.Page, v.MaxPage)),
			pageButton("Next ›", v.Page+1, v.Page >= v.MaxPage),
		})),
	)
}

// ChipValues reads a multi-value cell. Slices are used as is and strings
// are split on commas. Blank entries are dropped.
func ChipValues(value any) []string {
	var raw []string
	switch tv := value.(type) {
	case nil:
		return nil
	case []string:
		raw = tv
	case []any:
		for _, item := range tv {
			raw = append(raw, Stringify(item))
		}
	default:
		raw = strings.Split(Stringify(value), ",")
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
