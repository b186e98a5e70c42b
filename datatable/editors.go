package datatable

import (
	"maragu.dev/gomponents"
	htmx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"
)

// Key names posted by the inline editor.
const (
	KeyEnter    = "Enter"
	KeyEscape   = "Escape"
	KeyTab      = "Tab"
	KeyShiftTab = "ShiftTab"
	KeyBlur     = "Blur"
)

// editorKeyVals maps the browser event onto one of the key names above.
const editorKeyVals = `js:{key: event.type === "blur" ? "Blur" : (event.key === "Tab" && event.shiftKey ? "ShiftTab" : event.key)}`

func inputType(typ ColumnType) string {
	switch typ {
	case TypeNumber:
		return "number"
	case TypeEmail:
		return "email"
	case TypeDate:
		return "date"
	}
	return "text"
}

// TextEditorInput renders the inline editor of a text, number, email, date
// or select cell. Enter, Tab and blur commit; Escape cancels.
func TextEditorInput(name string, endpoint Endpoint, rowID, key string, typ ColumnType, draft string, options []Option) gomponents.Node {
	commit := []gomponents.Node{
		htmx.Post(endpoint.URL("rows", rowID, "cells", key, "commit")),
		htmx.Target("#" + GridID(name)),
		htmx.Swap("outerHTML"),
		gomponents.Attr("hx-sync", "this:drop"),
		gomponents.Attr("hx-vals", editorKeyVals),
		html.Name("value"),
		html.AutoFocus(),
	}

	if typ == TypeSelect || (typ == TypeDropdown && len(options) > 0) {
		opts := make([]gomponents.Node, 0, len(options)+1)
		opts = append(opts, html.Option(html.Value(""), gomponents.Text(placeholder)))
		for _, opt := range options {
			opts = append(opts, html.Option(
				html.Value(opt.Value),
				gomponents.If(opt.Value == draft, html.Selected()),
				gomponents.Text(opt.Label),
			))
		}
		return html.Select(
			html.Class("form-select form-select-sm dt-editor"),
			gomponents.Group(commit),
			htmx.Trigger("change, keydown[key=='Escape'], keydown[key=='Tab'], blur"),
			gomponents.Group(opts),
		)
	}

	return html.Input(
		html.Type(inputType(typ)),
		html.Class("form-control form-control-sm dt-editor"),
		html.Value(draft),
		gomponents.Group(commit),
		htmx.Trigger("keydown[key=='Enter'], keydown[key=='Escape'], keydown[key=='Tab'], blur"),
	)
}

// ChipEditorProps describes an open catalog selector.
type ChipEditorProps struct {
	Name     string
	Endpoint Endpoint
	RowID    string
	Key      string
	Label    string
	Multi    bool
	Values   []string
	Options  []Option
	Query    string
	// CanCreate offers "Create" for a query that matches no option.
	CanCreate bool
	Loading   bool
}

// ChipEditor renders the selected chips, the query input, the option list
// and the create button of a catalog selector.
func ChipEditor(p ChipEditorProps) gomponents.Node {
	cell := func(parts ...string) string {
		return p.Endpoint.URL(append([]string{"rows", p.RowID, "cells", p.Key}, parts...)...)
	}
	swap := gomponents.Group([]gomponents.Node{
		htmx.Target("#" + GridID(p.Name)),
		htmx.Swap("outerHTML"),
	})

	chips := make([]gomponents.Node, 0, len(p.Values))
	for _, value := range p.Values {
		chips = append(chips, html.Span(
			html.Class("badge bg-primary dt-chip"),
			gomponents.Text(value),
			html.Button(
				html.Type("button"),
				html.Class("btn-close btn-close-white ms-1"),
				gomponents.Attr("aria-label", "Remove "+value),
				htmx.Post(cell("chips", "remove")),
				htmx.Vals(vals(map[string]any{"value": value})),
				swap,
			),
		))
	}
	if len(chips) == 0 {
		chips = append(chips, html.Span(html.Class("text-muted dt-chip-placeholder"), gomponents.Text("Select "+p.Label)))
	}

	options := make([]gomponents.Node, 0, len(p.Options))
	for _, opt := range p.Options {
		options = append(options, html.Li(
			html.Button(
				html.Type("button"),
				html.Class("dropdown-item"),
				htmx.Post(cell("chips")),
				htmx.Vals(vals(map[string]any{"value": opt.Value})),
				swap,
				Highlight(opt.Label, p.Query),
			),
		))
	}
	if len(options) == 0 && !p.Loading {
		options = append(options, html.Li(html.Class("dropdown-item-text text-muted"), gomponents.Text("No options")))
	}

	return html.Div(
		html.Class("dt-chip-editor"),
		html.Data("multi", boolString(p.Multi)),
		html.Div(html.Class("dt-chips d-flex flex-wrap gap-1"), gomponents.Group(chips)),
		html.Input(
			html.Type("search"),
			html.Name("q"),
			html.Class("form-control form-control-sm"),
			html.Placeholder("Search..."),
			html.Value(p.Query),
			html.AutoFocus(),
			htmx.Get(cell("options")),
			htmx.Trigger("keyup changed delay:300ms, search"),
			swap,
		),
		html.Ul(html.Class("dropdown-menu show dt-options"), gomponents.Group(options)),
		gomponents.If(p.CanCreate, html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-outline-primary"),
			htmx.Post(cell("chips", "create")),
			htmx.Vals(vals(map[string]any{"name": p.Query})),
			swap,
			gomponents.Textf("Create %q", p.Query),
		)),
		html.Button(
			html.Type("button"),
			html.Class("btn btn-sm btn-link"),
			htmx.Post(cell("cancel")),
			swap,
			gomponents.Text("Done"),
		),
	)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
