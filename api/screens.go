package api

import (
	"maps"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

type (
	column = datatable.Column[datatable.Record]
	record = datatable.Record
)

const defaultScreen = "users"

// screenDef describes the table of one console screen.
type screenDef struct {
	Resource string
	Title    string
	Columns  []column

	Reorderable bool
	Expandable  bool
	Selectable  bool
	QuickAdd    bool
	// NewRow returns the values of a quick-added row.
	NewRow func() map[string]any
}

func consolePath(resource string) string {
	return "/console/" + resource
}

func opts(values ...string) []datatable.Option {
	out := make([]datatable.Option, len(values))
	for i, v := range values {
		out[i] = datatable.Option{Value: v, Label: strings.ToUpper(v[:1]) + v[1:]}
	}
	return out
}

func textColumn(key, label string) column {
	return column{Key: key, Label: label, Sortable: true, Filterable: true, Searchable: true, Editable: true, Type: datatable.TypeText}
}

func catalogColumn(key, label string, kind catalog.Kind, multi bool) column {
	return column{
		Key:          key,
		Label:        label,
		Sortable:     !multi,
		Filterable:   true,
		Searchable:   true,
		Editable:     true,
		Type:         datatable.TypeDropdown,
		DropdownType: string(kind),
		Multi:        multi,
		Width:        "minmax(180px, 1.5fr)",
	}
}

func fixedRow(values map[string]any) func() map[string]any {
	return func() map[string]any {
		return maps.Clone(values)
	}
}

// uniqueRow names quick-added rows of tables with a unique name column.
func uniqueRow(prefix string) func() map[string]any {
	return func() map[string]any {
		return map[string]any{"name": prefix + "-" + uuid.NewString()[:8]}
	}
}

func statusBadge(value any, _ record, _ int) gomponents.Node {
	status := datatable.Stringify(value)
	class := "secondary"
	switch status {
	case "active", "succeeded", "success":
		class = "success"
	case "failed", "error":
		class = "danger"
	case "running", "queued":
		class = "info"
	case "paused":
		class = "warning"
	}
	return html.Span(html.Class("badge bg-"+class), gomponents.Text(status))
}

func boolBadge(on, off string) datatable.CellRenderer[record] {
	return func(value any, _ record, _ int) gomponents.Node {
		if b, ok := value.(bool); ok && b {
			return html.Span(html.Class("badge bg-success"), gomponents.Text(on))
		}
		return html.Span(html.Class("badge bg-secondary"), gomponents.Text(off))
	}
}

func catalogScreen(title string) screenDef {
	slug := textColumn("slug", "Slug")
	slug.Editable = false
	return screenDef{
		Title:   title,
		Columns: []column{textColumn("name", "Name"), slug},
	}
}

var screenDefs = func() map[string]screenDef {
	defs := map[string]screenDef{
		"users": {
			Title: "Users",
			Columns: []column{
				textColumn("name", "Name"),
				{Key: "email", Label: "Email", Sortable: true, Filterable: true, Searchable: true, Editable: true, Type: datatable.TypeEmail},
				{Key: "role", Label: "Role", Sortable: true, Filterable: true, Searchable: true, Editable: true, Type: datatable.TypeSelect, Options: opts("admin", "developer", "viewer")},
				{Key: "groups", Label: "Groups", Searchable: true, Multi: true},
				catalogColumn("enterprise", "Enterprise", catalog.KindEnterprise, false),
				{Key: "active", Label: "Active", Sortable: true, Renderer: boolBadge("active", "inactive"), Width: "100px"},
			},
			Expandable: true,
			Selectable: true,
			QuickAdd:   true,
			NewRow:     fixedRow(map[string]any{"name": "New user", "role": "viewer", "active": true}),
		},
		"roles": {
			Title: "Roles",
			Columns: []column{
				textColumn("name", "Name"),
				textColumn("description", "Description"),
				{Key: "permissions", Label: "Permissions", Searchable: true, Multi: true},
			},
			QuickAdd: true,
			NewRow:   uniqueRow("new-role"),
		},
		"groups": {
			Title: "Groups",
			Columns: []column{
				textColumn("name", "Name"),
				textColumn("description", "Description"),
				{Key: "roles", Label: "Roles", Searchable: true, Filterable: true, Multi: true},
			},
			QuickAdd: true,
			NewRow:   uniqueRow("new-group"),
		},
		"pipelines": {
			Title: "Pipelines",
			Columns: []column{
				textColumn("name", "Name"),
				catalogColumn("enterprise", "Enterprise", catalog.KindEnterprise, false),
				catalogColumn("product", "Product", catalog.KindProduct, false),
				catalogColumn("services", "Services", catalog.KindService, true),
				catalogColumn("template", "Template", catalog.KindTemplate, false),
				{Key: "status", Label: "Status", Sortable: true, Filterable: true, Searchable: true, Editable: true, Type: datatable.TypeSelect, Options: opts("draft", "active", "paused")},
			},
			Reorderable: true,
			Expandable:  true,
			QuickAdd:    true,
			NewRow:      fixedRow(map[string]any{"name": "New pipeline", "status": "draft"}),
		},
		"builds": {
			Title: "Builds",
			Columns: []column{
				textColumn("pipeline", "Pipeline"),
				{Key: "number", Label: "#", Sortable: true, Filterable: true, Searchable: true, Type: datatable.TypeNumber, Width: "80px"},
				textColumn("branch", "Branch"),
				{Key: "status", Label: "Status", Sortable: true, Filterable: true, Searchable: true, Renderer: statusBadge, Width: "120px"},
				{Key: "started_at", Label: "Started", Sortable: true, Type: datatable.TypeDate},
			},
			Expandable: true,
			Selectable: true,
		},
		"integrations": {
			Title: "Integrations",
			Columns: []column{
				textColumn("name", "Name"),
				{Key: "provider", Label: "Provider", Sortable: true, Filterable: true, Searchable: true, Editable: true, Type: datatable.TypeSelect, Options: opts("github", "gitlab", "bitbucket", "jenkins")},
				textColumn("url", "URL"),
				{Key: "enabled", Label: "Enabled", Sortable: true, Renderer: boolBadge("enabled", "disabled"), Width: "110px"},
			},
			QuickAdd: true,
			NewRow:   fixedRow(map[string]any{"name": "New integration", "provider": "github"}),
		},
		"account-settings": {
			Title:   "Account settings",
			Columns: []column{textColumn("name", "Setting"), textColumn("value", "Value")},
		},
		"enterprises": catalogScreen("Enterprises"),
		"products":    catalogScreen("Products"),
		"services":    catalogScreen("Services"),
		"templates":   catalogScreen("Templates"),
	}
	for name, def := range defs {
		def.Resource = name
		defs[name] = def
	}
	return defs
}()

// screenNames lists the screens in navigation order.
func screenNames() []string {
	names := make([]string, 0, len(screenDefs))
	for name := range screenDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
