package database

import (
	"sort"

	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
)

// FieldKind selects how a column is converted between sqlite and rows.
type FieldKind int

const (
	KindText FieldKind = iota
	KindInt
	KindBool
	// KindList is a string list stored as a JSON array.
	KindList
	KindTime
)

// Field is one writable column of a resource.
type Field struct {
	Name     string
	Kind     FieldKind
	Search   bool
	Required bool
}

// Resource maps a REST collection onto a table. Only the listed fields can
// be read or written through it.
type Resource struct {
	Name    string
	Table   string
	Fields  []Field
	OrderBy string
	// Catalog resources carry a slug derived from the name.
	Catalog bool
}

// Field returns the named field.
func (r *Resource) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func catalogResource(name string) *Resource {
	return &Resource{
		Name:  name,
		Table: name,
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "slug", Search: true},
		},
		OrderBy: "name",
		Catalog: true,
	}
}

var registry = map[string]*Resource{
	"users": {
		Name:  "users",
		Table: "users",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "email", Search: true},
			{Name: "role", Search: true},
			{Name: "groups", Kind: KindList, Search: true},
			{Name: "enterprise", Search: true},
			{Name: "active", Kind: KindBool},
		},
		OrderBy: "created_at",
	},
	"roles": {
		Name:  "roles",
		Table: "roles",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "description", Search: true},
			{Name: "permissions", Kind: KindList},
		},
		OrderBy: "name",
	},
	"groups": {
		Name:  "groups",
		Table: "groups",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "description", Search: true},
			{Name: "roles", Kind: KindList, Search: true},
		},
		OrderBy: "name",
	},
	"pipelines": {
		Name:  "pipelines",
		Table: "pipelines",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "enterprise", Search: true},
			{Name: "product", Search: true},
			{Name: "services", Kind: KindList, Search: true},
			{Name: "template", Search: true},
			{Name: "status", Search: true},
		},
		OrderBy: "created_at",
	},
	"builds": {
		Name:  "builds",
		Table: "builds",
		Fields: []Field{
			{Name: "pipeline", Search: true, Required: true},
			{Name: "number", Kind: KindInt},
			{Name: "branch", Search: true},
			{Name: "status", Search: true},
			{Name: "started_at", Kind: KindTime},
		},
		OrderBy: "created_at",
	},
	"integrations": {
		Name:  "integrations",
		Table: "integrations",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "provider", Search: true},
			{Name: "url", Search: true},
			{Name: "enabled", Kind: KindBool},
		},
		OrderBy: "name",
	},
	"account-settings": {
		Name:  "account-settings",
		Table: "account_settings",
		Fields: []Field{
			{Name: "name", Search: true, Required: true},
			{Name: "value", Search: true},
		},
		OrderBy: "name",
	},
	"enterprises": catalogResource("enterprises"),
	"products":    catalogResource("products"),
	"services":    catalogResource("services"),
	"templates":   catalogResource("templates"),
}

// Lookup returns the resource registered under name.
func Lookup(name string) (*Resource, error) {
	if r, ok := registry[name]; ok {
		return r, nil
	}
	return nil, apperrors.New(apperrors.ErrClassNotFound, "lookup", "unknown resource").WithContext("resource", name)
}

// ResourceNames lists the registered resources in sorted order.
func ResourceNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
