package datatable

import (
	"reflect"
	"strings"

	"maragu.dev/gomponents"
)

// ColumnType selects the editor used for a column.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeNumber   ColumnType = "number"
	TypeEmail    ColumnType = "email"
	TypeDate     ColumnType = "date"
	TypeSelect   ColumnType = "select"
	TypeDropdown ColumnType = "dropdown"
)

// Option is one entry of a static option list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CellRenderer replaces the default cell, including its edit affordances.
type CellRenderer[T any] func(value any, row T, index int) gomponents.Node

// Column describes one displayed field.
type Column[T any] struct {
	Key        string
	Label      string
	Sortable   bool
	Filterable bool
	Searchable bool
	Editable   bool
	Type       ColumnType
	// Width is the grid track, e.g. "200px" or "minmax(120px, 1fr)".
	Width    string
	Renderer CellRenderer[T]
	// Options is the static option list of a select column.
	Options []Option
	// DropdownType names the remote catalog (enterprise, product, service,
	// template) backing a dropdown column.
	DropdownType string
	// Multi turns a dropdown into a chip multi-select.
	Multi bool
	// Accessor overrides the default lookup of Key in the row.
	Accessor func(row T) any
}

// Value reads the column value from row. Missing keys read as nil.
func (c *Column[T]) Value(row T) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	return fieldValue(row, c.Key)
}

// Interactive reports whether the default cell offers editing. A custom
// renderer always disables it.
func (c *Column[T]) Interactive() bool {
	return c.Editable && c.Renderer == nil
}

// AsyncSelect reports whether the column edits through a catalog selector.
func (c *Column[T]) AsyncSelect() bool {
	return c.Type == TypeDropdown && c.DropdownType != ""
}

// OptionLabel returns the label for value, or value itself if no option matches.
func (c *Column[T]) OptionLabel(value string) string {
	for i := range c.Options {
		if c.Options[i].Value == value {
			return c.Options[i].Label
		}
	}
	return value
}

func (c *Column[T]) width() string {
	if c.Width != "" {
		return c.Width
	}
	return "minmax(120px, 1fr)"
}

// Record is the dynamic row type used for REST resources.
type Record map[string]any

// ID returns the "id" field stringified.
func (r Record) ID() string {
	return Stringify(r["id"])
}

// fieldValue reads key from a map row or a struct field (by name, json tag
// or case-insensitive name).
func fieldValue(row any, key string) any {
	switch m := row.(type) {
	case nil:
		return nil
	case Record:
		return m[key]
	case map[string]any:
		return m[key]
	case map[string]string:
		if v, ok := m[key]; ok {
			return v
		}
		return nil
	}

	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	if f := v.FieldByName(key); f.IsValid() && f.CanInterface() {
		return f.Interface()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == key || (tag == "" && strings.EqualFold(sf.Name, key)) {
			return v.Field(i).Interface()
		}
	}
	return nil
}

// RowKey derives the stable identifier of a row.
type RowKey[T any] func(row T) string

// KeyField derives the identifier from a field of the row.
func KeyField[T any](field string) RowKey[T] {
	return func(row T) string {
		return Stringify(fieldValue(row, field))
	}
}
