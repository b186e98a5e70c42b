package datatable

import "errors"

var (
	// ErrReorderDisabled is returned by Reorder while a sort, filter or search is active.
	ErrReorderDisabled = errors.New("manual reorder is disabled while sort, filter or search is active")

	ErrUnknownRow    = errors.New("unknown row id")
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotEditable   = errors.New("column is not editable")
	ErrNotFilterable = errors.New("column is not filterable")
	ErrNotSortable   = errors.New("column is not sortable")

	// ErrDuplicateRowKey is returned when two rows derive the same identifier.
	ErrDuplicateRowKey = errors.New("duplicate row key")
	// ErrMissingRowKey is returned when a row derives an empty identifier or no key is configured.
	ErrMissingRowKey   = errors.New("missing row key")
	ErrDuplicateColumn = errors.New("duplicate column key")
)
