package datatable

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// The query pipeline runs search, filters, sort and pagination in that
// order. No stage modifies its input; a stage with nothing to do returns
// the input slice itself and Paginate returns a subslice of it.

// Search keeps the rows where at least one searchable column contains
// query, ignoring case. Hidden columns are still searched. A blank query
// keeps every row.
func Search[T any](rows []T, cols []Column[T], query string) []T {
	query = strings.TrimSpace(query)
	if query == "" {
		return rows
	}

	folder := cases.Fold()
	needle := folder.String(query)

	searchable := make([]*Column[T], 0, len(cols))
	for i := range cols {
		if cols[i].Searchable {
			searchable = append(searchable, &cols[i])
		}
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, col := range searchable {
			if strings.Contains(folder.String(Stringify(col.Value(row))), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

type filterCheck[T any] struct {
	col    *Column[T]
	needle string
}

// Filter keeps the rows matching every non-blank filter. A filter matches
// when the stringified column value contains the filter value, ignoring
// case. Filters naming unknown columns are ignored.
func Filter[T any](rows []T, cols []Column[T], filters map[string]string) []T {
	folder := cases.Fold()
	var checks []filterCheck[T]
	for key, value := range filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if col := findColumn(cols, key); col != nil {
			checks = append(checks, filterCheck[T]{col: col, needle: folder.String(value)})
		}
	}
	if len(checks) == 0 {
		return rows
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, check := range checks {
			if !strings.Contains(folder.String(Stringify(check.col.Value(row))), check.needle) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

// Sort orders rows by the column named in spec with a stable sort. A nil
// spec or an unknown column keeps the current order.
func Sort[T any](rows []T, cols []Column[T], spec *SortSpec) []T {
	if spec == nil || len(rows) < 2 {
		return rows
	}
	col := findColumn(cols, spec.Key)
	if col == nil {
		return rows
	}

	sign := 1
	if spec.Direction == Desc {
		sign = -1
	}

	values := make([]any, len(rows))
	order := make([]int, len(rows))
	for i := range rows {
		values[i] = col.Value(rows[i])
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sign*Compare(values[order[i]], values[order[j]], col.Type) < 0
	})

	out := make([]T, len(rows))
	for i, idx := range order {
		out[i] = rows[idx]
	}
	return out
}

// Page is one slice of the sorted rows.
type Page[T any] struct {
	Rows []T
	// Number is the 1-based page actually shown after clamping.
	Number  int
	Size    int
	MaxPage int
	Total   int
	// Offset is the position of Rows[0] within the full sequence.
	Offset int
}

// Paginate slices rows to page (1-based) of size. The page is clamped into
// [1, maxPage] where maxPage = max(1, ceil(n/size)). A size <= 0 disables
// pagination.
func Paginate[T any](rows []T, page, size int) Page[T] {
	n := len(rows)
	if size <= 0 {
		return Page[T]{Rows: rows, Number: 1, Size: size, MaxPage: 1, Total: n}
	}

	maxPage := (n + size - 1) / size
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	start := (page - 1) * size
	end := start + size
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return Page[T]{Rows: rows[start:end], Number: page, Size: size, MaxPage: maxPage, Total: n, Offset: start}
}

// Apply runs the whole pipeline for state.
func Apply[T any](rows []T, cols []Column[T], state *ControlState) Page[T] {
	out := Search(rows, cols, state.Search)
	out = Filter(out, cols, state.Filters)
	out = Sort(out, cols, state.Sort)
	return Paginate(out, state.Page, state.PageSize)
}

func findColumn[T any](cols []Column[T], key string) *Column[T] {
	for i := range cols {
		if cols[i].Key == key {
			return &cols[i]
		}
	}
	return nil
}
