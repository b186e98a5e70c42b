package datatable

import (
	"sort"
	"strings"
)

// Direction of a column sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec names the sorted column. A nil *SortSpec keeps insertion order.
type SortSpec struct {
	Key       string    `json:"key"`
	Direction Direction `json:"direction"`
}

// Set is a set of string identifiers.
type Set map[string]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips membership of id and reports whether it is now present.
func (s Set) Toggle(id string) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Keys returns the members in sorted order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Set) clone() Set {
	c := make(Set, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// ControlState drives the query pipeline. A screen with its own toolbar
// owns the state and hands it to the table with Options.State.
type ControlState struct {
	Search   string            `json:"search"`
	Filters  map[string]string `json:"filters"`
	Sort     *SortSpec         `json:"sort,omitempty"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Hidden   Set               `json:"-"`
	Expanded Set               `json:"-"`
	Selected Set               `json:"-"`
}

// NewControlState returns an empty state on page 1.
func NewControlState(pageSize int) *ControlState {
	return &ControlState{
		Filters:  make(map[string]string),
		Page:     1,
		PageSize: pageSize,
		Hidden:   make(Set),
		Expanded: make(Set),
		Selected: make(Set),
	}
}

func (s *ControlState) ensure() {
	if s.Filters == nil {
		s.Filters = make(map[string]string)
	}
	if s.Hidden == nil {
		s.Hidden = make(Set)
	}
	if s.Expanded == nil {
		s.Expanded = make(Set)
	}
	if s.Selected == nil {
		s.Selected = make(Set)
	}
	if s.Page < 1 {
		s.Page = 1
	}
}

// Clone returns a deep copy.
func (s *ControlState) Clone() *ControlState {
	c := &ControlState{
		Search:   s.Search,
		Filters:  make(map[string]string, len(s.Filters)),
		Page:     s.Page,
		PageSize: s.PageSize,
		Hidden:   s.Hidden.clone(),
		Expanded: s.Expanded.clone(),
		Selected: s.Selected.clone(),
	}
	for k, v := range s.Filters {
		c.Filters[k] = v
	}
	if s.Sort != nil {
		sortSpec := *s.Sort
		c.Sort = &sortSpec
	}
	return c
}

// SetSearch replaces the search query and returns to page 1.
func (s *ControlState) SetSearch(query string) {
	s.Search = query
	s.Page = 1
}

// SetFilter sets or clears (blank value) the filter of a column and
// returns to page 1.
func (s *ControlState) SetFilter(key, value string) {
	if strings.TrimSpace(value) == "" {
		delete(s.Filters, key)
	} else {
		s.Filters[key] = value
	}
	s.Page = 1
}

func (s *ControlState) ClearFilters() {
	s.Filters = make(map[string]string)
	s.Page = 1
}

// ToggleSort cycles the sort of key through asc, desc and none. Sorting a
// different column starts at asc.
func (s *ControlState) ToggleSort(key string) {
	switch {
	case s.Sort == nil || s.Sort.Key != key:
		s.Sort = &SortSpec{Key: key, Direction: Asc}
	case s.Sort.Direction == Asc:
		s.Sort.Direction = Desc
	default:
		s.Sort = nil
	}
}

func (s *ControlState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// SetPageSize changes the page size and returns to page 1.
func (s *ControlState) SetPageSize(size int) {
	s.PageSize = size
	s.Page = 1
}

// QueryActive reports whether a sort, a non-blank filter or a non-blank
// search is applied.
func (s *ControlState) QueryActive() bool {
	if s.Sort != nil || strings.TrimSpace(s.Search) != "" {
		return true
	}
	for _, v := range s.Filters {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
