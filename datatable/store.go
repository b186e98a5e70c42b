package datatable

import "fmt"

// rowStore holds the rows in their current order together with their ids.
type rowStore[T any] struct {
	rows  []T
	ids   []string
	index map[string]int
}

func (s *rowStore[T]) replace(rows []T, key RowKey[T]) error {
	ids := make([]string, len(rows))
	index := make(map[string]int, len(rows))
	for i := range rows {
		id := key(rows[i])
		if id == "" {
			return fmt.Errorf("row %d: %w", i, ErrMissingRowKey)
		}
		if _, dup := index[id]; dup {
			return fmt.Errorf("row %d id %q: %w", i, id, ErrDuplicateRowKey)
		}
		ids[i] = id
		index[id] = i
	}

	s.rows = append(make([]T, 0, len(rows)), rows...)
	s.ids = ids
	s.index = index
	return nil
}

func (s *rowStore[T]) get(id string) (T, bool) {
	if i, ok := s.index[id]; ok {
		return s.rows[i], true
	}
	var zero T
	return zero, false
}

func (s *rowStore[T]) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// set replaces the row stored under id in place.
func (s *rowStore[T]) set(id string, row T) bool {
	i, ok := s.index[id]
	if ok {
		s.rows[i] = row
	}
	return ok
}

func (s *rowStore[T]) add(id string, row T) bool {
	if id == "" || s.has(id) {
		return false
	}
	s.rows = append(s.rows, row)
	s.ids = append(s.ids, id)
	s.index[id] = len(s.ids) - 1
	return true
}

func (s *rowStore[T]) remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	s.reindex()
	return true
}

// move removes the row activeID and inserts it at the position of overID.
func (s *rowStore[T]) move(activeID, overID string) error {
	from, ok := s.index[activeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, activeID)
	}
	to, ok := s.index[overID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, overID)
	}
	if from == to {
		return nil
	}

	row, id := s.rows[from], s.ids[from]
	s.rows = append(s.rows[:from], s.rows[from+1:]...)
	s.ids = append(s.ids[:from], s.ids[from+1:]...)

	s.rows = append(s.rows[:to], append([]T{row}, s.rows[to:]...)...)
	s.ids = append(s.ids[:to], append([]string{id}, s.ids[to:]...)...)
	s.reindex()
	return nil
}

func (s *rowStore[T]) reindex() {
	for i, id := range s.ids {
		s.index[id] = i
	}
	for id, i := range s.index {
		if i >= len(s.ids) || s.ids[i] != id {
			delete(s.index, id)
		}
	}
}

func (s *rowStore[T]) snapshot() []T {
	return append(make([]T, 0, len(s.rows)), s.rows...)
}
