package editor

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

// DefaultFetchTimeout bounds a single option lookup.
const DefaultFetchTimeout = 10 * time.Second

// ChipSelector edits the values of a dropdown cell bound to a catalog.
//
// Every lookup cancels the one before it. A response is applied only if it
// belongs to the latest lookup, its query is still current and the
// selector is open; anything else is dropped.
type ChipSelector struct {
	source   catalog.Source
	kind     catalog.Kind
	multi    bool
	onChange func(values []string) error

	// FetchTimeout overrides DefaultFetchTimeout when positive.
	FetchTimeout time.Duration

	mu      sync.Mutex
	open    bool
	query   string
	seq     uint64
	cancel  context.CancelFunc
	loading bool
	options []catalog.Entry
	values  []string
	wg      sync.WaitGroup
}

// NewChipSelector returns a closed selector holding values. In single mode
// only the first value is kept.
func NewChipSelector(source catalog.Source, kind catalog.Kind, multi bool, values []string, onChange func(values []string) error) *ChipSelector {
	s := &ChipSelector{source: source, kind: kind, multi: multi, onChange: onChange}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(s.values, v) {
			s.values = append(s.values, v)
		}
	}
	if !multi && len(s.values) > 1 {
		s.values = s.values[:1]
	}
	return s
}

// Kind returns the catalog the selector is bound to.
func (s *ChipSelector) Kind() catalog.Kind { return s.kind }

// Multi reports whether several values can be selected.
func (s *ChipSelector) Multi() bool { return s.multi }

// Open shows the option list and starts loading the unfiltered catalog.
func (s *ChipSelector) Open(ctx context.Context) {
	s.mu.Lock()
	s.open = true
	s.query = ""
	s.fetchLocked(ctx, "")
	s.mu.Unlock()
}

// SetQuery starts a lookup for query without waiting for it.
func (s *ChipSelector) SetQuery(ctx context.Context, query string) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.query = query
	s.fetchLocked(ctx, query)
	s.mu.Unlock()
}

// Search runs a lookup for query and waits for it. The options are empty
// when the lookup failed, was superseded or ctx ended first.
func (s *ChipSelector) Search(ctx context.Context, query string) []catalog.Entry {
	s.mu.Lock()
	s.open = true
	s.query = query
	done := s.fetchLocked(ctx, query)
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return s.Options()
}

// fetchLocked cancels the running lookup and starts a new one. The returned
// channel closes when the lookup has been applied or dropped.
func (s *ChipSelector) fetchLocked(ctx context.Context, query string) <-chan struct{} {
	if s.cancel != nil {
		s.cancel()
	}
	timeout := s.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.loading = true

	done := make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		defer cancel()

		entries, err := s.source.List(fetchCtx, s.kind, strings.TrimSpace(query))

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.seq || query != s.query || !s.open {
			return
		}
		s.loading = false
		s.cancel = nil
		if err != nil {
			logger.Logtype(logger.StrWarn, 0).Err(err).Str(logger.StrCatalog, string(s.kind)).Str(logger.StrQuery, query).Msg("option lookup failed")
			s.options = nil
			return
		}
		s.options = entries
	}()
	return done
}

// Options returns the options of the latest applied lookup.
func (s *ChipSelector) Options() []catalog.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.options)
}

// Values returns the selected values.
func (s *ChipSelector) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.values)
}

// Query returns the current query.
func (s *ChipSelector) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// IsOpen reports whether the option list is shown.
func (s *ChipSelector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Loading reports whether a lookup is in flight.
func (s *ChipSelector) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CanCreate reports whether the current query names no existing option.
func (s *ChipSelector) CanCreate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.TrimSpace(s.query)
	if q == "" || s.loading {
		return false
	}
	for _, e := range s.options {
		if strings.EqualFold(e.Name, q) {
			return false
		}
	}
	return true
}

// Select adds value. In single mode it replaces the selection and closes
// the selector. When onChange fails the selection is restored and the
// selector stays open.
func (s *ChipSelector) Select(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	s.mu.Lock()
	prev := slices.Clone(s.values)
	if s.multi {
		if slices.Contains(s.values, value) {
			s.mu.Unlock()
			return nil
		}
		s.values = append(s.values, value)
	} else {
		s.values = []string{value}
	}
	values := slices.Clone(s.values)
	s.mu.Unlock()

	if err := s.changed(values, prev); err != nil {
		return err
	}
	if !s.multi {
		s.Close()
	}
	return nil
}

// Remove drops value from the selection. When onChange fails the value is
// put back.
func (s *ChipSelector) Remove(value string) error {
	s.mu.Lock()
	i := slices.Index(s.values, value)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	prev := slices.Clone(s.values)
	s.values = slices.Delete(s.values, i, i+1)
	values := slices.Clone(s.values)
	s.mu.Unlock()
	return s.changed(values, prev)
}

// Create adds name to the catalog, cancels the running lookup and selects
// the new entry. The entry is returned even when saving the selection fails.
func (s *ChipSelector) Create(ctx context.Context, name string) (catalog.Entry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return catalog.Entry{}, apperrors.New(apperrors.ErrClassValidation, "create_option", "name must not be empty")
	}
	entry, err := s.source.Create(ctx, s.kind, name)
	if err != nil {
		return catalog.Entry{}, err
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.loading = false
	if s.multi && !slices.ContainsFunc(s.options, func(e catalog.Entry) bool { return e.ID == entry.ID }) {
		s.options = append(s.options, entry)
	}
	s.query = ""
	s.mu.Unlock()
	return entry, s.Select(entry.Name)
}

// Close hides the option list and cancels the running lookup.
func (s *ChipSelector) Close() {
	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()
}

func (s *ChipSelector) closeLocked() {
	s.open = false
	s.loading = false
	s.options = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Wait blocks until running lookups have returned.
func (s *ChipSelector) Wait() {
	s.wg.Wait()
}

// changed reports values to onChange. On failure the selection goes back
// to prev unless it was changed again meanwhile.
func (s *ChipSelector) changed(values, prev []string) error {
	if s.onChange == nil {
		return nil
	}
	err := s.onChange(values)
	if err == nil {
		return nil
	}
	s.mu.Lock()
	if slices.Equal(s.values, values) {
		s.values = prev
	}
	s.mu.Unlock()
	return err
}
