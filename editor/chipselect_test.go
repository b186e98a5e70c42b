package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
)

// gatedSource answers a lookup only once its query is released.
type gatedSource struct {
	mu        sync.Mutex
	entries   []catalog.Entry
	gates     map[string]chan struct{}
	cancelled []string
	fail      bool
	created   []string
	// ignoreCancel answers even after the lookup was cancelled.
	ignoreCancel bool
}

func newGatedSource(names ...string) *gatedSource {
	src := &gatedSource{gates: map[string]chan struct{}{}}
	for _, n := range names {
		src.entries = append(src.entries, catalog.Entry{ID: catalog.Slug(n), Name: n, Slug: catalog.Slug(n)})
	}
	return src
}

func (g *gatedSource) gate(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[query]
	if !ok {
		ch = make(chan struct{})
		g.gates[query] = ch
	}
	return ch
}

func (g *gatedSource) release(query string) { close(g.gate(query)) }

func (g *gatedSource) List(ctx context.Context, _ catalog.Kind, query string) ([]catalog.Entry, error) {
	if g.ignoreCancel {
		<-g.gate(query)
		return g.match(query)
	}
	select {
	case <-g.gate(query):
	case <-ctx.Done():
		g.mu.Lock()
		g.cancelled = append(g.cancelled, query)
		g.mu.Unlock()
		return nil, ctx.Err()
	}
	return g.match(query)
}

func (g *gatedSource) match(query string) ([]catalog.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("catalog down")
	}
	var out []catalog.Entry
	for _, e := range g.entries {
		if strings.Contains(strings.ToLower(e.Name), strings.ToLower(query)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *gatedSource) Create(_ context.Context, _ catalog.Kind, name string) (catalog.Entry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := catalog.Entry{ID: "new-" + catalog.Slug(name), Name: name, Slug: catalog.Slug(name)}
	g.entries = append(g.entries, e)
	g.created = append(g.created, name)
	return e, nil
}

func TestChipSelectorCancelsSupersededLookups(t *testing.T) {
	src := newGatedSource("Build", "Test", "Release")
	sel := NewChipSelector(src, catalog.KindService, true, nil, nil)

	sel.Open(context.Background())
	sel.SetQuery(context.Background(), "b")
	sel.SetQuery(context.Background(), "te")
	src.release("te")
	sel.Wait()

	assert.Equal(t, []string{"Test"}, catalog.Names(sel.Options()))
	assert.False(t, sel.Loading())
	assert.ElementsMatch(t, []string{"", "b"}, src.cancelled)
}

func TestChipSelectorDropsStaleResponses(t *testing.T) {
	src := newGatedSource("Build", "Test", "Release")
	src.ignoreCancel = true
	sel := NewChipSelector(src, catalog.KindService, true, nil, nil)

	sel.Open(context.Background())
	sel.SetQuery(context.Background(), "b")
	sel.SetQuery(context.Background(), "te")

	src.release("te")
	assert.Eventually(t, func() bool {
		return len(sel.Options()) == 1
	}, time.Second, 5*time.Millisecond)

	src.release("b")
	src.release("")
	sel.Wait()
	assert.Equal(t, []string{"Test"}, catalog.Names(sel.Options()), "older responses arriving late are ignored")
}

func TestChipSelectorCloseCancels(t *testing.T) {
	src := newGatedSource("Build")
	sel := NewChipSelector(src, catalog.KindService, false, nil, nil)
	sel.Open(context.Background())
	sel.Close()
	sel.Wait()

	assert.Equal(t, []string{""}, src.cancelled)
	assert.Empty(t, sel.Options())
	assert.False(t, sel.IsOpen())

	sel.SetQuery(context.Background(), "b")
	assert.Equal(t, "", sel.Query(), "closed selector ignores queries")
}

func TestChipSelectorFetchFailureKeepsOpen(t *testing.T) {
	src := newGatedSource("Build")
	src.fail = true
	src.release("bu")
	sel := NewChipSelector(src, catalog.KindService, true, nil, nil)

	opts := sel.Search(context.Background(), "bu")
	assert.Empty(t, opts)
	assert.True(t, sel.IsOpen())
	assert.False(t, sel.Loading())
}

func TestChipSelectorSelectAndRemove(t *testing.T) {
	var changes [][]string
	onChange := func(v []string) error {
		changes = append(changes, v)
		return nil
	}

	multi := NewChipSelector(newGatedSource(), catalog.KindService, true, []string{"Build", " ", "Build"}, onChange)
	assert.Equal(t, []string{"Build"}, multi.Values())
	multi.Select("Test")
	multi.Select("Test")
	multi.Remove("Build")
	multi.Remove("Missing")
	multi.Remove("Test")
	assert.Empty(t, multi.Values())
	assert.Equal(t, [][]string{{"Build", "Test"}, {"Test"}, {}}, changes)

	changes = nil
	src := newGatedSource("Acme", "Globex")
	src.release("")
	single := NewChipSelector(src, catalog.KindEnterprise, false, []string{"Acme", "Globex"}, onChange)
	assert.Equal(t, []string{"Acme"}, single.Values())
	single.Search(context.Background(), "")
	single.Select("Globex")
	assert.Equal(t, []string{"Globex"}, single.Values())
	assert.False(t, single.IsOpen(), "single selection closes the list")
	assert.Equal(t, [][]string{{"Globex"}}, changes)
}

func TestChipSelectorCreate(t *testing.T) {
	src := newGatedSource("Build")
	src.release("Deploy")
	var last []string
	sel := NewChipSelector(src, catalog.KindService, true, []string{"Build"}, func(v []string) error {
		last = v
		return nil
	})

	sel.Search(context.Background(), "Deploy")
	assert.True(t, sel.CanCreate())

	entry, err := sel.Create(context.Background(), " Deploy ")
	require.NoError(t, err)
	assert.Equal(t, "Deploy", entry.Name)
	assert.Equal(t, []string{"Build", "Deploy"}, last)
	assert.Equal(t, []string{"Deploy"}, src.created)
	assert.False(t, sel.CanCreate())

	_, err = sel.Create(context.Background(), "  ")
	require.Error(t, err)
}

func TestChipSelectorRestoresOnSaveFailure(t *testing.T) {
	errSave := errors.New("row is gone")
	fail := false
	onChange := func([]string) error {
		if fail {
			return errSave
		}
		return nil
	}

	multi := NewChipSelector(newGatedSource(), catalog.KindService, true, []string{"Build"}, onChange)
	fail = true
	require.ErrorIs(t, multi.Select("Test"), errSave)
	assert.Equal(t, []string{"Build"}, multi.Values())
	require.ErrorIs(t, multi.Remove("Build"), errSave)
	assert.Equal(t, []string{"Build"}, multi.Values())

	src := newGatedSource("Acme", "Globex")
	src.release("")
	single := NewChipSelector(src, catalog.KindEnterprise, false, []string{"Acme"}, onChange)
	single.Search(context.Background(), "")
	require.ErrorIs(t, single.Select("Globex"), errSave)
	assert.Equal(t, []string{"Acme"}, single.Values())
	assert.True(t, single.IsOpen(), "a failed selection keeps the list open")

	fail = false
	require.NoError(t, single.Select("Globex"))
	assert.False(t, single.IsOpen())
}

func TestChipSelectorCreateCancelsLookup(t *testing.T) {
	src := newGatedSource("Build")
	sel := NewChipSelector(src, catalog.KindService, true, nil, nil)

	sel.Open(context.Background())
	sel.SetQuery(context.Background(), "Dep")
	require.True(t, sel.Loading())

	_, err := sel.Create(context.Background(), "Deploy")
	require.NoError(t, err)
	assert.False(t, sel.Loading())
	assert.False(t, sel.CanCreate())
	sel.Wait()

	assert.Contains(t, src.cancelled, "Dep")
	assert.Equal(t, []string{"Deploy"}, sel.Values())
	assert.Equal(t, []string{"Deploy"}, catalog.Names(sel.Options()))
}
