package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
)

func (cl *client) screen(name string) *screen {
	cl.ts.t.Helper()
	sc, err := cl.ts.srv.screenFor(context.Background(), cl.session, name)
	require.NoError(cl.ts.t, err)
	return sc
}

func (ts *testServer) storedErr(resource, id string) error {
	res, err := database.Lookup(resource)
	require.NoError(ts.t, err)
	_, err = ts.db.Get(context.Background(), res, id)
	return err
}

func rowIDs(rows []record) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].ID()
	}
	return out
}

func TestConsolePage(t *testing.T) {
	ts := newTestServer(t)
	ts.create("users", map[string]any{"name": "Amy"})
	cl := ts.login()

	w := cl.get("/console/users")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Users | CI/CD Console")
	assert.Contains(t, body, `id="`+datatable.GridID("users")+`"`)
	assert.Contains(t, body, cl.session.CSRFToken)
	assert.Contains(t, body, "Amy")

	w = cl.get("/console/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, errorOf(t, w))
}

func TestConsolePageReloadsRows(t *testing.T) {
	ts := newTestServer(t)
	cl := ts.login()
	require.Equal(t, http.StatusOK, cl.get("/console/users").Code)

	ts.create("users", map[string]any{"name": "Late"})
	assert.NotContains(t, cl.get("/console/users/grid").Body.String(), "Late", "grid actions keep the loaded rows")
	assert.Contains(t, cl.get("/console/users").Body.String(), "Late")
}

func TestConsoleSearchFilterSort(t *testing.T) {
	ts := newTestServer(t)
	ts.create("users", map[string]any{"name": "Amy", "role": "admin"})
	ts.create("users", map[string]any{"name": "Bob", "role": "viewer"})
	cl := ts.login()
	sc := cl.screen("users")

	w := cl.form(http.MethodPost, "/console/users/search", url.Values{StrSearch: {"bob"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<mark>Bob</mark>")
	assert.NotContains(t, w.Body.String(), "Amy")

	w = cl.form(http.MethodPost, "/console/users/search", url.Values{StrSearch: {"  "}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amy")

	w = cl.form(http.MethodPost, "/console/users/filter", url.Values{"key": {"role"}, "value": {"ADM"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amy")
	assert.NotContains(t, w.Body.String(), "Bob")
	cl.form(http.MethodPost, "/console/users/filter", url.Values{"key": {"role"}, "value": {""}})

	w = cl.form(http.MethodPost, "/console/users/sort", url.Values{"key": {"name"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sc.table.State().Sort)
	assert.Equal(t, datatable.SortSpec{Key: "name", Direction: datatable.Asc}, *sc.table.State().Sort)
	cl.form(http.MethodPost, "/console/users/sort", url.Values{"key": {"name"}})
	assert.Equal(t, datatable.Desc, sc.table.State().Sort.Direction)

	w = cl.form(http.MethodPost, "/console/users/sort", url.Values{"key": {"groups"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = cl.form(http.MethodPost, "/console/users/sort", url.Values{"key": {"nope"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsolePreferences(t *testing.T) {
	ts := newTestServer(t)
	cl := ts.login()

	w := cl.form(http.MethodPost, "/console/users/pagesize", url.Values{"size": {"25"}})
	require.Equal(t, http.StatusOK, w.Code)
	w = cl.form(http.MethodPost, "/console/users/pagesize", url.Values{"size": {"7"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = cl.form(http.MethodPost, "/console/users/columns", url.Values{"key": {"email"}})
	require.Equal(t, http.StatusOK, w.Code)

	p, ok, err := ts.prefs.Get("admin", "users")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 25, p.PageSize)
	assert.Equal(t, []string{"email"}, p.Hidden)

	other := ts.login()
	state := other.screen("users").table.State()
	assert.Equal(t, 25, state.PageSize)
	assert.True(t, state.Hidden.Has("email"))
}

func TestConsoleInlineEdit(t *testing.T) {
	ts := newTestServer(t)
	amy := ts.create("users", map[string]any{"name": "Amy"})
	id := amy["id"].(string)
	cl := ts.login()
	sc := cl.screen("users")
	cell := "/console/users/rows/" + id + "/cells/"

	w := cl.get(cell + "name/edit")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dt-editor")
	require.NotNil(t, sc.current(id, "name"))

	w = cl.form(http.MethodPost, cell+"name/commit", url.Values{"value": {"Amelia"}, "key": {datatable.KeyTab}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Amelia", ts.stored("users", id)["name"])
	assert.Nil(t, sc.current(id, "name"))
	assert.NotNil(t, sc.current(id, "email"), "tab moves to the next editable cell")

	w = cl.form(http.MethodPost, cell+"email/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, sc.current(id, "email"))
	assert.Equal(t, "", ts.stored("users", id)["email"])

	w = cl.form(http.MethodPost, cell+"email/commit", url.Values{"value": {"a@example.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "no editor is open")

	cl.get(cell + "role/edit")
	w = cl.form(http.MethodPost, cell+"role/commit", url.Values{"value": {"admin"}, "key": {"undefined"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", ts.stored("users", id)["role"])

	w = cl.get(cell + "active/edit")
	assert.Equal(t, http.StatusBadRequest, w.Code, "rendered cells are not editable")
	w = cl.get("/console/users/rows/missing/cells/name/edit")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConsoleBlankRequiredKeepsEditor(t *testing.T) {
	ts := newTestServer(t)
	amy := ts.create("users", map[string]any{"name": "Amy"})
	id := amy["id"].(string)
	cl := ts.login()
	sc := cl.screen("users")

	cl.get("/console/users/rows/" + id + "/cells/name/edit")
	w := cl.form(http.MethodPost, "/console/users/rows/"+id+"/cells/name/commit", url.Values{"value": {" "}, "key": {datatable.KeyEnter}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	edit := sc.current(id, "name")
	require.NotNil(t, edit)
	assert.Equal(t, " ", edit.text.Draft())
	assert.Equal(t, "Amy", ts.stored("users", id)["name"])
}

func TestConsoleRows(t *testing.T) {
	ts := newTestServer(t)
	amy := ts.create("users", map[string]any{"name": "Amy"})
	id := amy["id"].(string)
	cl := ts.login()
	sc := cl.screen("users")

	w := cl.form(http.MethodPost, "/console/users/rows/"+id+"/expand", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sc.table.State().Expanded.Has(id))
	w = cl.form(http.MethodPost, "/console/users/rows/"+id+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sc.table.State().Selected.Has(id))
	w = cl.form(http.MethodPost, "/console/users/rows/missing/expand", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = cl.form(http.MethodPost, "/console/users/quick-add", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sc.table.Rows(), 2)
	assert.Contains(t, w.Body.String(), "New user")

	w = cl.request(http.MethodDelete, "/console/users/rows/"+id, nil, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sc.table.Rows(), 1)
	assert.True(t, apperrors.IsClass(ts.storedErr("users", id), apperrors.ErrClassNotFound))
	assert.False(t, sc.table.State().Expanded.Has(id))
}

func TestConsoleQuickAddUniqueNames(t *testing.T) {
	ts := newTestServer(t)
	cl := ts.login()
	for range 2 {
		require.Equal(t, http.StatusOK, cl.form(http.MethodPost, "/console/groups/quick-add", nil).Code)
	}
	assert.Len(t, cl.screen("groups").table.Rows(), 2)
}

func TestConsoleReorder(t *testing.T) {
	ts := newTestServer(t)
	first := ts.create("pipelines", map[string]any{"name": "Alpha"})["id"].(string)
	second := ts.create("pipelines", map[string]any{"name": "Beta"})["id"].(string)
	cl := ts.login()
	sc := cl.screen("pipelines")
	require.Equal(t, []string{first, second}, rowIDs(sc.table.Rows()))

	w := cl.form(http.MethodPost, "/console/pipelines/reorder", url.Values{"active": {second}, "over": {first}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{second, first}, rowIDs(sc.table.Rows()))

	cl.form(http.MethodPost, "/console/pipelines/search", url.Values{StrSearch: {"a"}})
	w = cl.form(http.MethodPost, "/console/pipelines/reorder", url.Values{"active": {first}, "over": {second}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []string{second, first}, rowIDs(sc.table.Rows()))

	cl.get("/console/pipelines")
	assert.Equal(t, []string{first, second}, rowIDs(sc.table.Rows()), "a page load restores stored order")
}

func TestConsoleChipSelector(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create("pipelines", map[string]any{"name": "Alpha"})["id"].(string)
	cl := ts.login()
	sc := cl.screen("pipelines")
	cell := "/console/pipelines/rows/" + id + "/cells/services/"

	w := cl.get(cell + "edit")
	require.Equal(t, http.StatusOK, w.Code)
	edit := sc.current(id, "services")
	require.NotNil(t, edit)
	require.NotNil(t, edit.chips)
	assert.Equal(t, []string{"Build", "Release", "Test"}, catalog.Names(edit.chips.Options()))
	assert.Contains(t, w.Body.String(), "Release")

	w = cl.get(cell + "options?q=rel")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Release"}, catalog.Names(edit.chips.Options()))

	w = cl.form(http.MethodPost, cell+"chips", url.Values{"value": {"Build"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Build"}, ts.stored("pipelines", id)["services"])

	w = cl.form(http.MethodPost, cell+"chips/create", url.Values{StrName: {"Deploy"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Build", "Deploy"}, ts.stored("pipelines", id)["services"])
	entries, err := catalog.NewStore(ts.db).List(context.Background(), catalog.KindService, "deploy")
	require.NoError(t, err)
	assert.Equal(t, []string{"Deploy"}, catalog.Names(entries))

	w = cl.form(http.MethodPost, cell+"chips/remove", url.Values{"value": {"Build"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Deploy"}, ts.stored("pipelines", id)["services"])
	require.NotNil(t, sc.current(id, "services"), "multi selectors stay open")

	w = cl.form(http.MethodPost, cell+"chips/create", url.Values{StrName: {" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsoleSingleChip(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create("pipelines", map[string]any{"name": "Alpha"})["id"].(string)
	cl := ts.login()
	sc := cl.screen("pipelines")
	cell := "/console/pipelines/rows/" + id + "/cells/enterprise/"

	require.Equal(t, http.StatusOK, cl.get(cell+"edit").Code)
	w := cl.form(http.MethodPost, cell+"chips", url.Values{"value": {"Globex"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Globex", ts.stored("pipelines", id)["enterprise"])
	assert.Nil(t, sc.current(id, "enterprise"), "single selection closes the selector")

	w = cl.form(http.MethodPost, cell+"chips", url.Values{"value": {"Acme Corp"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "no selector is open")

	w = cl.form(http.MethodPost, cell+"chips/remove", url.Values{"value": {"Globex"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", ts.stored("pipelines", id)["enterprise"])
}

func TestConsoleChipSaveFailureRestoresSelection(t *testing.T) {
	ts := newTestServer(t)
	id := ts.create("pipelines", map[string]any{"name": "Alpha"})["id"].(string)
	cl := ts.login()
	sc := cl.screen("pipelines")
	cell := "/console/pipelines/rows/" + id + "/cells/services/"

	require.Equal(t, http.StatusOK, cl.get(cell+"edit").Code)
	require.Equal(t, http.StatusOK, cl.form(http.MethodPost, cell+"chips", url.Values{"value": {"Build"}}).Code)
	edit := sc.current(id, "services")
	require.NotNil(t, edit)

	res, err := database.Lookup("pipelines")
	require.NoError(t, err)
	require.NoError(t, ts.db.Delete(context.Background(), res, id))

	w := cl.form(http.MethodPost, cell+"chips", url.Values{"value": {"Test"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"Build"}, edit.chips.Values(), "unsaved chip is not shown")

	w = cl.form(http.MethodPost, cell+"chips/remove", url.Values{"value": {"Build"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []string{"Build"}, edit.chips.Values())
}

func TestConsoleChipCreateRejectedByCatalog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Build","slug":"build"}]`))
	}))
	t.Cleanup(upstream.Close)
	remote, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL:         upstream.URL,
		Timeout:         2 * time.Second,
		RatePerSecond:   1000,
		Burst:           100,
		BreakerFailures: 2,
		BreakerReset:    time.Minute,
	})
	require.NoError(t, err)

	ts := newTestServer(t, func(_ *config.MainConfig, d *Deps) { d.Catalogs = remote })
	id := ts.create("pipelines", map[string]any{"name": "Alpha"})["id"].(string)
	cl := ts.login()
	sc := cl.screen("pipelines")
	cell := "/console/pipelines/rows/" + id + "/cells/services/"

	require.Equal(t, http.StatusOK, cl.get(cell+"edit").Code)
	w := cl.form(http.MethodPost, cell+"chips/create", url.Values{StrName: {"Deploy"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Empty(t, ts.stored("pipelines", id)["services"])
	assert.NotNil(t, sc.current(id, "services"))
}

func TestStatusForWrappedClasses(t *testing.T) {
	rejected := apperrors.New(apperrors.ErrClassValidation, "catalog_request", "request rejected")
	assert.Equal(t, http.StatusBadRequest, statusFor(apperrors.Wrap(apperrors.ErrClassCatalog, "create", rejected)))
	missing := apperrors.New(apperrors.ErrClassNotFound, "find", "no row")
	assert.Equal(t, http.StatusNotFound, statusFor(apperrors.Wrap(apperrors.ErrClassCatalog, "create", missing)))
	assert.Equal(t, http.StatusBadGateway, statusFor(apperrors.Wrap(apperrors.ErrClassCatalog, "create", context.DeadlineExceeded)))
}
