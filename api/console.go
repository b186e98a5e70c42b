package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

// renderConfig returns the render settings of sc for the request.
func (s *Server) renderConfig(c *gin.Context, sc *screen) datatable.RenderConfig[record] {
	endpoint := datatable.Endpoint(consolePath(sc.def.Resource))
	return datatable.RenderConfig[record]{
		Endpoint:  endpoint,
		CSRFToken: getCSRFToken(c),
		PageSizes: s.cfg.Table.PageSizes,
		Cell: func(row datatable.ViewRow[record], col *column) gomponents.Node {
			edit := sc.current(row.ID, col.Key)
			if edit == nil {
				return nil
			}
			if edit.chips != nil {
				return chipEditor(sc, endpoint, row.ID, col, edit)
			}
			return datatable.TextEditorInput(sc.def.Resource, endpoint, row.ID, col.Key, col.Type, edit.text.Draft(), col.Options)
		},
	}
}

func chipEditor(sc *screen, endpoint datatable.Endpoint, rowID string, col *column, edit *cellEdit) gomponents.Node {
	values := edit.chips.Values()
	entries := edit.chips.Options()
	opts := make([]datatable.Option, 0, len(entries))
	for _, e := range entries {
		if col.Multi && slices.Contains(values, e.Name) {
			continue
		}
		opts = append(opts, datatable.Option{Value: e.Name, Label: e.Name})
	}
	return datatable.ChipEditor(datatable.ChipEditorProps{
		Name:      sc.def.Resource,
		Endpoint:  endpoint,
		RowID:     rowID,
		Key:       col.Key,
		Label:     col.Label,
		Multi:     col.Multi,
		Values:    values,
		Options:   opts,
		Query:     edit.chips.Query(),
		CanCreate: edit.chips.CanCreate(),
		Loading:   edit.chips.Loading(),
	})
}

// consoleScreen resolves the screen named by the :resource parameter.
func (s *Server) consoleScreen(c *gin.Context) (*screen, bool) {
	sc, err := s.screenFor(c.Request.Context(), currentSession(c), c.Param("resource"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return sc, true
}

// consolePage renders the full page of a screen. The rows are reloaded
// from the database, which drops any manual reorder.
func (s *Server) consolePage(c *gin.Context) {
	sc, ok := s.consoleScreen(c)
	if !ok {
		return
	}
	if err := s.reload(c.Request.Context(), sc); err != nil {
		handleError(c, err)
		return
	}
	sc.mu.Lock()
	sc.closeEditorLocked()
	sc.mu.Unlock()

	renderHTML(c, http.StatusOK, page(sc.def.Title, c,
		navigation(sc.def.Resource, currentSession(c)),
		html.Main(
			html.Class("container-fluid py-3"),
			html.H1(html.Class("h4 mb-3"), gomponents.Text(sc.def.Title)),
			gomponents.If(c.Query("linked") != "", html.Div(html.Class("alert alert-success"), gomponents.Textf("Linked %s account", c.Query("linked")))),
			sc.table.Render(s.renderConfig(c, sc)),
		),
	))
}

// grid wraps a handler that changes sc and answers with the grid.
func (s *Server) grid(fn func(c *gin.Context, sc *screen) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc, ok := s.consoleScreen(c)
		if !ok {
			return
		}
		if fn != nil {
			if err := fn(c, sc); err != nil {
				handleError(c, err)
				return
			}
		}
		renderHTML(c, http.StatusOK, sc.table.RenderGrid(s.renderConfig(c, sc)))
	}
}

func (s *Server) savePrefs(c *gin.Context, sc *screen) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.SaveState(currentSession(c).UserID, sc.def.Resource, sc.table.State()); err != nil {
		logger.LogDynamicanyErr(logger.StrWarn, "could not save table preferences", err)
	}
}

func formInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(c.PostForm(name)))
	return n, err == nil
}

func (s *Server) registerConsole(rg *gin.RouterGroup) {
	rg.GET("/:resource", s.consolePage)
	rg.GET("/:resource/grid", s.grid(nil))

	rg.POST("/:resource/search", s.grid(func(c *gin.Context, sc *screen) error {
		sc.table.SetSearch(c.PostForm(StrSearch))
		return nil
	}))
	rg.POST("/:resource/filter", s.grid(func(c *gin.Context, sc *screen) error {
		return sc.table.SetFilter(c.PostForm("key"), c.PostForm("value"))
	}))
	rg.POST("/:resource/sort", s.grid(func(c *gin.Context, sc *screen) error {
		return sc.table.ToggleSort(c.PostForm("key"))
	}))
	rg.POST("/:resource/page", s.grid(func(c *gin.Context, sc *screen) error {
		if page, ok := formInt(c, "page"); ok {
			sc.table.SetPage(page)
		}
		return nil
	}))
	rg.POST("/:resource/pagesize", s.grid(func(c *gin.Context, sc *screen) error {
		size, ok := formInt(c, "size")
		if !ok || (len(s.cfg.Table.PageSizes) > 0 && !slices.Contains(s.cfg.Table.PageSizes, size)) {
			return errInvalid("page size", c.PostForm("size"))
		}
		sc.table.SetPageSize(size)
		s.savePrefs(c, sc)
		return nil
	}))
	rg.POST("/:resource/columns", s.grid(func(c *gin.Context, sc *screen) error {
		if _, err := sc.table.ToggleColumn(c.PostForm("key")); err != nil {
			return err
		}
		s.savePrefs(c, sc)
		return nil
	}))
	rg.POST("/:resource/reorder", s.grid(func(c *gin.Context, sc *screen) error {
		return sc.table.Reorder(c.PostForm("active"), c.PostForm("over"))
	}))
	rg.POST("/:resource/quick-add", s.grid(func(_ *gin.Context, sc *screen) error {
		return sc.table.QuickAddRow()
	}))

	rg.POST("/:resource/rows/:id/expand", s.grid(func(c *gin.Context, sc *screen) error {
		_, err := sc.table.ToggleExpanded(c.Param(StrID))
		return err
	}))
	rg.POST("/:resource/rows/:id/select", s.grid(func(c *gin.Context, sc *screen) error {
		_, err := sc.table.ToggleSelected(c.Param(StrID))
		return err
	}))
	rg.DELETE("/:resource/rows/:id", s.grid(func(c *gin.Context, sc *screen) error {
		sc.closeRow(c.Param(StrID))
		return sc.table.Delete(c.Param(StrID))
	}))

	cell := "/:resource/rows/:id/cells/:key"
	rg.GET(cell+"/edit", s.grid(func(c *gin.Context, sc *screen) error {
		return s.startEditor(c.Request.Context(), sc, c.Param(StrID), c.Param("key"))
	}))
	rg.POST(cell+"/commit", s.grid(func(c *gin.Context, sc *screen) error {
		pressed := c.PostForm("key")
		if pressed == "" || pressed == "undefined" {
			pressed = datatable.KeyEnter
		}
		return s.commitText(c.Request.Context(), sc, c.Param(StrID), c.Param("key"), c.PostForm("value"), pressed)
	}))
	rg.POST(cell+"/cancel", s.grid(func(c *gin.Context, sc *screen) error {
		if edit := sc.current(c.Param(StrID), c.Param("key")); edit != nil && edit.text != nil {
			if _, err := edit.text.Key(datatable.KeyEscape); err != nil {
				return err
			}
		}
		sc.closeEditor(c.Param(StrID), c.Param("key"))
		return nil
	}))
	rg.GET(cell+"/options", s.grid(func(c *gin.Context, sc *screen) error {
		edit, err := s.chipEdit(c, sc)
		if err != nil {
			return err
		}
		edit.chips.Search(c.Request.Context(), c.Query("q"))
		return nil
	}))
	rg.POST(cell+"/chips", s.grid(func(c *gin.Context, sc *screen) error {
		edit, err := s.chipEdit(c, sc)
		if err != nil {
			return err
		}
		if err := edit.chips.Select(c.PostForm("value")); err != nil {
			return err
		}
		if !edit.chips.IsOpen() {
			sc.closeEditor(c.Param(StrID), c.Param("key"))
		}
		return nil
	}))
	rg.POST(cell+"/chips/create", s.grid(func(c *gin.Context, sc *screen) error {
		edit, err := s.chipEdit(c, sc)
		if err != nil {
			return err
		}
		if _, err := edit.chips.Create(c.Request.Context(), c.PostForm(StrName)); err != nil {
			return err
		}
		if !edit.chips.IsOpen() {
			sc.closeEditor(c.Param(StrID), c.Param("key"))
		}
		return nil
	}))
	rg.POST(cell+"/chips/remove", s.grid(func(c *gin.Context, sc *screen) error {
		rowID, key := c.Param(StrID), c.Param("key")
		if edit := sc.current(rowID, key); edit != nil && edit.chips != nil {
			return edit.chips.Remove(c.PostForm("value"))
		}
		return s.removeChip(sc, rowID, key, c.PostForm("value"))
	}))
}

// chipEdit returns the open chip selector of the requested cell.
func (s *Server) chipEdit(c *gin.Context, sc *screen) (*cellEdit, error) {
	edit := sc.current(c.Param(StrID), c.Param("key"))
	if edit == nil || edit.chips == nil {
		return nil, errNoEditor
	}
	return edit, nil
}

// removeChip drops value from a chip cell that has no open selector.
func (s *Server) removeChip(sc *screen, rowID, key, value string) error {
	col, ok := sc.table.Column(key)
	if !ok {
		return datatable.ErrUnknownColumn
	}
	row, ok := sc.table.Row(rowID)
	if !ok {
		return datatable.ErrUnknownRow
	}
	values := slices.DeleteFunc(datatable.ChipValues(col.Value(row)), func(v string) bool { return v == value })
	if col.Multi {
		return sc.table.UpdateCell(rowID, key, values)
	}
	if len(values) == 0 {
		return sc.table.UpdateCell(rowID, key, "")
	}
	return sc.table.UpdateCell(rowID, key, values[0])
}

func navigation(active string, session *Session) gomponents.Node {
	items := make([]gomponents.Node, 0, len(screenDefs))
	for _, name := range screenNames() {
		class := "nav-link"
		if name == active {
			class += " active"
		}
		items = append(items, html.Li(html.Class("nav-item"),
			html.A(html.Class(class), html.Href(consolePath(name)), gomponents.Text(screenDefs[name].Title)),
		))
	}
	var user gomponents.Node
	if session != nil {
		user = html.Form(
			html.Method("post"),
			html.Action("/logout"),
			html.Class("ms-auto d-flex align-items-center gap-2"),
			html.Input(html.Type("hidden"), html.Name(StrCSRF), html.Value(session.CSRFToken)),
			html.Span(html.Class("navbar-text"), gomponents.Text(session.UserID)),
			html.Button(html.Type("submit"), html.Class("btn btn-sm btn-outline-light"), gomponents.Text("Sign out")),
		)
	}
	return html.Nav(
		html.Class("navbar navbar-expand navbar-dark bg-dark px-3"),
		html.A(html.Class("navbar-brand"), html.Href("/"), gomponents.Text("CI/CD Console")),
		html.Ul(html.Class("navbar-nav flex-wrap"), gomponents.Group(items)),
		user,
	)
}
