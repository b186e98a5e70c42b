package api

import (
	"github.com/gin-gonic/gin"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const consoleStyle = `
	.dt-head { font-weight: 600; border-bottom: 2px solid #dee2e6; }
	.dt-head, .dt-body > [role=row] { gap: .5rem; padding: .4rem .25rem; align-items: center; }
	.dt-body > [role=row] { border-bottom: 1px solid #f0f0f0; }
	.dt-editable { cursor: pointer; }
	.dt-editable:hover { background-color: #f8f9fa; }
	.dt-chip { margin-right: .25rem; }
	.dt-chip-placeholder, .dt-empty { color: #6c757d; }
	.dt-detail { background-color: #f8f9fa; }
	mark { padding: 0; background-color: #fff3cd; }
`

// page wraps body in the console layout. With a request context the
// CSRF token is published as a meta tag for scripts.
func page(title string, c *gin.Context, body ...gomponents.Node) gomponents.Node {
	var csrf gomponents.Node
	if c != nil {
		csrf = html.Meta(html.Name(StrCSRF), html.Content(getCSRFToken(c)))
	}
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
				csrf,
				html.TitleEl(gomponents.Text(title+" | CI/CD Console")),
				html.Link(html.Href("https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"), html.Rel("stylesheet")),
				html.Script(html.Src("https://unpkg.com/htmx.org@2.0.4")),
				html.StyleEl(gomponents.Raw(consoleStyle)),
			),
			html.Body(body...),
		),
	)
}
