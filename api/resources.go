package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tripleh1701-dev/ppp-fe-sub014/catalog"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
)

// prepareValues derives the slug of catalog entries from their name.
func prepareValues(res *database.Resource, values map[string]any) map[string]any {
	if !res.Catalog {
		return values
	}
	if name, ok := values["name"]; ok {
		if slug, _ := values["slug"].(string); strings.TrimSpace(slug) == "" {
			values["slug"] = catalog.Slug(datatable.Stringify(name))
		}
	}
	return values
}

func (s *Server) resource(c *gin.Context) (*database.Resource, bool) {
	res, err := database.Lookup(c.Param("resource"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return res, true
}

func bindValues(c *gin.Context) (map[string]any, bool) {
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		sendBadRequest(c, err.Error())
		return nil, false
	}
	return values, true
}

// listResource answers GET /api/:resource[?search=].
func (s *Server) listResource(c *gin.Context) {
	res, ok := s.resource(c)
	if !ok {
		return
	}
	rows, err := s.db.List(c.Request.Context(), res, c.Query(StrSearch))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// getResource answers GET /api/:resource/:id.
func (s *Server) getResource(c *gin.Context) {
	res, ok := s.resource(c)
	if !ok {
		return
	}
	row, err := s.db.Get(c.Request.Context(), res, c.Param(StrID))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// createResource answers POST /api/:resource. Catalog entries with a known
// slug are returned instead of duplicated.
func (s *Server) createResource(c *gin.Context) {
	res, ok := s.resource(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	if res.Catalog {
		kind, err := catalog.ParseKind(res.Name)
		if err != nil {
			handleError(c, err)
			return
		}
		entry, err := catalog.NewStore(s.db).Create(c.Request.Context(), kind, datatable.Stringify(values["name"]))
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
		return
	}
	row, err := s.db.Create(c.Request.Context(), res, values)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// updateResource answers PUT /api/:resource with the id in the body.
func (s *Server) updateResource(c *gin.Context) {
	res, ok := s.resource(c)
	if !ok {
		return
	}
	values, ok := bindValues(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(datatable.Stringify(values[StrID]))
	if id == "" {
		sendBadRequest(c, "missing id")
		return
	}
	row, err := s.db.Update(c.Request.Context(), res, id, prepareValues(res, values))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// deleteResource answers DELETE /api/:resource/:id.
func (s *Server) deleteResource(c *gin.Context) {
	res, ok := s.resource(c)
	if !ok {
		return
	}
	if err := s.db.Delete(c.Request.Context(), res, c.Param(StrID)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{StrID: c.Param(StrID)})
}
