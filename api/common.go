// Package api serves the console: the REST resources, the server rendered
// table screens with their htmx handlers and OAuth credential linking.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/datatable"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"maragu.dev/gomponents"
)

const (
	StrID      = "id"
	StrName    = "name"
	StrSearch  = "search"
	StrSession = "session"
	StrCSRF    = "csrf_token"

	csrfHeader    = "X-CSRF-Token"
	sessionCookie = "session_id"
)

// sendJSONError sends {"error": message}.
func sendJSONError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{logger.StatusError: message})
}

func sendBadRequest(ctx *gin.Context, message string) {
	sendJSONError(ctx, http.StatusBadRequest, message)
}

func sendUnauthorized(ctx *gin.Context, message string) {
	sendJSONError(ctx, http.StatusUnauthorized, message)
}

func sendForbidden(ctx *gin.Context, message string) {
	sendJSONError(ctx, http.StatusForbidden, message)
}

func sendNotFound(ctx *gin.Context, message string) {
	sendJSONError(ctx, http.StatusNotFound, message)
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsClass(err, apperrors.ErrClassValidation), apperrors.IsClass(err, apperrors.ErrClassConfig):
		return http.StatusBadRequest
	case apperrors.IsClass(err, apperrors.ErrClassNotFound):
		return http.StatusNotFound
	case apperrors.IsClass(err, apperrors.ErrClassAuth):
		return http.StatusUnauthorized
	case apperrors.IsClass(err, apperrors.ErrClassCatalog), apperrors.IsClass(err, apperrors.ErrClassNetwork):
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, datatable.ErrUnknownRow), errors.Is(err, datatable.ErrUnknownColumn):
		return http.StatusNotFound
	case errors.Is(err, datatable.ErrReorderDisabled):
		return http.StatusConflict
	case errors.Is(err, datatable.ErrNotEditable), errors.Is(err, datatable.ErrNotFilterable),
		errors.Is(err, datatable.ErrNotSortable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errInvalid(what, value string) error {
	return apperrors.New(apperrors.ErrClassValidation, "request", "invalid "+what).WithContext("value", value)
}

// handleError logs err and sends it as JSON.
func handleError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		apperrors.LogClassifiedError(logger.Logtype(logger.StrError, 1), err).Str("path", ctx.FullPath()).Msg("request failed")
	}
	sendJSONError(ctx, status, err.Error())
}

// getCSRFToken extracts the CSRF token of the session from gin context.
func getCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(StrCSRF); exists {
		return token.(string)
	}
	return ""
}

// renderHTML writes node with the given status.
func renderHTML(c *gin.Context, status int, node gomponents.Node) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := node.Render(c.Writer); err != nil {
		logger.LogDynamicanyErr(logger.StrError, "render failed", err)
	}
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("HX-Request"), "true")
}
