package logger

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Options struct {
	// Logger defaults to the global logger.
	Logger *zerolog.Logger

	// FieldsExclude defines contextual fields to not display in output.
	FieldsExclude []string

	// SkipPaths are not logged unless the request fails.
	SkipPaths []string
}

const (
	ClientIPFieldName   = "client_ip"
	UserAgentFieldName  = "user_agent"
	DurationFieldName   = "elapsed"
	MethodFieldName     = "method"
	PathFieldName       = StrPath
	UserFieldName       = StrUser
	HTMXFieldName       = "htmx"
	statusCodeFieldName = "status_code"
	DataLengthFieldName = "data_length"
)

// GinLogger is a gin middleware which use zerolog.
func GinLogger() gin.HandlerFunc {
	return LoggerWithOptions(&Options{})
}

// LoggerWithOptions is a gin middleware which use zerolog. The user is read
// from the StrUser key of the gin context once the handlers have run.
// Successful htmx requests are logged at debug level since every grid action
// issues one.
func LoggerWithOptions(opt *Options) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		z := opt.Logger
		if z == nil {
			z = &log
		}
		if z.GetLevel() == zerolog.Disabled {
			ctx.Next()
			return
		}

		begin := time.Now()
		path := ctx.Request.URL.Path
		if raw := ctx.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		ctx.Next()

		statusCode := ctx.Writer.Status()
		htmx := strings.EqualFold(ctx.GetHeader("HX-Request"), "true")

		var event *zerolog.Event
		switch {
		case statusCode >= 500:
			event = z.Error()
		case statusCode >= 400:
			event = z.Warn()
		case slices.Contains(opt.SkipPaths, ctx.Request.URL.Path):
			return
		case htmx:
			event = z.Debug()
		default:
			event = z.Info()
		}

		if !opt.isExcluded(ClientIPFieldName) {
			event.Str(ClientIPFieldName, ctx.ClientIP())
		}
		if ua := ctx.Request.UserAgent(); ua != "" && !opt.isExcluded(UserAgentFieldName) {
			event.Str(UserAgentFieldName, ua)
		}
		if user := ctx.GetString(StrUser); user != "" && !opt.isExcluded(UserFieldName) {
			event.Str(UserFieldName, user)
		}
		if !opt.isExcluded(MethodFieldName) {
			event.Str(MethodFieldName, ctx.Request.Method)
		}
		if !opt.isExcluded(PathFieldName) {
			event.Str(PathFieldName, path)
		}
		if htmx && !opt.isExcluded(HTMXFieldName) {
			event.Bool(HTMXFieldName, true)
		}
		if !opt.isExcluded(DurationFieldName) {
			event.Dur(DurationFieldName, time.Since(begin))
		}
		if !opt.isExcluded(statusCodeFieldName) {
			event.Int(statusCodeFieldName, statusCode)
		}
		if ctx.Writer.Size() > 0 && !opt.isExcluded(DataLengthFieldName) {
			event.Int(DataLengthFieldName, ctx.Writer.Size())
		}

		message := ctx.Errors.String()
		if message == "" {
			message = "Request"
		}
		event.Msg(message)
	}
}

// isExcluded check if a field is excluded from the output.
func (o *Options) isExcluded(field string) bool {
	return slices.Contains(o.FieldsExclude, field)
}
