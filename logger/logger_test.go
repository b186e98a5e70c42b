package logger

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestInitLogger_CustomTimeFormat(t *testing.T) {
	config := Config{
		TimeFormat: "2006-01-02 15:04:05",
		LogLevel:   "info",
	}
	InitLogger(config)

	if timeFormat != config.TimeFormat {
		t.Errorf("Expected timeFormat to be %s, got %s", config.TimeFormat, timeFormat)
	}
}

func TestInitLogger_DebugLevel(t *testing.T) {
	InitLogger(Config{LogLevel: "Debug"})

	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %s", log.GetLevel())
	}
}

func TestLogtype_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	Logtype("invalid_level", 0).Str("field", "value").Msg("test message")

	if !strings.Contains(buf.String(), `"level":"info"`) {
		t.Errorf("Expected fallback to info level, got %s", buf.String())
	}
}

func TestLogDynamicany_MixedTypes(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	LogDynamicany("warn", "test message",
		"table", "users",
		"page", 3,
		"visible", true,
		"elapsed", 2*time.Second,
		errors.New("test error"),
	)

	out := buf.String()
	for _, want := range []string{`"table":"users"`, `"page":3`, `"visible":true`, `"error":"test error"`, `"level":"warn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
}

func TestGinLogger_StatusLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	SetOutput(&buf)

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing?x=1", nil))

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("Expected warn level for 404, got %s", out)
	}
	if !strings.Contains(out, `"path":"/missing?x=1"`) {
		t.Errorf("Expected path with query, got %s", out)
	}
}

func TestGinLogger_UserAndSkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	SetOutput(&buf)

	router := gin.New()
	router.Use(LoggerWithOptions(&Options{SkipPaths: []string{"/health"}, FieldsExclude: []string{UserAgentFieldName}}))
	router.GET("/health", func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	router.POST("/console/users/search", func(c *gin.Context) {
		c.Set(StrUser, "amy")
		c.Status(http.StatusForbidden)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("Expected skipped path to stay silent, got %s", buf.String())
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health?fail=1", nil))
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("Expected failing skipped path to be logged, got %s", buf.String())
	}

	buf.Reset()
	req := httptest.NewRequest(http.MethodPost, "/console/users/search", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("User-Agent", "test-agent")
	router.ServeHTTP(httptest.NewRecorder(), req)
	out := buf.String()
	for _, want := range []string{`"user":"amy"`, `"htmx":true`, `"status_code":403`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
	if strings.Contains(out, "test-agent") {
		t.Errorf("Expected user agent to be excluded, got %s", out)
	}
}
