package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"heat_controller/internal/logger"
	"heat_controller/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// minimal router wiring only the request logger and canned endpoints
func newLoggerOnlyRouter(log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{}, nil, log)
	r.Use(h.requestLogger)
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRequestLogger_Levels(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		status int
		level  zapcore.Level
	}{
		{name: "success", path: "/ok", status: http.StatusOK, level: zapcore.InfoLevel},
		{name: "client error", path: "/bad", status: http.StatusBadRequest, level: zapcore.InfoLevel},
		{name: "server error", path: "/boom", status: http.StatusBadGateway, level: zapcore.ErrorLevel},
		{name: "health probe", path: "/health", status: http.StatusOK, level: zapcore.DebugLevel},
		{name: "unmatched route", path: "/nope", status: http.StatusNotFound, level: zapcore.InfoLevel},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			r := newLoggerOnlyRouter(&logger.Logger{SugaredLogger: zap.New(core).Sugar()})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path+"?x=1", nil))

			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("expected one http_request entry, got %d", len(entries))
			}
			e := entries[0]
			if e.Level != tc.level {
				t.Fatalf("level = %v; want %v", e.Level, tc.level)
			}
			fields := e.ContextMap()
			if fields["path"] != tc.path || fields["method"] != http.MethodGet {
				t.Fatalf("unexpected fields %v", fields)
			}
			if got, ok := fields["status"].(int64); !ok || got != int64(tc.status) {
				t.Fatalf("status field = %v; want %d", fields["status"], tc.status)
			}
			if _, ok := fields["took"]; !ok {
				t.Fatalf("missing took field in %v", fields)
			}
		})
	}
}

func TestRequestLogger_NilLogger(t *testing.T) {
	r := newLoggerOnlyRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
}
