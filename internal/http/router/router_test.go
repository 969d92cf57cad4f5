package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "parksmart_backend/internal/http"
	"parksmart_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerConfig struct {
	origins []string
	limit   int
}

func (c routerConfig) GetHTTPAddr() string           { return ":0" }
func (c routerConfig) GetCORSAllowAll() bool         { return false }
func (c routerConfig) GetCORSOrigins() []string      { return c.origins }
func (c routerConfig) GetAPIRateLimitPerMinute() int { return c.limit }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	ctx.Streams.GET("/stream", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func newApp(health apphttp.HealthChecker) *apphttp.App {
	return &apphttp.App{
		Config:  routerConfig{origins: []string{"http://localhost:5173"}, limit: 1},
		Logger:  logger.Discard(),
		Health:  health,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("parksmart_up 1\n")) }),
		Modules: []apphttp.Module{pingModule{}},
	}
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealthReflectsPinger(t *testing.T) {
	rec := serve(New(newApp(pinger{})), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serve(New(newApp(pinger{err: errors.New("redis down")})), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "degraded") {
		t.Fatalf("expected degraded health, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	rec := serve(New(newApp(nil)), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "parksmart_up") {
		t.Fatalf("unexpected metrics response %d %s", rec.Code, rec.Body.String())
	}
}

func TestStreamsBypassRateLimit(t *testing.T) {
	engine := New(newApp(nil))

	if rec := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	if rec := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be limited, got %d", rec.Code)
	}
	for i := 0; i < 3; i++ {
		if rec := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/stream", nil)); rec.Code != http.StatusNoContent {
			t.Fatalf("expected stream route to be unlimited, got %d", rec.Code)
		}
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(New(newApp(nil)), req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected origin to be allowed, got %q (status %d)", got, rec.Code)
	}
}
