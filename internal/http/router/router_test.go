package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type cfg struct{ allowAll bool }

func (cfg) GetHTTPAddr() string                { return ":0" }
func (c cfg) GetCORSAllowAll() bool            { return c.allowAll }
func (cfg) GetCORSOrigins() []string           { return []string{"https://example.com"} }
func (cfg) GetCORSAllowCreds() bool            { return true }
func (cfg) GetJWTAccessSecret() string         { return "secret" }
func (cfg) GetPhoneDefaultRegion() string      { return "NL" }
func (cfg) GetLeadDedupeWindow() time.Duration { return time.Minute }
func (cfg) GetPublicSubmitRatePerMinute() int  { return 1 }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type stubModule struct{}

func (stubModule) Name() string { return "stub" }
func (stubModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Public.POST("/echo", func(c *gin.Context) { c.Status(http.StatusCreated) })
	ctx.Admin.GET("/secret", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  cfg{},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{stubModule{}},
	})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(pinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	newEngine(pinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPublicRoutesAreRateLimited(t *testing.T) {
	engine := newEngine(nil)
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/public/echo", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/secret", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/echo", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, req)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
