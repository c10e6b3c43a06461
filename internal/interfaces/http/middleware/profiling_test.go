package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func labelEcho(c *gin.Context) {
	route, _ := pprof.Label(c.Request.Context(), "route")
	method, _ := pprof.Label(c.Request.Context(), "method")
	c.String(http.StatusOK, route+"|"+method)
}

func TestProfilingWithConfig(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingWithConfig(DefaultProfilingConfig()))
	router.GET("/api/v1/orders/:id", labelEcho)
	router.GET("/health", labelEcho)

	t.Run("labels requests with the route pattern", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))
		assert.Equal(t, "/api/v1/orders/:id|GET", rec.Body.String())
	})

	t.Run("skips health checks", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, "|", rec.Body.String())
	})
}

func TestProfilingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))
	router.GET("/api/v1/products", labelEcho)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, "|", rec.Body.String())
}
