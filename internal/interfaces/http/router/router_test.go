package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("catalog", "/catalog")
	group.GET("/products", func(c *gin.Context) {
		c.String(http.StatusOK, "products")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/catalog/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())
}

func TestRouterUse_AppliesToEveryGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	r.Register(NewDomainGroup("cart", "/cart").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })).
		Register(NewDomainGroup("orders", "/orders").GET("", func(c *gin.Context) { c.Status(http.StatusOK) })).
		Setup()

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders"} {
		w := serve(engine, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "yes", w.Header().Get("X-Api"), path)
	}

	// routes outside the API prefix are untouched
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		g := NewDomainGroup("test", "/test").
			GET("/a", ok).
			POST("/b", ok).
			PUT("/c", ok).
			PATCH("/d", ok).
			DELETE("/e", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/api/v1/test/a"},
			{http.MethodPost, "/api/v1/test/b"},
			{http.MethodPut, "/api/v1/test/c"},
			{http.MethodPatch, "/api/v1/test/d"},
			{http.MethodDelete, "/api/v1/test/e"},
		}
		for _, tt := range tests {
			assert.Equal(t, http.StatusOK, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
		assert.Equal(t, 5, g.RouteCount())
	})

	t.Run("group middleware does not leak to siblings", func(t *testing.T) {
		engine := gin.New()
		root := NewDomainGroup("admin", "/admin")
		root.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		root.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
		public := NewDomainGroup("catalog", "/catalog")
		public.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })

		api := engine.Group("/api/v1")
		root.RegisterRoutes(api)
		public.RegisterRoutes(api)

		assert.Equal(t, http.StatusForbidden, serve(engine, http.MethodGet, "/api/v1/admin/users").Code)
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/catalog/products").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("manufacturer", "/manufacturer")
		g.Group("products", "/products").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "products")
		})
		g.Group("payouts", "/payouts").GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "payouts")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/manufacturer/products")
		assert.Equal(t, "products", w.Body.String())
		w = serve(engine, http.MethodGet, "/api/v1/manufacturer/payouts")
		assert.Equal(t, "payouts", w.Body.String())
		assert.Equal(t, 2, g.RouteCount())
	})
}
