package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-account-service/pkg/response"
)

// Registry collects feature modules and mounts them under /api.
type Registry struct {
	Engine *gin.Engine
	API    *gin.RouterGroup

	middlewares []gin.HandlerFunc
	modules     []Module
	health      map[string]bool
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api"), health: map[string]bool{}}
}

// Use queues middleware applied to the /api group before any module route.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// Report records whether a named backend is wired; the map is served by GET /api/health.
func (r *Registry) Report(name string, up bool) {
	r.health[name] = up
}

func (r *Registry) RegisterAll() {
	r.API.Use(r.middlewares...)
	r.API.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, r.health, "ok", nil)
	})
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
