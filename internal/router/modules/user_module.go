package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-account-service/internal/interface/http"
	"github.com/oksasatya/go-account-service/internal/interface/middleware"
)

// UserModule routes the account endpoints.
// Public: POST /users, POST /login
// Protected: GET /me, GET /users, GET /users/search, GET /users/:id, POST /logout
// Self only: DELETE /users/:id, PUT /users/:id/password, POST /users/:id/avatar
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     middleware.TokenParser
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt middleware.TokenParser, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users", signupLimiter, m.Handler.Create)
	rg.POST("/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(m.Redis, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/me", m.Handler.Me)
		auth.GET("/users", m.Handler.List)
		auth.GET("/users/search", m.Handler.Search)
		auth.GET("/users/:id", m.Handler.Get)
	}

	self := auth.Group("/")
	self.Use(middleware.SelfOnly("id"))
	{
		self.DELETE("/users/:id", m.Handler.Delete)
		self.PUT("/users/:id/password", m.Handler.ChangePassword)
		self.POST("/users/:id/avatar", m.Handler.UploadAvatar)
	}
}
