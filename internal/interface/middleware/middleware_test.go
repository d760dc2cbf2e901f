package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-account-service/pkg/helpers"
)

type stubParser struct {
	claims *helpers.Claims
	seen   string
}

func (s *stubParser) ParseToken(tok string) (*helpers.Claims, error) {
	s.seen = tok
	if tok != "good" {
		return nil, errors.New("bad token")
	}
	return s.claims, nil
}

func newAuthRouter(p TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users/:id", Auth(p), SelfOnly("id"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey)+":"+c.GetString(CtxUsernameKey))
	})
	return r
}

func TestAuth(t *testing.T) {
	p := &stubParser{claims: &helpers.Claims{UserID: "u1", Username: "bob"}}
	r := newAuthRouter(p)

	cases := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
	}{
		{"missing token", "/users/u1", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad bearer", "/users/u1", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer ok", "/users/u1", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie ok", "/users/u1", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "good"})
		}, http.StatusOK},
		{"other user", "/users/u2", func(req *http.Request) { req.Header.Set("Authorization", "bearer good") }, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "u1:bob", w.Body.String())
			}
		})
	}
}

func TestAuthPrefersBearerOverCookie(t *testing.T) {
	p := &stubParser{claims: &helpers.Claims{UserID: "u1"}}
	r := newAuthRouter(p)
	req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "stale"})
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "good", p.seen)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	given := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, given, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	cases := map[string]map[string]string{
		"203.0.113.7": {"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
		"198.51.100.1": {"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
		"192.0.2.1":    {"X-Forwarded-For": "garbage"},
	}
	for want, headers := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(nil, 1, 0, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestKeyFuncs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	c.Set("real_ip", "10.1.2.3")

	assert.Equal(t, "rl:ip:10.1.2.3", KeyByIP()(c))
	assert.Equal(t, "rl:user:anon:ip:10.1.2.3", KeyByUserID()(c))
	assert.True(t, AllowPrivateIP()(c))

	c.Set(CtxUserIDKey, "u9")
	assert.Equal(t, "rl:user:u9", KeyByUserID()(c))
}

func TestWindowHit(t *testing.T) {
	h := windowHit{count: 3, resetIn: 1500 * time.Millisecond}
	assert.Equal(t, 2, h.remaining(5))
	assert.Equal(t, 2, h.resetSeconds())

	over := windowHit{count: 7}
	assert.Equal(t, 0, over.remaining(5))
	assert.Equal(t, 0, over.resetSeconds())
}
