package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-account-service/pkg/response"
)

// ipFromCtx extracts the client IP set by RealIP, falling back to Gin's view.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c *gin.Context) string

func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// KeyByUserID limits per authenticated user; anonymous callers fall back to their IP.
func KeyByUserID() KeyFunc {
	return func(c *gin.Context) string {
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			return "rl:user:anon:ip:" + ipFromCtx(c)
		}
		return "rl:user:" + uid
	}
}

// INCR and set the window on the first hit, atomically. Returns {count, pttl}.
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

var errBadScriptReply = errors.New("rate limit: unexpected script reply")

type AllowFunc func(*gin.Context) bool // true bypasses the limit

// windowHit is the outcome of counting one request in a fixed window.
type windowHit struct {
	count   int64
	resetIn time.Duration
}

func (h windowHit) remaining(max int) int {
	if left := int64(max) - h.count; left > 0 {
		return int(left)
	}
	return 0
}

// resetSeconds rounds the time left in the window up to whole seconds.
func (h windowHit) resetSeconds() int {
	if h.resetIn <= 0 {
		return 0
	}
	return int((h.resetIn + time.Second - 1) / time.Second)
}

func countHit(c *gin.Context, rdb redis.Scripter, key string, window time.Duration) (windowHit, error) {
	vals, err := incrExpireScript.Run(c.Request.Context(), rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return windowHit{}, err
	}
	if len(vals) != 2 {
		return windowHit{}, errBadScriptReply
	}
	return windowHit{count: vals[0], resetIn: time.Duration(vals[1]) * time.Millisecond}, nil
}

// RateLimit allows max requests per window per key. It fails open when Redis
// is unavailable and is a no-op when rdb is nil.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, allow AllowFunc) gin.HandlerFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || (allow != nil && allow(c)) {
			c.Next()
			return
		}

		hit, err := countHit(c, rdb, keyFn(c), window)
		if err != nil {
			c.Next()
			return
		}

		reset := strconv.Itoa(hit.resetSeconds())
		c.Header("X-RateLimit-Limit", strconv.Itoa(max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(hit.remaining(max)))
		c.Header("X-RateLimit-Reset", reset)

		if hit.count > int64(max) {
			c.Header("Retry-After", reset)
			response.Error[any](c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
