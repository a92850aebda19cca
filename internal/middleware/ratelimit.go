package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/tabledadrian/adrian-backend/internal/config"
	"github.com/tabledadrian/adrian-backend/internal/handler"
)

// bucketScript refills `refill` tokens every `interval_ms` up to `capacity`
// and takes one. Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

if interval_ms > 0 and refill > 0 then
  local elapsed = math.max(0, now_ms - last_refill)
  local intervals = math.floor(elapsed / interval_ms)
  if intervals > 0 then
    tokens = math.min(capacity, tokens + intervals * refill)
    last_refill = last_refill + intervals * interval_ms
  end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// RateLimit allows cfg.Limit requests per cfg.Window for each client ip and
// route. With no redis client, or when disabled, it passes everything
// through; redis errors fail open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return passthrough
	}
	interval := cfg.Window / time.Duration(cfg.Limit)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ttl := int64(math.Ceil((2 * cfg.Window).Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, c)
			vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Limit, 1, interval.Milliseconds(), ttl).Result()
			if err != nil {
				c.Logger().Warnf("[ratelimit] key=%s redis error: %v", key, err)
				return next(c)
			}
			arr, ok := vals.([]interface{})
			if !ok || len(arr) != 3 {
				c.Logger().Warnf("[ratelimit] key=%s unexpected script result %#v", key, vals)
				return next(c)
			}
			allowed := asInt64(arr[0]) == 1
			remaining := asInt64(arr[1])
			retryMs := asInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if allowed {
				return next(c)
			}
			secs := int(math.Ceil(float64(retryMs) / 1000))
			if secs < 1 {
				secs = 1
			}
			h.Set("Retry-After", strconv.Itoa(secs))
			return c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate_limited",
				fmt.Sprintf("Too many requests. Try again in %d seconds.", secs)))
		}
	}
}

func rateKey(prefix string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{prefix, "ip", ip, "route", c.Request().Method + " " + c.Path()}, ":")
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
