package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/tabledadrian/adrian-backend/internal/config"
	"github.com/tabledadrian/adrian-backend/internal/handler"
)

const maxCachedBody = 1 << 20

// cachedResponse is what gets stored in redis for one route and query.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.buf.Len() <= maxCachedBody {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// ResponseCache serves repeated GETs from redis for cfg.TTL. Only full 200
// responses are stored; degraded placeholders are not. Nil client or a
// disabled config passes through and redis errors are treated as misses.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			} else if err != redis.Nil {
				c.Logger().Warnf("[cache] key=%s get failed: %v", key, err)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if !cacheable(cw.status, cw.buf.Len(), c.Response().Header()) {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				c.Logger().Warnf("[cache] key=%s set failed: %v", key, err)
			}
			return nil
		}
	}
}

func cacheable(status, size int, h http.Header) bool {
	return status == http.StatusOK && size <= maxCachedBody && h.Get(handler.HeaderDegraded) == ""
}

func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}
