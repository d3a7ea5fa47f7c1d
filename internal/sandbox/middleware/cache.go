package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "sandbox:resp:"

type cachedWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *cachedWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// ResponseCache serves successful GET responses from redis for ttl. Write
// paths are never cached; a stale read window of ttl is acceptable for a
// development fixture.
func ResponseCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if client == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKeyPrefix + c.Request.URL.RequestURI()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
		cached, err := client.Get(ctx, key).Bytes()
		cancel()
		if err == nil {
			c.Header("Content-Type", "application/json")
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json", cached)
			c.Abort()
			return
		}
		if err != redis.Nil {
			logger.Debug("cache lookup failed", zap.String("key", key), zap.Error(err))
		}

		writer := &cachedWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		if c.Writer.Status() != http.StatusOK || writer.body.Len() == 0 {
			return
		}
		ctx, cancel = context.WithTimeout(context.Background(), 250*time.Millisecond)
		defer cancel()
		if err := client.Set(ctx, key, writer.body.Bytes(), ttl).Err(); err != nil {
			logger.Debug("cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
}
