package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/studyvault/pkg/internal/storage/kv"
	nlog "github.com/yeisme/studyvault/pkg/log"
)

// CacheConfig 响应缓存配置.
type CacheConfig struct {
	// Store 缓存后端.
	Store kv.KVStore
	// TTL 缓存有效期.
	TTL time.Duration
	// KeyPrefix 缓存键前缀.
	KeyPrefix string
}

// cachedResponse 落入 KV 的响应快照.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
	ETag        string `json:"etag"`
}

// bodyCaptureWriter 捕获响应体用于回填缓存.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)

	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)

	return w.ResponseWriter.WriteString(s)
}

// cacheKey 以方法 + 完整 URL 的 xxhash 作为缓存键.
func cacheKey(prefix string, c *gin.Context) string {
	sum := xxhash.Sum64String(c.Request.Method + ":" + c.Request.URL.RequestURI())

	return fmt.Sprintf("%s:%016x", prefix, sum)
}

// ResponseCacheMiddleware 对 GET 请求做响应缓存，命中返回 X-Cache: HIT，
// 客户端携带匹配 ETag 时返回 304.
func ResponseCacheMiddleware(cfg CacheConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "respcache"
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || cfg.Store == nil {
			c.Next()

			return
		}

		ctx := c.Request.Context()
		key := cacheKey(cfg.KeyPrefix, c)

		if data, err := cfg.Store.Get(ctx, key); err == nil {
			var cached cachedResponse
			if err := sonic.Unmarshal(data, &cached); err == nil {
				if match := c.GetHeader("If-None-Match"); match != "" && match == cached.ETag {
					c.Header("X-Cache", "HIT")
					c.Header("ETag", cached.ETag)
					c.AbortWithStatus(http.StatusNotModified)

					return
				}

				c.Header("X-Cache", "HIT")
				c.Header("ETag", cached.ETag)
				c.Data(cached.Status, cached.ContentType, cached.Body)
				c.Abort()

				return
			}
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		// 只缓存成功响应
		status := c.Writer.Status()
		if status != http.StatusOK {
			return
		}

		body := writer.body.Bytes()
		cached := cachedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        body,
			ETag:        fmt.Sprintf(`"%016x"`, xxhash.Sum64(body)),
		}

		data, err := sonic.Marshal(cached)
		if err != nil {
			return
		}

		if err := cfg.Store.Set(ctx, key, data, cfg.TTL); err != nil {
			nlog.Logger().Debug().Err(err).Str("key", key).Msg("failed to store cached response")
		}
	}
}
