package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

const pagePrefix = "yatube:page:"

// KeyFunc 返回空字符串时不缓存该请求
type KeyFunc func(c *gin.Context) string

type cachedPage struct {
	Status      int    `json:"s"`
	ContentType string `json:"ct"`
	Body        []byte `json:"b"`
}

// PageCache 缓存完整的 GET 响应
type PageCache struct {
	store Store
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewPageCache(store Store, ttl time.Duration) *PageCache {
	return &PageCache{store: store, ttl: ttl}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Handler name 区分不同页面
func (p *PageCache) Handler(name string, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || p.ttl <= 0 {
			c.Next()
			return
		}
		suffix := keyFn(c)
		if suffix == "" {
			c.Next()
			return
		}
		key := pagePrefix + name + ":" + suffix
		ctx := c.Request.Context()

		if data, ok, err := p.store.Get(ctx, key); err != nil {
			logger.Warn("page cache get", zap.String("key", key), zap.Error(err))
		} else if ok {
			var page cachedPage
			if err := json.Unmarshal(data, &page); err == nil {
				p.hits.Add(1)
				c.Header("X-Cache", "HIT")
				c.Data(page.Status, page.ContentType, page.Body)
				c.Abort()
				return
			}
		}

		p.misses.Add(1)
		w := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()
		c.Writer = w.ResponseWriter

		if w.Status() != http.StatusOK || c.IsAborted() {
			return
		}
		payload, err := json.Marshal(cachedPage{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := p.store.Set(ctx, key, payload, p.ttl); err != nil {
			logger.Warn("page cache set", zap.String("key", key), zap.Error(err))
		}
	}
}

// Clear 清空所有页面缓存
func (p *PageCache) Clear(ctx context.Context) error {
	return p.store.DeletePrefix(ctx, pagePrefix)
}

// Counters 命中与未命中次数
func (p *PageCache) Counters() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}
