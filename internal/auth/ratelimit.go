package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/yatube/pkg/logger"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter 按客户端 IP 限制表单提交频率
type IPRateLimiter struct {
	visitors cmap.ConcurrentMap[string, *visitor]
	limit    rate.Limit
	burst    int
}

func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		visitors: cmap.New[*visitor](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *IPRateLimiter) get(key string) *visitor {
	return l.visitors.Upsert(key, nil, func(exist bool, valueInMap, _ *visitor) *visitor {
		if exist {
			return valueInMap
		}
		return &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
}

func (l *IPRateLimiter) Allow(key string) bool {
	v := l.get(key)
	v.lastSeen.Store(time.Now().UnixNano())
	return v.limiter.Allow()
}

// Sweep 清理超过 idle 未访问的 IP，返回清理数量
func (l *IPRateLimiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle).UnixNano()
	var stale []string
	l.visitors.IterCb(func(key string, v *visitor) {
		if v.lastSeen.Load() < cutoff {
			stale = append(stale, key)
		}
	})
	for _, key := range stale {
		l.visitors.RemoveCb(key, func(_ string, v *visitor, exists bool) bool {
			return exists && v.lastSeen.Load() < cutoff
		})
	}
	return len(stale)
}

func (l *IPRateLimiter) Len() int { return l.visitors.Count() }

// Run 定期清理，ctx 取消后返回
func (l *IPRateLimiter) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(idle); n > 0 {
				logger.Debug("rate limiter sweep", zap.Int("removed", n))
			}
		}
	}
}

// Middleware 只限制 POST 请求
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || l.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		logger.Warn("rate limited", zap.String("ip", c.ClientIP()), zap.String("path", c.Request.URL.Path))
		c.Header("Retry-After", "1")
		c.String(http.StatusTooManyRequests, "Too many requests")
		c.Abort()
	}
}
