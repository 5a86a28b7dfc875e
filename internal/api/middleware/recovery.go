package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// InitSentry DSN 为空时不启用
func InitSentry(cfg config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func hubFor(c *gin.Context) *sentry.Hub {
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetRequest(c.Request)
	return hub
}

func brokenPipe(rec interface{}) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if errors.As(ne, &se) {
		msg := strings.ToLower(se.Error())
		return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
	}
	return false
}

// Recovery 捕获 panic：上报 sentry，记录日志，交给 onPanic 渲染错误页
func Recovery(onPanic gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if brokenPipe(rec) {
				logger.Warn("client gone", zap.Any("error", rec), zap.String("path", c.Request.URL.Path))
				c.Abort()
				return
			}
			if sentry.CurrentHub().Client() != nil {
				hubFor(c).RecoverWithContext(c.Request.Context(), rec)
			}
			logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if onPanic != nil {
				onPanic(c)
			} else {
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// ErrorReporter 把 5xx 响应中记录的错误上报 sentry
func ErrorReporter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		if sentry.CurrentHub().Client() == nil {
			return
		}
		hub := hubFor(c)
		for _, e := range c.Errors {
			hub.CaptureException(e.Err)
		}
	}
}
