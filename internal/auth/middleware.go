package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// LoginURL 未登录时跳转的地址
const LoginURL = "/auth/login/"

const userContextKey = "yatube.user"

// LoadUser 读取 session 中的用户并放入 gin.Context
func LoadUser(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := LoadSession(c)
		id := session.UserID()
		if id == 0 {
			c.Next()
			return
		}
		user, err := users.GetByID(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(userContextKey, user)
		case errors.Is(err, repository.ErrNotFound):
			// 用户已被删除
			_ = session.Logout()
		default:
			logger.Warn("load session user", zap.Uint64("user", id), zap.Error(err))
		}
		c.Next()
	}
}

// CurrentUser 未登录返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userContextKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// SetCurrentUser 登录、改密后刷新当前请求中的用户
func SetCurrentUser(c *gin.Context, u *model.User) {
	if u == nil {
		delete(c.Keys, userContextKey)
		return
	}
	c.Set(userContextKey, u)
}

// LoginRequired 未登录跳转到 /auth/login/?next=<当前路径>
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func LoginRedirect(next string) string {
	return LoginURL + "?next=" + url.QueryEscape(next)
}

// SafeNext 只允许站内相对路径
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
