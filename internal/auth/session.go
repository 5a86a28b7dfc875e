package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
)

const userIDKey = "uid"

// NewStore 按配置创建 cookie 或数据库 session 存储
func NewStore(cfg config.SessionConfig, db *gorm.DB) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Store {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.Secret))
	case "db":
		if db == nil {
			return nil, errors.New("db session store requires a database")
		}
		store = gormsessions.NewStore(db, true, []byte(cfg.Secret))
	default:
		return nil, errors.New("unsupported session store " + cfg.Store)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{Session: sessions.Default(c)}
}

// Login 登录前清空旧 session
func (s *Session) Login(user *model.User) error {
	s.Clear()
	s.Set(userIDKey, user.ID)
	return s.Save()
}

func (s *Session) Logout() error {
	s.Delete(userIDKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// UserID 未登录返回 0
func (s *Session) UserID() uint64 {
	id, _ := s.Get(userIDKey).(uint64)
	return id
}
