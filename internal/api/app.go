package api

import (
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// 缩略图队列长度
const thumbQueueSize = 256

// App 仓储、服务与 handler 的组装结果
type App struct {
	Users         repository.UserRepository
	Posts         service.PostService
	Comments      service.CommentService
	Relationships service.RelationshipService
	Accounts      service.UserService
	Groups        service.GroupService
	Storage       storage.Storage
	Thumbnails    *service.Thumbnailer
	PageCache     *cache.PageCache
	Handler       *handler.Handler
}

// NewApp notify 为空时重置链接只写日志
func NewApp(cfg *config.Config, db *gorm.DB, store storage.Storage, cacheStore cache.Store, notify handler.ResetNotifier) *App {
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	follows := repository.NewFollowRepository(db)

	thumbs := service.NewThumbnailer(posts, store, thumbQueueSize)
	tokens := auth.NewResetTokens(cfg.Auth.ResetSecret, cfg.Auth.ResetTTL)

	app := &App{
		Users:         users,
		Posts:         service.NewPostService(posts, groups, users, comments, follows, store, thumbs, cfg.Pagination.PostsPerPage),
		Comments:      service.NewCommentService(posts, comments),
		Relationships: service.NewRelationshipService(users, follows),
		Accounts:      service.NewUserService(users, tokens),
		Groups:        service.NewGroupService(groups),
		Storage:       store,
		Thumbnails:    thumbs,
		PageCache:     cache.NewPageCache(cacheStore, cfg.Cache.IndexTTL),
	}
	app.Handler = handler.New(handler.Options{
		Posts:         app.Posts,
		Comments:      app.Comments,
		Relationships: app.Relationships,
		Users:         app.Accounts,
		Groups:        app.Groups,
		Storage:       store,
		PageCache:     app.PageCache,
		ResetNotifier: notify,
	})
	return app
}
