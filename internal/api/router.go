package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/web"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/tracing"
)

// 上传文件的浏览器缓存时间（秒）
const mediaCacheTime = 7 * 24 * 3600

// SetupRouter limiter 为空时不限流
func SetupRouter(cfg *config.Config, app *App, store sessions.Store, limiter *auth.IPRateLimiter) (*gin.Engine, error) {
	h := app.Handler

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, err
	}

	tmpl, err := web.Templates(app.Storage.URL)
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.Use(logger.GinLogger())
	r.Use(middleware.Recovery(h.ServerError), middleware.ErrorReporter())
	if cfg.Tracing.Enabled {
		r.Use(tracing.Middleware(cfg.Tracing.ServiceName, nil))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media/"})))
	// 默认不缓存，个别路由自行覆盖
	r.Use((&middleware.CacheControl{CacheTime: middleware.CacheNoCache}).Handler())
	r.Use(sessions.Sessions(cfg.Session.Name, store))
	r.Use(auth.LoadUser(app.Users))
	if limiter != nil {
		r.Use(limiter.Middleware())
	}

	r.GET("/", app.PageCache.Handler("index", handler.IndexCacheKey), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:post_id/", h.PostDetail)

	authed := r.Group("/", auth.LoginRequired())
	{
		getPost(authed, "/create/", h.PostCreate)
		getPost(authed, "/posts/:post_id/edit/", h.PostEdit)
		authed.POST("/posts/:post_id/comment/", h.AddComment)
		authed.GET("/follow/", h.FollowIndex)
		getPost(authed, "/profile/:username/follow/", h.ProfileFollow)
		getPost(authed, "/profile/:username/unfollow/", h.ProfileUnfollow)
	}

	users := r.Group("/auth")
	{
		getPost(users, "/signup/", h.SignUp)
		getPost(users, "/login/", h.Login)
		getPost(users, "/logout/", h.Logout)
		getPost(users, "/password_reset/", h.PasswordReset)
		users.GET("/password_reset/done/", h.PasswordResetDone)
		getPost(users, "/reset/:token/", h.PasswordResetConfirm)
		users.GET("/password_reset/complete/", h.PasswordResetComplete)

		changes := users.Group("/", auth.LoginRequired())
		getPost(changes, "/password_change/", h.PasswordChange)
		changes.GET("/password_change/done/", h.PasswordChangeDone)
	}

	r.GET("/about/author/", h.AboutAuthor)
	r.GET("/about/tech/", h.AboutTech)

	r.GET("/media/*path", (&middleware.CacheControl{CacheTime: mediaCacheTime}).Handler(), h.Media)

	v1 := r.Group("/api/v1", cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	{
		v1.GET("/posts", h.APIListPosts)
		v1.GET("/posts/:post_id", h.APIGetPost)
		v1.GET("/posts/:post_id/comments", h.APIListComments)
		v1.GET("/groups", h.APIListGroups)
		v1.GET("/groups/:slug/posts", h.APIGroupPosts)
		v1.GET("/users/:username/following", h.ListFollowing)
		v1.GET("/users/:username/followers", h.ListFollowers)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.NoRoute(h.NotFound)
	return r, nil
}

func getPost(g *gin.RouterGroup, path string, fn gin.HandlerFunc) {
	g.GET(path, fn)
	g.POST(path, fn)
}
