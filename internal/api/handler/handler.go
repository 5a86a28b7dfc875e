package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/imageutil"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// ResetNotifier 发送重置密码链接，默认只写日志
type ResetNotifier func(user *model.User, link string)

type Handler struct {
	postService     service.PostService
	commentService  service.CommentService
	relService      service.RelationshipService
	userService     service.UserService
	groupService    service.GroupService
	store           storage.Storage
	pageCache       *cache.PageCache
	onPasswordReset ResetNotifier
}

type Options struct {
	Posts         service.PostService
	Comments      service.CommentService
	Relationships service.RelationshipService
	Users         service.UserService
	Groups        service.GroupService
	Storage       storage.Storage
	PageCache     *cache.PageCache
	ResetNotifier ResetNotifier
}

func New(opts Options) *Handler {
	h := &Handler{
		postService:     opts.Posts,
		commentService:  opts.Comments,
		relService:      opts.Relationships,
		userService:     opts.Users,
		groupService:    opts.Groups,
		store:           opts.Storage,
		pageCache:       opts.PageCache,
		onPasswordReset: opts.ResetNotifier,
	}
	if h.onPasswordReset == nil {
		h.onPasswordReset = func(u *model.User, link string) {
			logger.Info("password reset requested",
				zap.String("username", u.Username),
				zap.String("email", u.Email),
				zap.String("link", link),
			)
		}
	}
	return h
}

// render 补充所有页面共用的数据
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = auth.CurrentUser(c)
	data["path"] = c.Request.URL.Path
	data["year"] = time.Now().Year()
	if _, ok := data["errors"]; !ok {
		data["errors"] = service.FormErrors{}
	}
	if _, ok := data["form"]; !ok {
		data["form"] = map[string]string{}
	}
	c.HTML(status, name, data)
}

func (h *Handler) NotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "core/404.html", gin.H{"title": "Page not found"})
	c.Abort()
}

func (h *Handler) ServerError(c *gin.Context) {
	h.render(c, http.StatusInternalServerError, "core/500.html", gin.H{"title": "Server error"})
	c.Abort()
}

// fail ErrNotFound 渲染 404，其余记录日志并渲染 500
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.NotFound(c)
		return
	}
	logger.Error("request failed",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	_ = c.Error(err)
	h.ServerError(c)
}

// formErrors 表单错误返回 true，其余错误已处理为 404/500
func (h *Handler) formErrors(c *gin.Context, err error) (service.FormErrors, bool) {
	if fe, ok := service.AsFormErrors(err); ok {
		return fe, true
	}
	h.fail(c, err)
	return nil, false
}

func postedValues(c *gin.Context, fields ...string) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f] = c.PostForm(f)
	}
	return m
}

// uintParam 非法 id 视为不存在
func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// readUpload 未上传文件时返回 nil
func readUpload(c *gin.Context, field string) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, imageutil.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}
