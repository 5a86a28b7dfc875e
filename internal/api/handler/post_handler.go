package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// Index 首页，全部帖子
func (h *Handler) Index(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/index.html", gin.H{"page_obj": page})
}

// maxCachedPage 更靠后的页码不进缓存
const maxCachedPage = 1000

// IndexCacheKey 首页按访问者和页码缓存，页码非法时返回空串跳过缓存
func IndexCacheKey(c *gin.Context) string {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCachedPage {
			return ""
		}
		page = n
	}
	var uid uint64
	if u := auth.CurrentUser(c); u != nil {
		uid = u.ID
	}
	return strconv.FormatUint(uid, 10) + ":" + strconv.Itoa(page)
}

func (h *Handler) GroupPosts(c *gin.Context) {
	group, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/group_list.html", gin.H{
		"title":    group.Title,
		"group":    group,
		"page_obj": page,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	view, err := h.postService.Profile(c.Request.Context(), c.Param("username"), auth.CurrentUser(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/profile.html", gin.H{
		"title":        "Profile of " + view.Author.FullName(),
		"author":       view.Author,
		"page_obj":     view.Page,
		"posts_number": view.PostsCount,
		"following":    view.Following,
		"followers":    view.Followers,
		"followings":   view.Followings,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := uintParam(c, "post_id")
	if !ok {
		h.NotFound(c)
		return
	}
	view, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"title":        "Post " + view.Post.String(),
		"post":         view.Post,
		"posts_number": view.PostsCount,
		"comments":     view.Comments,
	})
}

func (h *Handler) renderPostForm(c *gin.Context, status int, post *model.Post, form map[string]string, errs service.FormErrors) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"title":  "New post",
		"form":   form,
		"groups": groups,
	}
	if errs != nil {
		data["errors"] = errs
	}
	if post != nil {
		data["title"] = "Edit post"
		data["is_edit"] = true
		data["post"] = post
	}
	h.render(c, status, "posts/create_post.html", data)
}

func bindPostForm(c *gin.Context) (service.PostForm, error) {
	var form service.PostForm
	if err := c.ShouldBind(&form); err != nil {
		return form, service.FormErrors{service.NonFieldKey: err.Error()}
	}
	up, err := readUpload(c, "image")
	if err != nil {
		return form, err
	}
	form.Image = up
	return form, nil
}

// PostCreate GET 显示表单，POST 创建后跳转到作者主页
func (h *Handler) PostCreate(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.renderPostForm(c, http.StatusOK, nil, map[string]string{}, nil)
		return
	}
	user := auth.CurrentUser(c)
	values := postedValues(c, "text", "group")
	form, err := bindPostForm(c)
	if err == nil {
		_, err = h.postService.Create(c.Request.Context(), user, form)
	}
	if err != nil {
		if errs, ok := h.formErrors(c, err); ok {
			h.renderPostForm(c, http.StatusOK, nil, values, errs)
		}
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// PostEdit 只有作者可以编辑，其他人跳转到详情页
func (h *Handler) PostEdit(c *gin.Context) {
	id, ok := uintParam(c, "post_id")
	if !ok {
		h.NotFound(c)
		return
	}
	user := auth.CurrentUser(c)
	detailURL := "/posts/" + strconv.FormatUint(id, 10) + "/"

	if c.Request.Method == http.MethodGet {
		post, err := h.postService.Get(c.Request.Context(), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		if post.AuthorID != user.ID {
			c.Redirect(http.StatusFound, detailURL)
			return
		}
		form := map[string]string{"text": post.Text}
		if post.GroupID != nil {
			form["group"] = strconv.FormatUint(*post.GroupID, 10)
		}
		h.renderPostForm(c, http.StatusOK, post, form, nil)
		return
	}

	values := postedValues(c, "text", "group")
	form, err := bindPostForm(c)
	var post *model.Post
	if err == nil {
		post, err = h.postService.Edit(c.Request.Context(), user, id, form)
	}
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, detailURL)
	case errors.Is(err, service.ErrForbidden):
		c.Redirect(http.StatusFound, detailURL)
	default:
		if errs, ok := h.formErrors(c, err); ok {
			if post == nil {
				if post, err = h.postService.Get(c.Request.Context(), id); err != nil {
					h.fail(c, err)
					return
				}
			}
			h.renderPostForm(c, http.StatusOK, post, values, errs)
		}
	}
}

// AddComment 无论表单是否有效都跳回详情页
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := uintParam(c, "post_id")
	if !ok {
		h.NotFound(c)
		return
	}
	var form service.CommentForm
	_ = c.ShouldBind(&form)
	_, err := h.commentService.Add(c.Request.Context(), auth.CurrentUser(c), id, form)
	if err != nil {
		if _, isForm := service.AsFormErrors(err); !isForm {
			h.fail(c, err)
			return
		}
	}
	c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(id, 10)+"/")
}

// FollowIndex 关注作者的帖子
func (h *Handler) FollowIndex(c *gin.Context) {
	page, err := h.postService.Feed(c.Request.Context(), auth.CurrentUser(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/follow.html", gin.H{"title": "Subscriptions", "page_obj": page})
}
