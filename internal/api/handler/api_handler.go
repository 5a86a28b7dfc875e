package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

type PostItem struct {
	ID      uint64    `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Group   string    `json:"group,omitempty"`
	Image   string    `json:"image,omitempty"`
	PubDate time.Time `json:"pub_date"`
}

type CommentItem struct {
	ID      uint64    `json:"id"`
	Post    uint64    `json:"post"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

type GroupItem struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type PostPage struct {
	Count    int64      `json:"count"`
	Page     int        `json:"page"`
	NumPages int        `json:"num_pages"`
	Results  []PostItem `json:"results"`
}

func (h *Handler) postItem(p *model.Post) PostItem {
	item := PostItem{ID: p.ID, Text: p.Text, PubDate: p.CreatedAt}
	if p.Author != nil {
		item.Author = p.Author.Username
	}
	if p.Group != nil {
		item.Group = p.Group.Slug
	}
	if p.Image != "" {
		item.Image = h.store.URL(p.Image)
	}
	return item
}

func (h *Handler) postPage(p *service.PostPage) PostPage {
	res := PostPage{Count: p.Count, Page: p.Number, NumPages: p.NumPages, Results: make([]PostItem, 0, len(p.Items))}
	for _, post := range p.Items {
		res.Results = append(res.Results, h.postItem(post))
	}
	return res
}

func apiError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		response.NotFound(c, "")
		return
	}
	response.InternalError(c, err)
}

// APIListPosts 帖子列表
// @Summary 帖子列表（新的在前）
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPage}
// @Router /api/v1/posts [get]
func (h *Handler) APIListPosts(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, h.postPage(page))
}

// APIGetPost 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param post_id path int true "帖子ID"
// @Success 200 {object} response.Response{data=PostItem}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [get]
func (h *Handler) APIGetPost(c *gin.Context) {
	id, ok := uintParam(c, "post_id")
	if !ok {
		response.NotFound(c, "")
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, h.postItem(post))
}

// APIListComments 帖子评论
// @Summary 帖子评论（旧的在前）
// @Tags 帖子
// @Produce json
// @Param post_id path int true "帖子ID"
// @Success 200 {object} response.Response{data=[]CommentItem}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/comments [get]
func (h *Handler) APIListComments(c *gin.Context) {
	id, ok := uintParam(c, "post_id")
	if !ok {
		response.NotFound(c, "")
		return
	}
	comments, err := h.commentService.List(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	res := make([]CommentItem, 0, len(comments))
	for _, cm := range comments {
		item := CommentItem{ID: cm.ID, Post: cm.PostID, Text: cm.Text, Created: cm.CreatedAt}
		if cm.Author != nil {
			item.Author = cm.Author.Username
		}
		res = append(res, item)
	}
	response.Success(c, res)
}

// APIListGroups 分组列表
// @Summary 分组列表
// @Tags 分组
// @Produce json
// @Success 200 {object} response.Response{data=[]GroupItem}
// @Router /api/v1/groups [get]
func (h *Handler) APIListGroups(c *gin.Context) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	res := make([]GroupItem, 0, len(groups))
	for _, g := range groups {
		res = append(res, GroupItem{ID: g.ID, Title: g.Title, Slug: g.Slug, Description: g.Description})
	}
	response.Success(c, res)
}

// APIGroupPosts 分组内的帖子
// @Summary 分组内的帖子
// @Tags 分组
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=PostPage}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) APIGroupPosts(c *gin.Context) {
	_, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, h.postPage(page))
}
