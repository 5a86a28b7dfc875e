package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// ProfileFollow 关注作者，关注自己时直接跳回主页
func (h *Handler) ProfileFollow(c *gin.Context) {
	username := c.Param("username")
	err := h.relService.Follow(c.Request.Context(), auth.CurrentUser(c), username)
	if err != nil && !errors.Is(err, service.ErrFollowSelf) {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+username+"/")
}

// ProfileUnfollow 取消关注
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.relService.Unfollow(c.Request.Context(), auth.CurrentUser(c), username); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+username+"/")
}

type userItem struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func toUserItems(users []*model.User) []userItem {
	res := make([]userItem, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		res = append(res, userItem{Username: u.Username, FullName: u.FullName()})
	}
	return res
}

// ListFollowing 查询某用户关注的作者
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{username}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("username"), page, pageSize)
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toUserItems(list)})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{username}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	list, err := h.relService.ListFollowers(c.Request.Context(), c.Param("username"), page, pageSize)
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": toUserItems(list)})
}
