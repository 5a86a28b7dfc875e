package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AboutAuthor(c *gin.Context) {
	h.render(c, http.StatusOK, "about/author.html", gin.H{"title": "About the author"})
}

func (h *Handler) AboutTech(c *gin.Context) {
	h.render(c, http.StatusOK, "about/tech.html", gin.H{"title": "Technologies"})
}

// Media 上传的图片
func (h *Handler) Media(c *gin.Context) {
	h.store.Serve(c.Writer, c.Request, strings.TrimPrefix(c.Param("path"), "/"))
}
