package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// Response JSON 接口统一返回结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeOK         = 0
	CodeBadRequest = 40000
	CodeNotFound   = 40400
	CodeInternal   = 50000
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeOK, Message: "ok", Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Code: CodeBadRequest, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	if msg == "" {
		msg = "not found"
	}
	c.AbortWithStatusJSON(http.StatusNotFound, Response{Code: CodeNotFound, Message: msg})
}

// InternalError 记录错误，对外只返回通用信息
func InternalError(c *gin.Context, err error) {
	logger.Error("internal error",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Code: CodeInternal, Message: "internal server error"})
}
