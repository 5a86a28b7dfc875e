package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheControl 默认不缓存，静态资源可单独设置 max-age
type CacheControl struct {
	CacheTime int
}

func (cc *CacheControl) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch cc.CacheTime {
		case CacheCustom:
		case CacheNoCache:
			c.Header("Cache-Control", "no-cache")
		default:
			c.Header("Cache-Control", "private, max-age="+strconv.Itoa(cc.CacheTime))
		}
		c.Next()
	}
}
