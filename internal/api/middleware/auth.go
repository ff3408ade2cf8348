package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gomall/pkg/response"
	"github.com/d60-Lab/gomall/pkg/token"
)

const (
	ctxUserID  = "user_id"
	ctxIsAdmin = "is_admin"
)

// Auth 校验 Bearer access token 并注入用户身份
func Auth(maker *token.Maker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "authorization header required")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			return
		}
		claims, err := maker.ParseType(parts[1], token.TypeAccess)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// UserID 取当前登录用户ID，未经 Auth 中间件时返回 0
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// IsAdmin 取 token 中的管理员标记
func IsAdmin(c *gin.Context) bool {
	if v, ok := c.Get(ctxIsAdmin); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}
