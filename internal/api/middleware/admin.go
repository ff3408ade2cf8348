package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/gomall/internal/repository"
	"github.com/d60-Lab/gomall/pkg/response"
)

// AdminOnly 管理员专用接口。不信任 token 里的标记，回库确认，
// 这样撤销管理员权限后旧 token 立即失效。
func AdminOnly(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := userRepo.GetByID(c.Request.Context(), UserID(c))
		if err != nil {
			response.Forbidden(c, "admin access required")
			return
		}
		if !user.IsAdmin || !user.IsActive {
			response.Forbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}
