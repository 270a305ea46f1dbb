package middleware

import (
	"strings"

	"github.com/amamiya-dev/file-bed/api/common"
	"github.com/amamiya-dev/file-bed/database/models"
	"github.com/amamiya-dev/file-bed/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextUserKey   = "auth_user"
)

// BearerAuth 解析 Authorization 头并还原当前用户
// 令牌无效或用户不存在时在进入处理器前终止为 401
func BearerAuth(tokens *auth.TokenService, login *auth.LoginService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.AbortUnauthorized(c, "No Authorization request header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.AbortUnauthorized(c, "Authorization field format error")
			return
		}

		userID, err := tokens.Parse(parts[1])
		if err != nil {
			common.AbortUnauthorized(c, "Invalid or expired token")
			return
		}

		user, err := login.FindUser(c.Request.Context(), userID)
		if err != nil || user == nil {
			common.AbortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser 读取认证中间件放入上下文的用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
