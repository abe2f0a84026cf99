package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/api/middleware"
	"manabi/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.ContextUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetTokenInfo 提取当前 Token 的 jti 与过期时间；免认证模式下没有 Token，返回 false
func GetTokenInfo(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString(middleware.ContextTokenJTI)
	if jti == "" {
		return "", time.Time{}, false
	}
	exp, ok := c.Get(middleware.ContextTokenExp)
	if !ok {
		return "", time.Time{}, false
	}
	t, ok := exp.(time.Time)
	if !ok {
		return "", time.Time{}, false
	}
	return jti, t, true
}
