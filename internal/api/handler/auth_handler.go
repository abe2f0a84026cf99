package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Logout 用户登出（吊销当前 Token）
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	jti, exp, ok := GetTokenInfo(c)
	if !ok {
		// 免认证模式没有可吊销的 Token
		response.OK(c, dto.LogoutResponse{Revoked: false})
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp, userID); err != nil {
		if errors.Is(err, service.ErrTokenRevocationUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, 10006, "Token 吊销服务不可用")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, dto.LogoutResponse{Revoked: true})
}
