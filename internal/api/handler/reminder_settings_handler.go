package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/response"
)

// ReminderSettingsHandler 提醒设置 HTTP 处理器
type ReminderSettingsHandler struct {
	settingsSvc service.ReminderSettingsService
}

// NewReminderSettingsHandler 创建 ReminderSettingsHandler
func NewReminderSettingsHandler(settingsSvc service.ReminderSettingsService) *ReminderSettingsHandler {
	return &ReminderSettingsHandler{settingsSvc: settingsSvc}
}

// GetSettings 获取当前用户的提醒设置（不存在时创建默认值）
// GET /api/v1/reminder-settings
func (h *ReminderSettingsHandler) GetSettings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	settings, err := h.settingsSvc.GetSettings(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, settings)
}

// UpdateSettings 部分更新提醒设置
// PUT /api/v1/reminder-settings
func (h *ReminderSettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateReminderSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// 先确保设置存在，UpdateSettings 本身不做 upsert
	if _, err := h.settingsSvc.GetSettings(ctx, userID); err != nil {
		response.InternalError(c)
		return
	}

	if err := h.settingsSvc.UpdateSettings(ctx, userID, &req); err != nil {
		h.handleSettingsError(c, err)
		return
	}

	settings, err := h.settingsSvc.GetSettings(ctx, userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, settings)
}

func (h *ReminderSettingsHandler) handleSettingsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReminderSettingsNotFound):
		response.NotFound(c, 20101, "提醒设置不存在")
	case errors.Is(err, service.ErrReminderSettingsInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
	default:
		response.InternalError(c)
	}
}
