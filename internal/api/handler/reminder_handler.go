package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/response"
)

// ReminderHandler 复习提醒 HTTP 处理器
type ReminderHandler struct {
	reminderSvc service.ReminderService
	dispatchSvc service.DispatchService
}

// NewReminderHandler 创建 ReminderHandler
func NewReminderHandler(reminderSvc service.ReminderService, dispatchSvc service.DispatchService) *ReminderHandler {
	return &ReminderHandler{reminderSvc: reminderSvc, dispatchSvc: dispatchSvc}
}

// GetTodayReminders 获取当前用户今天的提醒
// GET /api/v1/reminders/today
func (h *ReminderHandler) GetTodayReminders(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reminders, err := h.reminderSvc.GetUserRemindersForToday(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, reminders)
}

// UpdateStatus 更新提醒状态
// PUT /api/v1/reminders/:id/status
func (h *ReminderHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "提醒ID不能为空")
		return
	}

	var req dto.UpdateReminderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reminderSvc.UpdateUserReminderStatus(c.Request.Context(), userID, id, req.Status); err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.OK(c, gin.H{"id": id, "status": req.Status})
}

// Dispatch 手动触发一轮到期提醒派发
// POST /api/v1/reminders/dispatch
func (h *ReminderHandler) Dispatch(c *gin.Context) {
	result, err := h.dispatchSvc.DispatchDue(c.Request.Context())
	if err != nil {
		h.handleReminderError(c, err)
		return
	}

	response.OK(c, dto.DispatchResponse{
		Total:   result.Total,
		Sent:    result.Sent,
		Skipped: result.Skipped,
		Failed:  result.Failed,
	})
}

func (h *ReminderHandler) handleReminderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReminderNotFound):
		response.NotFound(c, 20201, "提醒不存在")
	case errors.Is(err, service.ErrReminderStatusInvalid):
		response.BadRequest(c, 20202, "提醒状态无效")
	case errors.Is(err, service.ErrDispatchInProgress):
		response.Conflict(c, 20203, "已有派发任务在执行")
	default:
		response.InternalError(c)
	}
}
