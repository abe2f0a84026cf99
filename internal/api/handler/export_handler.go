package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReminders 导出提醒为 Excel
// GET /api/v1/reminders/export?from=2026-01-01&to=2026-01-31
func (h *ExportHandler) ExportReminders(c *gin.Context) {
	var q dto.ReminderRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportReminders(c.Request.Context(), userID, q.From, q.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ReminderCalendar 提醒日历订阅（iCalendar）
// GET /api/v1/reminders/calendar.ics?from=2026-01-01&to=2026-01-31
func (h *ExportHandler) ReminderCalendar(c *gin.Context) {
	var q dto.ReminderRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	text, err := h.exportSvc.ReminderCalendar(c.Request.Context(), userID, q.From, q.To)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="reminders.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(text))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportRangeInvalid):
		response.BadRequest(c, 20401, "日期区间无效")
	case errors.Is(err, service.ErrExportNoReminders):
		response.NotFound(c, 20402, "所选区间内没有复习提醒")
	default:
		response.InternalError(c)
	}
}
