package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/service"
	"manabi/backend/pkg/response"
)

// LearningRecordHandler 学习记录 HTTP 处理器
type LearningRecordHandler struct {
	recordSvc service.LearningRecordService
}

// NewLearningRecordHandler 创建 LearningRecordHandler
func NewLearningRecordHandler(recordSvc service.LearningRecordService) *LearningRecordHandler {
	return &LearningRecordHandler{recordSvc: recordSvc}
}

// 幂等键请求头与长度上限
const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// CreateRecord 记录一次学习（同时排程复习提醒）
// POST /api/v1/learning-records
func (h *LearningRecordHandler) CreateRecord(c *gin.Context) {
	var req dto.CreateLearningRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(idempotencyKeyHeader)
	if len(req.IdempotencyKey) > maxIdempotencyKeyLen {
		response.BadRequest(c, 10001, "Idempotency-Key 过长")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.recordSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.Created(c, record)
}

// ListRecords 分页获取学习记录
// GET /api/v1/learning-records?page=1&page_size=20
func (h *LearningRecordHandler) ListRecords(c *gin.Context) {
	var q dto.ListLearningRecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationFailed(c, err)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 20
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.recordSvc.List(c.Request.Context(), userID, q.Page, q.PageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, q.Page, q.PageSize)
}

// GetRecord 获取学习记录详情
// GET /api/v1/learning-records/:id
func (h *LearningRecordHandler) GetRecord(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "学习记录ID不能为空")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	record, err := h.recordSvc.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		h.handleRecordError(c, err)
		return
	}

	response.OK(c, record)
}

func (h *LearningRecordHandler) handleRecordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLearningRecordNotFound):
		response.NotFound(c, 20301, "学习记录不存在")
	case errors.Is(err, service.ErrLearningRecordDuplicate):
		response.Conflict(c, 20303, "该学习记录已提交，请勿重复请求")
	default:
		response.InternalError(c)
	}
}
