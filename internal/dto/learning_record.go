package dto

// ── 学习记录模块 DTO ──

// CreateLearningRecordRequest 创建学习记录请求
type CreateLearningRecordRequest struct {
	Subject         string `json:"subject"          binding:"required,min=1,max=100"`
	Topic           string `json:"topic"            binding:"required,min=1,max=200"`
	Content         string `json:"content"          binding:"omitempty,max=10000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=0,max=1440"`
	// IdempotencyKey 取自请求头 Idempotency-Key
	IdempotencyKey string `json:"-"`
}

// LearningRecordResponse 学习记录响应
type LearningRecordResponse struct {
	ID              string `json:"id"`
	Subject         string `json:"subject"`
	Topic           string `json:"topic"`
	Content         string `json:"content,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	CompletedAt     string `json:"completed_at"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ListLearningRecordsQuery 学习记录列表查询参数
type ListLearningRecordsQuery struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}
