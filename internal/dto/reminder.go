package dto

// ── 复习提醒模块 DTO ──

// UpdateReminderSettingsRequest 更新提醒设置请求（各字段均可省略，省略即不修改）
type UpdateReminderSettingsRequest struct {
	Enabled             *bool     `json:"enabled"`
	NotificationMethods *[]string `json:"notification_methods" binding:"omitempty,dive,oneof=push email"`
	ReviewIntervals     *[]int    `json:"review_intervals"     binding:"omitempty,dive,min=1,max=365"`
}

// ReminderSettingsResponse 提醒设置响应
type ReminderSettingsResponse struct {
	UserID              string   `json:"user_id"`
	Enabled             bool     `json:"enabled"`
	NotificationMethods []string `json:"notification_methods"`
	ReviewIntervals     []int    `json:"review_intervals"`
	LastUpdated         string   `json:"last_updated"`
	CreatedAt           string   `json:"created_at"`
}

// UpdateReminderStatusRequest 更新提醒状态请求
type UpdateReminderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending sent completed"`
}

// ReminderResponse 提醒响应
type ReminderResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	RecordID     string `json:"record_id"`
	ScheduledAt  string `json:"scheduled_at"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	IntervalDays int    `json:"interval_days"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ReminderRangeQuery 导出 / 日历的日期区间参数
type ReminderRangeQuery struct {
	From string `form:"from" binding:"required"` // "2026-01-01"
	To   string `form:"to"   binding:"required"` // "2026-01-31"，含当天
}

// DispatchResponse 一轮派发结果
type DispatchResponse struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
