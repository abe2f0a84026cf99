package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"manabi/backend/config"
	"manabi/backend/internal/dto"
	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
	"manabi/backend/pkg/metrics"
	"manabi/backend/pkg/notifier"
)

// ── 复习提醒模块业务错误 ──

var (
	ErrReminderNotFound         = errors.New("提醒不存在")
	ErrReminderStatusInvalid    = errors.New("提醒状态无效")
	ErrReferencedRecordNotFound = errors.New("提醒关联的学习记录不存在")
)

// 通知标题
const reminderNotificationTitle = "復習リマインダー"

// ReminderService 复习提醒业务接口
//
// 设计说明：
//   - 排程按用户设置的间隔一次性生成全部提醒，同一批共用一个 now
//   - 状态更新不校验迁移方向，completed → pending 也允许
//   - 投递由外部触发的派发流程负责，本接口只提供查询与载荷组装
type ReminderService interface {
	// ScheduleReminders 为一条学习记录生成复习提醒，返回生成数量；设置关闭时返回 0
	ScheduleReminders(ctx context.Context, userID, recordID string) (int, error)
	// GetPendingDueReminders 查询已到期的 pending 提醒，limit<=0 时取 100
	GetPendingDueReminders(ctx context.Context, limit int) ([]model.Reminder, error)
	// GetUserRemindersForToday 查询用户当天（按配置时区）的提醒
	GetUserRemindersForToday(ctx context.Context, userID string) ([]dto.ReminderResponse, error)
	// UpdateStatus 设置提醒状态并刷新 updated_at
	UpdateStatus(ctx context.Context, reminderID, status string) error
	// UpdateUserReminderStatus 同 UpdateStatus，但只允许操作自己的提醒
	UpdateUserReminderStatus(ctx context.Context, userID, reminderID, status string) error
	// PrepareNotification 组装下游投递所需的通知内容
	PrepareNotification(ctx context.Context, reminder *model.Reminder) (*notifier.Payload, error)
}

type reminderService struct {
	repo    *repository.Repository
	cfg     *config.ReminderConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(
	cfg *config.ReminderConfig,
	repo *repository.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleReminders: 按复习间隔生成提醒
// ═══════════════════════════════════════════════════════════

func (s *reminderService) ScheduleReminders(ctx context.Context, userID, recordID string) (int, error) {
	now := s.now().UTC()

	// 1. 读取设置（不存在则创建默认）
	settings, err := loadOrCreateSettings(ctx, s.repo, userID, s.cfg.DefaultIntervals, now)
	if err != nil {
		return 0, fmt.Errorf("读取提醒设置: %w", err)
	}
	if !settings.Enabled {
		s.logger.Debug("提醒已关闭，跳过排程", zap.String("user_id", userID), zap.String("record_id", recordID))
		return 0, nil
	}

	// 2. 每个间隔一条，共用同一个 now
	intervals := settings.EffectiveIntervals(s.cfg.DefaultIntervals)
	reminders := make([]model.Reminder, 0, len(intervals))
	for _, d := range intervals {
		reminders = append(reminders, model.Reminder{
			UserID:       userID,
			RecordID:     recordID,
			ScheduledAt:  now.AddDate(0, 0, d),
			Status:       model.ReminderStatusPending,
			Type:         model.ReminderTypeReview,
			IntervalDays: d,
			BaseModel:    model.BaseModel{CreatedAt: now, UpdatedAt: now},
		})
	}

	// 3. 单批写入
	if err := s.repo.Reminder.CreateBatch(ctx, reminders); err != nil {
		return 0, fmt.Errorf("写入复习提醒: %w", err)
	}

	s.metrics.AddScheduled(len(reminders))
	s.logger.Info("复习提醒已排程",
		zap.String("user_id", userID),
		zap.String("record_id", recordID),
		zap.Ints("intervals", intervals),
	)
	return len(reminders), nil
}

// ────────────────────── GetPendingDueReminders ──────────────────────

func (s *reminderService) GetPendingDueReminders(ctx context.Context, limit int) ([]model.Reminder, error) {
	if limit <= 0 {
		limit = 100
	}
	reminders, err := s.repo.Reminder.ListPendingDue(ctx, s.now(), limit)
	if err != nil {
		s.logger.Error("查询到期提醒失败", zap.Error(err))
		return nil, err
	}
	return reminders, nil
}

// ────────────────────── GetUserRemindersForToday ──────────────────────

func (s *reminderService) GetUserRemindersForToday(ctx context.Context, userID string) ([]dto.ReminderResponse, error) {
	start, end := dayBounds(s.now(), s.cfg.Location())

	reminders, err := s.repo.Reminder.ListByUserBetween(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询今日提醒失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReminderResponse, 0, len(reminders))
	for i := range reminders {
		result = append(result, toReminderResponse(&reminders[i]))
	}
	return result, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *reminderService) UpdateStatus(ctx context.Context, reminderID, status string) error {
	if !model.IsValidReminderStatus(status) {
		return ErrReminderStatusInvalid
	}

	if err := s.repo.Reminder.UpdateStatus(ctx, reminderID, status, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		s.logger.Error("更新提醒状态失败", zap.String("reminder_id", reminderID), zap.Error(err))
		return err
	}
	return nil
}

func (s *reminderService) UpdateUserReminderStatus(ctx context.Context, userID, reminderID, status string) error {
	// reminder_id 为 uuid 列，非法值直接按不存在处理
	if _, err := uuid.Parse(reminderID); err != nil {
		return ErrReminderNotFound
	}

	reminder, err := s.repo.Reminder.GetByID(ctx, reminderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		s.logger.Error("查询提醒失败", zap.String("reminder_id", reminderID), zap.Error(err))
		return err
	}
	// 非本人提醒按不存在处理
	if reminder.UserID != userID {
		return ErrReminderNotFound
	}
	return s.UpdateStatus(ctx, reminderID, status)
}

// ────────────────────── PrepareNotification ──────────────────────

func (s *reminderService) PrepareNotification(ctx context.Context, reminder *model.Reminder) (*notifier.Payload, error) {
	record, err := s.repo.LearningRecord.GetByID(ctx, reminder.RecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: record_id=%s", ErrReferencedRecordNotFound, reminder.RecordID)
		}
		return nil, err
	}
	return buildPayload(reminder, record), nil
}

// ── 内部方法 ──

func buildPayload(reminder *model.Reminder, record *model.LearningRecord) *notifier.Payload {
	return &notifier.Payload{
		Title: reminderNotificationTitle,
		Body:  fmt.Sprintf("%s: %s の復習時間です", record.Subject, record.Topic),
		Data: map[string]string{
			"reminder_id":   reminder.ReminderID,
			"record_id":     reminder.RecordID,
			"type":          reminder.Type,
			"subject":       record.Subject,
			"topic":         record.Topic,
			"interval_days": strconv.Itoa(reminder.IntervalDays),
			"scheduled_at":  reminder.ScheduledAt.UTC().Format(time.RFC3339),
		},
	}
}

// dayBounds 返回 t 在 loc 时区下所在自然日的 [00:00:00, 23:59:59.999999999]
func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start.UTC(), end.UTC()
}

func toReminderResponse(r *model.Reminder) dto.ReminderResponse {
	return dto.ReminderResponse{
		ID:           r.ReminderID,
		UserID:       r.UserID,
		RecordID:     r.RecordID,
		ScheduledAt:  r.ScheduledAt.UTC().Format(time.RFC3339),
		Status:       r.Status,
		Type:         r.Type,
		IntervalDays: r.IntervalDays,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
