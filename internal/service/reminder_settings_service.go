package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"manabi/backend/internal/dto"
	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
)

// ── 提醒设置模块业务错误 ──

var (
	ErrReminderSettingsNotFound = errors.New("提醒设置不存在")
	ErrReminderSettingsInvalid  = errors.New("提醒设置参数无效")
)

// ReminderSettingsService 提醒设置业务接口
type ReminderSettingsService interface {
	// GetSettings 读取设置，不存在时以默认值创建
	GetSettings(ctx context.Context, userID string) (*dto.ReminderSettingsResponse, error)
	// UpdateSettings 合并请求中出现的字段并刷新 last_updated；设置不存在时返回 ErrReminderSettingsNotFound
	UpdateSettings(ctx context.Context, userID string, req *dto.UpdateReminderSettingsRequest) error
}

type reminderSettingsService struct {
	repo             *repository.Repository
	defaultIntervals []int
	logger           *zap.Logger
	now              func() time.Time
}

// NewReminderSettingsService 创建 ReminderSettingsService 实例
func NewReminderSettingsService(repo *repository.Repository, defaultIntervals []int, logger *zap.Logger) ReminderSettingsService {
	return &reminderSettingsService{
		repo:             repo,
		defaultIntervals: defaultIntervals,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── GetSettings ──────────────────────

func (s *reminderSettingsService) GetSettings(ctx context.Context, userID string) (*dto.ReminderSettingsResponse, error) {
	settings, err := loadOrCreateSettings(ctx, s.repo, userID, s.defaultIntervals, s.now())
	if err != nil {
		s.logger.Error("读取提醒设置失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toReminderSettingsResponse(settings), nil
}

// ────────────────────── UpdateSettings ──────────────────────

func (s *reminderSettingsService) UpdateSettings(ctx context.Context, userID string, req *dto.UpdateReminderSettingsRequest) error {
	if err := validateSettingsRequest(req); err != nil {
		return err
	}

	settings, err := s.repo.ReminderSettings.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderSettingsNotFound
		}
		s.logger.Error("查询提醒设置失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.NotificationMethods != nil {
		settings.NotificationMethods = model.UniqueMethods(*req.NotificationMethods)
	}
	if req.ReviewIntervals != nil {
		intervals := make([]int, len(*req.ReviewIntervals))
		copy(intervals, *req.ReviewIntervals)
		settings.ReviewIntervals = intervals
	}
	settings.LastUpdated = s.now()

	if err := s.repo.ReminderSettings.Update(ctx, settings); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderSettingsNotFound
		}
		s.logger.Error("更新提醒设置失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("提醒设置已更新", zap.String("user_id", userID))
	return nil
}

// ── 内部方法 ──

// loadOrCreateSettings 读取用户设置，不存在时插入默认值后重新读取
// 并发首次访问时由 CreateIfAbsent 的冲突忽略保证只有一条记录
func loadOrCreateSettings(
	ctx context.Context,
	repo *repository.Repository,
	userID string,
	defaultIntervals []int,
	now time.Time,
) (*model.ReminderSettings, error) {
	settings, err := repo.ReminderSettings.GetByUserID(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := repo.ReminderSettings.CreateIfAbsent(ctx, model.NewDefaultReminderSettings(userID, defaultIntervals, now)); err != nil {
		return nil, fmt.Errorf("创建默认提醒设置: %w", err)
	}
	return repo.ReminderSettings.GetByUserID(ctx, userID)
}

func validateSettingsRequest(req *dto.UpdateReminderSettingsRequest) error {
	if req.NotificationMethods != nil {
		for _, m := range *req.NotificationMethods {
			if m != model.NotificationMethodPush && m != model.NotificationMethodEmail {
				return fmt.Errorf("%w: 不支持的通知方式 %q", ErrReminderSettingsInvalid, m)
			}
		}
	}
	if req.ReviewIntervals != nil {
		for _, d := range *req.ReviewIntervals {
			if d <= 0 {
				return fmt.Errorf("%w: 复习间隔必须为正整数", ErrReminderSettingsInvalid)
			}
		}
	}
	return nil
}

func toReminderSettingsResponse(s *model.ReminderSettings) *dto.ReminderSettingsResponse {
	methods := []string(s.NotificationMethods)
	if methods == nil {
		methods = []string{}
	}
	intervals := []int(s.ReviewIntervals)
	if intervals == nil {
		intervals = []int{}
	}
	return &dto.ReminderSettingsResponse{
		UserID:              s.UserID,
		Enabled:             s.Enabled,
		NotificationMethods: methods,
		ReviewIntervals:     intervals,
		LastUpdated:         s.LastUpdated.UTC().Format(time.RFC3339),
		CreatedAt:           s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
