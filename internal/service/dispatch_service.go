package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"manabi/backend/config"
	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
	"manabi/backend/pkg/metrics"
	"manabi/backend/pkg/notifier"
)

// ── 派发模块业务错误 ──

var (
	ErrDispatchInProgress = errors.New("已有派发任务在执行")
)

const dispatchLockKey = "reminder:dispatch"

// DispatchResult 一轮派发的统计
type DispatchResult struct {
	Total   int
	Sent    int
	Skipped int
	Failed  int
}

// DispatchService 到期提醒派发接口
//
// 设计说明：
//   - 由外部定时触发（cmd/dispatcher 或管理员接口），进程内没有定时循环
//   - 用户已关闭提醒、或关联学习记录已不存在的提醒直接置为 completed
//   - 至少一个通知方式送达即置为 sent，其余渠道失败只记日志；全部失败时保持 pending，下一轮重试
type DispatchService interface {
	DispatchDue(ctx context.Context) (*DispatchResult, error)
}

type dispatchService struct {
	repo      *repository.Repository
	reminders ReminderService
	notifier  notifier.Notifier
	limiter   *rate.Limiter
	locker    Locker
	cfg       *config.ReminderConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatchService 创建 DispatchService 实例
func NewDispatchService(
	cfg *config.ReminderConfig,
	repo *repository.Repository,
	reminders ReminderService,
	n notifier.Notifier,
	locker Locker,
	m *metrics.Metrics,
	logger *zap.Logger,
) DispatchService {
	limit := rate.Inf
	if cfg.DispatchRatePerSecond > 0 {
		limit = rate.Limit(cfg.DispatchRatePerSecond)
	}
	burst := cfg.DispatchBurst
	if burst <= 0 {
		burst = 1
	}
	return &dispatchService{
		repo:      repo,
		reminders: reminders,
		notifier:  n,
		limiter:   rate.NewLimiter(limit, burst),
		locker:    locker,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ═══════════════════════════════════════════════════════════
// DispatchDue: 处理一批到期提醒
// ═══════════════════════════════════════════════════════════

func (s *dispatchService) DispatchDue(ctx context.Context) (*DispatchResult, error) {
	started := time.Now()

	// 1. 互斥
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(ctx, dispatchLockKey, s.cfg.DispatchLockTTL)
		if err != nil {
			return nil, fmt.Errorf("获取派发锁: %w", err)
		}
		if !acquired {
			return nil, ErrDispatchInProgress
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), dispatchLockKey, token); err != nil {
				s.logger.Warn("释放派发锁失败", zap.Error(err))
			}
		}()
	}

	// 2. 拉取到期提醒
	due, err := s.reminders.GetPendingDueReminders(ctx, s.cfg.DueBatchLimit)
	if err != nil {
		return nil, err
	}
	s.metrics.SetDue(len(due))

	result := &DispatchResult{Total: len(due)}
	settingsCache := make(map[string]*model.ReminderSettings)

	// 3. 逐条处理
	for i := range due {
		outcome, err := s.dispatchOne(ctx, &due[i], settingsCache)
		if err != nil && ctx.Err() != nil {
			// 被取消时未处理的提醒保持 pending
			s.metrics.ObserveDispatchDuration(time.Since(started).Seconds())
			return result, ctx.Err()
		}
		switch outcome {
		case metrics.OutcomeSent:
			result.Sent++
		case metrics.OutcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		s.metrics.IncDispatched(outcome)
	}

	s.metrics.ObserveDispatchDuration(time.Since(started).Seconds())
	s.logger.Info("到期提醒派发完成",
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// dispatchOne 处理单条提醒，返回 metrics.Outcome*
func (s *dispatchService) dispatchOne(ctx context.Context, reminder *model.Reminder, cache map[string]*model.ReminderSettings) (string, error) {
	log := s.logger.With(zap.String("reminder_id", reminder.ReminderID), zap.String("user_id", reminder.UserID))

	settings, ok := cache[reminder.UserID]
	if !ok {
		loaded, err := loadOrCreateSettings(ctx, s.repo, reminder.UserID, s.cfg.DefaultIntervals, s.now())
		if err != nil {
			log.Error("读取提醒设置失败", zap.Error(err))
			return metrics.OutcomeFailed, err
		}
		settings = loaded
		cache[reminder.UserID] = settings
	}

	if !settings.Enabled {
		return s.complete(ctx, reminder, log, "提醒已关闭")
	}

	payload, err := s.reminders.PrepareNotification(ctx, reminder)
	if err != nil {
		if errors.Is(err, ErrReferencedRecordNotFound) {
			return s.complete(ctx, reminder, log, "关联学习记录不存在")
		}
		log.Error("组装通知失败", zap.Error(err))
		return metrics.OutcomeFailed, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return metrics.OutcomeFailed, err
	}

	// 任一渠道送达即视为已发送
	var (
		delivered int
		lastErr   error
	)
	for _, method := range settings.EffectiveMethods() {
		if err := s.notifier.Send(ctx, reminder.UserID, method, payload); err != nil {
			log.Warn("通知渠道发送失败", zap.String("method", method), zap.Error(err))
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		log.Warn("所有渠道发送失败，保留 pending 等待下一轮", zap.Error(lastErr))
		return metrics.OutcomeFailed, lastErr
	}

	if err := s.reminders.UpdateStatus(ctx, reminder.ReminderID, model.ReminderStatusSent); err != nil {
		log.Error("标记提醒为 sent 失败", zap.Error(err))
		return metrics.OutcomeFailed, err
	}
	return metrics.OutcomeSent, nil
}

func (s *dispatchService) complete(ctx context.Context, reminder *model.Reminder, log *zap.Logger, reason string) (string, error) {
	if err := s.reminders.UpdateStatus(ctx, reminder.ReminderID, model.ReminderStatusCompleted); err != nil {
		log.Error("跳过提醒时更新状态失败", zap.String("reason", reason), zap.Error(err))
		return metrics.OutcomeFailed, err
	}
	log.Info("跳过提醒", zap.String("reason", reason))
	return metrics.OutcomeSkipped, nil
}
