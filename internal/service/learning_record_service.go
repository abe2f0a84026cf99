package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"manabi/backend/config"
	"manabi/backend/internal/dto"
	"manabi/backend/internal/model"
	"manabi/backend/internal/repository"
	"manabi/backend/pkg/metrics"
)

// ── 学习记录模块业务错误 ──

var (
	ErrLearningRecordNotFound  = errors.New("学习记录不存在")
	ErrLearningRecordDuplicate = errors.New("相同 Idempotency-Key 的学习记录已提交")
)

// LearningRecordService 学习记录业务接口
//
// 设计说明：
//   - completed_at 取服务端当前时间，与排程所用的 now 一致
//   - 请求携带 Idempotency-Key 时，同一用户同一 key 在 TTL 内只会创建一次（需要 Redis）
type LearningRecordService interface {
	// Create 保存学习记录并尽力排程复习提醒；排程失败只记日志，不影响返回
	Create(ctx context.Context, userID string, req *dto.CreateLearningRecordRequest) (*dto.LearningRecordResponse, error)
	GetByID(ctx context.Context, userID, id string) (*dto.LearningRecordResponse, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]dto.LearningRecordResponse, int64, error)
}

type learningRecordService struct {
	repo      *repository.Repository
	reminders ReminderService
	locker    Locker
	idemTTL   time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewLearningRecordService 创建 LearningRecordService 实例
func NewLearningRecordService(
	cfg *config.ReminderConfig,
	repo *repository.Repository,
	reminders ReminderService,
	locker Locker,
	m *metrics.Metrics,
	logger *zap.Logger,
) LearningRecordService {
	return &learningRecordService{
		repo:      repo,
		reminders: reminders,
		locker:    locker,
		idemTTL:   cfg.IdempotencyTTL,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Create ──────────────────────

func (s *learningRecordService) Create(ctx context.Context, userID string, req *dto.CreateLearningRecordRequest) (*dto.LearningRecordResponse, error) {
	release, err := s.claimIdempotencyKey(ctx, userID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &model.LearningRecord{
		UserID:          userID,
		Subject:         req.Subject,
		Topic:           req.Topic,
		Content:         req.Content,
		DurationMinutes: req.DurationMinutes,
		CompletedAt:     now,
		BaseModel:       model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if err := s.repo.LearningRecord.Create(ctx, record); err != nil {
		s.logger.Error("创建学习记录失败", zap.String("user_id", userID), zap.Error(err))
		// 保存失败时释放 key，允许客户端重试
		release()
		return nil, err
	}

	s.scheduleSafely(ctx, userID, record.RecordID)

	return toLearningRecordResponse(record), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *learningRecordService) GetByID(ctx context.Context, userID, id string) (*dto.LearningRecordResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLearningRecordNotFound
	}

	record, err := s.repo.LearningRecord.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLearningRecordNotFound
		}
		s.logger.Error("查询学习记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if record.UserID != userID {
		return nil, ErrLearningRecordNotFound
	}
	return toLearningRecordResponse(record), nil
}

// ────────────────────── List ──────────────────────

func (s *learningRecordService) List(ctx context.Context, userID string, page, pageSize int) ([]dto.LearningRecordResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	records, total, err := s.repo.LearningRecord.List(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("列出学习记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.LearningRecordResponse, 0, len(records))
	for i := range records {
		result = append(result, *toLearningRecordResponse(&records[i]))
	}
	return result, total, nil
}

// ── 内部方法 ──

// claimIdempotencyKey 占用 Idempotency-Key；key 为空或未配置 Redis 时不做限制
// 返回的 release 用于在保存失败时归还 key
func (s *learningRecordService) claimIdempotencyKey(ctx context.Context, userID, key string) (func(), error) {
	noop := func() {}
	if key == "" || s.locker == nil {
		return noop, nil
	}

	lockKey := idempotencyLockKey(userID, key)
	token, acquired, err := s.locker.TryLock(ctx, lockKey, s.idemTTL)
	if err != nil {
		s.logger.Warn("Idempotency-Key 检查失败，按无 key 处理", zap.String("user_id", userID), zap.Error(err))
		return noop, nil
	}
	if !acquired {
		return nil, ErrLearningRecordDuplicate
	}
	return func() {
		if err := s.locker.Unlock(context.Background(), lockKey, token); err != nil {
			s.logger.Warn("释放 Idempotency-Key 失败", zap.String("user_id", userID), zap.Error(err))
		}
	}, nil
}

// scheduleSafely 排程的失败边界：错误与 panic 都在此吞掉
func (s *learningRecordService) scheduleSafely(ctx context.Context, userID, recordID string) {
	log := s.logger.With(zap.String("user_id", userID), zap.String("record_id", recordID))

	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncScheduleFailure()
			log.Error("复习提醒排程 panic", zap.Any("panic", r))
		}
	}()

	if _, err := s.reminders.ScheduleReminders(ctx, userID, recordID); err != nil {
		s.metrics.IncScheduleFailure()
		log.Error("复习提醒排程失败", zap.Error(err))
	}
}

func idempotencyLockKey(userID, key string) string {
	return fmt.Sprintf("learning_record:idempotency:%s:%s", userID, key)
}

func toLearningRecordResponse(r *model.LearningRecord) *dto.LearningRecordResponse {
	return &dto.LearningRecordResponse{
		ID:              r.RecordID,
		Subject:         r.Subject,
		Topic:           r.Topic,
		Content:         r.Content,
		DurationMinutes: r.DurationMinutes,
		CompletedAt:     r.CompletedAt.UTC().Format(time.RFC3339),
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
