package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ── 认证模块业务错误 ──

var (
	ErrTokenRevocationUnavailable = errors.New("未配置 Token 黑名单存储")
)

// AuthService 认证业务接口
// 签发 Token 由外部认证服务负责，本服务只做校验与吊销
type AuthService interface {
	// Logout 将 Token 加入黑名单直至其过期
	Logout(ctx context.Context, jti string, expiresAt time.Time, userID string) error
}

type authService struct {
	blacklist TokenBlacklist
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService 创建 AuthService 实例，blacklist 可为 nil
func NewAuthService(blacklist TokenBlacklist, logger *zap.Logger) AuthService {
	return &authService{
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time, userID string) error {
	if s.blacklist == nil {
		return ErrTokenRevocationUnavailable
	}

	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 || jti == "" {
		// 已过期或无 jti 的 Token 无需拉黑
		return nil
	}

	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("用户登出", zap.String("user_id", userID))
	return nil
}
