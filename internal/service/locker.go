package service

import (
	"context"
	"time"
)

// Locker 分布式锁（Redis SETNX + token 校验释放）
// 未配置 Redis 时传 nil，相关防护随之跳过
type Locker interface {
	// TryLock 成功时返回持有者 token，释放时需原样传回
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// TokenBlacklist Token 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}
