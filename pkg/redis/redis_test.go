package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"manabi/backend/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(&config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestBlacklistToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))

	listed, err := c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = c.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)

	mr.FastForward(2 * time.Minute)
	listed, err = c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, listed, "TTL 到期后应移出黑名单")
}

func TestBlacklistToken_ExpiredTTL(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.BlacklistToken(ctx, "jti-old", 0))

	listed, err := c.IsBlacklisted(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "第 %d 次请求应放行", i+1)
	}

	allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "超过窗口上限应拒绝")

	allowed, err = c.CheckRateLimit(ctx, "rl:other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "不同 key 互不影响")
}

func TestTryLock(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "锁被占用时不应重复获取")

	require.NoError(t, c.Unlock(ctx, "reminder:dispatch", token))
	_, ok, err = c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "释放后应能再次获取")

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "TTL 到期后锁自动失效")
}

func TestUnlock_StaleTokenKeepsNewHolder(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	stale, ok, err := c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// 首个持有者超时，锁被第二个持有者取得
	mr.FastForward(2 * time.Minute)
	_, ok, err = c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Unlock(ctx, "reminder:dispatch", stale))
	assert.True(t, mr.Exists("lock:reminder:dispatch"), "过期持有者不应删除新持有者的锁")

	_, ok, err = c.TryLock(ctx, "reminder:dispatch", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryLock_RejectsNonPositiveTTL(t *testing.T) {
	c, mr := newTestClient(t)

	_, ok, err := c.TryLock(context.Background(), "reminder:dispatch", 0)
	assert.ErrorIs(t, err, ErrLockTTLInvalid)
	assert.False(t, ok)
	assert.False(t, mr.Exists("lock:reminder:dispatch"))
}
