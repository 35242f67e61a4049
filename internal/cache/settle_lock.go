package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript 仅释放自己持有的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SettlementLocker 基于 Redis SET NX 的订单结算锁，Redis 未启用时退化为空操作
type SettlementLocker struct {
	client *redis.Client
}

// NewSettlementLocker 创建结算锁（使用全局 Redis 客户端）
func NewSettlementLocker() *SettlementLocker {
	return &SettlementLocker{client: Client()}
}

// NewSettlementLockerWithClient 使用指定客户端创建结算锁
func NewSettlementLockerWithClient(client *redis.Client) *SettlementLocker {
	return &SettlementLocker{client: client}
}

// SettlementLockKey 订单结算锁键
func SettlementLockKey(orderID uint) string {
	return fmt.Sprintf("lock:settle:order:%d", orderID)
}

// TryLock 尝试加锁，ok=false 表示锁被他人持有；unlock 总是可安全调用
func (l *SettlementLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if l == nil || l.client == nil {
		return func() {}, true, nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	fullKey := buildKey(key)
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !acquired {
		return func() {}, false, nil
	}
	unlock := func() {
		// 请求上下文可能已取消，释放锁使用独立的短超时
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
	}
	return unlock, true, nil
}
