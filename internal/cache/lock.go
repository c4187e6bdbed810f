package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired 锁已被其他实例持有
var ErrLockNotAcquired = errors.New("lock not acquired")

// 持有者令牌匹配时才删除
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock 分布式互斥锁
type Lock struct {
	key   string
	token string
	held  bool
}

// TryLock 尝试获取分布式锁；Redis 未启用时视为单实例直接获得
func TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{key: buildKey("lock:" + key), token: uuid.NewString()}
	if !Enabled() {
		return lock, nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := redisClient.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	lock.held = true
	return lock, nil
}

// Unlock 释放锁
func (l *Lock) Unlock(ctx context.Context) error {
	if l == nil || !l.held || !Enabled() {
		return nil
	}
	l.held = false
	return unlockScript.Run(ctx, redisClient, []string{l.key}, l.token).Err()
}
