package runlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker 保证同一时刻只有一轮流水线在执行。
// 拿不到锁时返回 ok=false，调用方跳过本次 tick。
type Locker interface {
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

// LocalLocker 进程内互斥，单副本部署足够
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

// 只删除自己持有的锁，避免锁过期后误删别的副本的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 多副本部署时用 Redis 做运行锁；TTL 兜底进程崩溃后锁不释放的情况
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

const defaultKey = "newsmailer:run-lock"

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: defaultKey, ttl: ttl}
}

// Dial 创建 Redis 客户端并 ping 一次；ping 失败只告警，与存储层初始化保持一致
func Dial(addr string) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis ping failed", "addr", addr, "error", err)
	}
	return rdb
}

func (r *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}

	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("runlock: acquire %s: %w", r.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// 运行可能已被取消，释放锁用独立的 context
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
			slog.Warn("runlock: release failed", "key", r.key, "error", err)
		}
	}
	return unlock, true, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("runlock: token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
