package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired means another holder kept the lock for the whole wait budget.
var ErrNotAcquired = errors.New("lock not acquired")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const defaultRetryDelay = 25 * time.Millisecond

// RedisLock is a best-effort mutual exclusion keyed in Redis. Each Lock call
// stores a random token so only the owner can release it.
type RedisLock struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	wait       time.Duration
	retryDelay time.Duration
	release    *redis.Script
}

func NewRedisLock(client *redis.Client, prefix string, ttl, wait time.Duration) *RedisLock {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLock{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		wait:       wait,
		retryDelay: defaultRetryDelay,
		release:    redis.NewScript(releaseScript),
	}
}

func (l *RedisLock) key(name string) string {
	if l.prefix == "" {
		return name
	}
	return l.prefix + ":" + name
}

// TryAcquire makes a single attempt. It returns the owner token on success.
func (l *RedisLock) TryAcquire(ctx context.Context, name string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(name), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the lock if token still owns it.
func (l *RedisLock) Release(ctx context.Context, name, token string) error {
	return l.release.Run(ctx, l.client, []string{l.key(name)}, token).Err()
}

// Lock retries TryAcquire until the wait budget runs out. The returned func
// releases the lock and is safe to call once.
func (l *RedisLock) Lock(ctx context.Context, name string) (func(), error) {
	deadline := time.Now().Add(l.wait)
	for {
		token, ok, err := l.TryAcquire(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = l.Release(releaseCtx, name, token)
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
