package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const defaultLease = 5 * time.Minute

// ErrNotHeld is returned by release when the lease already expired or was taken over.
var ErrNotHeld = errors.New("run lock not held")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLock is a single-holder lease shared by every process pointing at the same key.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	lease  time.Duration
}

var _ ports.RunLock = (*RedisLock)(nil)

// NewRedisLock builds a lock on key; a non-positive lease uses five minutes.
func NewRedisLock(client redis.UniversalClient, key string, lease time.Duration) *RedisLock {
	if lease <= 0 {
		lease = defaultLease
	}
	return &RedisLock{client: client, key: key, lease: lease}
}

// TryAcquire takes the lease without waiting. It fails with domain.ErrRunInProgress when held elsewhere.
func (l *RedisLock) TryAcquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.lease).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrRunInProgress
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return fmt.Errorf("release run lock: %w", err)
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, nil
}

// Noop never excludes concurrent runs.
type Noop struct{}

var _ ports.RunLock = Noop{}

// TryAcquire always succeeds.
func (Noop) TryAcquire(context.Context) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
