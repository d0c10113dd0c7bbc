// Package runlock keeps two runs of the same job from overlapping.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mangaalert/internal/config"
)

// ErrLocked means another run holds the lock.
var ErrLocked = errors.New("run lock is held by another process")

// Release gives the lock back. It is safe to call more than once.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, name string) (Release, error)
}

// New builds the locker selected by RUN_LOCK_BACKEND.
func New(cfg *config.Config) (Locker, error) {
	switch cfg.RunLockBackend {
	case "file":
		return NewFileLock(cfg.RunLockPath), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts.DialTimeout = 5 * time.Second
		opts.ReadTimeout = 3 * time.Second
		opts.WriteTimeout = 3 * time.Second
		return NewRedisLock(redis.NewClient(opts), cfg.RunLockTTL), nil
	case "none":
		return Noop{}, nil
	}
	return nil, fmt.Errorf("unsupported run lock backend %q", cfg.RunLockBackend)
}

// FileLock is a host-local lock on <dir>/mangaalert-<name>.lock.
type FileLock struct {
	dir string
}

func NewFileLock(dir string) *FileLock {
	return &FileLock{dir: dir}
}

func (l *FileLock) Acquire(_ context.Context, name string) (Release, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(filepath.Join(l.dir, "mangaalert-"+name+".lock"))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(context.Context) error {
		return lock.Unlock()
	}, nil
}

// deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a lease shared by every host using the same Redis. The lease
// expires after ttl even if the holder dies.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, ttl: ttl}
}

func (l *RedisLock) Acquire(ctx context.Context, name string) (Release, error) {
	key := "mangaalert:runlock:" + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lease %s: %w", key, err)
		}
		return nil
	}, nil
}

// Noop never blocks.
type Noop struct{}

func (Noop) Acquire(context.Context, string) (Release, error) {
	return func(context.Context) error { return nil }, nil
}
