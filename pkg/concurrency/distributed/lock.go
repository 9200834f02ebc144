package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// luaCompareAndDelete releases the lock only if the stored token matches,
// so an expired-and-reacquired lock is never released by a stale holder.
const luaCompareAndDelete = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Config holds configuration for a Redis-backed lock.
type Config struct {
	// Redis client for coordination
	Redis redis.UniversalClient

	// Key is the Redis key the lock is stored under
	Key string

	// TTL bounds how long a crashed holder can keep the lock (defaults to 30s)
	TTL time.Duration

	// RetryInterval is the polling interval while contended (defaults to 50ms)
	RetryInterval time.Duration

	// AcquireTimeout bounds a single acquisition attempt; zero means the
	// caller's context is the only bound
	AcquireTimeout time.Duration
}

// DefaultConfig returns a lock configuration with sensible defaults.
// Redis and Key must still be supplied.
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Second,
		RetryInterval: 50 * time.Millisecond,
	}
}

// Lock is a cross-process mutual exclusion primitive coordinated through a
// single Redis key. Acquisition is the atomic SET NX PX pattern; release is
// a compare-and-delete script keyed on a per-acquisition token.
//
// Fairness across contenders is weak: waiters poll, and whichever attempt
// lands first after a release wins.
type Lock struct {
	config        Config
	releaseScript *redis.Script

	mu    sync.Mutex
	token string
}

// NewLock creates a Redis-backed lock.
func NewLock(config Config) (*Lock, error) {
	if config.Redis == nil {
		return nil, aferrors.NewValidationError("distributed", "Redis", nil, "redis client is required")
	}
	if config.Key == "" {
		return nil, aferrors.NewValidationError("distributed", "Key", config.Key, "key is required")
	}
	if config.TTL < 0 || config.RetryInterval < 0 || config.AcquireTimeout < 0 {
		return nil, aferrors.NewValidationError("distributed", "durations", nil, "durations must not be negative")
	}

	if config.TTL == 0 {
		config.TTL = 30 * time.Second
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = 50 * time.Millisecond
	}

	return &Lock{
		config:        config,
		releaseScript: redis.NewScript(luaCompareAndDelete),
	}, nil
}

// releaseTimeout bounds the compensating delete issued when an acquisition
// is abandoned after the key was already written.
const releaseTimeout = 5 * time.Second

// Acquire returns a future that resolves once this instance holds the lock.
// Contended attempts poll at the configured retry interval. The future
// rejects with the cancellation taxonomy when the caller's context ends
// first, and with an OperationError when Redis itself fails.
func (l *Lock) Acquire(ctx context.Context) *future.Future[struct{}] {
	var heldMu sync.Mutex
	var held string

	f := future.New(func(execCtx context.Context) (struct{}, error) {
		if l.config.AcquireTimeout > 0 {
			var cancel context.CancelFunc
			execCtx, cancel = context.WithTimeout(execCtx, l.config.AcquireTimeout)
			defer cancel()
		}

		token, err := newToken()
		if err != nil {
			return struct{}{}, err
		}

		started := time.Now()
		reg := metrics.DefaultRegistry
		reg.LockContention.WithLabelValues("distributed").Inc()
		defer reg.LockContention.WithLabelValues("distributed").Dec()

		ticker := time.NewTicker(l.config.RetryInterval)
		defer ticker.Stop()

		for {
			ok, err := l.config.Redis.SetNX(execCtx, l.config.Key, token, l.config.TTL).Result()
			if err != nil {
				if execCtx.Err() != nil {
					return struct{}{}, aferrors.ErrCanceled
				}
				return struct{}{}, &aferrors.OperationError{
					Module:    "distributed",
					Operation: "acquire",
					Cause:     err,
				}
			}
			if ok {
				if execCtx.Err() != nil {
					// Lost a race with cancellation after the key was
					// written; free it rather than leaving a token nobody
					// will release until the TTL expires.
					l.compensate(token)
					return struct{}{}, aferrors.ErrCanceled
				}
				l.mu.Lock()
				l.token = token
				l.mu.Unlock()
				heldMu.Lock()
				held = token
				heldMu.Unlock()
				reg.LockAcquisitions.WithLabelValues("distributed").Inc()
				reg.LockWaitTime.WithLabelValues("distributed").Observe(time.Since(started).Seconds())
				return struct{}{}, nil
			}

			select {
			case <-ticker.C:
			case <-execCtx.Done():
				return struct{}{}, aferrors.ErrCanceled
			}
		}
	})

	// Wire the caller's context into the future so acquisition is bounded
	// even when Wait is given a different context.
	stop := context.AfterFunc(ctx, f.Cancel)

	// A signal firing between the key write and settlement rewrites the
	// successful acquisition into ErrCanceled while the key is held; give
	// the key back in that case.
	return f.Finally(func(f *future.Future[struct{}]) {
		stop()
		heldMu.Lock()
		token := held
		heldMu.Unlock()
		if token == "" || !aferrors.IsCanceled(f.Err()) {
			return
		}
		l.compensate(token)
		l.mu.Lock()
		if l.token == token {
			l.token = ""
		}
		l.mu.Unlock()
	})
}

// compensate deletes the key written by an abandoned acquisition. Best
// effort: on failure the TTL is the backstop.
func (l *Lock) compensate(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_, _ = l.releaseScript.Run(ctx, l.config.Redis, []string{l.config.Key}, token).Int()
}

// Release frees the lock if this instance still holds it. Releasing a lock
// that expired or was never acquired fails with an OperationError.
func (l *Lock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()

	if token == "" {
		return &aferrors.OperationError{
			Module:    "distributed",
			Operation: "release",
			Cause:     aferrors.ErrInvalidConfiguration,
			Context:   "lock is not held by this instance",
		}
	}

	deleted, err := l.releaseScript.Run(ctx, l.config.Redis, []string{l.config.Key}, token).Int()
	if err != nil {
		return &aferrors.OperationError{
			Module:    "distributed",
			Operation: "release",
			Cause:     err,
		}
	}
	if deleted == 0 {
		return &aferrors.OperationError{
			Module:    "distributed",
			Operation: "release",
			Cause:     aferrors.ErrInvalidConfiguration,
			Context:   "lock expired or was taken over before release",
		}
	}
	return nil
}

// With acquires the lock, runs fn, and releases regardless of fn's outcome.
// fn's error wins over a release error.
func (l *Lock) With(ctx context.Context, fn func(ctx context.Context) error) error {
	acquire := l.Acquire(ctx)
	if _, err := acquire.Wait(ctx); err != nil {
		// Abandon the in-flight acquisition so the poller stops and a late
		// key grab is compensated. A grab that settled before the cancel is
		// released here; one settling after it is rewritten to canceled and
		// compensated by the acquisition's own finally handler.
		acquire.Cancel()
		if _, ok := acquire.Value(); ok {
			relCtx, relCancel := context.WithTimeout(context.Background(), releaseTimeout)
			_ = l.Release(relCtx)
			relCancel()
		}
		return err
	}

	fnErr := fn(ctx)

	if err := l.Release(ctx); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", &aferrors.OperationError{
			Module:    "distributed",
			Operation: "token",
			Cause:     err,
		}
	}
	return hex.EncodeToString(buf), nil
}
