package progression

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immersionlab/backend/internal/common"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/immersionlab/backend/pkg/xredis"
	"github.com/puzpuzpuz/xsync"
)

// Locker serializes the recomputes of the same user. Different users never
// wait for each other.
type Locker interface {
	// Lock blocks until the lock of the user is acquired or ctx is done. The
	// returned function releases the lock.
	Lock(ctx context.Context, userID string) (func(), error)
}

type userLock struct {
	ch chan struct{}

	mutex   sync.Mutex
	refs    int
	removed bool
}

type localLocker struct {
	locks *xsync.MapOf[string, *userLock]
}

// NewLocalLocker returns a Locker for a single process.
func NewLocalLocker() *localLocker {
	return &localLocker{locks: xsync.NewMapOf[*userLock]()}
}

func (l *localLocker) Lock(ctx context.Context, userID string) (func(), error) {
	lock := l.acquire(userID)

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.release(userID, lock)
		}, nil

	case <-ctx.Done():
		l.release(userID, lock)
		return nil, ctx.Err()
	}
}

// acquire returns the lock of the user with one more reference. An entry which
// was removed from the table in the meantime is never reused.
func (l *localLocker) acquire(userID string) *userLock {
	for {
		lock, _ := l.locks.LoadOrCompute(userID, func() *userLock {
			return &userLock{ch: make(chan struct{}, 1)}
		})

		lock.mutex.Lock()
		if lock.removed {
			lock.mutex.Unlock()
			continue
		}

		lock.refs++
		lock.mutex.Unlock()
		return lock
	}
}

func (l *localLocker) release(userID string, lock *userLock) {
	lock.mutex.Lock()
	defer lock.mutex.Unlock()

	lock.refs--
	if lock.refs <= 0 {
		// No other entry can be stored under the key before this deletion.
		lock.removed = true
		l.locks.LoadAndDelete(userID)
	}
}

const redisLockRetryWait = 50 * time.Millisecond

type redisLocker struct {
	client xredis.Client
	ttl    time.Duration
}

// NewRedisLocker returns a Locker shared by every process connected to the
// same redis. The lock expires after ttl if its holder dies.
func NewRedisLocker(client xredis.Client, ttl time.Duration) *redisLocker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := common.RedisKeyProgressionLock(userID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("cannot acquire lock of %s: %w", userID, err)
		}

		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetryWait):
		}
	}

	return func() {
		// The request context may be already done, the release must still
		// reach redis.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if _, err := l.client.CompareAndDelete(releaseCtx, key, token); err != nil {
			// The lock still expires by itself after ttl.
			xcontext.Logger(ctx).Warnf("Cannot release lock of %s: %v", userID, err)
		}
	}, nil
}
