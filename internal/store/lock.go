package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/mmcdole/jellyshelf/internal/domain"
)

const lockRetryDelay = 10 * time.Millisecond

// withLock runs fn while holding the exclusive file lock for key.
// The lock is released on every path out of fn.
func (s *Store) withLock(ctx context.Context, key domain.CacheKey, fn func() error) error {
	lock := flock.New(s.lockPath(key))

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if !locked {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil || lockCtx.Err() != nil {
			return fmt.Errorf("%w: %s after %s", domain.ErrLockTimeout, key, s.lockTimeout)
		}
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release cache lock", "key", key, "error", err)
		}
	}()

	return fn()
}
