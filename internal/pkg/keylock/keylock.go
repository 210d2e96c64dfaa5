// Package keylock serializes work per key, either inside one process or across
// replicas through Redis.
package keylock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned by Lock when the key stayed busy for every attempt.
var ErrNotAcquired = errors.New("keylock: lock not acquired")

// Unlock releases a held key. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive access to a key.
type Locker interface {
	// Lock blocks until key is held, ctx is done, or the implementation gives up.
	Lock(ctx context.Context, key string) (Unlock, error)
	// TryLock acquires key only if it is free right now.
	TryLock(ctx context.Context, key string) (Unlock, bool, error)
}
