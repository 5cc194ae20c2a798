// Package locks serializes folder mutations across goroutines or, with Redis,
// across instances.
package locks

import (
	"context"
	"errors"
	"time"
)

// ErrLockTimeout is returned by Wait when the lock stays held until the context ends
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Manager defines the interface for locking operations
type Manager interface {
	// Acquire attempts to take the lock for the given key.
	// Returns true if the lock was acquired, false if it is held by someone else.
	Acquire(ctx context.Context, key string) (bool, error)

	// Release releases a previously acquired lock for the given key.
	// The Redis manager only deletes a lock this instance acquired; the
	// local manager frees the key whoever took it, so callers must only
	// release keys they hold.
	Release(ctx context.Context, key string) error

	// Close closes the lock manager and releases any resources
	Close() error
}

// Wait polls Acquire until the lock is taken or ctx ends
func Wait(ctx context.Context, m Manager, key string, interval time.Duration) error {
	for {
		acquired, err := m.Acquire(ctx, key)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrLockTimeout
		case <-time.After(interval):
		}
	}
}
