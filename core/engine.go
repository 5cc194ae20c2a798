// Package core orchestrates storage operations: it resolves the active
// backend, validates requests and enforces the folder tree policies that
// the adapters leave to their callers.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/locks"
	"github.com/ebogdum/imagedeck/metadata"
	"github.com/ebogdum/imagedeck/metrics"
)

const (
	// maxAncestorDepth bounds the parent walk of a folder move
	maxAncestorDepth = 256

	defaultLockWait     = 5 * time.Second
	lockPollInterval    = 25 * time.Millisecond
	defaultCacheTTL     = 30 * time.Second
	defaultCacheEntries = 1000
)

// StorageProvider hands out the storage backend requests run against
type StorageProvider interface {
	Storage(ctx context.Context) (backends.Storage, error)
}

// Engine represents the core imagedeck engine that orchestrates operations
type Engine struct {
	provider    StorageProvider
	lockManager locks.Manager
	folderCache *FolderCache
	lockWait    time.Duration
	logger      *zap.Logger
}

// NewEngine creates a new core engine instance
func NewEngine(provider StorageProvider, lockManager locks.Manager, logger *zap.Logger) *Engine {
	return &Engine{
		provider:    provider,
		lockManager: lockManager,
		folderCache: NewFolderCache(defaultCacheTTL, defaultCacheEntries),
		lockWait:    defaultLockWait,
		logger:      logger,
	}
}

// Close stops the folder cache cleanup
func (e *Engine) Close() {
	e.folderCache.Stop()
}

// storage resolves the active backend
func (e *Engine) storage(ctx context.Context) (backends.Storage, error) {
	s, err := e.provider.Storage(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("resolver", "resolve").Inc()
		return nil, fmt.Errorf("failed to resolve storage backend: %w", err)
	}
	return s, nil
}

// observe records the outcome and duration of one backend call
func observe(backend, op string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, metadata.ErrNotFound) && !errors.Is(err, metadata.ErrInvalidInput) {
		status = "failure"
	}
	metrics.BackendOpsTotal.WithLabelValues(backend, op, status).Inc()
	metrics.BackendOpDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// withFolderLock runs fn while holding the lock of a folder id
func (e *Engine) withFolderLock(ctx context.Context, folderID string, fn func() error) error {
	lockKey := "folder:" + folderID

	waitCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()

	start := time.Now()
	err := locks.Wait(waitCtx, e.lockManager, lockKey, lockPollInterval)
	metrics.LockOperationDuration.WithLabelValues("acquire").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LockOperationsTotal.WithLabelValues("acquire", "failure").Inc()
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	metrics.LockOperationsTotal.WithLabelValues("acquire", "success").Inc()

	defer func() {
		if err := e.lockManager.Release(context.Background(), lockKey); err != nil {
			metrics.LockOperationsTotal.WithLabelValues("release", "failure").Inc()
			e.logger.Error("Failed to release lock", zap.String("lock_key", lockKey), zap.Error(err))
			return
		}
		metrics.LockOperationsTotal.WithLabelValues("release", "success").Inc()
	}()

	return fn()
}

// lookupFolder reads a folder through the cache
func (e *Engine) lookupFolder(ctx context.Context, s backends.Storage, id string) (*metadata.Folder, error) {
	if folder, ok := e.folderCache.Get(id); ok {
		return folder, nil
	}

	start := time.Now()
	folder, err := s.GetFolder(ctx, id)
	observe(s.Name(), "GetFolder", start, err)
	if err != nil {
		return nil, err
	}
	e.folderCache.Set(folder)
	return folder, nil
}

// fetchFolder reads a folder from the backend and refreshes the cache.
// Checks made under a folder lock use it: another instance may have changed
// the folder while this cache still holds it.
func (e *Engine) fetchFolder(ctx context.Context, s backends.Storage, id string) (*metadata.Folder, error) {
	start := time.Now()
	folder, err := s.GetFolder(ctx, id)
	observe(s.Name(), "GetFolder", start, err)
	if err != nil {
		e.folderCache.Invalidate(id)
		return nil, err
	}
	e.folderCache.Set(folder)
	return folder, nil
}

// requireFolder checks that a non-root folder exists in the backend
func (e *Engine) requireFolder(ctx context.Context, s backends.Storage, id string) error {
	if id == metadata.RootID {
		return nil
	}
	if _, err := e.fetchFolder(ctx, s, id); err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return fmt.Errorf("folder %s: %w", id, metadata.ErrNotFound)
		}
		return err
	}
	return nil
}

// listOptions validates sort options before they reach an adapter
func listOptions(opts metadata.ListOptions) (metadata.ListOptions, error) {
	sortOpts, err := opts.Sort.Normalize()
	if err != nil {
		return opts, err
	}
	page, err := opts.Page.Normalize()
	if err != nil {
		return opts, err
	}
	return metadata.ListOptions{Sort: sortOpts, Page: page}, nil
}

func scope(id string) string {
	if id == "" {
		return metadata.RootID
	}
	return id
}
