package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/flags"
	"github.com/ebogdum/imagedeck/metrics"
)

// Constructor builds a storage backend
type Constructor func(ctx context.Context) (backends.Storage, error)

// Resolver picks the storage backend once per process. The
// useFirebaseStorage flag selects Firebase; a false flag or any error
// reading it selects AWS. The first successfully built backend is reused
// for the rest of the process lifetime.
type Resolver struct {
	flags    flags.Source
	aws      Constructor
	firebase Constructor
	logger   *zap.Logger

	mu          sync.Mutex
	decided     bool
	useFirebase bool
	reason      string
	storage     backends.Storage
}

// NewResolver creates a resolver from a flag source and the two constructors
func NewResolver(source flags.Source, aws, firebase Constructor, logger *zap.Logger) *Resolver {
	return &Resolver{
		flags:    source,
		aws:      aws,
		firebase: firebase,
		logger:   logger,
	}
}

// Storage returns the resolved backend, building it on first use. A failed
// construction is returned and not cached, so the next call retries; the
// flag decision itself is kept.
func (r *Resolver) Storage(ctx context.Context) (backends.Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storage != nil {
		return r.storage, nil
	}

	if !r.decided {
		r.decide(ctx)
	}

	backend, build := "aws", r.aws
	if r.useFirebase {
		backend, build = "firebase", r.firebase
	}

	s, err := build(ctx)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("resolver", "construct").Inc()
		return nil, fmt.Errorf("failed to initialize %s storage: %w", backend, err)
	}

	r.storage = s
	metrics.AdapterResolutionsTotal.WithLabelValues(backend, r.reason).Inc()
	r.logger.Info("Storage backend resolved",
		zap.String("backend", backend),
		zap.String("adapter", s.Name()),
		zap.String("reason", r.reason))

	return s, nil
}

// decide reads the flag once (caller must hold the lock)
func (r *Resolver) decide(ctx context.Context) {
	use, err := r.flags.Bool(ctx, flags.UseFirebaseStorage)
	switch {
	case err != nil:
		r.logger.Warn("Failed to read storage flag, falling back to AWS",
			zap.String("flag", flags.UseFirebaseStorage),
			zap.Error(err))
		r.useFirebase, r.reason = false, "flag_error"
	case use:
		r.useFirebase, r.reason = true, "flag"
	default:
		r.useFirebase, r.reason = false, "default"
	}
	r.decided = true
}

// Backend returns the name of the resolved adapter, or "" before resolution
func (r *Resolver) Backend() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage == nil {
		return ""
	}
	return r.storage.Name()
}

// Close closes the resolved backend
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage == nil {
		return nil
	}
	err := r.storage.Close()
	r.storage = nil
	return err
}
