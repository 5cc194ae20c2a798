package core

import (
	"sync"
	"time"

	"github.com/ebogdum/imagedeck/metadata"
	"github.com/ebogdum/imagedeck/metrics"
)

// cacheEntry is a cached folder with its expiry
type cacheEntry struct {
	folder    metadata.Folder
	expiresAt time.Time
}

// FolderCache keeps recently read folders in memory with a TTL. It backs
// parent existence checks and ancestor walks, which re-read the same folders.
type FolderCache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewFolderCache creates a cache and starts its background cleanup
func NewFolderCache(ttl time.Duration, maxSize int) *FolderCache {
	c := &FolderCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns a copy of a cached folder
func (c *FolderCache) Get(id string) (*metadata.Folder, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		metrics.FolderCacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.FolderCacheLookupsTotal.WithLabelValues("hit").Inc()
	folder := entry.folder
	return &folder, true
}

// Set stores a copy of the folder
func (c *FolderCache) Set(folder *metadata.Folder) {
	if folder == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[folder.ID]; !exists && len(c.entries) >= c.maxSize {
		c.evictOne()
	}
	c.entries[folder.ID] = cacheEntry{folder: *folder, expiresAt: c.now().Add(c.ttl)}
}

// Invalidate removes a folder from the cache
func (c *FolderCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of cached entries, expired ones included
func (c *FolderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop ends the background cleanup
func (c *FolderCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// evictOne drops an expired entry if there is one, otherwise an arbitrary
// entry (caller must hold the lock)
func (c *FolderCache) evictOne() {
	now := c.now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
			return
		}
	}
	for id := range c.entries {
		delete(c.entries, id)
		return
	}
}

func (c *FolderCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *FolderCache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}
