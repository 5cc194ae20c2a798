package core

import (
	"testing"
	"time"

	"github.com/ebogdum/imagedeck/metadata"
)

func TestFolderCacheReturnsCopies(t *testing.T) {
	c := NewFolderCache(time.Minute, 10)
	defer c.Stop()

	c.Set(&metadata.Folder{ID: "a", Name: "A"})
	got, ok := c.Get("a")
	if !ok {
		t.Fatal("expected a hit")
	}
	got.Name = "changed"

	again, _ := c.Get("a")
	if again.Name != "A" {
		t.Errorf("cached value was mutated through a returned copy: %q", again.Name)
	}
}

func TestFolderCacheExpiry(t *testing.T) {
	c := NewFolderCache(time.Minute, 10)
	defer c.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(&metadata.Folder{ID: "a"})
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	c.purgeExpired()
	if c.Len() != 0 {
		t.Errorf("len = %d after purge", c.Len())
	}
}

func TestFolderCacheEvictsAtCapacity(t *testing.T) {
	c := NewFolderCache(time.Minute, 2)
	defer c.Stop()

	c.Set(&metadata.Folder{ID: "a"})
	c.Set(&metadata.Folder{ID: "b"})
	c.Set(&metadata.Folder{ID: "c"})

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry missing")
	}

	c.Invalidate("c")
	if _, ok := c.Get("c"); ok {
		t.Error("invalidated entry returned")
	}
}
