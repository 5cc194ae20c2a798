package noop

import (
	"context"
	"errors"
	"testing"

	"github.com/ebogdum/imagedeck/metadata"
)

func TestEveryCallIsDisabled(t *testing.T) {
	s := New("firebase")
	ctx := context.Background()

	_, err := s.ListFolders(ctx, "root", metadata.ListOptions{})
	if !errors.Is(err, metadata.ErrBackendDisabled) {
		t.Fatalf("expected ErrBackendDisabled, got %v", err)
	}
	var storageErr *metadata.StorageError
	if !errors.As(err, &storageErr) || storageErr.Backend != "firebase" {
		t.Errorf("expected the error to name the disabled backend, got %v", err)
	}

	if err := s.DeleteImage(ctx, "id", "images/1-a.png"); !errors.Is(err, metadata.ErrBackendDisabled) {
		t.Errorf("expected ErrBackendDisabled, got %v", err)
	}
	if s.Name() != BackendName {
		t.Errorf("name = %q", s.Name())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
