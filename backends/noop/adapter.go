package noop

import (
	"context"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/metadata"
)

// BackendName identifies this adapter in logs and metrics
const BackendName = "noop"

// Adapter is a storage backend that rejects every call with
// metadata.ErrBackendDisabled. It stands in for a backend that is not configured.
type Adapter struct {
	backend string
}

// New creates a disabled adapter on behalf of the named backend
func New(backend string) backends.Storage {
	return &Adapter{backend: backend}
}

func (n *Adapter) disabled(op string) error {
	return metadata.WrapStorage(n.backend, op, metadata.ErrBackendDisabled)
}

// Name returns the backend identifier
func (n *Adapter) Name() string {
	return BackendName
}

// CreateFolder always returns an error for noop backend
func (n *Adapter) CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error) {
	return nil, n.disabled("CreateFolder")
}

// GetFolder always returns an error for noop backend
func (n *Adapter) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	return nil, n.disabled("GetFolder")
}

// ListFolders always returns an error for noop backend
func (n *Adapter) ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error) {
	return nil, n.disabled("ListFolders")
}

// UpdateFolder always returns an error for noop backend
func (n *Adapter) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	return nil, n.disabled("UpdateFolder")
}

// DeleteFolder always returns an error for noop backend
func (n *Adapter) DeleteFolder(ctx context.Context, id string) error {
	return n.disabled("DeleteFolder")
}

// GetUploadURL always returns an error for noop backend
func (n *Adapter) GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error) {
	return nil, n.disabled("GetUploadURL")
}

// CreateImage always returns an error for noop backend
func (n *Adapter) CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error) {
	return nil, n.disabled("CreateImage")
}

// ListImages always returns an error for noop backend
func (n *Adapter) ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error) {
	return nil, n.disabled("ListImages")
}

// DeleteImage always returns an error for noop backend
func (n *Adapter) DeleteImage(ctx context.Context, id, key string) error {
	return n.disabled("DeleteImage")
}

// ListFolderContents always returns an error for noop backend
func (n *Adapter) ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error) {
	return nil, n.disabled("ListFolderContents")
}

// Close does nothing for noop backend
func (n *Adapter) Close() error {
	return nil
}
