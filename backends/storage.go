// Package backends defines the contract every storage backend of imagedeck
// implements. Adapters for AWS (DynamoDB + S3) and Firebase (Firestore +
// Cloud Storage) live in the sub-packages.
package backends

import (
	"context"

	"github.com/ebogdum/imagedeck/metadata"
)

// Upload URLs issued by every backend expire after this many seconds.
const UploadURLExpirySeconds = 3600

// Storage defines the folder and image operations of a storage backend.
// Implementations return metadata.ErrNotFound for missing records and wrap
// upstream failures in *metadata.StorageError.
type Storage interface {
	// Name returns the backend identifier used in logs and metrics
	Name() string

	// CreateFolder persists a new folder and returns it with its generated id
	CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error)

	// GetFolder returns one folder
	GetFolder(ctx context.Context, id string) (*metadata.Folder, error)

	// ListFolders returns one page of folders; an empty parentID lists all folders
	ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error)

	// UpdateFolder applies the non-nil patch fields and refreshes updatedAt
	UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error)

	// DeleteFolder removes a folder. Deleting a missing folder succeeds.
	DeleteFolder(ctx context.Context, id string) error

	// GetUploadURL issues a presigned PUT URL for a new object
	GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error)

	// CreateImage persists image metadata for an already uploaded object
	CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error)

	// ListImages returns one page of images; an empty folderID lists all images
	ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error)

	// DeleteImage removes both the stored object and the metadata record.
	// Both steps are always attempted and their failures are combined.
	DeleteImage(ctx context.Context, id, key string) error

	// ListFolderContents returns the child folders and images of a folder
	ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error)

	// Close releases any resources used by the backend
	Close() error
}
