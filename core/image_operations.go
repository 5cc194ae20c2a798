package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/core/log"
	"github.com/ebogdum/imagedeck/internal/pathutil"
	"github.com/ebogdum/imagedeck/metadata"
	"github.com/ebogdum/imagedeck/metrics"
)

// GetUploadURL issues a presigned PUT URL for a new image object
func (e *Engine) GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error) {
	clean, err := pathutil.SanitizeFilename(filename)
	if err != nil {
		return nil, metadata.Invalid("filename: %v", err)
	}

	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	upload, err := s.GetUploadURL(ctx, clean, contentType)
	observe(s.Name(), "GetUploadURL", start, err)
	if err != nil {
		return nil, err
	}
	metrics.UploadURLsIssuedTotal.WithLabelValues(s.Name()).Inc()

	e.logger.Debug("Upload URL issued",
		zap.String("key", log.SanitizeKey(upload.Filename)),
		zap.String("backend", s.Name()))

	return upload, nil
}

// CreateImage records an uploaded object. The target folder must exist and
// its lock is held so the folder cannot be deleted underneath the new image.
func (e *Engine) CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error) {
	in.FolderID = scope(in.FolderID)
	req := createImageRequest{Name: in.Name, FolderID: in.FolderID, Key: in.Key}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	var image *metadata.Image
	create := func() error {
		if err := e.requireFolder(ctx, s, in.FolderID); err != nil {
			return err
		}
		start := time.Now()
		image, err = s.CreateImage(ctx, in)
		observe(s.Name(), "CreateImage", start, err)
		return err
	}

	if in.FolderID == metadata.RootID {
		err = create()
	} else {
		err = e.withFolderLock(ctx, in.FolderID, create)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("Image created",
		zap.String("id", image.ID),
		zap.String("folder_id", image.FolderID),
		zap.String("key", log.SanitizeKey(image.Key)),
		zap.String("backend", s.Name()))

	return image, nil
}

// ListImages returns one page of the images in a folder (root when empty)
func (e *Engine) ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error) {
	opts, err := listOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := s.ListImages(ctx, scope(folderID), opts)
	observe(s.Name(), "ListImages", start, err)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// DeleteImage removes an image object and its metadata record
func (e *Engine) DeleteImage(ctx context.Context, id, key string) error {
	req := deleteImageRequest{ID: id, Key: key}
	if err := req.Validate(); err != nil {
		return invalid(err)
	}

	s, err := e.storage(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.DeleteImage(ctx, id, key)
	observe(s.Name(), "DeleteImage", start, err)
	if err != nil {
		return err
	}

	e.logger.Info("Image deleted",
		zap.String("id", id),
		zap.String("key", log.SanitizeKey(key)),
		zap.String("backend", s.Name()))

	return nil
}
