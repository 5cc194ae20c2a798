package firebase

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// GetUploadURL signs a PUT request for a new object in the bucket
func (a *Adapter) GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error) {
	if filename == "" {
		return nil, metadata.Invalid("filename is required")
	}

	now := a.now()
	key := metadata.ObjectKey(filename, now)
	uploadURL, err := a.objects.SignedURL(key, http.MethodPut, contentType, now.Add(a.uploadExpiry))
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "GetUploadURL", err)
	}

	a.logger.Debug("Upload URL signed",
		zap.String("key", key),
		zap.Duration("expiry", a.uploadExpiry))

	return &metadata.UploadURL{UploadURL: uploadURL, Filename: key}, nil
}

// CreateImage stores the metadata document of an uploaded object
func (a *Adapter) CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error) {
	if in.Name == "" {
		return nil, metadata.Invalid("image name is required")
	}
	if in.Key == "" {
		return nil, metadata.Invalid("image key is required")
	}

	now := a.now()
	doc := imageDoc{
		ID:          uuid.NewString(),
		Name:        in.Name,
		NameLower:   metadata.NameKey(in.Name),
		FolderID:    in.FolderID,
		Key:         in.Key,
		ContentType: in.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.FolderID == "" {
		doc.FolderID = metadata.RootID
	}

	if err := a.docs.Set(ctx, a.imagesCollection, doc.ID, doc); err != nil {
		return nil, storageErr("CreateImage", err)
	}

	image := doc.image()
	if err := a.withURL(&image); err != nil {
		return nil, err
	}

	a.logger.Debug("Image created in Firestore",
		zap.String("collection", a.imagesCollection),
		zap.String("id", image.ID),
		zap.String("key", image.Key))

	return &image, nil
}

// ListImages runs an ordered query on the images collection
func (a *Adapter) ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error) {
	q, sortOpts, page, err := buildQuery(a.imagesCollection, "folderId", folderID, opts)
	if err != nil {
		return nil, err
	}

	snaps, err := a.docs.Query(ctx, q)
	if err != nil {
		return nil, storageErr("ListImages", err)
	}

	images := make([]metadata.Image, 0, len(snaps))
	for _, snap := range snaps {
		var doc imageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, decodeErr("image", err)
		}
		images = append(images, doc.image())
	}

	result := &metadata.ImagePage{Images: images}
	if len(images) > page.Limit {
		result.Images = images[:page.Limit]
		result.LastKey = metadata.EncodeCursor(sortOpts.Field, result.Images[page.Limit-1])
	}

	for i := range result.Images {
		if err := a.withURL(&result.Images[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// DeleteImage removes the bucket object and the metadata document. Both
// deletions are attempted; there is no rollback when only one succeeds.
func (a *Adapter) DeleteImage(ctx context.Context, id, key string) error {
	var errs error

	if key != "" {
		if err := a.objects.Delete(ctx, key); err != nil {
			errs = multierr.Append(errs, metadata.WrapStorage(BackendName, "DeleteObject", err))
		}
	}

	if err := a.docs.Delete(ctx, a.imagesCollection, id); err != nil {
		errs = multierr.Append(errs, metadata.WrapStorage(BackendName, "DeleteImage", err))
	}

	if errs != nil {
		a.logger.Warn("Image deletion incomplete",
			zap.String("id", id),
			zap.String("key", key),
			zap.Error(errs))
		return errs
	}

	a.logger.Debug("Image deleted",
		zap.String("key", key),
		zap.String("id", id))

	return nil
}

// withURL attaches a signed download URL to an image
func (a *Adapter) withURL(image *metadata.Image) error {
	u, err := a.objects.SignedURL(image.Key, http.MethodGet, "", a.now().Add(downloadURLExpiry))
	if err != nil {
		return metadata.WrapStorage(BackendName, "SignURL", err)
	}
	image.URL = u
	return nil
}
