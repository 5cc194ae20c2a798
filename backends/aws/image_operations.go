package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// GetUploadURL presigns a PUT request for a new object
func (a *Adapter) GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error) {
	if filename == "" {
		return nil, metadata.Invalid("filename is required")
	}

	key := metadata.ObjectKey(filename, a.now())
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, _ := a.objects.PutObjectRequest(input)
	req.SetContext(ctx)
	uploadURL, err := req.Presign(a.uploadExpiry)
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "GetUploadURL", err)
	}

	a.logger.Debug("Upload URL presigned",
		zap.String("bucket", a.bucketName),
		zap.String("key", key),
		zap.Duration("expiry", a.uploadExpiry))

	return &metadata.UploadURL{UploadURL: uploadURL, Filename: key}, nil
}

// CreateImage stores the metadata item of an uploaded object
func (a *Adapter) CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error) {
	if in.Name == "" {
		return nil, metadata.Invalid("image name is required")
	}
	if in.Key == "" {
		return nil, metadata.Invalid("image key is required")
	}

	now := a.now()
	image := &metadata.Image{
		ID:          uuid.NewString(),
		Name:        in.Name,
		FolderID:    in.FolderID,
		Key:         in.Key,
		ContentType: in.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if image.FolderID == "" {
		image.FolderID = metadata.RootID
	}

	item, err := dynamodbattribute.MarshalMap(image)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	_, err = a.db.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.imagesTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "CreateImage", err)
	}

	image.URL = a.objectURL(image.Key)

	a.logger.Debug("Image created in DynamoDB",
		zap.String("table", a.imagesTable),
		zap.String("id", image.ID),
		zap.String("key", image.Key))

	return image, nil
}

// ListImages scans the images table and returns the requested page
func (a *Adapter) ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error) {
	items, err := a.scanAll(ctx, a.imagesTable, "folderId", folderID)
	if err != nil {
		return nil, metadata.WrapStorage(BackendName, "ListImages", err)
	}

	images := make([]metadata.Image, 0, len(items))
	if err := dynamodbattribute.UnmarshalListOfMaps(items, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}

	page, lastKey, err := metadata.Paginate(images, opts)
	if err != nil {
		return nil, err
	}
	for i := range page {
		page[i].URL = a.objectURL(page[i].Key)
	}
	return &metadata.ImagePage{Images: page, LastKey: lastKey}, nil
}

// DeleteImage removes the S3 object and the metadata item. Both deletions are
// attempted; there is no rollback when only one of them succeeds.
func (a *Adapter) DeleteImage(ctx context.Context, id, key string) error {
	var errs error

	if key != "" {
		_, err := a.objects.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucketName),
			Key:    aws.String(key),
		})
		if err != nil && !isS3NotFound(err) {
			errs = multierr.Append(errs, metadata.WrapStorage(BackendName, "DeleteObject", err))
		}
	}

	_, err := a.db.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(a.imagesTable),
		Key:       idKey(id),
	})
	if err != nil {
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
		zap.String("bucket", a.bucketName),
		zap.String("key", key),
		zap.String("id", id))

	return nil
}
