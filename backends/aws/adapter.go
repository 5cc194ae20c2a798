// Package aws implements backends.Storage on top of two DynamoDB tables
// (folders, images) and an S3 bucket holding the image bytes.
package aws

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/config"
	"github.com/ebogdum/imagedeck/metadata"
)

// BackendName identifies this adapter in logs, metrics and errors
const BackendName = "aws"

// Adapter implements the backends.Storage interface for DynamoDB and S3
type Adapter struct {
	db           dynamodbiface.DynamoDBAPI
	objects      s3iface.S3API
	bucketName   string
	region       string
	endpoint     string
	foldersTable string
	imagesTable  string
	uploadExpiry time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// Options describes an Adapter built from existing clients
type Options struct {
	BucketName   string
	Region       string
	Endpoint     string
	FoldersTable string
	ImagesTable  string
}

// New creates an AWS storage adapter from configuration
func New(cfg config.AWSConfig, logger *zap.Logger) (*Adapter, error) {
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// Fall back to the default credential chain (env, shared config, role)
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	// Set custom endpoint if provided (LocalStack / MinIO)
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(strings.HasPrefix(cfg.Endpoint, "http://"))
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	objects := s3.New(sess)

	// Verify bucket access
	if _, err := objects.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %s: %w", cfg.BucketName, err)
	}

	return NewWithClients(dynamodb.New(sess), objects, Options{
		BucketName:   cfg.BucketName,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		FoldersTable: cfg.FoldersTable,
		ImagesTable:  cfg.ImagesTable,
	}, logger), nil
}

// NewWithClients creates an adapter around already configured clients
func NewWithClients(db dynamodbiface.DynamoDBAPI, objects s3iface.S3API, opts Options, logger *zap.Logger) *Adapter {
	if opts.FoldersTable == "" {
		opts.FoldersTable = "folders"
	}
	if opts.ImagesTable == "" {
		opts.ImagesTable = "images"
	}
	return &Adapter{
		db:           db,
		objects:      objects,
		bucketName:   opts.BucketName,
		region:       opts.Region,
		endpoint:     strings.TrimRight(opts.Endpoint, "/"),
		foldersTable: opts.FoldersTable,
		imagesTable:  opts.ImagesTable,
		uploadExpiry: time.Hour,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// Name returns the backend identifier
func (a *Adapter) Name() string {
	return BackendName
}

// Close closes any resources used by the adapter
func (a *Adapter) Close() error {
	// The SDK clients hold no resources that need releasing
	return nil
}

// objectURL returns the public location of a stored object
func (a *Adapter) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if a.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", a.endpoint, a.bucketName, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucketName, a.region, escaped)
}

// storageErr wraps an SDK failure, mapping conditional check failures to
// metadata.ErrNotFound
func storageErr(op string, err error) error {
	if isConditionalCheckFailed(err) {
		err = metadata.ErrNotFound
	}
	return metadata.WrapStorage(BackendName, op, err)
}

func isConditionalCheckFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

// isS3NotFound checks if an error indicates the object was not found
func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound"
	}
	return false
}
