package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	fb "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ebogdum/imagedeck/config"
	"github.com/ebogdum/imagedeck/metadata"
)

// New creates a Firebase storage adapter from configuration
func New(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) (*Adapter, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	if cfg.StorageBucket == "" {
		return nil, fmt.Errorf("firebase storage bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	st, err := app.Storage(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	bucket, err := st.DefaultBucket()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open bucket %s: %w", cfg.StorageBucket, err)
	}

	logger.Info("Firebase adapter initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("bucket", cfg.StorageBucket))

	return NewWithStores(&firestoreStore{client: client}, &bucketStore{bucket: bucket}, Options{
		FoldersCollection: cfg.FoldersCollection,
		ImagesCollection:  cfg.ImagesCollection,
	}, logger), nil
}

// firestoreStore implements DocumentStore with a Firestore client
type firestoreStore struct {
	client *firestore.Client
}

func (s *firestoreStore) Set(ctx context.Context, collection, id string, doc interface{}) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, doc)
	return err
}

func (s *firestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) (Document, error) {
	ref := s.client.Collection(collection).Doc(id)
	updates := make([]firestore.Update, 0, len(fields))
	for path, v := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}

	// Update fails with NotFound instead of creating the document
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, metadata.ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, collection, id)
}

func (s *firestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, metadata.ErrNotFound
		}
		return nil, err
	}
	return snap, nil
}

func (s *firestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

func (s *firestoreStore) Query(ctx context.Context, q Query) ([]Document, error) {
	fq := s.client.Collection(q.Collection).Query
	if q.Filter != "" {
		fq = fq.Where(q.Filter, "==", q.Value)
	}

	dir := firestore.Asc
	if q.Desc {
		dir = firestore.Desc
	}
	fq = fq.OrderBy(q.OrderBy, dir).OrderBy(firestore.DocumentID, firestore.Asc)

	if len(q.StartAfter) > 0 {
		fq = fq.StartAfter(q.StartAfter...)
	} else if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(snaps))
	for i, snap := range snaps {
		docs[i] = snap
	}
	return docs, nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}

// bucketStore implements ObjectStore with a Cloud Storage bucket
type bucketStore struct {
	bucket *storage.BucketHandle
}

func (b *bucketStore) SignedURL(object, method, contentType string, expires time.Time) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  method,
		Expires: expires,
	}
	if contentType != "" {
		opts.ContentType = contentType
	}
	return b.bucket.SignedURL(object, opts)
}

func (b *bucketStore) Delete(ctx context.Context, object string) error {
	err := b.bucket.Object(object).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}
