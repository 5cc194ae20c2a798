// Package firebase implements backends.Storage on top of Firestore
// collections and a Cloud Storage bucket.
package firebase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// BackendName identifies this adapter in logs, metrics and errors
const BackendName = "firebase"

// downloadURLExpiry bounds the signed GET URLs handed out with images.
// Seven days is the longest lifetime V4 signing allows.
const downloadURLExpiry = 7 * 24 * time.Hour

// Document is a stored document that can be decoded into a struct
type Document interface {
	DataTo(p interface{}) error
}

// Query describes an ordered, filtered and paginated collection read
type Query struct {
	Collection string
	// Filter is an equality filter on one field; empty means no filter
	Filter string
	Value  string
	// OrderBy is always followed by an ascending document id order
	OrderBy string
	Desc    bool
	// StartAfter holds the OrderBy value and the document id of the last
	// delivered document; it takes precedence over Offset
	StartAfter []interface{}
	Offset     int
	Limit      int
}

// DocumentStore is the subset of Firestore the adapter uses
type DocumentStore interface {
	Set(ctx context.Context, collection, id string, doc interface{}) error
	// Update changes the given fields and returns metadata.ErrNotFound
	// when the document does not exist
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Delete succeeds for documents that do not exist
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Close() error
}

// ObjectStore is the subset of a Cloud Storage bucket the adapter uses
type ObjectStore interface {
	SignedURL(object, method, contentType string, expires time.Time) (string, error)
	// Delete succeeds for objects that do not exist
	Delete(ctx context.Context, object string) error
}

// Adapter implements the backends.Storage interface for Firebase
type Adapter struct {
	docs              DocumentStore
	objects           ObjectStore
	foldersCollection string
	imagesCollection  string
	uploadExpiry      time.Duration
	now               func() time.Time
	logger            *zap.Logger
}

// Options names the Firestore collections
type Options struct {
	FoldersCollection string
	ImagesCollection  string
}

// NewWithStores creates an adapter around existing stores
func NewWithStores(docs DocumentStore, objects ObjectStore, opts Options, logger *zap.Logger) *Adapter {
	if opts.FoldersCollection == "" {
		opts.FoldersCollection = "folders"
	}
	if opts.ImagesCollection == "" {
		opts.ImagesCollection = "images"
	}
	return &Adapter{
		docs:              docs,
		objects:           objects,
		foldersCollection: opts.FoldersCollection,
		imagesCollection:  opts.ImagesCollection,
		uploadExpiry:      time.Hour,
		// Firestore keeps microseconds; truncating keeps returned values equal to stored ones
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		logger: logger,
	}
}

// Name returns the backend identifier
func (a *Adapter) Name() string {
	return BackendName
}

// Close closes the Firestore client
func (a *Adapter) Close() error {
	return a.docs.Close()
}

// folderDoc is the stored form of a folder. nameLower backs case-insensitive ordering.
type folderDoc struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	NameLower string    `firestore:"nameLower"`
	ParentID  string    `firestore:"parentId"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d folderDoc) folder() metadata.Folder {
	return metadata.Folder{
		ID:        d.ID,
		Name:      d.Name,
		ParentID:  d.ParentID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// imageDoc is the stored form of an image
type imageDoc struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	NameLower   string    `firestore:"nameLower"`
	FolderID    string    `firestore:"folderId"`
	Key         string    `firestore:"key"`
	ContentType string    `firestore:"contentType,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d imageDoc) image() metadata.Image {
	return metadata.Image{
		ID:          d.ID,
		Name:        d.Name,
		FolderID:    d.FolderID,
		Key:         d.Key,
		ContentType: d.ContentType,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// orderField maps a sort field to the stored field it orders by
func orderField(field metadata.SortField) string {
	if field == metadata.SortByName {
		return "nameLower"
	}
	return string(field)
}

// buildQuery turns list options into a native paginated query. It asks for
// one document more than the page size to learn whether another page exists.
func buildQuery(collection, filter, value string, opts metadata.ListOptions) (Query, metadata.SortOptions, metadata.PageOptions, error) {
	sortOpts, err := opts.Sort.Normalize()
	if err != nil {
		return Query{}, sortOpts, metadata.PageOptions{}, err
	}
	page, err := opts.Page.Normalize()
	if err != nil {
		return Query{}, sortOpts, page, err
	}

	q := Query{
		Collection: collection,
		OrderBy:    orderField(sortOpts.Field),
		Desc:       sortOpts.Direction == metadata.Desc,
		Limit:      page.Limit + 1,
	}
	if value != "" {
		q.Filter = filter
		q.Value = value
	}

	if page.Cursor != "" {
		c, err := metadata.DecodeCursor(page.Cursor, sortOpts.Field)
		if err != nil {
			return Query{}, sortOpts, page, err
		}
		var after interface{} = c.Key
		if sortOpts.Field != metadata.SortByName {
			t, err := metadata.ParseTimeKey(c.Key)
			if err != nil {
				return Query{}, sortOpts, page, metadata.Invalid("malformed lastKey")
			}
			after = t
		}
		q.StartAfter = []interface{}{after, c.ID}
	} else {
		q.Offset = page.Offset()
	}

	return q, sortOpts, page, nil
}

func storageErr(op string, err error) error {
	if err == metadata.ErrNotFound {
		return err
	}
	return metadata.WrapStorage(BackendName, op, err)
}

func decodeErr(kind string, err error) error {
	return fmt.Errorf("failed to decode %s: %w", kind, err)
}
