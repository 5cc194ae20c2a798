package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ebogdum/imagedeck/metadata"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// Route parameter names
const (
	FolderParam = "id"
	ImageParam  = "imageId"
)

// Service is the set of operations the handlers expose over HTTP.
// *core.Engine implements it.
type Service interface {
	ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error)
	GetFolder(ctx context.Context, id string) (*metadata.Folder, error)
	CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error)
	UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error)
	GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error)
	CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error)
	ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error)
	DeleteImage(ctx context.Context, id, key string) error
}

// parseListOptions reads page, limit, sort, direction and lastKey from the
// query string. The wire page number is 1-based.
func parseListOptions(r *http.Request) (metadata.ListOptions, error) {
	q := r.URL.Query()
	opts := metadata.ListOptions{
		Sort: metadata.SortOptions{
			Field:     metadata.SortField(q.Get("sort")),
			Direction: metadata.SortDirection(q.Get("direction")),
		},
		Page: metadata.PageOptions{Cursor: q.Get("lastKey")},
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return opts, metadata.Invalid("page must be a positive integer")
		}
		opts.Page.Page = page - 1
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return opts, metadata.Invalid("limit must be a positive integer")
		}
		opts.Page.Limit = limit
	}

	return opts, nil
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return metadata.Invalid("request body too large")
		case errors.Is(err, io.EOF):
			return metadata.Invalid("request body is required")
		default:
			return metadata.Invalid("invalid request body")
		}
	}
	return nil
}
