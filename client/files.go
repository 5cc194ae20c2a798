package client

import (
	"context"
	"fmt"
	"io"

	"github.com/ebogdum/imagedeck/metadata"
)

// Entry is one item of a folder's contents: either a folder or an image
type Entry struct {
	Folder *metadata.Folder
	Image  *metadata.Image
}

// ID returns the id of the folder or image
func (e Entry) ID() string {
	if e.Folder != nil {
		return e.Folder.ID
	}
	if e.Image != nil {
		return e.Image.ID
	}
	return ""
}

// IsFolder reports whether the entry is a folder
func (e Entry) IsFolder() bool {
	return e.Folder != nil
}

// Files is the incrementally loaded contents of one folder. Each page
// holds up to Limit child folders followed by up to Limit images.
type Files struct {
	*pager[Entry]
	client *Client
}

// NewFiles creates a contents list for folderID
func NewFiles(c *Client, folderID string, opts Options) *Files {
	f := &Files{client: c}
	f.pager = newPager(scopeOrRoot(folderID), opts, f.fetchPage, Entry.ID)
	return f
}

func (f *Files) fetchPage(ctx context.Context, req pageRequest) (pageResult[Entry], error) {
	contents, err := f.client.ListFolderContents(ctx, req.scope, Query{
		Page:  req.page,
		Limit: req.limit,
		Sort:  req.sort,
	})
	if err != nil {
		return pageResult[Entry]{}, err
	}

	entries := make([]Entry, 0, len(contents.Folders)+len(contents.Images))
	for i := range contents.Folders {
		entries = append(entries, Entry{Folder: &contents.Folders[i]})
	}
	for i := range contents.Images {
		entries = append(entries, Entry{Image: &contents.Images[i]})
	}

	return pageResult[Entry]{
		items: entries,
		more:  len(contents.Folders) >= req.limit || len(contents.Images) >= req.limit,
	}, nil
}

// CreateFolder creates a child folder and puts it first in the list
func (f *Files) CreateFolder(ctx context.Context, name string) (*metadata.Folder, error) {
	folder, err := f.client.CreateFolder(ctx, name, f.State().Scope)
	if err != nil {
		return nil, f.fail(err)
	}
	f.prepend(Entry{Folder: folder})
	return folder, nil
}

// Upload stores body as a new image of the folder and puts it first in the list
func (f *Files) Upload(ctx context.Context, name, contentType string, body io.Reader) (*metadata.Image, error) {
	image, err := f.client.UploadImage(ctx, f.State().Scope, name, contentType, body)
	if err != nil {
		return nil, f.fail(err)
	}
	f.prepend(Entry{Image: image})
	return image, nil
}

// Delete deletes a listed folder or image, whichever id names
func (f *Files) Delete(ctx context.Context, id string) error {
	entry, ok := f.find(id)
	if !ok {
		return f.fail(fmt.Errorf("entry %s is not listed: %w", id, metadata.ErrNotFound))
	}

	var err error
	if entry.IsFolder() {
		err = f.client.DeleteFolder(ctx, id)
	} else {
		err = f.client.DeleteImage(ctx, entry.Image.FolderID, id, entry.Image.Key)
	}
	if err != nil {
		return f.fail(err)
	}
	f.remove(id)
	return nil
}
