package client

import (
	"context"

	"github.com/ebogdum/imagedeck/metadata"
)

// Folders is the incrementally loaded list of the child folders of one parent
type Folders struct {
	*pager[metadata.Folder]
	client *Client
}

// NewFolders creates a folder list for parentID. Nothing is fetched until
// LoadMore, Refresh or a scope or sort change.
func NewFolders(c *Client, parentID string, opts Options) *Folders {
	f := &Folders{client: c}
	f.pager = newPager(scopeOrRoot(parentID), opts, f.fetchPage, folderID)
	return f
}

func (f *Folders) fetchPage(ctx context.Context, req pageRequest) (pageResult[metadata.Folder], error) {
	page, err := f.client.ListFolders(ctx, req.scope, Query{
		Page:    req.page,
		Limit:   req.limit,
		Sort:    req.sort,
		LastKey: req.cursor,
	})
	if err != nil {
		return pageResult[metadata.Folder]{}, err
	}
	return pageResult[metadata.Folder]{
		items:  page.Folders,
		more:   page.LastKey != "",
		cursor: page.LastKey,
	}, nil
}

// Create creates a folder in the current parent and puts it first in the list
func (f *Folders) Create(ctx context.Context, name string) (*metadata.Folder, error) {
	folder, err := f.client.CreateFolder(ctx, name, f.State().Scope)
	if err != nil {
		return nil, f.fail(err)
	}
	f.prepend(*folder)
	return folder, nil
}

// Update renames or moves a folder and replaces it in the list. A folder
// moved to another parent leaves the list.
func (f *Folders) Update(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	folder, err := f.client.UpdateFolder(ctx, id, patch)
	if err != nil {
		return nil, f.fail(err)
	}
	if folder.ParentID != f.State().Scope {
		f.remove(id)
	} else {
		f.replace(*folder)
	}
	return folder, nil
}

// Delete deletes a folder and drops it from the list
func (f *Folders) Delete(ctx context.Context, id string) error {
	if err := f.client.DeleteFolder(ctx, id); err != nil {
		return f.fail(err)
	}
	f.remove(id)
	return nil
}

func folderID(f metadata.Folder) string { return f.ID }

func scopeOrRoot(id string) string {
	if id == "" {
		return metadata.RootID
	}
	return id
}
