package client

import (
	"context"
	"fmt"
	"io"

	"github.com/ebogdum/imagedeck/metadata"
)

// Images is the incrementally loaded list of the images of one folder
type Images struct {
	*pager[metadata.Image]
	client *Client
}

// NewImages creates an image list for folderID
func NewImages(c *Client, folderID string, opts Options) *Images {
	i := &Images{client: c}
	i.pager = newPager(scopeOrRoot(folderID), opts, i.fetchPage, imageID)
	return i
}

func (i *Images) fetchPage(ctx context.Context, req pageRequest) (pageResult[metadata.Image], error) {
	page, err := i.client.ListImages(ctx, req.scope, Query{
		Page:    req.page,
		Limit:   req.limit,
		Sort:    req.sort,
		LastKey: req.cursor,
	})
	if err != nil {
		return pageResult[metadata.Image]{}, err
	}
	return pageResult[metadata.Image]{
		items:  page.Images,
		more:   page.LastKey != "",
		cursor: page.LastKey,
	}, nil
}

// Upload stores body as a new image of the current folder and puts it
// first in the list
func (i *Images) Upload(ctx context.Context, name, contentType string, body io.Reader) (*metadata.Image, error) {
	image, err := i.client.UploadImage(ctx, i.State().Scope, name, contentType, body)
	if err != nil {
		return nil, i.fail(err)
	}
	i.prepend(*image)
	return image, nil
}

// Delete deletes a listed image together with its object
func (i *Images) Delete(ctx context.Context, id string) error {
	image, ok := i.find(id)
	if !ok {
		return i.fail(fmt.Errorf("image %s is not listed: %w", id, metadata.ErrNotFound))
	}
	if err := i.client.DeleteImage(ctx, image.FolderID, id, image.Key); err != nil {
		return i.fail(err)
	}
	i.remove(id)
	return nil
}

func imageID(i metadata.Image) string { return i.ID }
