package firebase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ebogdum/imagedeck/metadata"
)

// CreateFolder stores a new folder document
func (a *Adapter) CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error) {
	if in.Name == "" {
		return nil, metadata.Invalid("folder name is required")
	}

	now := a.now()
	doc := folderDoc{
		ID:        uuid.NewString(),
		Name:      in.Name,
		NameLower: metadata.NameKey(in.Name),
		ParentID:  in.ParentID,
		CreatedAt: in.CreatedAt.UTC(),
		UpdatedAt: in.UpdatedAt.UTC(),
	}
	if doc.ParentID == "" {
		doc.ParentID = metadata.RootID
	}
	if in.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if in.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	if err := a.docs.Set(ctx, a.foldersCollection, doc.ID, doc); err != nil {
		return nil, storageErr("CreateFolder", err)
	}

	a.logger.Debug("Folder created in Firestore",
		zap.String("collection", a.foldersCollection),
		zap.String("id", doc.ID))

	folder := doc.folder()
	return &folder, nil
}

// GetFolder reads one folder document
func (a *Adapter) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	snap, err := a.docs.Get(ctx, a.foldersCollection, id)
	if err != nil {
		return nil, storageErr("GetFolder", err)
	}

	var doc folderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, decodeErr("folder", err)
	}
	folder := doc.folder()
	return &folder, nil
}

// ListFolders runs an ordered query on the folders collection
func (a *Adapter) ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error) {
	q, sortOpts, page, err := buildQuery(a.foldersCollection, "parentId", parentID, opts)
	if err != nil {
		return nil, err
	}

	snaps, err := a.docs.Query(ctx, q)
	if err != nil {
		return nil, storageErr("ListFolders", err)
	}

	folders := make([]metadata.Folder, 0, len(snaps))
	for _, snap := range snaps {
		var doc folderDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, decodeErr("folder", err)
		}
		folders = append(folders, doc.folder())
	}

	result := &metadata.FolderPage{Folders: folders}
	if len(folders) > page.Limit {
		result.Folders = folders[:page.Limit]
		result.LastKey = metadata.EncodeCursor(sortOpts.Field, result.Folders[page.Limit-1])
	}
	return result, nil
}

// UpdateFolder changes the patched fields of an existing folder
func (a *Adapter) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, metadata.Invalid("folder name must not be empty")
	}

	fields := map[string]interface{}{"updatedAt": a.now()}
	if patch.Name != nil {
		fields["name"] = *patch.Name
		fields["nameLower"] = metadata.NameKey(*patch.Name)
	}
	if patch.ParentID != nil {
		fields["parentId"] = *patch.ParentID
	}

	snap, err := a.docs.Update(ctx, a.foldersCollection, id, fields)
	if err != nil {
		return nil, storageErr("UpdateFolder", err)
	}

	var doc folderDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, decodeErr("folder", err)
	}

	a.logger.Debug("Folder updated in Firestore",
		zap.String("collection", a.foldersCollection),
		zap.String("id", id))

	folder := doc.folder()
	return &folder, nil
}

// DeleteFolder removes a folder document; missing documents are not an error
func (a *Adapter) DeleteFolder(ctx context.Context, id string) error {
	if err := a.docs.Delete(ctx, a.foldersCollection, id); err != nil {
		return storageErr("DeleteFolder", err)
	}

	a.logger.Debug("Folder deleted from Firestore",
		zap.String("collection", a.foldersCollection),
		zap.String("id", id))

	return nil
}

// ListFolderContents queries child folders and images concurrently
func (a *Adapter) ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error) {
	var folders *metadata.FolderPage
	var images *metadata.ImagePage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		folders, err = a.ListFolders(gctx, folderID, opts)
		return err
	})
	g.Go(func() error {
		var err error
		images, err = a.ListImages(gctx, folderID, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &metadata.FolderContents{Folders: folders.Folders, Images: images.Images}, nil
}
