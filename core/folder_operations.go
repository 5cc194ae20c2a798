package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/core/log"
	"github.com/ebogdum/imagedeck/metadata"
)

// ListFolders returns one page of the folders under parentID (root when empty)
func (e *Engine) ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error) {
	opts, err := listOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	page, err := s.ListFolders(ctx, scope(parentID), opts)
	observe(s.Name(), "ListFolders", start, err)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// GetFolder returns one folder
func (e *Engine) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	if id == "" {
		return nil, metadata.Invalid("folder id is required")
	}
	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}
	return e.lookupFolder(ctx, s, id)
}

// CreateFolder validates and stores a new folder. Creating into a non-root
// parent requires the parent to exist and holds the parent's lock so a
// concurrent delete of the parent cannot strand the new folder.
func (e *Engine) CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error) {
	in.ParentID = scope(in.ParentID)
	req := createFolderRequest{Name: in.Name, ParentID: in.ParentID}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	var folder *metadata.Folder
	create := func() error {
		if err := e.requireFolder(ctx, s, in.ParentID); err != nil {
			return err
		}
		start := time.Now()
		folder, err = s.CreateFolder(ctx, in)
		observe(s.Name(), "CreateFolder", start, err)
		return err
	}

	if in.ParentID == metadata.RootID {
		err = create()
	} else {
		err = e.withFolderLock(ctx, in.ParentID, create)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("Folder created",
		zap.String("id", folder.ID),
		zap.String("name", log.SanitizeName(folder.Name)),
		zap.String("parent_id", folder.ParentID),
		zap.String("backend", s.Name()))

	return folder, nil
}

// UpdateFolder renames and/or moves a folder. Moves are rejected when the
// new parent is missing or when the folder would become its own ancestor.
func (e *Engine) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	if patch.Empty() {
		return nil, metadata.Invalid("nothing to update")
	}
	req := updateFolderRequest{ID: id, Name: patch.Name, ParentID: patch.ParentID}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	var folder *metadata.Folder
	err = e.withFolderLock(ctx, id, func() error {
		if patch.ParentID != nil {
			if err := e.checkMove(ctx, s, id, *patch.ParentID); err != nil {
				return err
			}
		}
		defer e.folderCache.Invalidate(id)
		start := time.Now()
		folder, err = s.UpdateFolder(ctx, id, patch)
		observe(s.Name(), "UpdateFolder", start, err)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Folder updated",
		zap.String("id", folder.ID),
		zap.String("parent_id", folder.ParentID),
		zap.String("backend", s.Name()))

	return folder, nil
}

// checkMove rejects moving id under parentID when that would create a cycle
func (e *Engine) checkMove(ctx context.Context, s backends.Storage, id, parentID string) error {
	if parentID == id {
		return metadata.Invalid("a folder cannot be its own parent")
	}
	if parentID == metadata.RootID {
		return nil
	}

	current := parentID
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if current == metadata.RootID {
			return nil
		}
		if current == id {
			return metadata.Invalid("cannot move a folder into its own descendant")
		}

		folder, err := e.fetchFolder(ctx, s, current)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				if current == parentID {
					return fmt.Errorf("folder %s: %w", parentID, metadata.ErrNotFound)
				}
				// A dangling ancestor ends the chain without reaching id
				return nil
			}
			return err
		}
		current = folder.ParentID
	}
	return metadata.Invalid("folder tree is deeper than %d levels", maxAncestorDepth)
}

// DeleteFolder removes an empty folder. Deleting a missing folder succeeds;
// a folder that still holds folders or images is rejected with
// metadata.ErrFolderNotEmpty.
func (e *Engine) DeleteFolder(ctx context.Context, id string) error {
	if id == "" || id == metadata.RootID {
		return metadata.Invalid("folder id is required")
	}

	s, err := e.storage(ctx)
	if err != nil {
		return err
	}

	err = e.withFolderLock(ctx, id, func() error {
		defer e.folderCache.Invalidate(id)
		probe := metadata.ListOptions{Page: metadata.PageOptions{Limit: 1}}
		start := time.Now()
		contents, err := s.ListFolderContents(ctx, id, probe)
		observe(s.Name(), "ListFolderContents", start, err)
		if err != nil {
			return err
		}
		if len(contents.Folders) > 0 || len(contents.Images) > 0 {
			return metadata.ErrFolderNotEmpty
		}

		start = time.Now()
		err = s.DeleteFolder(ctx, id)
		observe(s.Name(), "DeleteFolder", start, err)
		return err
	})
	if err != nil {
		return err
	}

	e.logger.Info("Folder deleted", zap.String("id", id), zap.String("backend", s.Name()))
	return nil
}

// ListFolderContents returns the child folders and images of a folder
func (e *Engine) ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error) {
	opts, err := listOptions(opts)
	if err != nil {
		return nil, err
	}
	s, err := e.storage(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	contents, err := s.ListFolderContents(ctx, scope(folderID), opts)
	observe(s.Name(), "ListFolderContents", start, err)
	if err != nil {
		return nil, err
	}
	return contents, nil
}
