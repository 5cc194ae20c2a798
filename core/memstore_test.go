package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/metadata"
)

// memStore is an in-memory backends.Storage used by the engine tests
type memStore struct {
	mu       sync.Mutex
	name     string
	folders  map[string]metadata.Folder
	images   map[string]metadata.Image
	seq      int
	closed   bool
	getCalls int
	uploads  []string
}

func newMemStore(name string) *memStore {
	return &memStore{
		name:    name,
		folders: make(map[string]metadata.Folder),
		images:  make(map[string]metadata.Image),
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%03d", m.seq)
}

func (m *memStore) stamp() time.Time {
	return time.Date(2024, 1, 1, 0, 0, m.seq, 0, time.UTC)
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) CreateFolder(ctx context.Context, in metadata.FolderInput) (*metadata.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := metadata.Folder{ID: m.nextID(), Name: in.Name, ParentID: in.ParentID}
	f.CreatedAt, f.UpdatedAt = m.stamp(), m.stamp()
	m.folders[f.ID] = f
	return &f, nil
}

func (m *memStore) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	f, ok := m.folders[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return &f, nil
}

func (m *memStore) ListFolders(ctx context.Context, parentID string, opts metadata.ListOptions) (*metadata.FolderPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []metadata.Folder
	for _, f := range m.folders {
		if parentID == "" || f.ParentID == parentID {
			all = append(all, f)
		}
	}
	page, lastKey, err := metadata.Paginate(all, opts)
	if err != nil {
		return nil, err
	}
	return &metadata.FolderPage{Folders: page, LastKey: lastKey}, nil
}

func (m *memStore) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.ParentID != nil {
		f.ParentID = *patch.ParentID
	}
	m.seq++
	f.UpdatedAt = m.stamp()
	m.folders[id] = f
	return &f, nil
}

func (m *memStore) DeleteFolder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.folders, id)
	return nil
}

func (m *memStore) GetUploadURL(ctx context.Context, filename, contentType string) (*metadata.UploadURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, filename)
	key := metadata.ObjectKey(filename, m.stamp())
	return &metadata.UploadURL{UploadURL: "https://upload.test/" + key, Filename: key}, nil
}

func (m *memStore) CreateImage(ctx context.Context, in metadata.ImageInput) (*metadata.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img := metadata.Image{ID: m.nextID(), Name: in.Name, FolderID: in.FolderID, Key: in.Key, ContentType: in.ContentType}
	img.CreatedAt, img.UpdatedAt = m.stamp(), m.stamp()
	img.URL = "https://objects.test/" + in.Key
	m.images[img.ID] = img
	return &img, nil
}

func (m *memStore) ListImages(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.ImagePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []metadata.Image
	for _, img := range m.images {
		if folderID == "" || img.FolderID == folderID {
			all = append(all, img)
		}
	}
	page, lastKey, err := metadata.Paginate(all, opts)
	if err != nil {
		return nil, err
	}
	return &metadata.ImagePage{Images: page, LastKey: lastKey}, nil
}

func (m *memStore) DeleteImage(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, id)
	return nil
}

func (m *memStore) ListFolderContents(ctx context.Context, folderID string, opts metadata.ListOptions) (*metadata.FolderContents, error) {
	folders, err := m.ListFolders(ctx, folderID, opts)
	if err != nil {
		return nil, err
	}
	images, err := m.ListImages(ctx, folderID, opts)
	if err != nil {
		return nil, err
	}
	return &metadata.FolderContents{Folders: folders.Folders, Images: images.Images}, nil
}

func (m *memStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// fixedProvider always hands out the same backend
type fixedProvider struct {
	storage backends.Storage
	err     error
}

func (p fixedProvider) Storage(ctx context.Context) (backends.Storage, error) {
	return p.storage, p.err
}
