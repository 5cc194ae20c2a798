// Package metadata defines the folder and image records shared by every
// storage backend, together with the sort and pagination helpers that keep
// the backends' list semantics identical.
package metadata

import (
	"time"
)

// RootID is the parent id of top-level folders and the folder id of images
// stored outside any folder.
const RootID = "root"

// Folder represents a nestable, named container
type Folder struct {
	ID        string    `json:"id" dynamodbav:"id" firestore:"id"`
	Name      string    `json:"name" dynamodbav:"name" firestore:"name"`
	ParentID  string    `json:"parentId" dynamodbav:"parentId" firestore:"parentId"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updatedAt" firestore:"updatedAt"`
}

// Image represents an uploaded binary asset. The bytes live in the object
// store under Key; URL is derived by the backend when the record is read.
type Image struct {
	ID          string    `json:"id" dynamodbav:"id" firestore:"id"`
	Name        string    `json:"name" dynamodbav:"name" firestore:"name"`
	FolderID    string    `json:"folderId" dynamodbav:"folderId" firestore:"folderId"`
	Key         string    `json:"key" dynamodbav:"key" firestore:"key"`
	URL         string    `json:"url" dynamodbav:"-" firestore:"-"`
	ContentType string    `json:"contentType,omitempty" dynamodbav:"contentType,omitempty" firestore:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt" firestore:"updatedAt"`
}

// FolderInput carries the fields needed to create a folder.
// Zero timestamps are filled in by the backend.
type FolderInput struct {
	Name      string
	ParentID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FolderPatch lists the folder fields to change; nil fields are left untouched.
type FolderPatch struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p FolderPatch) Empty() bool {
	return p.Name == nil && p.ParentID == nil
}

// ImageInput carries the metadata of an image whose bytes were already
// uploaded through an upload URL.
type ImageInput struct {
	Name        string
	FolderID    string
	Key         string
	ContentType string
}

// UploadURL is a short-lived, write-capable object store URL.
// Filename is the object key to hand back when creating or deleting the image.
type UploadURL struct {
	UploadURL string `json:"uploadUrl"`
	Filename  string `json:"filename"`
}

// FolderPage is one page of a folder listing
type FolderPage struct {
	Folders []Folder `json:"folders"`
	LastKey string   `json:"lastKey,omitempty"`
}

// ImagePage is one page of an image listing
type ImagePage struct {
	Images  []Image `json:"images"`
	LastKey string  `json:"lastKey,omitempty"`
}

// FolderContents holds the child folders and images of one folder, each
// sorted and paginated independently.
type FolderContents struct {
	Folders []Folder `json:"folders"`
	Images  []Image  `json:"images"`
}

// ListOptions combines the sort order and page selection of a list call.
type ListOptions struct {
	Sort SortOptions
	Page PageOptions
}
