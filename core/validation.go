package core

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ebogdum/imagedeck/metadata"
)

// MaxNameLength bounds folder and image names
const MaxNameLength = 255

var noSlash = regexp.MustCompile(`^[^/]+$`)

func nameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, MaxNameLength),
		validation.Match(noSlash).Error("must not contain slashes"),
	}
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

func (r *createFolderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, nameRules()...),
		validation.Field(&r.ParentID, validation.Required),
	)
}

type updateFolderRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	ParentID *string `json:"parentId"`
}

func (r *updateFolderRequest) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&r.ID, validation.Required),
	}
	// Only validate fields that are present in the patch
	if r.Name != nil {
		rules = append(rules, validation.Field(&r.Name, nameRules()...))
	}
	if r.ParentID != nil {
		rules = append(rules, validation.Field(&r.ParentID, validation.Required))
	}
	return validation.ValidateStruct(r, rules...)
}

type createImageRequest struct {
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
	Key      string `json:"key"`
}

func (r *createImageRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&r.FolderID, validation.Required),
		validation.Field(&r.Key, validation.Required, validation.By(imageKey)),
	)
}

type deleteImageRequest struct {
	ID  string `json:"id"`
	Key string `json:"filename"`
}

func (r *deleteImageRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Key, validation.Required, validation.By(imageKey)),
	)
}

func imageKey(value interface{}) error {
	key, _ := value.(string)
	if !metadata.IsImageKey(key) {
		return validation.NewError("validation_image_key", "must be an object key under "+metadata.ImageKeyPrefix)
	}
	return nil
}

// invalid converts a validation failure into metadata.ErrInvalidInput
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return metadata.Invalid("%v", err)
}
