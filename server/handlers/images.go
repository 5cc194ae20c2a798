package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// CreateImageRequest is the body of POST /folders/{id}/images.
// Key is the filename returned with the upload URL.
type CreateImageRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// V1ListImages handles GET /folders/{id}/images
func V1ListImages(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		opts, err := parseListOptions(r)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}

		page, err := svc.ListImages(ctx, chi.URLParam(r, FolderParam), opts)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		if page.Images == nil {
			page.Images = []metadata.Image{}
		}
		SendJSONResponse(w, logger, http.StatusOK, page)
	}
}

// V1GetUploadURL handles GET /folders/{id}/images/upload
func V1GetUploadURL(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		q := r.URL.Query()
		filename := q.Get("filename")
		if filename == "" {
			SendErrorResponse(w, logger, metadata.Invalid("filename is required"))
			return
		}

		upload, err := svc.GetUploadURL(ctx, filename, q.Get("contentType"))
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		SendJSONResponse(w, logger, http.StatusOK, upload)
	}
}

// V1CreateImage handles POST /folders/{id}/images
func V1CreateImage(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var req CreateImageRequest
		if err := decodeBody(w, r, &req); err != nil {
			SendErrorResponse(w, logger, err)
			return
		}

		image, err := svc.CreateImage(ctx, metadata.ImageInput{
			Name:        req.Name,
			FolderID:    chi.URLParam(r, FolderParam),
			Key:         req.Key,
			ContentType: req.ContentType,
		})
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		SendJSONResponse(w, logger, http.StatusCreated, image)
	}
}

// V1DeleteImage handles DELETE /folders/{id}/images/{imageId}?filename=
func V1DeleteImage(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		err := svc.DeleteImage(ctx, chi.URLParam(r, ImageParam), r.URL.Query().Get("filename"))
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
