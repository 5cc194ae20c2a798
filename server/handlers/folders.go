package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// CreateFolderRequest is the body of POST /folders
type CreateFolderRequest struct {
	Name      string    `json:"name"`
	ParentID  string    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// V1ListFolders handles GET /folders
func V1ListFolders(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		opts, err := parseListOptions(r)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}

		page, err := svc.ListFolders(ctx, r.URL.Query().Get("parentId"), opts)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		if page.Folders == nil {
			page.Folders = []metadata.Folder{}
		}
		SendJSONResponse(w, logger, http.StatusOK, page)
	}
}

// V1GetFolder handles GET /folders/{id}
func V1GetFolder(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		folder, err := svc.GetFolder(ctx, chi.URLParam(r, FolderParam))
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		SendJSONResponse(w, logger, http.StatusOK, folder)
	}
}

// V1CreateFolder handles POST /folders
func V1CreateFolder(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var req CreateFolderRequest
		if err := decodeBody(w, r, &req); err != nil {
			SendErrorResponse(w, logger, err)
			return
		}

		folder, err := svc.CreateFolder(ctx, metadata.FolderInput{
			Name:      req.Name,
			ParentID:  req.ParentID,
			CreatedAt: req.CreatedAt,
			UpdatedAt: req.UpdatedAt,
		})
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		SendJSONResponse(w, logger, http.StatusCreated, folder)
	}
}

// V1UpdateFolder handles PUT /folders/{id}
func V1UpdateFolder(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var patch metadata.FolderPatch
		if err := decodeBody(w, r, &patch); err != nil {
			SendErrorResponse(w, logger, err)
			return
		}

		folder, err := svc.UpdateFolder(ctx, chi.URLParam(r, FolderParam), patch)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		SendJSONResponse(w, logger, http.StatusOK, folder)
	}
}

// V1DeleteFolder handles DELETE /folders/{id}
func V1DeleteFolder(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.DeleteFolder(ctx, chi.URLParam(r, FolderParam)); err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
