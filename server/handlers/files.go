package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// V1ListFolderContents handles GET /folders/{id}/contents. Child
// folders and images are paged independently with the same options.
func V1ListFolderContents(svc Service, timeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		opts, err := parseListOptions(r)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		// Two lists cannot share one continuation token
		if opts.Page.Cursor != "" {
			SendErrorResponse(w, logger, metadata.Invalid("lastKey is not supported for folder contents"))
			return
		}

		contents, err := svc.ListFolderContents(ctx, chi.URLParam(r, FolderParam), opts)
		if err != nil {
			SendErrorResponse(w, logger, err)
			return
		}
		if contents.Folders == nil {
			contents.Folders = []metadata.Folder{}
		}
		if contents.Images == nil {
			contents.Images = []metadata.Image{}
		}
		SendJSONResponse(w, logger, http.StatusOK, contents)
	}
}
