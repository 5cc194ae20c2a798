package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/locks"
	"github.com/ebogdum/imagedeck/metadata"
	"github.com/ebogdum/imagedeck/metrics"
)

// internalErrorMessage replaces the detail of unexpected failures
const internalErrorMessage = "internal server error"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusFor maps an error to its HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, metadata.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, metadata.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, metadata.ErrFolderNotEmpty):
		return http.StatusConflict
	case errors.Is(err, metadata.ErrBackendDisabled), errors.Is(err, locks.ErrLockTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// SendErrorResponse sends a JSON error response. Client errors carry their
// message; server errors are logged and answered with a generic message.
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		message = internalErrorMessage
		metrics.ErrorsTotal.WithLabelValues("handler", "internal").Inc()
		logger.Error("Request failed", zap.Error(err))
	case http.StatusServiceUnavailable:
		metrics.ErrorsTotal.WithLabelValues("handler", "unavailable").Inc()
		logger.Warn("Request failed", zap.Error(err))
	default:
		logger.Debug("Request rejected", zap.Int("status_code", status), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Message: message}); err != nil {
		logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// SendJSONResponse sends a JSON response with the given status code
func SendJSONResponse(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"message":%q}`, internalErrorMessage)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}
