package middleware

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	internalErrorBody = `{"message":"internal server error"}`
	timeoutBody       = `{"message":"request timed out"}`
)

// V1Recoverer turns a handler panic into a 500 with the API's JSON error
// body. A response that already started is left as is.
func V1Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("Handler panicked",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.ByteString("stack", debug.Stack()))

				if ww.Status() == 0 {
					writeJSONError(ww, logger, http.StatusInternalServerError, internalErrorBody)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// V1Timeout bounds the request context. When the deadline passes before
// the handler wrote anything, the client gets a 504 with a JSON body.
func V1Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
				logger.Warn("Request timed out",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("timeout", timeout),
					zap.String("request_id", GetRequestID(r.Context())))
				writeJSONError(ww, logger, http.StatusGatewayTimeout, timeoutBody)
			}
		})
	}
}

func writeJSONError(w http.ResponseWriter, logger *zap.Logger, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
