// Package server assembles the HTTP API of imagedeck.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ebogdum/imagedeck/config"
	"github.com/ebogdum/imagedeck/metrics"
	"github.com/ebogdum/imagedeck/server/handlers"
	apiMiddleware "github.com/ebogdum/imagedeck/server/middleware"
)

// NewRouter creates and configures the HTTP router
func NewRouter(svc handlers.Service, serverConfig *config.ServerConfig, metricsEnabled bool, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(apiMiddleware.V1RequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.V1Recoverer(logger))
	r.Use(apiMiddleware.V1Timeout(60*time.Second, logger))
	r.Use(apiMiddleware.V1SecurityHeaders())
	r.Use(apiMiddleware.V1CORS(serverConfig.AllowedOrigins))
	r.Use(apiMiddleware.V1OptionsOK())

	// Logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			// Label by route pattern so ids do not explode the series count
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("request_id", apiMiddleware.GetRequestID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handlers.SendJSONResponse(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	timeout := serverConfig.StorageOpTimeout
	uploadLimiter := rate.NewLimiter(rate.Limit(serverConfig.UploadRateLimit), serverConfig.UploadRateBurst)

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", handlers.V1ListFolders(svc, timeout, logger))
		r.Post("/", handlers.V1CreateFolder(svc, timeout, logger))
		r.Get("/{id}", handlers.V1GetFolder(svc, timeout, logger))
		r.Put("/{id}", handlers.V1UpdateFolder(svc, timeout, logger))
		r.Delete("/{id}", handlers.V1DeleteFolder(svc, timeout, logger))

		r.Get("/{id}/contents", handlers.V1ListFolderContents(svc, timeout, logger))

		r.Route("/{id}/images", func(r chi.Router) {
			r.Get("/", handlers.V1ListImages(svc, timeout, logger))
			r.Post("/", handlers.V1CreateImage(svc, timeout, logger))
			r.With(apiMiddleware.V1RateLimitMiddleware(uploadLimiter, logger)).
				Get("/upload", handlers.V1GetUploadURL(svc, timeout, logger))
			r.Delete("/{imageId}", handlers.V1DeleteImage(svc, timeout, logger))
		})
	})

	logger.Info("HTTP router configured successfully")

	return r
}
