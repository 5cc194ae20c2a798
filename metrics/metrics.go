// Package metrics provides Prometheus metrics for imagedeck operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedeck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Backend operation metrics
	BackendOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_backend_ops_total",
			Help: "Total number of storage backend operations",
		},
		[]string{"backend_type", "operation", "status"},
	)

	BackendOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedeck_backend_op_duration_seconds",
			Help:    "Storage backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend_type", "operation"},
	)

	// Adapter factory metrics
	AdapterResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_adapter_resolutions_total",
			Help: "Total number of storage adapter resolutions",
		},
		[]string{"backend", "reason"}, // reason: "flag", "default", "flag_error"
	)

	// Folder cache metrics
	FolderCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_folder_cache_lookups_total",
			Help: "Total number of folder cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Lock manager metrics
	LockOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_lock_operations_total",
			Help: "Total number of lock operations",
		},
		[]string{"operation", "status"}, // operation: "acquire", "release"; status: "success", "failure"
	)

	LockOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedeck_lock_operation_duration_seconds",
			Help:    "Lock operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Upload URL metrics
	UploadURLsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_upload_urls_issued_total",
			Help: "Total number of upload URLs handed out",
		},
		[]string{"backend_type"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedeck_errors_total",
			Help: "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
)
