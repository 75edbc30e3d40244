// Package metrics provides Prometheus metrics for the roadmap editor and its
// collaborator API client.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collaborator API metrics
var (
	// apiRequestsTotal records every call made to the collaborator REST API.
	// Labels:
	//   - operation: Client method (e.g., "list_roadmaps", "save_level")
	//   - status: HTTP status code, or "network_error"
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_api_requests_total",
			Help: "Total number of collaborator API requests",
		},
		[]string{"operation", "status"},
	)

	// apiRequestDuration records collaborator API latency.
	// Buckets: 10ms .. 10s
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roadmap_api_request_duration_seconds",
			Help:    "Duration of collaborator API requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
)

// Editor metrics
var (
	// editorRollbacksTotal counts optimistic mutations reverted after a failed save.
	editorRollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_editor_rollbacks_total",
			Help: "Total number of editor mutations rolled back",
		},
		[]string{"operation"},
	)

	// bulkItemsTotal counts bulk action items by outcome ("success", "failure").
	bulkItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_bulk_items_total",
			Help: "Total number of bulk action items processed",
		},
		[]string{"action", "result"},
	)

	// importDocumentsTotal counts import attempts ("accepted", "rejected").
	importDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_import_documents_total",
			Help: "Total number of imported documents",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(editorRollbacksTotal)
	prometheus.MustRegister(bulkItemsTotal)
	prometheus.MustRegister(importDocumentsTotal)
}

// RecordAPIRequest records one collaborator call. status 0 means the request
// never got a response.
func RecordAPIRequest(operation string, status int, elapsed time.Duration) {
	label := "network_error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(operation, label).Inc()
	apiRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordRollback records a reverted mutation.
func RecordRollback(operation string) {
	editorRollbacksTotal.WithLabelValues(operation).Inc()
}

// RecordBulkItem records the outcome of one bulk action item.
func RecordBulkItem(action string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	bulkItemsTotal.WithLabelValues(action, result).Inc()
}

// RecordImport records an import attempt.
func RecordImport(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	importDocumentsTotal.WithLabelValues(result).Inc()
}
