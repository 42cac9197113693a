// Package metrics holds Prometheus instruments for the listing lifecycle.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ListingSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_saves_total",
			Help: "Successful listing save pipelines, by action (add or update).",
		}, []string{"action"})

	ListingDeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_deletes_total",
			Help: "Successful listing delete pipelines.",
		})

	AuditAppendsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_appends_total",
			Help: "Audit records appended to listing_log.",
		})

	AuditAppendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_append_errors_total",
			Help: "Audit appends that failed and aborted a mutation.",
		})

	PermalinkCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "permalink_collisions_total",
			Help: "Suffix-loop iterations while allocating permalinks.",
		})

	GeocodeRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Geocode lookups issued by the lifecycle.",
		})

	GeocodeAdoptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "geocode_adopted_total",
			Help: "Geocode results that met the accuracy gate and were stored.",
		})

	ImageWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_writes_total",
			Help: "Listing image blobs written to storage.",
		})

	ImageNameCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_name_collisions_total",
			Help: "Suffix-loop iterations while writing image blobs.",
		})
)

func init() {
	prometheus.MustRegister(
		ListingSavesTotal,
		ListingDeletesTotal,
		AuditAppendsTotal,
		AuditAppendErrorsTotal,
		PermalinkCollisionsTotal,
		GeocodeRequestsTotal,
		GeocodeAdoptedTotal,
		ImageWritesTotal,
		ImageNameCollisionsTotal,
	)
}
