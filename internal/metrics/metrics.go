// Package metrics defines the Prometheus instruments for the ingestion
// pipeline, exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestsAccepted counts files that made it through classification,
	// parsing, and a store upsert, labeled by category.
	IngestsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepstats_ingests_accepted_total",
		Help: "Stats files accepted into the store.",
	}, []string{"category"})

	// IngestsSkipped counts files dropped during classification, labeled
	// by rejection reason.
	IngestsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prepstats_ingests_skipped_total",
		Help: "Stats files dropped before reaching the store.",
	}, []string{"reason"})

	// RowsIngested counts rows written to the store across all upserts.
	RowsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prepstats_rows_ingested_total",
		Help: "Rows written to the store.",
	})

	// ViewsComputed counts computed views served to clients.
	ViewsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prepstats_views_computed_total",
		Help: "Filter/sort views computed.",
	})
)
