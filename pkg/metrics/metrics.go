package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsTotal counts processed intents by type and outcome.
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garden",
		Name:      "intents_total",
		Help:      "Number of processed intents by type and outcome.",
	}, []string{"type", "status"})

	// SnapshotsTotal counts snapshots delivered to room sessions.
	SnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garden",
		Name:      "snapshots_total",
		Help:      "Number of snapshots delivered to room sessions.",
	})

	// StoreOpBatchesTotal counts op batches submitted to the store.
	StoreOpBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garden",
		Name:      "store_op_batches_total",
		Help:      "Number of field-operation batches submitted to the store.",
	}, []string{"result"})

	// ArchiveFailuresTotal counts failed room snapshot archive writes.
	ArchiveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garden",
		Name:      "archive_failures_total",
		Help:      "Number of failed room snapshot archive writes.",
	})
)
