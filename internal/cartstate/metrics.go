package cartstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation outcomes recorded on MutationsTotal.
const (
	outcomeConfirmed  = "confirmed"
	outcomeRolledBack = "rolled_back"
	outcomeRefused    = "refused"
)

var (
	// MutationsTotal counts cart mutations by operation and outcome.
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// MutationDuration observes the round trip of a cart mutation, resync included.
	MutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_mutation_duration_seconds",
			Help:    "Duration of cart mutations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PendingItems tracks how many cart items currently have a mutation in flight.
	PendingItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cart_pending_items",
			Help: "Number of cart items with a mutation in flight",
		},
	)
)
