package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fittrack_store_events_applied_total",
		Help: "Change events applied to an entity store, by entity and event kind.",
	}, []string{"entity", "kind"})

	refreshFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fittrack_store_refresh_fallbacks_total",
		Help: "Full refreshes triggered by unrecognized change events.",
	}, []string{"entity"})

	mutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fittrack_store_mutation_errors_total",
		Help: "Failed store mutations, by entity and operation.",
	}, []string{"entity", "op"})
)
