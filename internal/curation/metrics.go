package curation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	curationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_passes_total",
		Help: "Completed curation passes.",
	})

	indexFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_index_fallbacks_total",
		Help: "Similarity lookups degraded from the vector index to brute force.",
	})

	modelResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_model_resets_total",
		Help: "Stored ranking models discarded due to a schema mismatch.",
	})
)
