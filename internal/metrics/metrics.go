// ABOUTME: Prometheus counters for catalog mutations and sync health
// ABOUTME: Incremented by the catalog service; exposed via promhttp when enabled

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters the catalog service increments.
type Metrics struct {
	registry *prometheus.Registry

	// Mutations counts committed catalog mutations by operation.
	Mutations *prometheus.CounterVec
	// SyncConflicts counts asset-store renames rejected with a name conflict
	// after the taxonomy side already committed.
	SyncConflicts prometheus.Counter
	// ReconcileRepairs counts asset entries added or pruned by
	// reconciliation passes.
	ReconcileRepairs prometheus.Counter
}

// New creates and registers the catalog metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalogd",
			Name:      "mutations_total",
			Help:      "Committed catalog mutations by operation.",
		}, []string{"op"}),
		SyncConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalogd",
			Name:      "sync_conflicts_total",
			Help:      "Asset-store renames that conflicted after a taxonomy commit.",
		}),
		ReconcileRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "catalogd",
			Name:      "reconcile_repairs_total",
			Help:      "Asset entries added or pruned during reconciliation.",
		}),
	}
	registry.MustRegister(m.Mutations, m.SyncConflicts, m.ReconcileRepairs)
	return m
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
