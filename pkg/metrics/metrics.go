package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initEngineMetrics()
	r.initConflictMetrics()
	r.initModelMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordEditAction records a perform, undo or redo together with the
// resulting stack depths
func (r *Registry) RecordEditAction(operation string, undoDepth, redoDepth int) {
	r.EditActionsTotal.WithLabelValues(operation).Inc()
	r.UndoStackDepth.Set(float64(undoDepth))
	r.RedoStackDepth.Set(float64(redoDepth))
}

// RecordAtomicEdit records a single insertion or deletion of a concept or
// constraint
func (r *Registry) RecordAtomicEdit(entity string, added bool) {
	direction := "remove"
	if added {
		direction = "add"
	}
	r.AtomicEditsTotal.WithLabelValues(entity, direction).Inc()
}

// RecordConflictCheck records a conflict check with its outcome, the number
// of conflicts found and the search duration
func (r *Registry) RecordConflictCheck(check, outcome string, conflicts int, duration time.Duration) {
	r.ConflictChecksTotal.WithLabelValues(check, outcome).Inc()
	r.ConflictCheckDuration.WithLabelValues(check).Observe(duration.Seconds())
	if conflicts > 0 {
		r.ConflictsFoundTotal.WithLabelValues(check).Add(float64(conflicts))
	}
}

// SetModelSize updates the concept and constraint gauges for a hierarchy
func (r *Registry) SetModelSize(hierarchy string, concepts, constraints int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ConceptsTotal.WithLabelValues(hierarchy).Set(float64(concepts))
	r.ConstraintsTotal.WithLabelValues(hierarchy).Set(float64(constraints))
}
