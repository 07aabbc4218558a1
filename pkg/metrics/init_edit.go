package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.EditActionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_edit_actions_total",
			Help: "Total number of edit actions performed, undone or redone",
		},
		[]string{"operation"},
	)

	r.AtomicEditsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_atomic_edits_total",
			Help: "Total number of atomic insertions and deletions applied to the model",
		},
		[]string{"entity", "direction"},
	)

	r.UndoStackDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "goblin_undo_stack_depth",
			Help: "Number of actions available to undo",
		},
	)

	r.RedoStackDepth = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "goblin_redo_stack_depth",
			Help: "Number of actions available to redo",
		},
	)
}

func (r *Registry) initConflictMetrics() {
	r.ConflictChecksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_conflict_checks_total",
			Help: "Total number of conflict checks by kind and outcome",
		},
		[]string{"check", "outcome"},
	)

	r.ConflictCheckDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goblin_conflict_check_duration_seconds",
			Help:    "Conflict search duration in seconds",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"check"},
	)

	r.ConflictsFoundTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "goblin_conflicts_found_total",
			Help: "Total number of conflicting constraints reported to the confirmer",
		},
		[]string{"check"},
	)
}

func (r *Registry) initModelMetrics() {
	r.ConceptsTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "goblin_concepts_total",
			Help: "Number of concepts attached to each hierarchy",
		},
		[]string{"hierarchy"},
	)

	r.ConstraintsTotal = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "goblin_constraints_total",
			Help: "Number of constraints attached within each hierarchy",
		},
		[]string{"hierarchy"},
	)
}
