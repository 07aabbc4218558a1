package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the edit engine
type Registry struct {
	// Engine Metrics
	EditActionsTotal *prometheus.CounterVec
	AtomicEditsTotal *prometheus.CounterVec
	UndoStackDepth   prometheus.Gauge
	RedoStackDepth   prometheus.Gauge

	// Conflict Resolver Metrics
	ConflictChecksTotal   *prometheus.CounterVec
	ConflictCheckDuration *prometheus.HistogramVec
	ConflictsFoundTotal   *prometheus.CounterVec

	// Model Metrics
	ConceptsTotal    *prometheus.GaugeVec
	ConstraintsTotal *prometheus.GaugeVec

	registry *prometheus.Registry
	mu       sync.RWMutex
}

// Labels used on conflict check metrics
const (
	CheckAddition = "addition"
	CheckMove     = "move"

	OutcomeClear     = "clear"
	OutcomeConfirmed = "confirmed"
	OutcomeDeclined  = "declined"
)

// Labels used on atomic edit metrics
const (
	EntityConcept    = "concept"
	EntityConstraint = "constraint"
)
