package health

import (
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses so the worst one can win.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Probe selects which set of checks a request runs.
type Probe int

const (
	// Overall runs every check registered for the overall report.
	Overall Probe = iota
	// Readiness runs checks that gate serving queries.
	Readiness
	// Liveness runs checks that only fail when the process is wedged.
	Liveness
)

// Check is the result of one named check.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ns"`
}

// CheckFunc performs a check.
type CheckFunc func() Check

// Checker holds the registered checks for each probe.
type Checker struct {
	mu      sync.RWMutex
	started time.Time
	probes  map[Probe]map[string]CheckFunc
}

// Response is the aggregated result of a probe.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
