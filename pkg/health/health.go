// Package health reports whether a served model is usable. Checks are grouped
// into an overall report, a readiness probe and a liveness probe, each
// exposed as a JSON endpoint.
package health

import (
	"time"
)

// NewChecker creates a checker with no registered checks.
func NewChecker() *Checker {
	return &Checker{
		started: time.Now(),
		probes: map[Probe]map[string]CheckFunc{
			Overall:   {},
			Readiness: {},
			Liveness:  {},
		},
	}
}

// Register adds a check to each of the given probes. With no probes the check
// joins the overall report only.
func (c *Checker) Register(name string, check CheckFunc, probes ...Probe) {
	if len(probes) == 0 {
		probes = []Probe{Overall}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range probes {
		if c.probes[p] == nil {
			c.probes[p] = make(map[string]CheckFunc)
		}
		c.probes[p][name] = check
	}
}

// Check runs the overall report.
func (c *Checker) Check() Response { return c.Run(Overall) }

// CheckReadiness runs the readiness probe.
func (c *Checker) CheckReadiness() Response { return c.Run(Readiness) }

// CheckLiveness runs the liveness probe.
func (c *Checker) CheckLiveness() Response { return c.Run(Liveness) }

// Run performs every check registered for p. The response carries the
// worst status of its checks.
func (c *Checker) Run(p Probe) Response {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.probes[p]))
	for name, fn := range c.probes[p] {
		checks[name] = fn
	}
	c.mu.RUnlock()

	now := time.Now()
	response := Response{
		Status:    StatusHealthy,
		Timestamp: now,
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    now.Sub(c.started).Seconds(),
	}
	for name, fn := range checks {
		start := time.Now()
		check := fn()
		check.Duration = time.Since(start)
		check.LastChecked = start
		if check.Name == "" {
			check.Name = name
		}
		if check.Status == "" {
			check.Status = StatusHealthy
		}
		response.Checks[name] = check

		if check.Status.severity() > response.Status.severity() {
			response.Status = check.Status
		}
	}
	return response
}
