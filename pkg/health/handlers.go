package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the overall report. Degraded models still answer 200.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return c.handler(Overall, false)
}

// ReadinessHandler serves the readiness probe. Anything short of healthy
// answers 503 so that callers stop routing queries.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return c.handler(Readiness, true)
}

// LivenessHandler serves the liveness probe.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return c.handler(Liveness, false)
}

// Mount registers the three handlers under prefix ("/health" gives
// /health, /health/ready and /health/live).
func (c *Checker) Mount(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix, c.HTTPHandler())
	mux.HandleFunc(prefix+"/ready", c.ReadinessHandler())
	mux.HandleFunc(prefix+"/live", c.LivenessHandler())
}

func (c *Checker) handler(p Probe, strict bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		response := c.Run(p)

		code := http.StatusOK
		if response.Status == StatusUnhealthy || (strict && response.Status != StatusHealthy) {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(response)
	}
}
