// Package health serves the liveness and readiness probes.
//
// /healthz reports liveness: a process that can serve the request is alive.
// /readyz runs the registered checkers concurrently and reports 200 only
// when the cache, the remote API, and any optional Postgres backends all
// pass. Each check carries its own timeout so one hung dependency cannot
// stall the probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

const (
	statusOK   = "ok"
	statusFail = "fail"
)

// Checker is a named readiness probe. Check returns nil when the dependency
// can serve and a descriptive error otherwise. It must respect context
// cancellation.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// CheckResult is the outcome of one checker as reported on /readyz.
type CheckResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// report is the /readyz response body.
type report struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. The checker set is fixed at
// construction; the handler itself is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a Handler over the given checkers.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: statusOK})
}

// Readyz runs every checker concurrently and answers 200 when all pass,
// 503 otherwise. Per-check outcomes and timings are included in the body.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	type namedResult struct {
		name string
		res  CheckResult
	}

	results := make(chan namedResult, len(h.checkers))
	var wg sync.WaitGroup
	for _, c := range h.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(ctx)
			res := CheckResult{
				Status:   statusOK,
				Duration: time.Since(start).Round(time.Microsecond).String(),
			}
			if err != nil {
				res.Status = statusFail
				res.Error = err.Error()
			}
			results <- namedResult{name: c.Name, res: res}
		}(c)
	}
	wg.Wait()
	close(results)

	rep := report{Status: statusOK, Checks: make(map[string]CheckResult, len(h.checkers))}
	code := http.StatusOK
	for nr := range results {
		rep.Checks[nr.name] = nr.res
		if nr.res.Status != statusOK {
			rep.Status = statusFail
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, rep)
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
