// Package healthcheck reports process and dependency health over HTTP.
//
// Checkers register on a Registry under a name. Run executes every checker
// concurrently and folds the results into a single Report whose status is
// the worst individual status.
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worse returns whichever of s and other is less healthy.
func (s Status) Worse(other Status) Status {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Millis is a duration that encodes as fractional milliseconds.
type Millis time.Duration

// MarshalJSON implements json.Marshaler
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(time.Duration(m).Microseconds()) / 1000)
}

// Result is the outcome of one checker
type Result struct {
	Name     string                 `json:"name"`
	Status   Status                 `json:"status"`
	Message  string                 `json:"message,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Duration Millis                 `json:"duration_ms"`
}

// Report aggregates every registered checker
type Report struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version"`
	CheckedAt time.Time `json:"checked_at"`
	Results   []Result  `json:"checks"`
	Duration  Millis    `json:"duration_ms"`
}

// Checker is a single health probe
type Checker interface {
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) Result

// Check calls f(ctx)
func (f CheckerFunc) Check(ctx context.Context) Result {
	return f(ctx)
}

// Option configures a Registry
type Option func(*Registry)

// WithCacheTTL reuses a report for ttl before running checkers again.
// Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

// WithTimeout bounds a whole Run
func WithTimeout(timeout time.Duration) Option {
	return func(r *Registry) { r.timeout = timeout }
}

// Registry holds named checkers and the most recent report
type Registry struct {
	version string
	logger  *zap.Logger
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	checkers map[string]Checker
	last     *Report
}

// New creates a registry reporting version on every report
func New(version string, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		version:  version,
		logger:   logger,
		ttl:      5 * time.Second,
		timeout:  10 * time.Second,
		now:      time.Now,
		checkers: make(map[string]Checker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the checker stored under name and drops any
// cached report.
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
	r.last = nil
}

// Run executes every checker and returns the aggregated report
func (r *Registry) Run(ctx context.Context) Report {
	r.mu.RLock()
	if r.last != nil && r.ttl > 0 && r.now().Sub(r.last.CheckedAt) < r.ttl {
		report := *r.last
		r.mu.RUnlock()
		return report
	}
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = r.checkers[name]
	}
	r.mu.RUnlock()

	start := r.now()
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := make([]Result, len(names))
	g, gctx := errgroup.WithContext(runCtx)
	for i := range checkers {
		g.Go(func() error {
			began := time.Now()
			res := checkers[i].Check(gctx)
			res.Name = names[i]
			if res.Status == "" {
				res.Status = StatusUnhealthy
			}
			if res.Duration == 0 {
				res.Duration = Millis(time.Since(began))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Version:   r.version,
		CheckedAt: start,
		Results:   results,
		Duration:  Millis(r.now().Sub(start)),
	}
	for _, res := range results {
		report.Status = report.Status.Worse(res.Status)
	}

	if report.Status != StatusHealthy {
		r.logger.Warn("Health check not healthy", zap.String("status", string(report.Status)))
	}

	r.mu.Lock()
	r.last = &report
	r.mu.Unlock()

	return report
}

// Handler serves the full report. Unhealthy answers 503.
func (r *Registry) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := r.Run(req.Context())
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// ReadyHandler reports whether the process should receive traffic.
// Degraded still counts as ready.
func (r *Registry) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := r.Run(req.Context())
		if report.Status == StatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"checks": report.Results,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": r.now().UTC(),
		})
	}
}

// LiveHandler answers 200 while the process can serve requests
func (r *Registry) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": r.now().UTC(),
		})
	}
}

// HTTPProbe checks that a URL answers. 2xx is healthy and 5xx or a
// transport failure is unhealthy. Other answers are degraded unless
// TolerateClientErrors is set, for APIs that reject unauthenticated probes.
type HTTPProbe struct {
	URL                  string
	Client               *http.Client
	TolerateClientErrors bool
}

// Check implements Checker
func (p HTTPProbe) Check(ctx context.Context) Result {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return Result{Status: StatusUnhealthy, Message: err.Error()}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Status: StatusUnhealthy, Message: err.Error()}
	}
	defer resp.Body.Close()

	res := Result{Details: map[string]interface{}{"status_code": resp.StatusCode}}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Status = StatusHealthy
	case resp.StatusCode >= 500:
		res.Status = StatusUnhealthy
		res.Message = "upstream returned " + resp.Status
	case p.TolerateClientErrors:
		res.Status = StatusHealthy
	default:
		res.Status = StatusDegraded
		res.Message = "upstream returned " + resp.Status
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
