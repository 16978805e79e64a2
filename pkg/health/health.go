// Package health exposes Kubernetes-style liveness and readiness endpoints.
// Registered checks run on a background ticker; the HTTP endpoints report
// the most recent result instead of probing inline.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
)

// CheckFunc probes one component; nil means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc

	// lastErr holds the latest probe result, read by the HTTP endpoints.
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(probeCtx)
	c.lastErr.Store(&err)
}

func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Service runs health checks and serves their status.
type Service struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New creates a Service in the not-ready state; call SetReady(true) once
// initialization finishes.
func New() *Service {
	return &Service{}
}

// AddLiveness registers a liveness check (is the process functional).
func (s *Service) AddLiveness(name string, timeout time.Duration, probe CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, &check{name: name, timeout: timeout, probe: probe})
}

// AddReadiness registers a readiness check (may the service take traffic).
func (s *Service) AddReadiness(name string, timeout time.Duration, probe CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, &check{name: name, timeout: timeout, probe: probe})
}

// Start runs every registered check immediately and then on each interval
// tick, until Stop or context cancellation.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	checks := append(append([]*check{}, s.liveness...), s.readiness...)
	s.mu.Unlock()

	for _, c := range checks {
		go func(c *check) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			c.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.run(ctx)
				}
			}
		}(c)
	}
}

// Stop cancels the background check goroutines. Safe to call repeatedly.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Flip to false at the start of
// graceful shutdown to drain traffic.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint serves /livez.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := append([]*check{}, s.liveness...)
	s.mu.Unlock()

	writeStatus(w, failures(checks))
}

// ReadyEndpoint serves /readyz: 200 only when the manual gate is open and
// every readiness check passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	checks := append([]*check{}, s.readiness...)
	s.mu.Unlock()

	fails := failures(checks)
	if !s.ready.Load() {
		fails["_readiness"] = "service is not ready"
	}
	writeStatus(w, fails)
}

func failures(checks []*check) map[string]string {
	fails := make(map[string]string)
	for _, c := range checks {
		if err := c.err(); err != nil {
			fails[c.name] = err.Error()
		}
	}
	return fails
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, fails map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(fails) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: fails}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// GoroutineCountCheck flags a goroutine leak once the count passes the
// threshold.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
