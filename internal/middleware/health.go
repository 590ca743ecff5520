package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthChecker reports whether one dependency is usable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// PingChecker checks a history database.
func PingChecker(db *sql.DB) HealthChecker {
	return CheckerFunc(db.PingContext)
}

// HealthStatus is the /health body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency"`
}

// Probes serves the health, readiness and liveness endpoints.
type Probes struct {
	checkers map[string]HealthChecker
	timeout  time.Duration
	draining atomic.Bool
}

func NewProbes(checkers map[string]HealthChecker) *Probes {
	return &Probes{checkers: checkers, timeout: 3 * time.Second}
}

// Drain makes Ready fail so load balancers stop routing new requests
// before shutdown.
func (p *Probes) Drain() { p.draining.Store(true) }

// Health runs every checker concurrently, each bounded by the probe timeout.
func (p *Probes) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(p.checkers)),
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, c := range p.checkers {
		wg.Add(1)
		go func(name string, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			cs := CheckStatus{Status: "healthy", Latency: time.Since(start).String()}
			if err != nil {
				cs.Status, cs.Message = "unhealthy", err.Error()
			}
			mu.Lock()
			status.Checks[name] = cs
			if err != nil {
				status.Status = "unhealthy"
			}
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeProbe(w, code, status)
}

// Ready is 200 until Drain is called.
func (p *Probes) Ready(w http.ResponseWriter, _ *http.Request) {
	if p.draining.Load() {
		writeProbe(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	writeProbe(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Live always answers ok while the process serves HTTP.
func Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeProbe(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
