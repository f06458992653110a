package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const healthTimeout = 3 * time.Second

// HealthChecker reports whether the client's dependencies are reachable:
// the backend API and, when the redis token store is in use, Redis.
type HealthChecker struct {
	baseURL string
	http    *http.Client
	redis   *redis.Client
}

// NewHealthChecker creates a checker. rdb may be nil.
func NewHealthChecker(baseURL string, client *http.Client, rdb *redis.Client) *HealthChecker {
	if client == nil {
		client = &http.Client{}
	}
	return &HealthChecker{baseURL: baseURL, http: client, redis: rdb}
}

// DependencyStatus is the state of a single dependency.
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness is the aggregate report.
type Readiness struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}

// Healthy reports whether every dependency is ok.
func (r Readiness) Healthy() bool {
	return r.Status == "ok"
}

// Check probes every dependency within a bounded timeout.
func (h *HealthChecker) Check(ctx context.Context) Readiness {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	deps := make(map[string]DependencyStatus)
	healthy := true

	// --- Backend: any response at all proves reachability ---
	if err := h.pingBackend(ctx); err != nil {
		deps["backend"] = DependencyStatus{Status: "unhealthy", Error: err.Error()}
		healthy = false
	} else {
		deps["backend"] = DependencyStatus{Status: "ok"}
	}

	// --- Redis ping ---
	if h.redis != nil {
		if _, err := h.redis.Ping(ctx).Result(); err != nil {
			deps["redis"] = DependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["redis"] = DependencyStatus{Status: "ok"}
		}
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	return Readiness{Status: status, Dependencies: deps}
}

func (h *HealthChecker) pingBackend(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
