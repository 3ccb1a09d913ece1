package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// ready gates the readiness probe during graceful shutdown.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate. Flip it off before draining the
// server so load balancers stop routing new requests.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingRedis(ctx context.Context, timeout time.Duration) error
	PingCatalog(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	RedisTimeout   time.Duration
	CatalogTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown gate and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	redisStatus := "ok"
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		redisStatus = err.Error()
	}
	catalogStatus := "ok"
	if err := h.Checker.PingCatalog(ctx, h.catalogTimeout()); err != nil {
		catalogStatus = err.Error()
	}
	status := map[string]string{
		"redis":   redisStatus,
		"catalog": catalogStatus,
	}
	w.Header().Set("Content-Type", "application/json")
	if redisStatus != "ok" || catalogStatus != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}

func (h Handler) catalogTimeout() time.Duration {
	if h.CatalogTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.CatalogTimeout
}
