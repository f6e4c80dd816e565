package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/sokopay/daraja/infra/response"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	environment string
	version     string
	startTime   time.Time
}

// NewHealthHandler creates a health handler for the given gateway
// environment.
func NewHealthHandler(environment, version string) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		version:     version,
		startTime:   time.Now(),
	}
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string       `json:"status"`
	Version     string       `json:"version"`
	Timestamp   time.Time    `json:"timestamp"`
	Uptime      string       `json:"uptime"`
	Environment string       `json:"environment"`
	System      SystemHealth `json:"system"`
}

// SystemHealth represents runtime statistics
type SystemHealth struct {
	Goroutines int    `json:"goroutines"`
	MemoryMB   uint64 `json:"memory_mb"`
	GoVersion  string `json:"go_version"`
}

// Health reports service health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := HealthStatus{
		Status:      "healthy",
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		System: SystemHealth{
			Goroutines: runtime.NumGoroutine(),
			MemoryMB:   memStats.Alloc / 1024 / 1024,
			GoVersion:  runtime.Version(),
		},
	}

	response.Success(w, http.StatusOK, "OK", status)
}
