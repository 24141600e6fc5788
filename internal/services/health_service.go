package services

import (
	"context"
	"runtime"
	"time"

	"prepstats/internal/store"
	ws "prepstats/internal/websocket"
	"prepstats/pkg/contracts"
)

// HealthService provides health check functionality.
type HealthService struct {
	version      string
	store        *store.Store
	webSocketHub *ws.Hub
	startTime    time.Time
}

// HealthStatus represents the health status response.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service.
func NewHealthService(version string, st *store.Store, hub *ws.Hub) *HealthService {
	return &HealthService{
		version:      version,
		store:        st,
		webSocketHub: hub,
		startTime:    time.Now(),
	}
}

// HealthCheck reports overall service health.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	services := map[string]interface{}{
		"store": map[string]interface{}{
			"status":     "healthy",
			"partitions": len(s.store.Keys()),
		},
	}
	if s.webSocketHub != nil {
		services["websocket"] = map[string]interface{}{
			"status":  "healthy",
			"clients": s.webSocketHub.ClientCount(),
		}
	}

	return HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
		Services: services,
	}
}

// ReadinessCheck reports whether the service can handle traffic.
func (s *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   s.version,
	}
}

// LivenessCheck reports whether the process is alive.
func (s *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   s.version,
	}
}

// Version returns build version information.
func (s *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}
