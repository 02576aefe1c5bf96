package component

import "context"

// HealthStatus is the coarse state a component reports.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	// StatusDegraded means running but not doing useful work, such as a
	// transcribe loop waiting out a provider outage.
	StatusDegraded HealthStatus = "degraded"
)

// Health is one component's report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

func Healthy(name string) Health { return Health{Name: name, Status: StatusHealthy} }

func Unhealthy(name, message string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: message}
}

func Degraded(name, message string) Health {
	return Health{Name: name, Status: StatusDegraded, Message: message}
}

// OK reports whether the component is fully healthy.
func (h Health) OK() bool { return h.Status == StatusHealthy }

// Component is a lifecycle-managed part of the worker process: the
// database, blob storage, telemetry exporters, the poll loop, the reaper.
type Component interface {
	// Name is unique within a Registry.
	Name() string

	// Start must not block longer than setup takes; long-running work
	// belongs in a goroutine (see Background).
	Start(ctx context.Context) error

	Stop(ctx context.Context) error

	Health(ctx context.Context) Health
}
