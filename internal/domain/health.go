package domain

import "time"

// HealthStatus summarises the state of a dependency or the whole system.
type HealthStatus string

const (
	// HealthStatusOK indicates the dependency responded within its budget.
	HealthStatusOK HealthStatus = "ok"
	// HealthStatusDegraded indicates slow or partially failing dependencies.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusError indicates a dependency check failed outright.
	HealthStatusError HealthStatus = "error"
)

// SystemHealthCheck captures the outcome of one dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes for readiness reporting.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
