package domain

// ResolverState is the observable state of the resolver container.
type ResolverState string

const (
	StateRunning ResolverState = "running"
	StateStopped ResolverState = "stopped"
)

// Stats holds the counters reported by unbound-control.
type Stats struct {
	TotalQueries int64   `json:"total_queries"`
	CacheHits    int64   `json:"cache_hits"`
	AvgLatency   float64 `json:"avg_latency"` // milliseconds
	Uptime       float64 `json:"uptime"`      // seconds
}

// Status is a per-request snapshot of the resolver. It is never persisted.
type Status struct {
	State ResolverState `json:"status"`
	IP    *string       `json:"ip"`
	Stats Stats         `json:"stats"`
}

// Running reports whether the snapshot describes a live resolver.
func (s Status) Running() bool {
	return s.State == StateRunning
}

// Stopped returns the snapshot used whenever the resolver cannot be reached.
func Stopped() Status {
	return Status{State: StateStopped}
}
