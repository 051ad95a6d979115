package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/melih/unbound-panel/internal/core/domain"
)

const namespace = "unbound_panel"

// Collector exposes the last observed resolver status and counts control
// actions taken through the panel.
type Collector struct {
	up           prometheus.Gauge
	totalQueries prometheus.Gauge
	cacheHits    prometheus.Gauge
	avgLatency   prometheus.Gauge
	uptime       prometheus.Gauge
	actions      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolver_up",
			Help:      "Whether the resolver was running at the last status check.",
		}),
		totalQueries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_queries",
			Help:      "Total queries reported by the resolver.",
		}),
		cacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_hits",
			Help:      "Cache hits reported by the resolver.",
		}),
		avgLatency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "avg_latency_ms",
			Help:      "Average recursion time in milliseconds.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Resolver uptime in seconds.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Control actions taken through the panel.",
		}, []string{"action", "result"}),
	}

	reg.MustRegister(c.up, c.totalQueries, c.cacheHits, c.avgLatency, c.uptime, c.actions)
	return c
}

// ObserveStatus records a status snapshot.
func (c *Collector) ObserveStatus(s domain.Status) {
	if s.Running() {
		c.up.Set(1)
	} else {
		c.up.Set(0)
	}
	c.totalQueries.Set(float64(s.Stats.TotalQueries))
	c.cacheHits.Set(float64(s.Stats.CacheHits))
	c.avgLatency.Set(s.Stats.AvgLatency)
	c.uptime.Set(s.Stats.Uptime)
}

// ObserveAction counts an apply or restore attempt.
func (c *Collector) ObserveAction(action string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.actions.WithLabelValues(action, result).Inc()
}
