package querycache

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache activity
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Invalidations prometheus.Counter
	Collected     prometheus.Counter
}

// NewMetrics creates the cache counters and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradejournal",
			Subsystem: "querycache",
			Name:      "hits_total",
			Help:      "Reads served from a fresh cache entry.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradejournal",
			Subsystem: "querycache",
			Name:      "misses_total",
			Help:      "Reads that found no entry or a stale one.",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradejournal",
			Subsystem: "querycache",
			Name:      "invalidations_total",
			Help:      "Entries marked stale.",
		}),
		Collected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradejournal",
			Subsystem: "querycache",
			Name:      "collected_total",
			Help:      "Entries dropped by garbage collection.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Hits, m.Misses, m.Invalidations, m.Collected} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register query cache metrics: %w", err)
		}
	}
	return m, nil
}
