// SPDX-License-Identifier: MPL-2.0

package resource

import "github.com/prometheus/client_golang/prometheus"

// metrics carries the manager's Prometheus collectors. They are always
// collected; registration is opt-in via WithMetrics.
type metrics struct {
	lookupHits   prometheus.Counter
	lookupMisses prometheus.Counter
	reloads      prometheus.Counter
	reloadErrors prometheus.Counter
	reloadTime   prometheus.Histogram
	activePacks  prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		lookupHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "lookup_hits_total",
			Help:      "Resource lookups that resolved to a pack entry.",
		}),
		lookupMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "lookup_misses_total",
			Help:      "Resource lookups that found no entry in any active pack.",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "reloads_total",
			Help:      "Completed reloads, successful or not.",
		}),
		reloadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "reload_errors_total",
			Help:      "Reloads that failed.",
		}),
		reloadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "reload_duration_seconds",
			Help:      "Time spent rebuilding the resource index.",
			Buckets:   prometheus.DefBuckets,
		}),
		activePacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bastion",
			Subsystem: "resources",
			Name:      "active_packs",
			Help:      "Number of packs in the active stack.",
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.lookupHits, m.lookupMisses,
		m.reloads, m.reloadErrors, m.reloadTime,
		m.activePacks,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
