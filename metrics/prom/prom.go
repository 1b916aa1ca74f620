package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/memomesh/memomesh/slab"
)

// Adapter implements slab.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	puts     prometheus.Counter
	evicts   *prometheus.CounterVec
	refusals prometheus.Counter
	peering  prometheus.Counter
	pushes   prometheus.Counter
	sizeEnt  prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil);
//     use one adapter per slab with a "slab" label to tell slabs apart
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Memo lookups that found a resident memo",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Memo lookups that missed",
			ConstLabels: constLabels,
		}),
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "puts_total",
			Help:        "Memos made resident",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Memos removed, by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		refusals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "kill_refusals_total",
			Help:        "Kills aborted by head-memo protection",
			ConstLabels: constLabels,
		}),
		peering: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "peering_batches_total",
			Help:        "Outbound peering change batches",
			ConstLabels: constLabels,
		}),
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "replication_pushes_total",
			Help:        "Memos pushed to remote slabs",
			ConstLabels: constLabels,
		}),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_memos",
			Help:        "Number of resident memos",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.puts, a.evicts, a.refusals, a.peering, a.pushes, a.sizeEnt)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Put increments the put counter.
func (a *Adapter) Put() { a.puts.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r slab.EvictReason) {
	a.evicts.WithLabelValues(reason(r)).Inc()
}

// KillRefused increments the head-protection refusal counter.
func (a *Adapter) KillRefused() { a.refusals.Inc() }

// Size updates the resident-memo gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

// PeeringChange increments the outbound peering batch counter.
func (a *Adapter) PeeringChange() { a.peering.Inc() }

// ReplicationPush increments the replication push counter.
func (a *Adapter) ReplicationPush() { a.pushes.Inc() }

// reason maps EvictReason to a stable label value.
func reason(r slab.EvictReason) string {
	switch r {
	case slab.EvictRequested:
		return "requested"
	case slab.EvictKilled:
		return "killed"
	default:
		return "quota"
	}
}

// Compile-time check: ensure Adapter implements slab.Metrics.
var _ slab.Metrics = (*Adapter)(nil)
