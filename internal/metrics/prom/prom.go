package prom

import (
	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits         prometheus.Counter
	misses       prometheus.Counter
	refreshes    *prometheus.CounterVec
	swept        prometheus.Counter
	lockTimeouts prometheus.Counter
	dropped      prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	a := &Adapter{
		hits:   counter("hits_total", "Listings served from the local cache"),
		misses: counter("misses_total", "Listings fetched synchronously"),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "refreshes_total",
				Help:        "Background refreshes by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		swept:        counter("swept_total", "Entries removed by the janitor"),
		lockTimeouts: counter("lock_timeouts_total", "Entry locks that could not be acquired in time"),
		dropped:      counter("refresh_dropped_total", "Refreshes dropped because the queue was full"),
	}
	reg.MustRegister(a.hits, a.misses, a.refreshes, a.swept, a.lockTimeouts, a.dropped)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Refresh counts a finished refresh under its outcome label.
func (a *Adapter) Refresh(o cache.Outcome) {
	a.refreshes.WithLabelValues(o.String()).Inc()
}

// Swept adds the number of entries removed by one sweep.
func (a *Adapter) Swept(removed int) { a.swept.Add(float64(removed)) }

func (a *Adapter) LockTimeout() { a.lockTimeouts.Inc() }

func (a *Adapter) Dropped() { a.dropped.Inc() }

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
