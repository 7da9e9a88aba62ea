package cache

// Outcome is the result of one background refresh
type Outcome int

const (
	// OutcomeSkipped means nothing was done (already started, dropped, empty result or entry gone)
	OutcomeSkipped Outcome = iota
	// OutcomeReconfirmed means the entry was saved within the freshness window and kept as is
	OutcomeReconfirmed
	// OutcomeUnchanged means the server returned the same fingerprint
	OutcomeUnchanged
	// OutcomeChanged means new items were persisted and a change was announced
	OutcomeChanged
	// OutcomeFailed means the fetch, decode or write failed; the store is untouched
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReconfirmed:
		return "reconfirmed"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeChanged:
		return "changed"
	case OutcomeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Refresh(Outcome)
	Swept(removed int)
	LockTimeout()
	Dropped()
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()            {}
func (NoopMetrics) Miss()           {}
func (NoopMetrics) Refresh(Outcome) {}
func (NoopMetrics) Swept(int)       {}
func (NoopMetrics) LockTimeout()    {}
func (NoopMetrics) Dropped()        {}

var _ Metrics = NoopMetrics{}
