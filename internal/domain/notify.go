package domain

// ChangeEvent tells the UI that a cached listing now has different contents
type ChangeEvent struct {
	Key CacheKey
	URL string
}

// Notifier receives content-changed signals. Implementations must not block.
type Notifier interface {
	ContentChanged(ev ChangeEvent)
}

// NotifierFunc adapts a plain function to Notifier
type NotifierFunc func(ev ChangeEvent)

// ContentChanged calls f(ev)
func (f NotifierFunc) ContentChanged(ev ChangeEvent) { f(ev) }

// NoOpNotifier discards change events (for batch commands).
type NoOpNotifier struct{}

func (NoOpNotifier) ContentChanged(ChangeEvent) {}

// ChannelNotifier adapts Notifier to a channel for Bubble Tea.
type ChannelNotifier struct {
	ch chan<- ChangeEvent
}

// NewChannelNotifier creates a new channel-based notifier.
func NewChannelNotifier(ch chan<- ChangeEvent) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

// ContentChanged sends the event to the channel (non-blocking if full).
func (n *ChannelNotifier) ContentChanged(ev ChangeEvent) {
	select {
	case n.ch <- ev:
	default: // Non-blocking if channel full
	}
}
