// Package progress defines the narrow event interface that the pipeline
// reports through, per spec.md §9's design note promoting progress to an
// optional capability rather than baked-in live-display machinery. The
// pipeline must behave identically whether or not a Reporter is attached.
package progress

// Reporter receives progress events from the classification and packaging
// pipeline. Implementations must not block the producer; a reporter that
// needs to do expensive work (rendering, network I/O) should buffer events
// internally and drain them on its own goroutine, matching the
// non-blocking, buffered-signal discipline of the teacher's state tracker.
type Reporter interface {
	// Enumerated reports the total number of files discovered under the
	// generated root before classification begins.
	Enumerated(count int)
	// Classified reports cumulative progress as files are classified.
	Classified(count int)
	// ChunkStarted reports that staging/building of chunk idx has begun.
	ChunkStarted(idx int)
	// ChunkFinished reports that chunk idx has been built successfully.
	ChunkFinished(idx int)
	// ArchiveBuilt reports the path of a completed archive.
	ArchiveBuilt(path string)
	// Compressed reports the path of a completed compressed bundle.
	Compressed(path string)
}

// noop is a Reporter that discards every event.
type noop struct{}

func (noop) Enumerated(int)       {}
func (noop) Classified(int)       {}
func (noop) ChunkStarted(int)     {}
func (noop) ChunkFinished(int)    {}
func (noop) ArchiveBuilt(string)  {}
func (noop) Compressed(string)    {}

// Noop is a Reporter that discards every event. It is the default used
// throughout the core so that attaching a Reporter is always optional.
var Noop Reporter = noop{}

// OrNoop returns r if it is non-nil, or Noop otherwise. Every entry point
// that accepts a Reporter should pass it through OrNoop so that internal
// code never needs a nil check.
func OrNoop(r Reporter) Reporter {
	if r == nil {
		return Noop
	}
	return r
}

// Event identifies the kind of a buffered progress event delivered through
// Channel.
type Event struct {
	Kind  EventKind
	Count int
	Index int
	Path  string
}

// EventKind enumerates the event set from spec.md §9.
type EventKind uint8

const (
	EventEnumerated EventKind = iota
	EventClassified
	EventChunkStarted
	EventChunkFinished
	EventArchiveBuilt
	EventCompressed
)

// Channel is a buffered-channel Reporter for CLI consumption. Events are
// sent on a best-effort, non-blocking basis: if the channel's buffer is
// full, the event is dropped rather than blocking the producer, matching
// the "never block the producer" discipline carried over from the
// teacher's state tracker.
type Channel struct {
	events chan Event
}

// NewChannel creates a Channel-backed Reporter with the given buffer size.
// If size is zero or negative, a default of 64 is used.
func NewChannel(size int) *Channel {
	if size < 1 {
		size = 64
	}
	return &Channel{events: make(chan Event, size)}
}

// Events returns the channel on which events are delivered. The caller is
// responsible for draining it; once the owning pipeline run completes, no
// further events will be sent and the caller may stop draining.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) send(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

func (c *Channel) Enumerated(count int)    { c.send(Event{Kind: EventEnumerated, Count: count}) }
func (c *Channel) Classified(count int)    { c.send(Event{Kind: EventClassified, Count: count}) }
func (c *Channel) ChunkStarted(idx int)    { c.send(Event{Kind: EventChunkStarted, Index: idx}) }
func (c *Channel) ChunkFinished(idx int)   { c.send(Event{Kind: EventChunkFinished, Index: idx}) }
func (c *Channel) ArchiveBuilt(path string) { c.send(Event{Kind: EventArchiveBuilt, Path: path}) }
func (c *Channel) Compressed(path string)  { c.send(Event{Kind: EventCompressed, Path: path}) }
