package crawler

import (
	"github.com/nao1215/politecrawl/internal/resultlog"
)

// eventBuffer is the capacity of a run's event channel.
const eventBuffer = 64

// Event reports progress after one frontier entry has been processed.
type Event struct {
	URL          string
	Depth        int
	PagesCrawled int
	PageLimit    int

	// Kind is the outcome recorded first for the entry: a title, a skip or
	// an error.
	Kind resultlog.Kind
}

// Run is a handle on a crawl executing on its own goroutine.
type Run struct {
	done    chan struct{}
	events  chan Event
	summary Summary
}

func newRun() *Run {
	return &Run{
		done:   make(chan struct{}),
		events: make(chan Event, eventBuffer),
	}
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Events delivers progress events. Delivery is best effort: events are
// dropped when the buffer is full. The channel is closed when the run ends.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Wait blocks until the run finishes and returns its summary and the error
// that aborted it, if any.
func (r *Run) Wait() (Summary, error) {
	<-r.done
	return r.summary, r.summary.Err
}

func (r *Run) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

func (r *Run) finish(s Summary) {
	r.summary = s
	close(r.events)
	close(r.done)
}
