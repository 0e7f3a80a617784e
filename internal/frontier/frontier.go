package frontier

import (
	"container/heap"
	"errors"

	"github.com/bits-and-blooms/bloom/v3"
)

// ErrEmptyFrontier is returned by PopNext when no entries remain.
// It signals normal crawl termination rather than a failure.
var ErrEmptyFrontier = errors.New("frontier is empty")

// Entry is a single unit of crawl work.
type Entry struct {
	// URL is the absolute URL to fetch.
	URL string

	// Depth is the number of link hops from the seed URL.
	Depth int
}

// Frontier is an ordered work queue of crawl entries.
// It is not safe for concurrent use; the crawl engine is its only writer.
type Frontier struct {
	maxDepth int
	queue    entryHeap
	seq      uint64

	// visited is nil unless the visited-set variant is enabled.
	visited *visitedSet
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithVisitedSet makes the frontier queue every URL at most once.
// expected is the anticipated number of distinct URLs and fpRate the
// acceptable false-positive rate of the bloom pre-check; both only affect
// memory use, never correctness.
func WithVisitedSet(expected uint, fpRate float64) Option {
	return func(f *Frontier) {
		f.visited = newVisitedSet(expected, fpRate)
	}
}

// New creates an empty Frontier that drops entries deeper than maxDepth.
func New(maxDepth int, opts ...Option) *Frontier {
	f := &Frontier{
		maxDepth: maxDepth,
		queue:    make(entryHeap, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Push adds url at the given depth. It reports whether the entry was queued;
// entries with depth > MaxDepth (or negative depth) are silently dropped, as are
// already-seen URLs when the visited set is enabled.
func (f *Frontier) Push(url string, depth int) bool {
	if depth < 0 || depth > f.maxDepth {
		return false
	}
	if f.visited != nil && !f.visited.add(url) {
		return false
	}
	heap.Push(&f.queue, &item{entry: Entry{URL: url, Depth: depth}, seq: f.seq})
	f.seq++
	return true
}

// PopNext removes and returns the entry with the smallest depth.
// Among equal depths the oldest entry wins.
func (f *Frontier) PopNext() (Entry, error) {
	if f.queue.Len() == 0 {
		return Entry{}, ErrEmptyFrontier
	}
	it, _ := heap.Pop(&f.queue).(*item) //nolint:errcheck // heap only holds *item
	return it.entry, nil
}

// IsEmpty reports whether no entries are queued.
func (f *Frontier) IsEmpty() bool {
	return f.queue.Len() == 0
}

// Size returns the number of queued entries.
func (f *Frontier) Size() int {
	return f.queue.Len()
}

// MaxDepth returns the depth bound enforced by Push.
func (f *Frontier) MaxDepth() int {
	return f.maxDepth
}

// item pairs an entry with its push sequence number for FIFO tie-breaking.
type item struct {
	entry Entry
	seq   uint64
}

// entryHeap implements heap.Interface ordered by (depth, seq).
type entryHeap []*item

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].entry.Depth != h[j].entry.Depth {
		return h[i].entry.Depth < h[j].entry.Depth
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	it, _ := x.(*item) //nolint:errcheck // only *item is pushed
	*h = append(*h, it)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// visitedSet remembers queued URLs. The bloom filter answers most
// "never seen" lookups without touching the map; the map keeps the answer
// exact when the filter reports a possible hit.
type visitedSet struct {
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

func newVisitedSet(expected uint, fpRate float64) *visitedSet {
	if expected == 0 {
		expected = 10000
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.001
	}
	return &visitedSet{
		filter: bloom.NewWithEstimates(expected, fpRate),
		seen:   make(map[string]struct{}),
	}
}

// add records url and reports whether it was new.
func (v *visitedSet) add(url string) bool {
	if v.filter.TestAndAddString(url) {
		if _, ok := v.seen[url]; ok {
			return false
		}
	}
	v.seen[url] = struct{}{}
	return true
}
