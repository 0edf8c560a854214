package timeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultDedupWindow suppresses equivalent events arriving this close
	// together.
	DefaultDedupWindow = 100 * time.Millisecond
	// DefaultDedupCacheSize bounds the dedup cache before LRU eviction.
	DefaultDedupCacheSize = 500
	// DefaultDedupCacheTTL expires idle cache entries.
	DefaultDedupCacheTTL = 5 * time.Second
)

type dedupEntry struct {
	count    int
	lastSeen time.Time
}

// Deduper suppresses near-duplicate events inside a short window. Its state
// spans the whole session; it is deliberately not reset between turns.
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	cache  *expirable.LRU[string, dedupEntry]
	hits   uint64
	now    func() time.Time
}

// DeduperOption adjusts a Deduper at construction.
type DeduperOption func(*Deduper)

// WithDedupClock replaces the wall clock, for tests.
func WithDedupClock(now func() time.Time) DeduperOption {
	return func(d *Deduper) { d.now = now }
}

// WithDedupWindow overrides the suppression window.
func WithDedupWindow(w time.Duration) DeduperOption {
	return func(d *Deduper) {
		if w > 0 {
			d.window = w
		}
	}
}

// NewDeduper builds a Deduper with a bounded, time-expiring cache. size and
// ttl fall back to the defaults when non-positive.
func NewDeduper(size int, ttl time.Duration, opts ...DeduperOption) *Deduper {
	if size <= 0 {
		size = DefaultDedupCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultDedupCacheTTL
	}
	d := &Deduper{
		window: DefaultDedupWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cache = expirable.NewLRU[string, dedupEntry](size, nil, ttl)
	return d
}

// Accept reports whether the event should enter the render queue. A rejected
// event had an equivalent accepted within the window; its cache entry count
// is bumped so callers can observe suppression pressure.
func (d *Deduper) Accept(ev Event) bool {
	if d == nil || ev.Payload == nil {
		return false
	}
	key, dedupable := d.key(ev)
	if !dedupable {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if entry, ok := d.cache.Get(key); ok && now.Sub(entry.lastSeen) < d.window {
		d.hits++
		d.cache.Add(key, dedupEntry{count: entry.count + 1, lastSeen: entry.lastSeen})
		return false
	}
	d.cache.Add(key, dedupEntry{count: 1, lastSeen: now})
	return true
}

// key returns the equivalence key for the event and whether the kind
// participates in deduplication at all.
func (d *Deduper) key(ev Event) (string, bool) {
	switch p := ev.Payload.(type) {
	case ToolInvocation:
		bucket := d.now().UnixMilli() / d.window.Milliseconds()
		return fmt.Sprintf("tool_invocation:%s:%d", p.Call.Name, bucket), true
	case AssistantStage:
		return "assistant_stage:" + p.Stage, true
	default:
		return "", false
	}
}

// Hits returns how many events were suppressed so far.
func (d *Deduper) Hits() uint64 {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits
}

// CacheLen returns the current number of live cache entries.
func (d *Deduper) CacheLen() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cache.Len()
}

// Reset drops all dedup state. Used by the pipeline's clear operation.
func (d *Deduper) Reset() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Purge()
}
