package timeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yubzen/maestro/internal/log"
)

// Surface is the external terminal-drawing component the pipeline renders
// into. Implementations receive whole transcript snapshots and never call
// back into the pipeline.
type Surface interface {
	Clear()
	AppendBlock(text string)
	ScrollToEnd()
	Width() int
}

// Sink observes accepted events, typically for persistence. Sinks run on the
// flush goroutine and must not block for long.
type Sink interface {
	RecordEvent(Event)
}

// Stats is a snapshot of pipeline counters.
type Stats struct {
	EventsProcessed uint64
	EventsAccepted  uint64
	DedupHits       uint64
	RenderCount     uint64
	CacheSize       int
	QueueDepth      int
}

// Options configures a pipeline. Zero values fall back to the defaults.
type Options struct {
	Throttle       time.Duration
	DedupWindow    time.Duration
	DedupCacheSize int
	DedupCacheTTL  time.Duration
	Debug          bool
}

// Pipeline is the render core: events go through deduplication, the
// throttled scheduler, grouping, and the renderer before reaching the
// surface. It is an explicitly constructed object: producers receive a
// reference, there is no ambient shared instance.
type Pipeline struct {
	mu       sync.Mutex
	deduper  *Deduper
	sched    *Scheduler
	grouper  *Grouper
	renderer *Renderer
	surface  Surface
	sinks    []Sink

	processed atomic.Uint64
	accepted  atomic.Uint64
	renders   atomic.Uint64
	debug     atomic.Bool
	now       func() time.Time
}

// PipelineOption adjusts a pipeline at construction.
type PipelineOption func(*Pipeline)

// WithSink registers a persistence observer.
func WithSink(s Sink) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
}

// WithClock replaces the acceptance-timestamp clock, for tests.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline wires the render core onto a surface.
func NewPipeline(surface Surface, opts Options, extra ...PipelineOption) *Pipeline {
	p := &Pipeline{
		grouper:  NewGrouper(),
		renderer: NewRenderer(),
		surface:  surface,
		now:      time.Now,
	}
	for _, opt := range extra {
		opt(p)
	}
	p.deduper = NewDeduper(opts.DedupCacheSize, opts.DedupCacheTTL,
		WithDedupWindow(opts.DedupWindow), WithDedupClock(p.now))
	p.sched = NewScheduler(opts.Throttle, p.flush)
	p.SetDebug(opts.Debug)
	return p
}

// Start launches the throttled flush loop. It returns immediately; the loop
// stops when ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	go p.sched.Run(ctx)
}

// Add accepts a payload into the pipeline. It returns the stamped envelope
// and whether the event was accepted; a false return means the event was
// suppressed as a near-duplicate or rejected as malformed. Add never blocks
// on rendering.
func (p *Pipeline) Add(payload Payload) (Event, bool) {
	p.processed.Add(1)

	if payload == nil {
		log.Debug("timeline: dropping event with nil payload")
		return Event{}, false
	}

	ev := NewEvent(payload)
	if !p.deduper.Accept(ev) {
		return Event{}, false
	}

	ev.Timestamp = p.now()
	p.accepted.Add(1)
	for _, sink := range p.sinks {
		sink.RecordEvent(ev)
	}
	p.sched.Enqueue(ev)
	return ev, true
}

// Flush synchronously drains the queue and renders once, bypassing the
// throttle. Tests and shutdown paths use this instead of sleeping.
func (p *Pipeline) Flush() {
	p.sched.Drain()
}

// flush is the scheduler callback: one render pass per batch.
func (p *Pipeline) flush(batch []Event) {
	p.mu.Lock()
	for _, ev := range batch {
		p.grouper.Process(ev)
	}
	p.renderer.Debug = p.debug.Load()
	if p.surface != nil {
		p.renderer.Width = p.surface.Width()
	}
	text := p.renderer.Render(p.grouper.Groups())
	p.mu.Unlock()

	p.renders.Add(1)
	if p.surface == nil {
		return
	}
	p.surface.Clear()
	p.surface.AppendBlock(text)
	p.surface.ScrollToEnd()
}

// Transcript renders the current group list without consuming new events.
func (p *Pipeline) Transcript() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer.Debug = p.debug.Load()
	if p.surface != nil {
		p.renderer.Width = p.surface.Width()
	}
	return p.renderer.Render(p.grouper.Groups())
}

// Groups exposes the current turns, primarily for tests and the status bar.
func (p *Pipeline) Groups() []*Group {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grouper.Groups()
}

// Clear resets the transcript, the pending queue, and the dedup cache, then
// pushes an empty render to the surface.
func (p *Pipeline) Clear() {
	p.sched.Clear()
	p.deduper.Reset()

	p.mu.Lock()
	p.grouper.Clear()
	p.mu.Unlock()

	if p.surface != nil {
		p.surface.Clear()
		p.surface.ScrollToEnd()
	}
}

// SetDebug toggles debug rendering (full tool detail, group annotations).
func (p *Pipeline) SetDebug(enabled bool) {
	p.debug.Store(enabled)
}

// Debug reports whether debug rendering is active.
func (p *Pipeline) Debug() bool {
	return p.debug.Load()
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		EventsProcessed: p.processed.Load(),
		EventsAccepted:  p.accepted.Load(),
		DedupHits:       p.deduper.Hits(),
		RenderCount:     p.renders.Load(),
		CacheSize:       p.deduper.CacheLen(),
		QueueDepth:      p.sched.QueueLen(),
	}
}
