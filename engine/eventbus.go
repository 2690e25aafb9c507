package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"acrossfc/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

// AllCategories subscribes a handler to every awarded event.
const AllCategories core.PointsCategory = ""

type Handler func(context.Context, core.PointsEvent)

// BusOption configures an EventBus.
type BusOption func(*EventBus)

// WithQueueSize sets the async queue capacity.
func WithQueueSize(n int) BusOption {
	return func(b *EventBus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

func WithWorkers(n int) BusOption {
	return func(b *EventBus) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithBusLogger(l *slog.Logger) BusOption {
	return func(b *EventBus) {
		if l != nil {
			b.logger = l
		}
	}
}

// EventBus fans awarded points out to subscribers. In async mode events are
// queued for a worker pool and dropped when the queue is full.
type EventBus struct {
	mode      DispatchMode
	queueSize int
	workers   int
	logger    *slog.Logger

	mu     sync.RWMutex
	seq    int64
	byCat  map[core.PointsCategory]map[int64]Handler
	closed bool

	queue   chan core.PointsEvent
	dropped atomic.Int64
	wg      sync.WaitGroup
	once    sync.Once
}

func NewEventBus(mode DispatchMode, opts ...BusOption) *EventBus {
	b := &EventBus{
		mode:      mode,
		queueSize: 1024,
		workers:   2,
		logger:    slog.Default(),
		byCat:     map[core.PointsCategory]map[int64]Handler{},
	}
	for _, o := range opts {
		o(b)
	}
	if mode == DispatchAsync {
		b.queue = make(chan core.PointsEvent, b.queueSize)
		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.work()
		}
	}
	return b
}

func (b *EventBus) work() {
	defer b.wg.Done()
	for ev := range b.queue {
		b.deliver(context.Background(), ev)
	}
}

// Close stops accepting events, drains the queue and waits for the workers.
func (b *EventBus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		if b.queue != nil {
			close(b.queue)
		}
		b.wg.Wait()
	})
}

// Subscribe registers h for cat, or every category with AllCategories. The
// returned func removes the subscription.
func (b *EventBus) Subscribe(cat core.PointsCategory, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := b.seq
	if b.byCat[cat] == nil {
		b.byCat[cat] = map[int64]Handler{}
	}
	b.byCat[cat][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.byCat[cat], id)
	}
}

// Publish delivers ev inline in sync mode or enqueues it in async mode.
func (b *EventBus) Publish(ctx context.Context, ev core.PointsEvent) {
	if b.mode != DispatchAsync {
		b.deliver(ctx, ev)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.dropped.Add(1)
		return
	}
	select {
	case b.queue <- ev:
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, dropping event", "event", ev.UUID, "category", ev.Category)
	}
}

// Dropped counts async events that were not delivered.
func (b *EventBus) Dropped() int64 { return b.dropped.Load() }

func (b *EventBus) deliver(ctx context.Context, ev core.PointsEvent) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.byCat[ev.Category])+len(b.byCat[AllCategories]))
	for _, h := range b.byCat[ev.Category] {
		hs = append(hs, h)
	}
	if ev.Category != AllCategories {
		for _, h := range b.byCat[AllCategories] {
			hs = append(hs, h)
		}
	}
	b.mu.RUnlock()
	for _, h := range hs {
		b.call(ctx, h, ev)
	}
}

func (b *EventBus) call(ctx context.Context, h Handler, ev core.PointsEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", ev.UUID, "panic", r)
		}
	}()
	h(ctx, ev)
}
