package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Logger reports sink panics and the first drop of every burst. Nil means zap.NewNop.
	Logger *zap.Logger
}

// Dispatcher relays audit events to a sink from a single goroutine so that
// PoW workers and request handlers never wait on sink I/O.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	log     *zap.Logger
	queue   chan Event
	stop    chan struct{}
	drained chan struct{}

	dropped  atomic.Uint64
	dropping atomic.Bool
	panics   atomic.Uint64
	closed   atomic.Bool
	once     sync.Once
}

// NewDispatcher starts a dispatcher. It returns nil when auditing is disabled;
// every method is safe on a nil receiver.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		log:     log.Named("audit"),
		queue:   make(chan Event, cfg.BufferSize),
		stop:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.drained)

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stop:
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

// deliver isolates the relay goroutine from a panicking sink.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panics.Add(1)
			d.log.Error("audit sink panicked",
				zap.String("event_type", ev.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), ev)
	d.dropping.Store(false)
}

// Emit queues ev, stamping Timestamp when the caller left it zero. With
// DropIfFull a full queue drops the event; otherwise Emit blocks until there
// is room, ctx ends or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- ev:
		case <-d.stop:
		default:
			d.drop(ev)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.stop:
	}
}

func (d *Dispatcher) drop(ev Event) {
	n := d.dropped.Add(1)
	if d.dropping.CompareAndSwap(false, true) {
		d.log.Warn("audit queue full, dropping events",
			zap.String("event_type", ev.EventType),
			zap.Uint64("dropped_total", n),
		)
	}
}

// Close stops accepting events, flushes the queue and waits for the relay
// goroutine. Repeated calls are no-ops.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		<-d.drained
	})
}

// Dropped reports events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// SinkPanics reports deliveries that panicked inside the sink.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panics.Load()
}
