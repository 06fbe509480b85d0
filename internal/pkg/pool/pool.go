// Package pool provides a bounded-concurrency, rate-limited, memory-aware
// task scheduler. Work is admitted through three gates checked in order:
// active tasks below the concurrency limit, completions in the current
// 60-second window below the per-window limit, and sampled heap usage
// below a soft ceiling. Admission is strictly FIFO.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Task is a unit of asynchronous work. Tasks must honor ctx so a
// configured timeout can release a stalled external call.
type Task func(ctx context.Context) error

// ErrClosed is returned for submissions to a closed pool and reported
// through the handles of tasks still queued when the pool closes.
var ErrClosed = errors.New("pool is closed")

// Config holds the pool limits.
type Config struct {
	// Concurrency caps the number of in-flight tasks. Must be >= 1.
	Concurrency int
	// RatePerMinute caps completions per rolling window. Must be >= 1.
	RatePerMinute int
	// MemoryLimitMB is a soft ceiling on sampled heap usage. A value
	// <= 0 leaves the memory gate always open.
	MemoryLimitMB int
	// TaskTimeout bounds a single task's execution. Zero disables it.
	TaskTimeout time.Duration
}

// Handle resolves with a task's own outcome.
type Handle struct {
	done chan struct{}
	err  error
}

// Done is closed once the task has completed, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's outcome. Only valid after Done is closed.
func (h *Handle) Err() error {
	return h.err
}

// Wait blocks until the task completes or ctx is cancelled.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type item struct {
	task   Task
	handle *Handle
}

// Pool schedules tasks through the three admission gates. A single
// scheduler goroutine owns the gate-check/dequeue decision, so the
// concurrency invariant cannot be violated by racing dequeues. Launched
// tasks run on an ants worker pool sized to the concurrency limit.
type Pool struct {
	cfg     Config
	logger  *zap.Logger
	sample  func() float64 // heap usage in MB
	backoff time.Duration
	window  time.Duration

	mu              sync.Mutex
	queue           []*item
	active          int
	completedWindow int
	closed          bool

	workers *ants.Pool
	wake    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets a custom logger. Default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMemorySampler replaces the heap sampler. The sampler returns the
// current usage in MB; it is called with the pool lock held and must
// not block.
func WithMemorySampler(sample func() float64) Option {
	return func(p *Pool) {
		if sample != nil {
			p.sample = sample
		}
	}
}

// WithBackoff sets the recheck interval used while a gate is closed.
// Default is one second.
func WithBackoff(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.backoff = d
		}
	}
}

// WithWindow sets the rolling-window length. Default is one minute.
func WithWindow(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.window = d
		}
	}
}

// New creates a started Pool.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.RatePerMinute < 1 {
		return nil, fmt.Errorf("rate per minute must be at least 1, got %d", cfg.RatePerMinute)
	}

	p := &Pool{
		cfg:     cfg,
		logger:  zap.NewNop(),
		sample:  heapAllocMB,
		backoff: time.Second,
		window:  time.Minute,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	workers, err := ants.NewPool(cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p.workers = workers

	p.wg.Add(2)
	go p.schedule()
	go p.resetWindow()

	return p, nil
}

// Submit enqueues a task and returns immediately. The task's outcome is
// only logged; use SubmitWait to observe it.
func (p *Pool) Submit(task Task) error {
	_, err := p.SubmitWait(task)
	return err
}

// SubmitWait enqueues a task and returns a handle that resolves with
// the task's own outcome.
func (p *Pool) SubmitWait(task Task) (*Handle, error) {
	it := &item{
		task:   task,
		handle: &Handle{done: make(chan struct{})},
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.queue = append(p.queue, it)
	p.mu.Unlock()

	p.signal()
	return it.handle, nil
}

// Stats is a point-in-time snapshot of the pool counters.
type Stats struct {
	Queued          int
	Active          int
	CompletedWindow int
	MemoryMB        float64
}

// Stats reports the current pool state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Queued:          len(p.queue),
		Active:          p.active,
		CompletedWindow: p.completedWindow,
		MemoryMB:        p.sample(),
	}
}

// Close stops the scheduler, fails all still-queued tasks with
// ErrClosed and releases the workers. In-flight tasks finish on their
// own; their completions are still accounted.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	close(p.stop)
	p.wg.Wait()

	for _, it := range pending {
		it.handle.err = ErrClosed
		close(it.handle.done)
	}

	p.workers.Release()
}

// signal nudges the scheduler without blocking.
func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// schedule is the single coordinating loop. It is the only goroutine
// that dequeues, so the check-gates/dequeue/launch section is never
// executed concurrently.
func (p *Pool) schedule() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
		}

		if !p.dispatch() {
			return
		}
	}
}

// dispatch drains the queue while the gates stay open, backing off
// while one is closed. Returns false when the pool is stopping.
func (p *Pool) dispatch() bool {
	for {
		p.mu.Lock()
		if p.closed || len(p.queue) == 0 {
			p.mu.Unlock()
			return !p.closed
		}

		if !p.gatesOpen() {
			p.mu.Unlock()
			// Gate closed: recheck after the backoff, or sooner if a
			// completion wakes us.
			select {
			case <-p.stop:
				return false
			case <-time.After(p.backoff):
			case <-p.wake:
			}
			continue
		}

		it := p.queue[0]
		p.queue = p.queue[1:]
		p.active++
		p.mu.Unlock()

		p.launch(it)
	}
}

// gatesOpen checks the three admission gates. Caller holds the lock.
func (p *Pool) gatesOpen() bool {
	if p.active >= p.cfg.Concurrency {
		return false
	}
	if p.completedWindow >= p.cfg.RatePerMinute {
		return false
	}
	if p.cfg.MemoryLimitMB > 0 && p.sample() >= float64(p.cfg.MemoryLimitMB) {
		p.logger.Warn("memory usage above limit, holding queue",
			zap.Float64("memory_mb", p.sample()),
			zap.Int("limit_mb", p.cfg.MemoryLimitMB),
		)
		return false
	}
	return true
}

// launch hands the task to a worker without blocking the scheduler.
func (p *Pool) launch(it *item) {
	err := p.workers.Submit(func() {
		p.execute(it)
	})
	if err != nil {
		// Worker pool rejected the task; complete it as a failure so
		// the active count is still decremented exactly once.
		p.complete(it, fmt.Errorf("launch task: %w", err))
	}
}

func (p *Pool) execute(it *item) {
	ctx := context.Background()
	if p.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TaskTimeout)
		defer cancel()
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		err = it.task(ctx)
	}()

	p.complete(it, err)
}

// complete records a task outcome. Success and failure are handled
// identically as far as the counters go; the error reaches only the
// task's own handle.
func (p *Pool) complete(it *item, err error) {
	p.mu.Lock()
	p.active--
	p.completedWindow++
	queued := len(p.queue)
	active := p.active
	completed := p.completedWindow
	p.mu.Unlock()

	it.handle.err = err
	close(it.handle.done)

	if err != nil {
		p.logger.Warn("task failed", zap.Error(err))
	}
	p.logger.Debug("task completed",
		zap.Int("queued", queued),
		zap.Int("active", active),
		zap.Int("completed_in_window", completed),
	)

	p.signal()
}

// resetWindow clears the completion counter on a fixed wall-clock
// cadence, independent of individual task timing.
func (p *Pool) resetWindow() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.window)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.completedWindow = 0
			queued := len(p.queue)
			active := p.active
			p.mu.Unlock()

			p.logger.Debug("rate window reset",
				zap.Int("queued", queued),
				zap.Int("active", active),
				zap.Float64("memory_mb", p.sample()),
			)
			p.signal()
		}
	}
}

// heapAllocMB samples the process heap. Used as the default memory
// gate input; best effort only.
func heapAllocMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / 1024 / 1024
}
