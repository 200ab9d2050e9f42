// Package sched implements the two-pool cooperative scheduler described by
// spec.md §4.5, generalizing the teacher's pool.Pool (fixed/dynamic worker
// checkout) and workers.go worker loop to four queue categories: deferred
// release, timers, ready continuations, and opaque tasks.
package sched

import (
	"container/heap"
	"sync"
	"time"
)

// timerEntry pairs a deadline with the closure to run once it elapses.
type timerEntry struct {
	deadline time.Time
	job      func()
}

type timerHeap []timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// WorkPool is one of the scheduler's two queue-sets (spec.md: WorkPool).
// It owns a FIFO ready queue, a deadline-ordered timer heap, an opaque task
// queue, and a deferred-release queue. Worker goroutines drain them in the
// priority order deferred release, due timers, ready, then tasks (spec.md
// §4.5 step 2).
type WorkPool struct {
	mu   sync.Mutex
	cond *sync.Cond

	ready    []func()
	timers   timerHeap
	tasks    []func()
	deferred []func()

	unusedCacheSize int

	stopRequested bool
	workers       sync.WaitGroup

	// depthHist, when set, records queue depth samples on each enqueue —
	// wired from taskgraph's Options.Metrics (SPEC_FULL.md §6).
	depthHist func(category string, depth int)
}

// NewWorkPool constructs an empty WorkPool.
func NewWorkPool(unusedCacheSize int) *WorkPool {
	p := &WorkPool{unusedCacheSize: unusedCacheSize}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// SetDepthRecorder installs a callback invoked with the post-enqueue depth of
// the category just pushed to ("ready", "timers", "tasks", "deferred").
func (p *WorkPool) SetDepthRecorder(f func(category string, depth int)) {
	p.mu.Lock()
	p.depthHist = f
	p.mu.Unlock()
}

// ScheduleReady enqueues a ready continuation (spec.md: schedule(handle, nil, mainThread)).
func (p *WorkPool) ScheduleReady(job func()) {
	p.mu.Lock()
	p.ready = append(p.ready, job)
	depth := len(p.ready)
	p.record("ready", depth)
	p.cond.Signal()
	p.mu.Unlock()
}

// ScheduleAfter enqueues a continuation to run at or after deadline.
func (p *WorkPool) ScheduleAfter(job func(), deadline time.Time) {
	p.mu.Lock()
	heap.Push(&p.timers, timerEntry{deadline: deadline, job: job})
	p.record("timers", len(p.timers))
	p.cond.Signal()
	p.mu.Unlock()
}

// ScheduleTask enqueues an opaque closure with no coroutine handle, matching
// spec.md's schedule(task_closure, mainThreadFlag) overload.
func (p *WorkPool) ScheduleTask(job func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, job)
	p.record("tasks", len(p.tasks))
	p.cond.Signal()
	p.mu.Unlock()
}

// Unused enqueues a deferred-release thunk (spec.md: unused(handle)).
func (p *WorkPool) Unused(job func()) {
	p.mu.Lock()
	p.deferred = append(p.deferred, job)
	p.record("deferred", len(p.deferred))
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *WorkPool) record(category string, depth int) {
	if p.depthHist != nil {
		p.depthHist(category, depth)
	}
}

// next pops the highest-priority pending job under the pool's priority order:
// deferred release, then due timers, then ready, then opaque tasks. It
// returns (job, true) when work is available, or (nil, false) when the pool
// is empty and permanently stopped.
//
// When nothing is immediately due but a future timer exists, next blocks
// until that timer's deadline, new work arrives, or stop is requested.
func (p *WorkPool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if n := len(p.deferred); n > 0 {
			job := p.deferred[0]
			p.deferred = p.deferred[1:]
			return job, true
		}

		if len(p.timers) > 0 {
			now := time.Now()
			if !p.timers[0].deadline.After(now) {
				entry := heap.Pop(&p.timers).(timerEntry)
				return entry.job, true
			}
		}

		if n := len(p.ready); n > 0 {
			job := p.ready[0]
			p.ready = p.ready[1:]
			return job, true
		}

		if n := len(p.tasks); n > 0 {
			job := p.tasks[0]
			p.tasks = p.tasks[1:]
			return job, true
		}

		if p.stopRequested && len(p.timers) == 0 {
			return nil, false
		}

		if len(p.timers) > 0 {
			p.waitUntil(p.timers[0].deadline)
			continue
		}

		p.cond.Wait()
	}
}

// waitUntil releases the lock and blocks until either cond is signalled or
// deadline passes, then re-acquires the lock. Must be called with p.mu held.
func (p *WorkPool) waitUntil(deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}
	timer := time.AfterFunc(d, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.cond.Wait()
	timer.Stop()
}

// Run starts n worker goroutines draining this pool until RequestStop is
// called and the pool has fully drained. It returns immediately; call Wait
// to block until all workers have exited.
func (p *WorkPool) Run(n uint) {
	for i := uint(0); i < n; i++ {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			p.loop()
		}()
	}
}

func (p *WorkPool) loop() {
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		job()
	}
}

// Assist runs the worker loop on the calling goroutine until stop is
// closed, implementing spec.md §4.5's active-wait participation: the caller
// contributes compute to this pool until its own condition is satisfied.
func (p *WorkPool) Assist(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		job, ok := p.tryNext()
		if !ok {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
			}
			continue
		}
		job()
	}
}

// tryNext is a non-blocking variant of next used by Assist, which must not
// block forever on an Assist-private stop signal that next() cannot observe.
func (p *WorkPool) tryNext() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.deferred); n > 0 {
		job := p.deferred[0]
		p.deferred = p.deferred[1:]
		return job, true
	}
	if len(p.timers) > 0 && !p.timers[0].deadline.After(time.Now()) {
		entry := heap.Pop(&p.timers).(timerEntry)
		return entry.job, true
	}
	if n := len(p.ready); n > 0 {
		job := p.ready[0]
		p.ready = p.ready[1:]
		return job, true
	}
	if n := len(p.tasks); n > 0 {
		job := p.tasks[0]
		p.tasks = p.tasks[1:]
		return job, true
	}
	return nil, false
}

// RequestStop signals the pool's workers to exit once ready/timers drain.
// In-flight work is never cancelled; future-dated timers are retained until
// they fire (spec.md §5 "Cancellation and timeouts").
func (p *WorkPool) RequestStop() {
	p.mu.Lock()
	p.stopRequested = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Wait blocks until all Run-started worker goroutines have exited.
func (p *WorkPool) Wait() {
	p.workers.Wait()
}
