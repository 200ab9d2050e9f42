package taskgraph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ygrebnov/taskgraph/internal/names"
	"github.com/ygrebnov/taskgraph/internal/sched"
	"github.com/ygrebnov/taskgraph/metrics"
)

// Context is the runtime facade (spec.md §4.7): one Options, one Scheduler,
// one Store, one Globals, and a name-store.
type Context struct {
	options   Options
	scheduler *sched.Scheduler
	store     *Store
	globals   *Globals
	names     *names.Store

	taskLatency  metrics.Histogram
	taskFailures metrics.Counter

	closeOnce sync.Once
	closed    chan struct{}
}

// New constructs a Context configured by opts (spec.md §4.7, §6's
// `workerThreadCount`/`mainThreadId`/`args` option table).
func New(opts ...Option) *Context {
	o := buildOptions(opts...)

	c := &Context{
		options: o,
		names:   names.New(),
		closed:  make(chan struct{}),
	}
	c.scheduler = sched.New(o.WorkerThreadCount, o.UnusedCacheSize)
	c.scheduler.Worker.SetDepthRecorder(c.recordQueueDepth("worker"))
	c.scheduler.Main.SetDepthRecorder(c.recordQueueDepth("main"))

	c.taskLatency = o.Metrics.Histogram(
		"taskgraph_task_duration_seconds",
		metrics.WithUnit("seconds"),
		metrics.WithDescription("wall-clock duration of one task production"),
	)
	c.taskFailures = o.Metrics.Counter(
		"taskgraph_task_failures_total",
		metrics.WithDescription("count of tasks that completed with a producer error"),
	)

	c.store = newStore(c)
	c.globals = newGlobals()
	return c
}

func (c *Context) recordQueueDepth(pool string) func(category string, depth int) {
	h := c.options.Metrics.Histogram(
		"taskgraph_workpool_queue_depth",
		metrics.WithDescription("post-enqueue depth of a WorkPool queue category"),
		metrics.WithAttributes(map[string]string{"pool": pool}),
	)
	return func(category string, depth int) {
		h.Record(float64(depth))
	}
}

func (c *Context) logger() *slog.Logger { return c.options.Logger }

func (c *Context) funcName(f interface{}) string {
	return c.names.NameOf(functionPointer(f), f)
}

// Close tears the Context down in the order spec.md §4.7 requires: globals
// drained newest-first, then the scheduler stopped and drained, matching
// the teacher's lifecycleCoordinator.Close cancel→wait→drain→close
// sequencing. Close is idempotent.
func (c *Context) Close() {
	c.closeOnce.Do(func() {
		c.globals.drain()
		c.scheduler.RequestStop()
		c.scheduler.Wait()
		close(c.closed)
	})
}

func (c *Context) checkOpen() {
	select {
	case <-c.closed:
		panicPrecondition("Submit", ErrShutdown.Error())
	default:
	}
}

// ScheduleOnWorkerThread returns the direct (awaitable) form of spec.md §6's
// scheduling primitive for the worker pool.
func (c *Context) ScheduleOnWorkerThread() awaitableSchedule {
	return awaitableSchedule{enqueue: c.scheduler.ScheduleOnWorkerThread}
}

// ScheduleOnWorkerThreadAfter is ScheduleOnWorkerThread's _after(deadline) variant.
func (c *Context) ScheduleOnWorkerThreadAfter(deadline time.Time) awaitableSchedule {
	return awaitableSchedule{enqueue: func(job func()) {
		c.scheduler.ScheduleOnWorkerThreadAfter(job, deadline)
	}}
}

// ScheduleOnMainThread returns the direct (awaitable) form of spec.md §6's
// scheduling primitive for the main pool.
func (c *Context) ScheduleOnMainThread() awaitableSchedule {
	return awaitableSchedule{enqueue: c.scheduler.ScheduleOnMainThread}
}

// ScheduleOnMainThreadAfter is ScheduleOnMainThread's _after(deadline) variant.
func (c *Context) ScheduleOnMainThreadAfter(deadline time.Time) awaitableSchedule {
	return awaitableSchedule{enqueue: func(job func()) {
		c.scheduler.ScheduleOnMainThreadAfter(job, deadline)
	}}
}

// ScheduleTaskOnWorkerThread is the pushed (closure) form of spec.md §6's
// scheduling primitive: an opaque zero-arg closure with no awaitable handle.
func (c *Context) ScheduleTaskOnWorkerThread(job func()) {
	c.scheduler.ScheduleTaskOnWorkerThread(job)
}

// AssistMain lets the calling goroutine drive the main pool's worker loop
// until stop closes — the Go realization of a goroutine "serving as the
// main thread" per mainThreadId (spec.md §4.7, §6).
func (c *Context) AssistMain(stop <-chan struct{}) {
	c.scheduler.Main.Assist(stop)
}

// SetEmptyOnceCallback registers cb per spec.md §4.2 set_empty_once_callback.
func (c *Context) SetEmptyOnceCallback(cb func()) {
	c.store.setEmptyOnceCallback(cb)
}

// MetricsSnapshot returns a point-in-time read of every instrument this
// Context has recorded to (taskgraph_store_live_entries,
// taskgraph_task_duration_seconds, taskgraph_task_failures_total,
// taskgraph_workpool_queue_depth), and true, when this Context was built
// WithMetrics(a *metrics.BasicProvider). It reports false for the default
// metrics.NoopProvider, which retains nothing to snapshot.
func (c *Context) MetricsSnapshot() (metrics.ProviderSnapshot, bool) {
	bp, ok := c.options.Metrics.(*metrics.BasicProvider)
	if !ok {
		return metrics.ProviderSnapshot{}, false
	}
	return bp.Snapshot(), true
}

// awaitableSchedule is the direct (awaitable) form of a scheduling primitive
// (spec.md §6): awaiting it blocks the caller's goroutine until the
// scheduler resumes it on the target pool.
type awaitableSchedule struct {
	enqueue func(func())
}

// Await blocks until the scheduler resumes this schedule request.
func (a awaitableSchedule) Await() {
	done := make(chan struct{})
	a.enqueue(func() { close(done) })
	<-done
}

// Submit0 submits a 0-ary value-return computation (spec.md §6 entry point,
// arity 0).
func Submit0[T any](c *Context, f func(context.Context, *Context) (T, error)) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc)
		})
	})
}

// Submit1 submits a 1-ary value-return computation.
func Submit1[T any, K0 comparable](
	c *Context, f func(context.Context, *Context, K0) (T, error), k0 K0,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc, k0)
		})
	})
}

// Submit2 submits a 2-ary value-return computation.
func Submit2[T any, K0, K1 comparable](
	c *Context, f func(context.Context, *Context, K0, K1) (T, error), k0 K0, k1 K1,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0, k1)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc, k0, k1)
		})
	})
}

// Submit3 submits a 3-ary value-return computation.
func Submit3[T any, K0, K1, K2 comparable](
	c *Context, f func(context.Context, *Context, K0, K1, K2) (T, error), k0 K0, k1 K1, k2 K2,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0, k1, k2)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc, k0, k1, k2)
		})
	})
}

// Submit4 submits a 4-ary value-return computation.
func Submit4[T any, K0, K1, K2, K3 comparable](
	c *Context, f func(context.Context, *Context, K0, K1, K2, K3) (T, error), k0 K0, k1 K1, k2 K2, k3 K3,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0, k1, k2, k3)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc, k0, k1, k2, k3)
		})
	})
}

// Submit5 submits a 5-ary value-return computation, the maximum arity
// spec.md §3 declares.
func Submit5[T any, K0, K1, K2, K3, K4 comparable](
	c *Context, f func(context.Context, *Context, K0, K1, K2, K3, K4) (T, error),
	k0 K0, k1 K1, k2 K2, k3 K3, k4 K4,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0, k1, k2, k3, k4)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context) (T, error) {
			return f(ctx, cc, k0, k1, k2, k3, k4)
		})
	})
}

// SubmitProxy0 submits a 0-ary promise-proxy computation (spec.md §4.4
// promise-proxy mode).
func SubmitProxy0[T any](c *Context, f func(context.Context, *Context, PromiseProxy[T]) error) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnProxyTask(cb, newHandle(c.store, key, cb), f)
	})
}

// SubmitProxy1 submits a 1-ary promise-proxy computation.
func SubmitProxy1[T any, K0 comparable](
	c *Context, f func(context.Context, *Context, PromiseProxy[T], K0) error, k0 K0,
) Future[T] {
	c.checkOpen()
	name := c.funcName(f)
	key := newKey(f, name, k0)
	return retrieveReference[T](c.store, key, func(cb *controlBlock) {
		spawnProxyTask(cb, newHandle(c.store, key, cb), func(ctx context.Context, cc *Context, p PromiseProxy[T]) error {
			return f(ctx, cc, p, k0)
		})
	})
}
