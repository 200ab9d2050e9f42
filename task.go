package taskgraph

import (
	"context"
	"fmt"
	"time"
)

// taskFunc is the shape of a value-return producer (spec.md §4.4, §6 "user
// function shape"): the Submit wrappers bind the submission's key arguments,
// so by the time a taskFunc runs it takes only a cancellation context (Go's
// idiom for the coroutine's implicit environment — spec.md has no per-task
// cancellation, but ctx still carries deadlines the caller might apply
// around ActiveWait/Await) and the runtime Context.
type taskFunc[T any] func(ctx context.Context, c *Context) (T, error)

// proxyTaskFunc is the promise-proxy production mode (spec.md §4.4): the
// task constructs T in place via proxy, optionally publishing intermediate
// values with Yield, and returns only an error.
type proxyTaskFunc[T any] func(ctx context.Context, c *Context, proxy PromiseProxy[T]) error

// PromiseProxy is bound to its own entry, letting a task construct T in
// place — supporting non-movable types — and publish intermediate values
// via Yield before returning (spec.md §4.4 promise-proxy mode).
type PromiseProxy[T any] struct {
	cb *controlBlock
}

// Yield publishes an intermediate value early, triggering
// conditionallyComplete while the task continues running (spec.md §4.4
// Yield; §4.3's "yield-then-return" idempotency is what makes the task's
// own eventual completion, or lack of one, safe to call again).
func (p PromiseProxy[T]) Yield(partial *T) {
	p.cb.mu.Lock()
	p.cb.value = partial
	p.cb.mu.Unlock()
	p.cb.conditionallyComplete()
}

// spawnTask implements spec.md §4.4's spawn protocol for value-return
// tasks: attach the promise's self-handle to the controlBlock, then hand
// the goroutine launch to the scheduler so the initial suspend is real —
// the goroutine is enqueued as a scheduler task-closure, not started by a
// bare `go` statement from this function (SPEC_FULL.md §2, §4.3).
func spawnTask[T any](cb *controlBlock, self handle, fn taskFunc[T]) {
	pb := &promiseBase{self: self}
	cb.mu.Lock()
	cb.promiseBase = pb
	cb.mu.Unlock()

	cb.ctx.scheduler.ScheduleTaskOnWorkerThread(func() {
		runTask(cb, fn)
	})
}

// spawnProxyTask is spawnTask's promise-proxy counterpart.
func spawnProxyTask[T any](cb *controlBlock, self handle, fn proxyTaskFunc[T]) {
	pb := &promiseBase{self: self}
	cb.mu.Lock()
	cb.promiseBase = pb
	cb.mu.Unlock()

	cb.ctx.scheduler.ScheduleTaskOnWorkerThread(func() {
		runProxyTask(cb, fn)
	})
}

func runTask[T any](cb *controlBlock, fn taskFunc[T]) {
	started := time.Now()
	v, err := runGuarded(cb, fn)
	recordTaskMetrics(cb, started, err)
	// The controlBlock stores a pointer, not a bare value, so that every
	// observer's Result resolves to the identical storage address (spec.md
	// §8 S1/S2).
	if err != nil {
		cb.complete(nil, err)
	} else {
		cb.complete(&v, nil)
	}
	releaseSelf(cb)
}

func runProxyTask[T any](cb *controlBlock, fn proxyTaskFunc[T]) {
	started := time.Now()
	proxy := PromiseProxy[T]{cb: cb}
	err := runProxyGuarded(cb, fn, proxy)
	if err != nil {
		cb.mu.Lock()
		cb.err = err
		cb.mu.Unlock()
	}
	// Idempotent: a no-op if a prior Yield already completed the entry
	// (spec.md §4.3 step 2, the yield-then-return case).
	cb.conditionallyComplete()
	recordTaskMetrics(cb, started, err)
	releaseSelf(cb)
}

// releaseSelf tears down the promiseBase back-pointer and releases the
// task's self-handle through the scheduler, never inline — final suspend
// destruction corresponds to "task frame dropped after its self-reference
// is released through the scheduler" (spec.md §9).
func releaseSelf(cb *controlBlock) {
	cb.mu.Lock()
	pb := cb.promiseBase
	cb.promiseBase = nil
	cb.mu.Unlock()

	if pb != nil {
		pb.self.release()
	}
}

func runGuarded[T any](cb *controlBlock, fn taskFunc[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*PreconditionError); ok {
				panic(pe)
			}
			err = fmt.Errorf("%s: task panic: %v", Namespace, r)
		}
	}()
	return fn(context.Background(), cb.ctx)
}

func runProxyGuarded[T any](cb *controlBlock, fn proxyTaskFunc[T], proxy PromiseProxy[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*PreconditionError); ok {
				panic(pe)
			}
			err = fmt.Errorf("%s: task panic: %v", Namespace, r)
		}
	}()
	return fn(context.Background(), cb.ctx, proxy)
}

func recordTaskMetrics(cb *controlBlock, started time.Time, err error) {
	cb.ctx.taskLatency.Record(time.Since(started).Seconds())
	if err != nil {
		cb.ctx.taskFailures.Add(1)
	}
}
