package taskgraph

import (
	"sync"
	"sync/atomic"
)

// continuation is a suspended awaiter enlisted on a controlBlock that has
// not yet completed. Resuming it is always done by scheduling, never inline
// on the completer's goroutine (spec.md §4.3 step 3, §5 ordering
// guarantees).
type continuation struct {
	resume func()
}

// waiterSet holds the not-yet-complete observers of a controlBlock: ordered
// continuations, resumed via the scheduler, and ordered callbacks, invoked
// inline under the waiter lock (spec.md §3, §4.3).
type waiterSet struct {
	continuations []continuation
	callbacks     []func()
}

// promiseBase is the task's side of the controlBlock: installed for the
// lifetime of the producing goroutine and torn down at final suspend
// (spec.md §3 "valid only while the task is alive").
type promiseBase struct {
	self handle
}

// controlBlock is the mutable state of one Store entry (spec.md §3).
type controlBlock struct {
	ctx      *Context
	key      Key
	refcount atomic.Int64

	mu      sync.RWMutex
	waiters *waiterSet // nil == done
	value   any
	err     error

	promiseBase *promiseBase
	recreate    func(*controlBlock)
}

func newControlBlock(ctx *Context, key Key, recreate func(*controlBlock)) *controlBlock {
	return &controlBlock{
		ctx:      ctx,
		key:      key,
		waiters:  &waiterSet{},
		recreate: recreate,
	}
}

// tryAddContinuation enlists resume as a continuation if the entry is not
// yet complete, returning true. If the entry is already complete it returns
// false; the caller must resume immediately on its own goroutine.
func (cb *controlBlock) tryAddContinuation(resume func()) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.waiters == nil {
		return false
	}
	cb.waiters.continuations = append(cb.waiters.continuations, continuation{resume: resume})
	return true
}

// tryAddCallback enlists callback as a one-shot observer if not yet
// complete, symmetric with tryAddContinuation (spec.md §4.3). The callback
// later runs inside conditionallyComplete while the waiter lock is held, so
// it must not call back into this controlBlock's locking methods or into
// the Store table.
func (cb *controlBlock) tryAddCallback(callback func()) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.waiters == nil {
		return false
	}
	cb.waiters.callbacks = append(cb.waiters.callbacks, callback)
	return true
}

// isDone reports completion without taking the writer lock — the fast-path
// read spec.md §4.2 calls out ("readers during completion-check path").
func (cb *controlBlock) isDone() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.waiters == nil
}

// complete stores the production outcome and runs conditionallyComplete.
func (cb *controlBlock) complete(value any, err error) {
	cb.mu.Lock()
	cb.value = value
	cb.err = err
	cb.mu.Unlock()
	cb.conditionallyComplete()
}

// conditionallyComplete implements spec.md §4.3: idempotent completion —
// waiters are woken in arrival order, continuations scheduled on a worker
// thread, callbacks invoked inline while still holding the waiter lock.
// Calling it on an already-done entry (the yield-then-return case) is a
// no-op.
func (cb *controlBlock) conditionallyComplete() {
	cb.mu.Lock()
	if cb.waiters == nil {
		cb.mu.Unlock()
		return
	}
	w := cb.waiters
	cb.waiters = nil

	for _, c := range w.continuations {
		resume := c.resume
		cb.ctx.scheduler.ScheduleOnWorkerThread(resume)
	}
	for _, callback := range w.callbacks {
		callback()
	}
	cb.mu.Unlock()
}

// decrementAndMaybeReopen implements the first step of spec.md §4.2
// release_reference: decrement refcount under the waiter lock, and if the
// count reaches zero on an already-complete entry, reopen waiters so a
// racing resurrection can be observed by a concurrent retrieveReference.
func (cb *controlBlock) decrementAndMaybeReopen() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	n := cb.refcount.Add(-1)
	if n == 0 && cb.waiters == nil {
		cb.waiters = &waiterSet{}
	}
	return n
}

// clearValue drops the stored value/error once teardown proceeds (spec.md
// §4.2 step 2, "destroy the stored value"). Go's garbage collector owns the
// actual deallocation; this only clears the controlBlock's own reference.
func (cb *controlBlock) clearValue() {
	cb.mu.Lock()
	cb.value = nil
	cb.err = nil
	cb.mu.Unlock()
}

// refcountSnapshot reads the current refcount (spec.md §4.2 step 4's
// re-read under the table lock).
func (cb *controlBlock) refcountSnapshot() int64 { return cb.refcount.Load() }
