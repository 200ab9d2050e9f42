package taskgraph

import (
	"sync"

	"github.com/ygrebnov/taskgraph/metrics"
)

// Store is the concurrent Key → controlBlock table (spec.md §4.2).
type Store struct {
	ctx *Context

	mu      sync.Mutex
	entries map[Key]*controlBlock

	emptyOnceMu sync.Mutex
	emptyOnce   []func()

	liveEntries metrics.UpDownCounter
}

func newStore(ctx *Context) *Store {
	s := &Store{
		ctx:     ctx,
		entries: make(map[Key]*controlBlock),
	}
	s.liveEntries = ctx.options.Metrics.UpDownCounter(
		"taskgraph_store_live_entries",
		metrics.WithDescription("count of live Store entries"),
	)
	return s
}

// retrieveReference implements spec.md §4.2 retrieve_reference: insert-or-
// find under the table lock, deferring recreate's invocation until after
// the lock is released (Open Question resolution — see DESIGN.md's Store
// entry).
func retrieveReference[T any](s *Store, key Key, recreate func(*controlBlock)) Future[T] {
	s.mu.Lock()
	cb, existing := s.entries[key]
	justInserted := !existing
	if justInserted {
		cb = newControlBlock(s.ctx, key, recreate)
		s.entries[key] = cb
		s.liveEntries.Add(1)
	}
	h := newHandle(s, key, cb)
	s.mu.Unlock()

	if justInserted {
		s.ctx.logger().Debug("taskgraph: store insert", "func", key.FuncName())
		recreate(cb)
	}

	return Future[T]{h: h, resolve: identityResolver[T]()}
}

// scheduleRelease pushes h onto the scheduler's deferred-release queue,
// matching spec.md §3's "enqueues the handle... instead of deleting
// immediately."
func (s *Store) scheduleRelease(h handle) {
	s.ctx.scheduler.Unused(func() {
		s.releaseReference(h)
	})
}

// releaseReference implements spec.md §4.2 release_reference, invoked from
// the scheduler's deferred-release queue.
func (s *Store) releaseReference(h handle) {
	cb := h.cb

	n := cb.decrementAndMaybeReopen()
	if n > 0 {
		return
	}

	cb.clearValue()

	s.mu.Lock()
	live := cb.refcountSnapshot()
	if live > 0 {
		// A submission raced in during teardown: resurrect (spec.md §4.2
		// step 4, "some submission raced in during teardown").
		s.mu.Unlock()
		s.ctx.logger().Debug("taskgraph: store resurrect", "func", cb.key.FuncName())
		cb.recreate(cb)
		return
	}

	delete(s.entries, cb.key)
	s.liveEntries.Add(-1)
	empty := len(s.entries) == 0
	s.mu.Unlock()

	s.ctx.logger().Debug("taskgraph: store erase", "func", cb.key.FuncName())

	if empty {
		s.drainEmptyOnce()
	}
}

// setEmptyOnceCallback implements spec.md §4.2 set_empty_once_callback: if
// the table is empty at call time, cb runs immediately; otherwise it is
// enqueued for the next empty transition.
func (s *Store) setEmptyOnceCallback(cb func()) {
	s.mu.Lock()
	empty := len(s.entries) == 0
	s.mu.Unlock()

	if empty {
		cb()
		return
	}
	s.emptyOnceMu.Lock()
	s.emptyOnce = append(s.emptyOnce, cb)
	s.emptyOnceMu.Unlock()
}

func (s *Store) drainEmptyOnce() {
	s.emptyOnceMu.Lock()
	cbs := s.emptyOnce
	s.emptyOnce = nil
	s.emptyOnceMu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}
