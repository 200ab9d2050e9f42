package taskgraph

// handle is a refcounted reference to a Store entry (spec.md §3 Handle).
//
// Unlike the original's RAII Handle, a Go handle has no destructor: every
// drop must be released explicitly via release(). This port folds the
// "decrement, and on 1→0 enqueue for teardown" sequence entirely into
// Store.releaseReference, run from the scheduler's deferred-release queue:
// release() always enqueues, and the decrement (plus the 1→0 check) happens
// there. This preserves the observable guarantee that no Handle drop ever
// runs value teardown inline, without needing a synchronous refcount peek
// at drop time, which Go's lack of destructors makes moot.
type handle struct {
	store *Store
	key   Key
	cb    *controlBlock
}

// newHandle constructs a fresh reference to cb, incrementing its refcount.
func newHandle(store *Store, key Key, cb *controlBlock) handle {
	cb.refcount.Add(1)
	return handle{store: store, key: key, cb: cb}
}

// acquire returns an additional handle to the same entry.
func (h handle) acquire() handle {
	if h.cb == nil {
		return h
	}
	h.cb.refcount.Add(1)
	return h
}

// release relinquishes this handle by routing it through the scheduler's
// deferred-release queue; it never tears the entry down inline (spec.md §3,
// §4.5 unused_cache_size).
func (h handle) release() {
	if h.cb == nil {
		return
	}
	store, cb := h.store, h
	store.scheduleRelease(cb)
}

// abandon nulls the handle without touching refcount — used once the
// scheduler has taken ownership of releasing it (spec.md §3).
func (h *handle) abandon() {
	h.cb = nil
	h.store = nil
}
