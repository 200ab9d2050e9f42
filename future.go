package taskgraph

import "sync"

// resolver maps the entry's stored object to a *T: identity, up-cast via Go
// interface assertion, or member alias via a user projector (spec.md §4.6).
//
// controlBlock.value always holds a pointer (boxed as any), never a bare
// value — this is what lets repeated reads of the same entry return the
// identical storage address (spec.md §8 S1/S2: "two calls to the same
// submission share the entry's storage address"), matching the original's
// (raw pointer, deleter) representation instead of Go's copy-on-assert
// default.
type resolver[T any] func(any) (*T, bool)

func identityResolver[T any]() resolver[T] {
	return func(v any) (*T, bool) {
		p, ok := v.(*T)
		return p, ok
	}
}

// Future is the user-visible awaitable handle into a Store entry (spec.md
// §3.4, §4.6). The zero value is a default-constructed Future: it holds no
// handle and is not awaitable.
type Future[T any] struct {
	h        handle
	resolve  resolver[T]
	upcasted bool // true once a non-identity resolver has been installed
}

// Bool reports whether the Future holds a handle (spec.md §4.6 operator bool).
func (f Future[T]) Bool() bool { return f.h.cb != nil }

// Release relinquishes the Future's handle. Go has no destructor to run
// this automatically at scope exit the way the original's RAII Future
// does, so callers that do not consume the Future via TryWait must call
// Release explicitly once done with it — the same explicit-lifetime
// convention the teacher uses for io.Closer-shaped resources. A released
// Future becomes empty.
func (f *Future[T]) Release() {
	f.h.release()
	f.h = handle{}
}

// Key returns the Key of the submission backing this Future (spec.md §4.6
// get_key's entry-identifying counterpart).
func (f Future[T]) Key() Key {
	if f.h.cb == nil {
		panicPrecondition("Future.Key", "operation on a default-constructed Future")
	}
	return f.h.key
}

func (f Future[T]) readValue() (*T, error) {
	if f.h.cb == nil {
		panicPrecondition("Future", "operation on a default-constructed Future")
	}
	f.h.cb.mu.RLock()
	defer f.h.cb.mu.RUnlock()
	return f.readValueLocked()
}

// readValueLocked is readValue for callers that already hold the entry's
// waiter lock.
func (f Future[T]) readValueLocked() (*T, error) {
	if f.h.cb.err != nil {
		return nil, newKeyError(f.h.cb.err, f.h.cb.key.FuncName())
	}
	v, ok := f.resolve(f.h.cb.value)
	if !ok {
		panicPrecondition("Future", "resolver could not view the stored value as the requested type")
	}
	return v, nil
}

// TryWait implements spec.md §4.6 try_wait: if the entry is done, the
// Future's handle is consumed into the returned Result, and the Future
// itself becomes empty; otherwise the Future retains its handle and an
// empty, not-ok Result is returned.
func (f *Future[T]) TryWait() (Result[T], bool) {
	if f.h.cb == nil || !f.h.cb.isDone() {
		return Result[T]{}, false
	}
	v, err := f.readValue()
	res := Result[T]{h: f.h, val: v, err: err}
	f.h = handle{}
	return res, true
}

// ActiveWait joins the scheduler's worker loop until the entry completes,
// then extracts a Result (spec.md §4.5 active_wait, §4.6). This preserves
// progress even when the Context was configured with WorkerThreadCount(0)
// (property 7).
func (f Future[T]) ActiveWait(c *Context) (Result[T], error) {
	if f.h.cb == nil {
		panicPrecondition("Future.ActiveWait", "operation on a default-constructed Future")
	}
	if !f.h.cb.isDone() {
		done := make(chan struct{})
		if f.h.cb.tryAddContinuation(func() { close(done) }) {
			stop := make(chan struct{})
			go func() {
				<-done
				close(stop)
			}()
			c.scheduler.Worker.Assist(stop)
			<-done
		}
	}
	v, err := f.readValue()
	return Result[T]{h: f.h.acquire(), val: v, err: err}, err
}

// Await suspends the calling goroutine as a continuation; on completion it
// is resumed by a scheduled (never inline) worker-pool goroutine (spec.md
// §4.4, §4.6, §5 ordering guarantees).
func (f Future[T]) Await(c *Context) (Result[T], error) {
	if f.h.cb == nil {
		panicPrecondition("Future.Await", "operation on a default-constructed Future")
	}
	done := make(chan struct{})
	if f.h.cb.tryAddContinuation(func() { close(done) }) {
		<-done
	}
	v, err := f.readValue()
	return Result[T]{h: f.h.acquire(), val: v, err: err}, err
}

// AsyncWaitAndThen implements spec.md §4.6 async_wait_and_then: enlists cb
// via tryAddCallback if not yet done (fired from whichever goroutine
// completes the task, under the waiter lock), otherwise invokes cb inline
// on the caller.
func (f Future[T]) AsyncWaitAndThen(cb func(Result[T], error)) {
	if f.h.cb == nil {
		panicPrecondition("Future.AsyncWaitAndThen", "operation on a default-constructed Future")
	}
	deliver := func(v *T, err error) {
		cb(Result[T]{h: f.h.acquire(), val: v, err: err}, err)
	}
	// An enlisted callback runs inside conditionallyComplete, which already
	// holds the waiter lock, so it reads the outcome without re-locking.
	if !f.h.cb.tryAddCallback(func() { deliver(f.readValueLocked()) }) {
		deliver(f.readValue())
	}
}

// As installs an up-cast resolver, constructing a Future[Iface] from a
// Future[Concrete] (spec.md §4.6 up-cast). Converting a Future that already
// carries a non-identity resolver is a precondition violation — chained
// upcasts are unsupported (spec.md §9 Open Questions).
func As[Iface any, Concrete any](f Future[Concrete]) Future[Iface] {
	if f.upcasted {
		panicPrecondition("Future.As", "cannot upcast a future that already carries a non-identity resolver")
	}
	var once sync.Once
	var cached *Iface
	var asserted bool
	return Future[Iface]{
		h:        f.h.acquire(),
		upcasted: true,
		resolve: func(v any) (*Iface, bool) {
			p, ok := v.(*Concrete)
			if !ok {
				return nil, false
			}
			// Assert on the pointer itself, not *p: Iface may be satisfied
			// only via a pointer-receiver method set on Concrete, in which
			// case the dereferenced value does not implement Iface at all.
			// Cache the conversion once so repeated reads of this upcast
			// Future keep returning the same address, consistent with every
			// other resolver's storage-address-stability guarantee.
			once.Do(func() {
				iface, assertOk := any(p).(Iface)
				asserted = assertOk
				if assertOk {
					cached = &iface
				}
			})
			return cached, asserted
		},
	}
}

// Alias installs a member-alias resolver, constructing a Future[Member]
// from a Future[Container] via project (spec.md §4.6 member alias). Also
// disallowed on Futures that already carry a non-identity resolver.
func Alias[Container any, Member any](f Future[Container], project func(*Container) *Member) Future[Member] {
	if f.upcasted {
		panicPrecondition("Future.Alias", "cannot alias a future that already carries a non-identity resolver")
	}
	return Future[Member]{
		h:        f.h.acquire(),
		upcasted: true,
		resolve: func(v any) (*Member, bool) {
			p, ok := v.(*Container)
			if !ok {
				return nil, false
			}
			return project(p), true
		},
	}
}
