package taskgraph

// Result is refcounted access to a produced value, or a subobject of it
// (spec.md §3.4, §4.6). The zero value is an empty Result.
type Result[T any] struct {
	h   handle
	val *T
	err error
}

// Bool reports whether the Result holds a value.
func (r Result[T]) Bool() bool { return r.val != nil }

// Key returns the Key of the submission that produced this entry (spec.md
// §4.6 get_key's entry-identifying counterpart).
func (r Result[T]) Key() Key { return r.h.key }

// Get returns the pointed-to value. Dereferencing an empty Result is a
// precondition violation (spec.md §7).
func (r Result[T]) Get() *T {
	if r.val == nil {
		panicPrecondition("Result.Get", "dereference of an empty Result")
	}
	return r.val
}

// Err returns the producer error captured for this entry, if any (spec.md §7).
func (r Result[T]) Err() error { return r.err }

// Release relinquishes the Result's handle (spec.md §3, Result destruction).
// A released Result becomes empty.
func (r *Result[T]) Release() {
	r.h.release()
	r.h = handle{}
	r.val = nil
}

// AliasResult implements spec.md §4.6's aliasing construction: a new Result
// whose pointer is caller-provided but whose lifetime is tied to donor's
// entry. Precondition: ptr and a present donor value must either both be
// present or both be absent.
func AliasResult[T any, U any](ptr *T, donor Result[U]) Result[T] {
	if (ptr == nil) != (donor.val == nil) {
		panicPrecondition("AliasResult", "pointer and donor presence must match")
	}
	if ptr == nil {
		return Result[T]{}
	}
	return Result[T]{h: donor.h.acquire(), val: ptr, err: donor.err}
}
