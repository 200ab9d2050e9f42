package taskgraph

import (
	"fmt"
	"hash/maphash"
	"reflect"
)

// maxKeyArity is the declared supported arity (spec.md §3: "the contract
// supports 0…5 keys").
const maxKeyArity = 5

var keySeed = maphash.MakeSeed()

// Key is the type-erased (function pointer, argument tuple) composite
// identifying one Store entry, grounded on
// original_source/include/arc/detail/key.hpp. It is immutable once built.
//
// args is a fixed-size array, not a slice: Go map keys must be comparable,
// and a [maxKeyArity]interface{} array is comparable (element-wise) as long
// as every populated slot holds a comparable dynamic value, which the
// generic Submit entry points enforce via a `comparable` type parameter.
// This lets the Store use Key directly as a map key instead of the
// hash-bucket-plus-linear-scan the original's virtual key_impl_base
// requires for arbitrary C++ argument types.
type Key struct {
	fnPtr    uintptr
	funcName string
	arity    int
	args     [maxKeyArity]interface{}
	hash     uint64
}

func functionPointer(f interface{}) uintptr {
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Func {
		panicPrecondition("Key", "submitted value is not a function")
	}
	return v.Pointer()
}

// newKey constructs a Key from a function value and its boxed key arguments.
// funcName is a display name for error messages, resolved once by the
// caller via the Context's name-store.
func newKey(f interface{}, funcName string, args ...interface{}) Key {
	if len(args) > maxKeyArity {
		panicPrecondition("Key", fmt.Sprintf("arity %d exceeds maximum of %d", len(args), maxKeyArity))
	}

	k := Key{
		fnPtr:    functionPointer(f),
		funcName: funcName,
		arity:    len(args),
	}
	copy(k.args[:], args)
	k.hash = k.computeHash()
	return k
}

func (k Key) computeHash() uint64 {
	var h maphash.Hash
	h.SetSeed(keySeed)

	var buf [8]byte
	putUint64(buf[:], uint64(k.fnPtr))
	_, _ = h.Write(buf[:])

	for i := 0; i < k.arity; i++ {
		_, _ = h.WriteString(fmt.Sprintf("%#v", k.args[i]))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Hash returns the Key's hash, stable within a process run (spec.md §4.1).
func (k Key) Hash() uint64 { return k.hash }

// Equal reports whether lhs and rhs identify the same submission: equal
// function identifier and componentwise-equal argument tuples. The Store
// itself never calls Equal directly — Key's comparable array representation
// lets Go's native map equality do this — but Equal is exposed for callers
// (and tests) that want the spec-documented componentwise comparison
// without depending on Go map internals.
func (k Key) Equal(other Key) bool {
	if k.fnPtr != other.fnPtr || k.arity != other.arity {
		return false
	}
	for i := 0; i < k.arity; i++ {
		if k.args[i] != other.args[i] {
			return false
		}
	}
	return true
}

// FuncName returns the display name of the Key's function, for diagnostics.
func (k Key) FuncName() string { return k.funcName }

// GetKey returns the i-th key argument of the submission that produced the
// entry, type-asserted to T, checked against f (spec.md §4.1 get_key<T,I>).
// Passing the wrong f, a wrong T, or an out-of-range i is a precondition
// violation.
func GetKey[T any](k Key, f interface{}, i int) T {
	if functionPointer(f) != k.fnPtr {
		panicPrecondition("GetKey", "function pointer does not match the key's submission")
	}
	if i < 0 || i >= k.arity {
		panicPrecondition("GetKey", ErrInvalidKeyArity.Error())
	}
	v, ok := k.args[i].(T)
	if !ok {
		panicPrecondition("GetKey", fmt.Sprintf("argument %d is not of type %T", i, *new(T)))
	}
	return v
}
