// Package names implements the Context's name-store: a telemetry-only
// record of the human-readable name behind each function pointer submitted
// through the Store, generalizing the teacher's error_tagging.go
// correlation-metadata idea from per-task IDs to per-function names.
package names

import (
	"reflect"
	"runtime"
	"sync"
)

// Store records function names by pointer identity. It has no semantic
// effect on dedup or scheduling; it exists purely so logs and error
// messages can name the function behind a Key instead of a bare address.
type Store struct {
	mu    sync.RWMutex
	names map[uintptr]string
}

// New constructs an empty name Store.
func New() *Store {
	return &Store{names: make(map[uintptr]string)}
}

// NameOf returns a human-readable name for f, deriving it from runtime
// function metadata the first time f's pointer is seen and caching it
// thereafter.
func (s *Store) NameOf(fnPointer uintptr, f interface{}) string {
	s.mu.RLock()
	if n, ok := s.names[fnPointer]; ok {
		s.mu.RUnlock()
		return n
	}
	s.mu.RUnlock()

	name := "unknown"
	if fn := runtime.FuncForPC(reflect.ValueOf(f).Pointer()); fn != nil {
		name = fn.Name()
	}

	s.mu.Lock()
	s.names[fnPointer] = name
	s.mu.Unlock()
	return name
}
