package taskgraph

import "sync"

// Funnel fans a stream of keyed submissions through a bounded number of
// concurrent outstanding Futures (spec.md §8 S6, `original_source`'s
// arc/funnel.hpp precedent), generalizing the teacher's foreach.go/map.go
// bounded-pool fan-out from ad hoc closures to Store-backed keyed
// submissions: every key executes at most once (the Store dedups it), the
// funnel never holds more than bound outstanding in-flight Futures, and
// every result is delivered to consume exactly once.
type Funnel[T any] struct {
	submit func(key any) Future[T]
	bound  int
}

// NewFunnel constructs a Funnel of the given bound, backed by submit — a
// closure over the caller's Submit1 call for a single key argument.
func NewFunnel[T any](bound int, submit func(key any) Future[T]) *Funnel[T] {
	if bound <= 0 {
		panicPrecondition("NewFunnel", "bound must be positive")
	}
	return &Funnel[T]{submit: submit, bound: bound}
}

// Run submits keys, respecting the funnel's bound on concurrently
// outstanding Futures, and delivers every result to consume exactly once,
// on the calling goroutine.
func (fn *Funnel[T]) Run(c *Context, keys []any, consume func(Result[T], error)) {
	sem := make(chan struct{}, fn.bound)
	results := make(chan func(), fn.bound)
	var wg sync.WaitGroup

	go func() {
		for _, k := range keys {
			k := k
			sem <- struct{}{}
			wg.Add(1)
			f := fn.submit(k)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				res, err := f.Await(c)
				results <- func() { consume(res, err) }
			}()
		}
		wg.Wait()
		close(results)
	}()

	for deliver := range results {
		deliver()
	}
}
