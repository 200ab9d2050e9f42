package taskgraph

import (
	"errors"
	"sync"
)

// AllOf awaits every Future in fs, resuming only once all have completed —
// not before (spec.md §8 S5). Order of internal completion does not affect
// the observer; per-future errors are joined, generalizing the teacher's
// run_all.go aggregation from "run N fresh tasks" to "await N already
// in-flight Futures."
func AllOf[T any](c *Context, fs ...Future[T]) ([]Result[T], error) {
	results := make([]Result[T], len(fs))
	errs := make([]error, len(fs))

	var wg sync.WaitGroup
	wg.Add(len(fs))
	for i, f := range fs {
		i, f := i, f
		go func() {
			defer wg.Done()
			res, err := f.Await(c)
			results[i] = res
			errs[i] = err
		}()
	}
	wg.Wait()

	return results, errors.Join(errs...)
}
