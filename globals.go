package taskgraph

import "sync"

// Globals is the LIFO stack of handles retained by SetCachingPolicyGlobal
// (spec.md §4.7).
type Globals struct {
	mu    sync.Mutex
	stack []handle
}

func newGlobals() *Globals { return &Globals{} }

func (g *Globals) push(h handle) {
	g.mu.Lock()
	g.stack = append(g.stack, h)
	g.mu.Unlock()
}

// drain releases every retained handle newest-first — spec.md §4.7's
// required LIFO destruction order ("a global's destructor may refer to
// other globals registered earlier"). If a release triggers resurrection,
// the resurrected entry is simply re-released later in the drain; the
// specification does not guarantee no new tasks run during teardown, only
// that the process terminates.
func (g *Globals) drain() {
	g.mu.Lock()
	stack := g.stack
	g.stack = nil
	g.mu.Unlock()

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].release()
	}
}

// SetCachingPolicyGlobal retains f's entry for the Context's lifetime
// (spec.md §6 set_caching_policy_global(future)).
func SetCachingPolicyGlobal[T any](c *Context, f Future[T]) {
	c.globals.push(f.h.acquire())
}

// SetCachingPolicyGlobalResult retains r's entry for the Context's lifetime
// (spec.md §6 set_caching_policy_global(result)).
func SetCachingPolicyGlobalResult[T any](c *Context, r Result[T]) {
	c.globals.push(r.h.acquire())
}
