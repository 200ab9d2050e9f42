package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/taskgraph"
)

var errBoom = errors.New("producer boom")

// TestErrorPropagation_DeterministicAcrossObservers covers property 4:
// a producer error is delivered identically to every observer of the same
// entry, and is reproducible across repeated reads of the same Result/Future.
func TestErrorPropagation_DeterministicAcrossObservers(t *testing.T) {
	g := func(ctx context.Context, c *taskgraph.Context) (int, error) {
		return 0, errBoom
	}

	c := taskgraph.New(taskgraph.WithWorkerThreadCount(3))
	defer c.Close()

	f1 := taskgraph.Submit0[int](c, g)
	f2 := taskgraph.Submit0[int](c, g)

	r1, err1 := f1.ActiveWait(c)
	require.Error(t, err1)
	require.ErrorIs(t, err1, errBoom)
	require.False(t, r1.Bool())
	require.ErrorIs(t, r1.Err(), errBoom)

	r2, err2 := f2.ActiveWait(c)
	require.ErrorIs(t, err2, errBoom)
	require.False(t, r2.Bool())

	// Re-awaiting the same Future reproduces the identical error.
	r1again, err1again := f1.ActiveWait(c)
	require.ErrorIs(t, err1again, errBoom)
	require.False(t, r1again.Bool())

	name, ok := taskgraph.FuncName(err1)
	require.True(t, ok)
	require.NotEmpty(t, name)
}

// TestErrorPropagation_ResultErrCarriesTheProducerError covers the Result.Err
// accessor path (spec.md §4.6): a Result obtained via a promise-proxy's final
// error still reports a non-nil Err even though Get would panic.
func TestErrorPropagation_ResultErrCarriesTheProducerError(t *testing.T) {
	g := func(ctx context.Context, c *taskgraph.Context, proxy taskgraph.PromiseProxy[int]) error {
		v := 5
		proxy.Yield(&v)
		return errBoom
	}

	c := taskgraph.New(taskgraph.WithWorkerThreadCount(2))
	defer c.Close()

	f := taskgraph.SubmitProxy0[int](c, g)
	r, err := f.ActiveWait(c)
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, r.Err(), errBoom)
	require.False(t, r.Bool())
}
