package taskgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuture_BoolReflectsHandlePresence(t *testing.T) {
	var zero Future[int]
	require.False(t, zero.Bool())

	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[int](c, func(ctx context.Context, cc *Context) (int, error) { return 1, nil })
	require.True(t, f.Bool())
}

func TestFuture_DefaultConstructedOperationsPanic(t *testing.T) {
	var zero Future[int]
	require.Panics(t, func() { _ = zero.Key() })
	require.Panics(t, func() { _, _ = zero.readValue() })
}

func TestFuture_TryWaitConsumesHandleOnlyWhenDone(t *testing.T) {
	c := New(WithWorkerThreadCount(0))
	defer c.Close()

	f := Submit0[int](c, func(ctx context.Context, cc *Context) (int, error) { return 5, nil })

	_, ok := f.TryWait()
	require.False(t, ok)
	require.True(t, f.Bool())

	stop := make(chan struct{})
	go func() { c.scheduler.Worker.Assist(stop) }()
	r, err := f.ActiveWait(c)
	close(stop)
	require.NoError(t, err)
	require.Equal(t, 5, *r.Get())

	r2, ok := f.TryWait()
	require.True(t, ok)
	require.Equal(t, 5, *r2.Get())
	require.False(t, f.Bool())
}

func TestFuture_AwaitIsResumedByAScheduledGoroutine(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[string](c, func(ctx context.Context, cc *Context) (string, error) {
		return "done", nil
	})

	r, err := f.Await(c)
	require.NoError(t, err)
	require.Equal(t, "done", *r.Get())
}

func TestFuture_AsyncWaitAndThenFiresExactlyOnce(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[int](c, func(ctx context.Context, cc *Context) (int, error) { return 3, nil })

	done := make(chan int, 1)
	f.AsyncWaitAndThen(func(r Result[int], err error) {
		require.NoError(t, err)
		done <- *r.Get()
	})

	require.Equal(t, 3, <-done)
}

func TestFuture_AsyncWaitAndThenFiresInlineWhenAlreadyDone(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[int](c, func(ctx context.Context, cc *Context) (int, error) { return 9, nil })
	_, err := f.ActiveWait(c)
	require.NoError(t, err)

	called := false
	f.AsyncWaitAndThen(func(r Result[int], err error) {
		called = true
		require.Equal(t, 9, *r.Get())
	})
	require.True(t, called)
}

type animal interface{ Sound() string }

type dog struct{ name string }

func (d dog) Sound() string { return d.name + ": woof" }

// cat implements animal only via a pointer receiver: a bare cat value does
// not satisfy animal, only *cat does.
type cat struct{ name string }

func (c *cat) Sound() string { return c.name + ": meow" }

func TestFuture_AsUpcastsToAnInterface(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[dog](c, func(ctx context.Context, cc *Context) (dog, error) {
		return dog{name: "Rex"}, nil
	})

	fa := As[animal, dog](f)
	r, err := fa.ActiveWait(c)
	require.NoError(t, err)
	require.Equal(t, "Rex: woof", (*r.Get()).Sound())
}

func TestFuture_AsUpcastsAPointerReceiverImplementation(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[cat](c, func(ctx context.Context, cc *Context) (cat, error) {
		return cat{name: "Tom"}, nil
	})

	fa := As[animal, cat](f)
	r1, err := fa.ActiveWait(c)
	require.NoError(t, err)
	require.Equal(t, "Tom: meow", (*r1.Get()).Sound())

	r2, err := fa.ActiveWait(c)
	require.NoError(t, err)
	require.Same(t, r1.Get(), r2.Get())
}

func TestFuture_AsPanicsOnDoubleUpcast(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[dog](c, func(ctx context.Context, cc *Context) (dog, error) {
		return dog{name: "Rex"}, nil
	})

	fa := As[animal, dog](f)
	require.Panics(t, func() {
		_ = As[any](fa)
	})
}

type pair struct {
	A int
	B string
}

func TestFuture_AliasProjectsAMember(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[pair](c, func(ctx context.Context, cc *Context) (pair, error) {
		return pair{A: 1, B: "x"}, nil
	})

	fb := Alias(f, func(p *pair) *string { return &p.B })
	r, err := fb.ActiveWait(c)
	require.NoError(t, err)
	require.Equal(t, "x", *r.Get())
}

func TestFuture_ReleaseEmptiesTheFuture(t *testing.T) {
	c := New(WithWorkerThreadCount(2))
	defer c.Close()

	f := Submit0[int](c, func(ctx context.Context, cc *Context) (int, error) { return 1, nil })
	require.True(t, f.Bool())
	f.Release()
	require.False(t, f.Bool())
}
