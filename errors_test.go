package taskgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewKeyError_NilErrorYieldsNil(t *testing.T) {
	require.Nil(t, newKeyError(nil, "f"))
}

func TestNewKeyError_WrapsAndUnwraps(t *testing.T) {
	inner := errors.New("boom")
	wrapped := newKeyError(inner, "myFunc")

	require.ErrorIs(t, wrapped, inner)
	require.Contains(t, wrapped.Error(), "myFunc")
	require.Contains(t, wrapped.Error(), "boom")
}

func TestFuncName_FindsAWrappedKeyError(t *testing.T) {
	inner := errors.New("boom")
	wrapped := newKeyError(inner, "myFunc")
	doubleWrapped := errors.Join(errors.New("context"), wrapped)

	name, ok := FuncName(doubleWrapped)
	require.True(t, ok)
	require.Equal(t, "myFunc", name)
}

func TestFuncName_FalseWhenNotAKeyError(t *testing.T) {
	name, ok := FuncName(errors.New("plain"))
	require.False(t, ok)
	require.Empty(t, name)
}

func TestPanicPrecondition_PanicsWithPreconditionError(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		pe, ok := r.(*PreconditionError)
		require.True(t, ok)
		require.Equal(t, "Op", pe.Op)
		require.Contains(t, pe.Error(), Namespace)
	}()
	panicPrecondition("Op", "bad thing happened")
}
