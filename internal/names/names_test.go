package names

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleFunc() {}

func TestStore_NameOfCachesResult(t *testing.T) {
	s := New()
	ptr := reflect.ValueOf(sampleFunc).Pointer()

	n1 := s.NameOf(ptr, sampleFunc)
	n2 := s.NameOf(ptr, sampleFunc)

	require.Equal(t, n1, n2)
	require.Contains(t, n1, "sampleFunc")
}

func TestStore_NameOfDistinguishesFunctions(t *testing.T) {
	s := New()
	other := func() {}

	n1 := s.NameOf(reflect.ValueOf(sampleFunc).Pointer(), sampleFunc)
	n2 := s.NameOf(reflect.ValueOf(other).Pointer(), other)

	require.NotEqual(t, n1, n2)
}
