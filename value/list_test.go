package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListIndexing(t *testing.T) {
	l := NewList([]Value{Int32(10), Int32(20), Int32(30)})

	require.Equal(t, 3, l.Len())
	for i := 1; i <= l.Len(); i++ {
		require.Equal(t, l.Elements()[i-1], l.GetAt(i))
	}
	require.Equal(t, Void{}, l.GetAt(0))
	require.Equal(t, Void{}, l.GetAt(4))
}

func TestListCOW(t *testing.T) {
	l := NewList([]Value{Int32(1), Int32(2)})
	l2 := l.SetAt(1, Int32(99))

	require.Equal(t, Int32(1), l.GetAt(1), "original list must not be mutated")
	require.Equal(t, Int32(99), l2.GetAt(1))
}

func TestListAppendInsertDelete(t *testing.T) {
	l := NewList([]Value{Int32(1), Int32(3)})
	l = l.InsertAt(2, Int32(2))
	require.Equal(t, "[1, 2, 3]", l.String())

	l = l.Append(Int32(4))
	require.Equal(t, "[1, 2, 3, 4]", l.String())

	l = l.DeleteAt(1)
	require.Equal(t, "[2, 3, 4]", l.String())
}

func TestPropListOrderPreserved(t *testing.T) {
	pl := NewPropList()
	pl = pl.Set("a", Int32(1))
	pl = pl.Set("b", Int32(2))
	pl = pl.Set("a", Int32(3)) // update, not reinsert

	require.Equal(t, 2, pl.Count())
	keys := pl.Keys()
	require.Equal(t, []Symbol{"a", "b"}, keys)

	v, ok := pl.Get("A") // case-insensitive lookup
	require.True(t, ok)
	require.Equal(t, Int32(3), v)
}

func TestPropListCount(t *testing.T) {
	pl := NewPropList().Set("a", Int32(1)).Set("b", Int32(2))
	require.Equal(t, 2, pl.Count())
	pairs := pl.Pairs()
	require.Equal(t, Symbol("a"), pairs[0].Key)
	require.Equal(t, Int32(1), pairs[0].Val)
	require.Equal(t, Symbol("b"), pairs[1].Key)
	require.Equal(t, Int32(2), pairs[1].Val)
}
