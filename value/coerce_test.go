package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsFloat64StringPrefix(t *testing.T) {
	f, ok := AsFloat64(String("42abc"))
	require.True(t, ok)
	require.Equal(t, 42.0, f)

	f, ok = AsFloat64(String("not a number"))
	require.True(t, ok)
	require.Equal(t, 0.0, f)

	f, ok = AsFloat64(String("-3.5xyz"))
	require.True(t, ok)
	require.Equal(t, -3.5, f)
}

func TestAsInt32Truncates(t *testing.T) {
	i, ok := AsInt32(Float64(3.9))
	require.True(t, ok)
	require.Equal(t, int32(3), i)
}

func TestVoidCoercions(t *testing.T) {
	require.Equal(t, "", AsString(Void{}))
	f, _ := AsFloat64(Void{})
	require.Equal(t, 0.0, f)
	require.Equal(t, 0, AsList(Void{}).Len())
}

func TestNumericPromote(t *testing.T) {
	_, _, isFloat := NumericPromote(Int32(1), Int32(2))
	require.False(t, isFloat)

	_, _, isFloat = NumericPromote(Int32(1), Float64(2.5))
	require.True(t, isFloat)
}
