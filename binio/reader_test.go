package binio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderPrimitivesBigEndian(t *testing.T) {
	w := NewWriter(BigEndian)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint16(0x1234)
	w.WriteUint8(0x42)
	w.WriteFourCC(NewFourCC("RIFX"))
	w.WritePascalString("hello")
	w.WriteVarInt(300)

	r := NewReader(w.Bytes(), BigEndian)

	u32, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u16, err := r.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u8, err := r.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(0x42), u8)

	tag, err := r.FourCCTag()
	require.NoError(t, err)
	require.Equal(t, "RIFX", tag.String())

	s, err := r.PascalString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	vi, err := r.VarInt()
	require.NoError(t, err)
	require.Equal(t, int64(300), vi)

	require.Equal(t, 0, r.Remaining())
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02}, BigEndian)
	_, err := r.Uint32()
	require.ErrorIs(t, err, ErrShortRead)
}

func TestReaderLatin1Fallback(t *testing.T) {
	// 0xE9 alone is not valid UTF-8 continuation; PascalString should
	// fall back to Latin-1 rather than erroring.
	w := NewWriter(BigEndian)
	w.WriteUint8(1)
	w.WriteBytes([]byte{0xE9})
	r := NewReader(w.Bytes(), BigEndian)
	s, err := r.PascalString()
	require.NoError(t, err)
	require.Equal(t, "é", s)
}

func TestLittleEndian(t *testing.T) {
	w := NewWriter(LittleEndian)
	w.WriteUint32(1)
	r := NewReader(w.Bytes(), LittleEndian)
	v, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
	require.Equal(t, byte(1), w.Bytes()[0])
}
