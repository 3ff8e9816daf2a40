package binio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Writer is the symmetric encode side of Reader, used by the chunks
// package's decode/encode round-trip tests (spec.md §8 "Chunk round-trip"
// property) and by any tooling that re-serializes a parsed chunk.
type Writer struct {
	buf    bytes.Buffer
	endian Endian
}

// NewWriter creates an empty Writer using the given byte order.
func NewWriter(endian Endian) *Writer {
	return &Writer{endian: endian}
}

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) order() binary.ByteOrder { return w.endian.order() }

// WriteBytes appends raw bytes unchanged.
func (w *Writer) WriteBytes(b []byte) { w.buf.Write(b) }

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) { w.buf.WriteByte(v) }

// WriteUint16 appends a 2-byte integer in the writer's endianness.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	w.order().PutUint16(b[:], v)
	w.buf.Write(b[:])
}

// WriteUint32 appends a 4-byte integer in the writer's endianness.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	w.order().PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// WriteFourCC appends a 4-byte tag verbatim.
func (w *Writer) WriteFourCC(f FourCC) { w.buf.Write(f[:]) }

// WritePascalString appends a one-byte length prefix followed by s's
// bytes. Panics if s exceeds 255 bytes — callers needing longer strings
// use WritePascalString32.
func (w *Writer) WritePascalString(s string) {
	if len(s) > 255 {
		panic(fmt.Sprintf("binio: PascalString of %d bytes exceeds 255", len(s)))
	}
	w.WriteUint8(uint8(len(s)))
	w.buf.WriteString(s)
}

// WritePascalString32 appends a 4-byte length prefix followed by s's
// bytes.
func (w *Writer) WritePascalString32(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

// WriteVarInt appends v using the same 7-bit-per-byte encoding VarInt
// decodes. v must be non-negative.
func (w *Writer) WriteVarInt(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			w.buf.WriteByte(b | 0x80)
		} else {
			w.buf.WriteByte(b)
			return
		}
	}
}
