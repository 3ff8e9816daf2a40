package chunks

import (
	"math"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// Literal tags for the script chunk's literal pool.
const (
	literalTagVoid   = 0
	literalTagInt    = 1
	literalTagFloat  = 2
	literalTagString = 3
)

func decodeLiteral(r *binio.Reader) (value.Value, error) {
	tag, err := r.Uint8()
	if err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "literal tag: %v", err)
	}
	switch tag {
	case literalTagVoid:
		return value.Void{}, nil
	case literalTagInt:
		v, err := r.Int32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "int literal: %v", err)
		}
		return value.Int32(v), nil
	case literalTagFloat:
		bits, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "float literal: %v", err)
		}
		hi, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "float literal continuation: %v", err)
		}
		return value.Float64(float64FromBits(bits, hi)), nil
	case literalTagString:
		s, err := r.PascalString32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "string literal: %v", err)
		}
		return value.String(s), nil
	default:
		return nil, vmerr.New(vmerr.CorruptChunk, "unknown literal tag %d", tag)
	}
}

func encodeLiteral(w *binio.Writer, v value.Value) {
	switch lit := v.(type) {
	case value.Void, nil:
		w.WriteUint8(literalTagVoid)
	case value.Int32:
		w.WriteUint8(literalTagInt)
		w.WriteUint32(uint32(int32(lit)))
	case value.Float64:
		w.WriteUint8(literalTagFloat)
		lo, hi := float64ToBits(float64(lit))
		w.WriteUint32(lo)
		w.WriteUint32(hi)
	case value.String:
		w.WriteUint8(literalTagString)
		w.WritePascalString32(string(lit))
	default:
		// Only the kinds above appear in a literal pool on disk; anything
		// else is a decoder bug, not a malformed file.
		w.WriteUint8(literalTagVoid)
	}
}

// float64ToBits/float64FromBits split an IEEE-754 double across two
// 32-bit words so the literal pool stays word-aligned like the rest of
// the chunk formats in this package.
func float64ToBits(f float64) (lo, hi uint32) {
	bits := math.Float64bits(f)
	return uint32(bits), uint32(bits >> 32)
}

func float64FromBits(lo, hi uint32) float64 {
	bits := uint64(lo) | uint64(hi)<<32
	return math.Float64frombits(bits)
}
