package script

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// Instruction is one decoded bytecode instruction (spec.md §3).
type Instruction struct {
	ByteOffset uint32
	Opcode     Opcode
	Argument   int32
}

// DecodeBytecode parses a handler's raw instruction stream into Instructions
// plus the byte-offset → instruction-index map jumps and breakpoints use.
func DecodeBytecode(raw []byte) ([]Instruction, map[uint32]uint32, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	var instrs []Instruction
	offsetToIndex := make(map[uint32]uint32, len(raw))

	for r.Remaining() > 0 {
		offset := uint32(r.Pos())
		b, err := r.Uint8()
		if err != nil {
			return nil, nil, vmerr.New(vmerr.CorruptChunk, "read opcode at %d: %v", offset, err)
		}
		op := Opcode(b)

		var arg int32
		switch op.ArgumentWidth() {
		case 0:
		case 1:
			v, err := r.Int8()
			if err != nil {
				return nil, nil, vmerr.New(vmerr.CorruptChunk, "read 1-byte argument for %s at %d: %v", op, offset, err)
			}
			arg = int32(v)
		case 2:
			v, err := r.Int16()
			if err != nil {
				return nil, nil, vmerr.New(vmerr.CorruptChunk, "read 2-byte argument for %s at %d: %v", op, offset, err)
			}
			arg = int32(v)
		}

		offsetToIndex[offset] = uint32(len(instrs))
		instrs = append(instrs, Instruction{ByteOffset: offset, Opcode: op, Argument: arg})
	}
	return instrs, offsetToIndex, nil
}

// EncodeBytecode is the symmetric inverse of DecodeBytecode, used by the
// chunk round-trip tests and by tooling that synthesizes handlers.
func EncodeBytecode(instrs []Instruction) []byte {
	w := binio.NewWriter(binio.BigEndian)
	for _, in := range instrs {
		w.WriteUint8(byte(in.Opcode))
		switch in.Opcode.ArgumentWidth() {
		case 0:
		case 1:
			w.WriteUint8(uint8(int8(in.Argument)))
		case 2:
			w.WriteUint16(uint16(int16(in.Argument)))
		}
	}
	return w.Bytes()
}
