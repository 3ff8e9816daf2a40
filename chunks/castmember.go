package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// MemberKind enumerates the cast member payload kinds the core
// recognizes; only Script payloads are interpreted, the rest pass
// through opaque to the presenter (spec.md §3 "CastMember").
type MemberKind uint8

const (
	MemberBitmap MemberKind = iota
	MemberSound
	MemberScript
	MemberField
	MemberShape
	MemberPalette
	MemberOther
)

// CastMember is the decoded "Cast Member" chunk.
type CastMember struct {
	Number uint16
	ID     uint32
	Name   string
	Kind   MemberKind

	// ScriptID is valid only when Kind == MemberScript: the resource id
	// of the backing Script chunk.
	ScriptID uint32

	// Payload carries the raw remaining bytes for non-script kinds,
	// opaque to the VM core and surfaced to the presenter as-is.
	Payload []byte
}

// DecodeCastMember parses a "Cast Member" chunk.
func DecodeCastMember(raw []byte) (CastMember, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	number, err := r.Uint16()
	if err != nil {
		return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member number: %v", err)
	}
	id, err := r.Uint32()
	if err != nil {
		return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member id: %v", err)
	}
	name, err := r.PascalString()
	if err != nil {
		return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member name: %v", err)
	}
	kindByte, err := r.Uint8()
	if err != nil {
		return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member kind: %v", err)
	}
	kind := MemberKind(kindByte)

	m := CastMember{Number: number, ID: id, Name: name, Kind: kind}
	if kind == MemberScript {
		scriptID, err := r.Uint32()
		if err != nil {
			return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member script back-reference: %v", err)
		}
		m.ScriptID = scriptID
		return m, nil
	}

	payload, err := r.Bytes(r.Remaining())
	if err != nil {
		return CastMember{}, vmerr.New(vmerr.CorruptChunk, "cast member payload: %v", err)
	}
	m.Payload = payload
	return m, nil
}

// EncodeCastMember is the symmetric inverse of DecodeCastMember.
func EncodeCastMember(m CastMember) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint16(m.Number)
	w.WriteUint32(m.ID)
	w.WritePascalString(m.Name)
	w.WriteUint8(uint8(m.Kind))
	if m.Kind == MemberScript {
		w.WriteUint32(m.ScriptID)
		return w.Bytes()
	}
	w.WriteBytes(m.Payload)
	return w.Bytes()
}
