package chunks

import (
	"sort"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// CastMap is the decoded "Cast-Map" chunk: for each cast library number,
// the ordered list of member resource ids occupying its member-number
// slots (spec.md §4.2).
type CastMap struct {
	// MembersByCastLib maps cast_lib_number → member resource ids,
	// indexed by member number (the slice index is member-number-1).
	MembersByCastLib map[uint16][]uint32
}

// DecodeCastMap parses a "Cast-Map" chunk.
func DecodeCastMap(raw []byte) (CastMap, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	libCount, err := r.Uint16()
	if err != nil {
		return CastMap{}, vmerr.New(vmerr.CorruptChunk, "cast map lib count: %v", err)
	}
	out := CastMap{MembersByCastLib: make(map[uint16][]uint32, libCount)}
	for i := 0; i < int(libCount); i++ {
		libNumber, err := r.Uint16()
		if err != nil {
			return CastMap{}, vmerr.New(vmerr.CorruptChunk, "cast map entry %d lib number: %v", i, err)
		}
		memberCount, err := r.Uint16()
		if err != nil {
			return CastMap{}, vmerr.New(vmerr.CorruptChunk, "cast map entry %d member count: %v", i, err)
		}
		ids := make([]uint32, 0, memberCount)
		for j := 0; j < int(memberCount); j++ {
			id, err := r.Uint32()
			if err != nil {
				return CastMap{}, vmerr.New(vmerr.CorruptChunk, "cast map entry %d member %d: %v", i, j, err)
			}
			ids = append(ids, id)
		}
		out.MembersByCastLib[libNumber] = ids
	}
	return out, nil
}

// EncodeCastMap is the symmetric inverse of DecodeCastMap. Cast-lib
// numbers are written in ascending order for determinism.
func EncodeCastMap(cm CastMap) []byte {
	w := binio.NewWriter(binio.BigEndian)
	libNumbers := sortedKeys(cm.MembersByCastLib)
	w.WriteUint16(uint16(len(libNumbers)))
	for _, libNumber := range libNumbers {
		ids := cm.MembersByCastLib[libNumber]
		w.WriteUint16(libNumber)
		w.WriteUint16(uint16(len(ids)))
		for _, id := range ids {
			w.WriteUint32(id)
		}
	}
	return w.Bytes()
}

func sortedKeys(m map[uint16][]uint32) []uint16 {
	keys := make([]uint16, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
