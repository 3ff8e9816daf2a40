package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// KeyEntry is one owner/child association from the "Key table" chunk,
// e.g. linking a cast member to the script that backs it.
type KeyEntry struct {
	OwnerID uint32
	ChildID uint32
	Kind    binio.FourCC
}

// KeyTable is the decoded "Key table" chunk (spec.md §4.2).
type KeyTable struct {
	Entries []KeyEntry
}

// DecodeKeyTable parses a "Key table" chunk.
func DecodeKeyTable(raw []byte) (KeyTable, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	count, err := r.Uint32()
	if err != nil {
		return KeyTable{}, vmerr.New(vmerr.CorruptChunk, "key table count: %v", err)
	}
	entries := make([]KeyEntry, 0, count)
	for i := 0; i < int(count); i++ {
		owner, err := r.Uint32()
		if err != nil {
			return KeyTable{}, vmerr.New(vmerr.CorruptChunk, "key table entry %d owner: %v", i, err)
		}
		child, err := r.Uint32()
		if err != nil {
			return KeyTable{}, vmerr.New(vmerr.CorruptChunk, "key table entry %d child: %v", i, err)
		}
		kind, err := r.FourCCTag()
		if err != nil {
			return KeyTable{}, vmerr.New(vmerr.CorruptChunk, "key table entry %d kind: %v", i, err)
		}
		entries = append(entries, KeyEntry{OwnerID: owner, ChildID: child, Kind: kind})
	}
	return KeyTable{Entries: entries}, nil
}

// EncodeKeyTable is the symmetric inverse of DecodeKeyTable.
func EncodeKeyTable(kt KeyTable) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint32(uint32(len(kt.Entries)))
	for _, e := range kt.Entries {
		w.WriteUint32(e.OwnerID)
		w.WriteUint32(e.ChildID)
		w.WriteFourCC(e.Kind)
	}
	return w.Bytes()
}

// ScriptFor resolves the script (child) resource id attached to a given
// owner (typically a cast member id) via a "script" kind key, or false
// if none exists.
func (kt KeyTable) ScriptFor(ownerID uint32) (uint32, bool) {
	scriptKind := binio.NewFourCC("scrp")
	for _, e := range kt.Entries {
		if e.OwnerID == ownerID && e.Kind == scriptKind {
			return e.ChildID, true
		}
	}
	return 0, false
}
