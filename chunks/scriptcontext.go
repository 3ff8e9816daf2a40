package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// ScriptContext is the decoded "Script-Context" chunk: the header that
// ties a name table to the set of script resource ids that share it.
type ScriptContext struct {
	NameTableID uint32
	ScriptIDs   []uint32
}

// DecodeScriptContext parses a "Script-Context" chunk.
func DecodeScriptContext(raw []byte, fv FileVersion) (ScriptContext, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	nameTableID, err := readChunkIndex(r, fv)
	if err != nil {
		return ScriptContext{}, vmerr.New(vmerr.CorruptChunk, "script context name table id: %v", err)
	}
	count, err := r.Uint32()
	if err != nil {
		return ScriptContext{}, vmerr.New(vmerr.CorruptChunk, "script context script count: %v", err)
	}
	ids := make([]uint32, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := readChunkIndex(r, fv)
		if err != nil {
			return ScriptContext{}, vmerr.New(vmerr.CorruptChunk, "script context script %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ScriptContext{NameTableID: nameTableID, ScriptIDs: ids}, nil
}

// EncodeScriptContext is the symmetric inverse of DecodeScriptContext.
func EncodeScriptContext(sc ScriptContext, fv FileVersion) []byte {
	w := binio.NewWriter(binio.BigEndian)
	writeChunkIndex(w, fv, sc.NameTableID)
	w.WriteUint32(uint32(len(sc.ScriptIDs)))
	for _, id := range sc.ScriptIDs {
		writeChunkIndex(w, fv, id)
	}
	return w.Bytes()
}
