package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/vmerr"
)

// DecodeScriptNames parses a "Script-Names" chunk into the NameTable its
// scripts share.
func DecodeScriptNames(raw []byte) (script.NameTable, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	count, err := r.Uint32()
	if err != nil {
		return script.NameTable{}, vmerr.New(vmerr.CorruptChunk, "script names count: %v", err)
	}
	names := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := r.PascalString()
		if err != nil {
			return script.NameTable{}, vmerr.New(vmerr.CorruptChunk, "script names entry %d: %v", i, err)
		}
		names = append(names, name)
	}
	return script.NewNameTable(names), nil
}

// EncodeScriptNames is the symmetric inverse of DecodeScriptNames.
func EncodeScriptNames(names script.NameTable) []byte {
	w := binio.NewWriter(binio.BigEndian)
	all := names.Names()
	w.WriteUint32(uint32(len(all)))
	for _, n := range all {
		w.WritePascalString(n)
	}
	return w.Bytes()
}
