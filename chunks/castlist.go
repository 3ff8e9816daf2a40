package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// CastListEntry is one ordered entry of the "Cast list" chunk.
type CastListEntry struct {
	Name           string
	Path           string
	PreloadSetting uint16
}

// CastList is the decoded "Cast list" chunk: the ordered declaration of
// every cast library a movie references, internal or external.
type CastList struct {
	Entries []CastListEntry
}

// DecodeCastList parses a "Cast list" chunk.
func DecodeCastList(raw []byte) (CastList, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	count, err := r.Uint16()
	if err != nil {
		return CastList{}, vmerr.New(vmerr.CorruptChunk, "cast list count: %v", err)
	}
	entries := make([]CastListEntry, 0, count)
	for i := 0; i < int(count); i++ {
		name, err := r.PascalString()
		if err != nil {
			return CastList{}, vmerr.New(vmerr.CorruptChunk, "cast list entry %d name: %v", i, err)
		}
		path, err := r.PascalString()
		if err != nil {
			return CastList{}, vmerr.New(vmerr.CorruptChunk, "cast list entry %d path: %v", i, err)
		}
		preload, err := r.Uint16()
		if err != nil {
			return CastList{}, vmerr.New(vmerr.CorruptChunk, "cast list entry %d preload: %v", i, err)
		}
		entries = append(entries, CastListEntry{Name: name, Path: path, PreloadSetting: preload})
	}
	return CastList{Entries: entries}, nil
}

// EncodeCastList is the symmetric inverse of DecodeCastList.
func EncodeCastList(cl CastList) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint16(uint16(len(cl.Entries)))
	for _, e := range cl.Entries {
		w.WritePascalString(e.Name)
		w.WritePascalString(e.Path)
		w.WriteUint16(e.PreloadSetting)
	}
	return w.Bytes()
}
