package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// CastInfoMember is one member's metadata as carried in the "Cast Info"
// chunk, separate from the member's own "Cast Member" chunk.
type CastInfoMember struct {
	Number uint16
	ID     uint32
	Name   string
}

// CastInfo is the decoded "Cast Info" chunk: the cast library's own name
// and external path plus a metadata row per member.
type CastInfo struct {
	Name    string
	Path    string
	Members []CastInfoMember
}

// DecodeCastInfo parses a "Cast Info" chunk.
func DecodeCastInfo(raw []byte) (CastInfo, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	name, err := r.PascalString()
	if err != nil {
		return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info name: %v", err)
	}
	path, err := r.PascalString()
	if err != nil {
		return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info path: %v", err)
	}
	count, err := r.Uint16()
	if err != nil {
		return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info member count: %v", err)
	}
	members := make([]CastInfoMember, 0, count)
	for i := 0; i < int(count); i++ {
		number, err := r.Uint16()
		if err != nil {
			return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info member %d number: %v", i, err)
		}
		id, err := r.Uint32()
		if err != nil {
			return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info member %d id: %v", i, err)
		}
		memberName, err := r.PascalString()
		if err != nil {
			return CastInfo{}, vmerr.New(vmerr.CorruptChunk, "cast info member %d name: %v", i, err)
		}
		members = append(members, CastInfoMember{Number: number, ID: id, Name: memberName})
	}
	return CastInfo{Name: name, Path: path, Members: members}, nil
}

// EncodeCastInfo is the symmetric inverse of DecodeCastInfo.
func EncodeCastInfo(ci CastInfo) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WritePascalString(ci.Name)
	w.WritePascalString(ci.Path)
	w.WriteUint16(uint16(len(ci.Members)))
	for _, m := range ci.Members {
		w.WriteUint16(m.Number)
		w.WriteUint32(m.ID)
		w.WritePascalString(m.Name)
	}
	return w.Bytes()
}
