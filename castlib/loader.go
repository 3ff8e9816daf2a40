package castlib

import (
	"sort"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/container"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/vmerr"
)

// ParsedCast is the output of parsing one cast library's raw bytes: every
// chunk kind spec.md §4.2 names, resolved against each other (the
// "Fetched → Parsed" transition of §4.3).
type ParsedCast struct {
	Config      chunks.Config
	FileVersion chunks.FileVersion
	NameTable   script.NameTable
	Members     map[uint16]chunks.CastMember
	Scripts     map[uint32]script.Script
	Score       chunks.Score
	FrameLabels chunks.FrameLabels
	CastList    chunks.CastList
	CastMap     chunks.CastMap
	KeyTable    chunks.KeyTable
}

// ParseCastBundle loads a container from data and decodes every chunk
// kind this core understands, in container-id order for determinism
// where a kind (such as Script) appears more than once.
func ParseCastBundle(data []byte) (ParsedCast, error) {
	idx, err := container.Load(data)
	if err != nil {
		return ParsedCast{}, err
	}

	ids := make([]uint32, 0, len(idx.Chunks))
	for id := range idx.Chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	configRec, ok := firstOfKind(idx, ids, chunks.KindConfig)
	if !ok {
		return ParsedCast{}, vmerr.New(vmerr.BadFormat, "container has no config chunk")
	}
	configBytes, err := configRec.Bytes()
	if err != nil {
		return ParsedCast{}, err
	}
	cfg, fv, err := chunks.DecodeConfig(configBytes)
	if err != nil {
		return ParsedCast{}, err
	}

	out := ParsedCast{
		Config:      cfg,
		FileVersion: fv,
		Members:     make(map[uint16]chunks.CastMember),
		Scripts:     make(map[uint32]script.Script),
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindScriptNames); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		names, err := chunks.DecodeScriptNames(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.NameTable = names
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindScore); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		score, err := chunks.DecodeScore(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.Score = score
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindFrameLabels); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		labels, err := chunks.DecodeFrameLabels(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.FrameLabels = labels
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindCastList); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		cl, err := chunks.DecodeCastList(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.CastList = cl
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindCastMap); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		cm, err := chunks.DecodeCastMap(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.CastMap = cm
	}

	if rec, ok := firstOfKind(idx, ids, chunks.KindKeyTable); ok {
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		kt, err := chunks.DecodeKeyTable(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.KeyTable = kt
	}

	for _, id := range ids {
		rec := idx.Chunks[id]
		if rec.Kind != chunks.KindScript {
			continue
		}
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		s, err := chunks.DecodeScript(id, raw, fv)
		if err != nil {
			return ParsedCast{}, err
		}
		out.Scripts[id] = s
	}

	for _, id := range ids {
		rec := idx.Chunks[id]
		if rec.Kind != chunks.KindCastMember {
			continue
		}
		raw, err := rec.Bytes()
		if err != nil {
			return ParsedCast{}, err
		}
		m, err := chunks.DecodeCastMember(raw)
		if err != nil {
			return ParsedCast{}, err
		}
		out.Members[m.Number] = m
	}

	return out, nil
}

func firstOfKind(idx *container.Index, ids []uint32, kind binio.FourCC) (*container.ChunkRecord, bool) {
	for _, id := range ids {
		rec := idx.Chunks[id]
		if rec.Kind == kind {
			return rec, true
		}
	}
	return nil, false
}
