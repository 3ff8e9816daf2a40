package chunks

import "github.com/quackster/libreshockwave/binio"

// Chunk kind tags, matched against a container.ChunkRecord.Kind when
// assembling a cast library from a loaded container (spec.md §4.2).
var (
	KindConfig        = binio.NewFourCC("conf")
	KindCastList      = binio.NewFourCC("cast")
	KindCastMap       = binio.NewFourCC("cmap")
	KindKeyTable      = binio.NewFourCC("keyt")
	KindCastInfo      = binio.NewFourCC("cinf")
	KindScriptNames   = binio.NewFourCC("lnam")
	KindScriptContext = binio.NewFourCC("lctx")
	KindScript        = binio.NewFourCC("lscr")
	KindScore         = binio.NewFourCC("vwsc")
	KindFrameLabels   = binio.NewFourCC("vwlb")
	KindCastMember    = binio.NewFourCC("casm")
)
