// Package container implements the chunked binary container loader
// (spec.md §4.1): it locates the memory map, iterates chunks, and
// transparently handles the compressed "afterburner" variant, producing
// an immutable ContainerIndex of ChunkRecord for the chunks package to
// decode.
package container

import (
	"bytes"
	"compress/zlib"
	"io"
	"log"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// Root tags recognized in the first four bytes of a movie file
// (spec.md §4.1, §6). Director's real tags are RIFX/XFIR/RIFX+Fver-style
// afterburner wrappers; since bit-exact historical compatibility is an
// explicit non-goal (spec.md §1), this module treats them as three
// symbolic possibilities rather than chasing every historical variant.
var (
	RootBigEndian    = binio.NewFourCC("RIFX")
	RootLittleEndian = binio.NewFourCC("XFIR")
	RootCompressed   = binio.NewFourCC("FGDM")
)

// CompressionKind identifies how a chunk's bytes are stored in a
// compressed container.
type CompressionKind int

const (
	CompressionNull CompressionKind = iota
	CompressionZlib
	CompressionSoundCodec
	CompressionFontMap
	CompressionUnknown
)

func (k CompressionKind) String() string {
	switch k {
	case CompressionNull:
		return "null"
	case CompressionZlib:
		return "zlib"
	case CompressionSoundCodec:
		return "sound-codec"
	case CompressionFontMap:
		return "font-map"
	default:
		return "unknown"
	}
}

// compressionIDs maps the on-disk 16-byte compression identifier to a
// CompressionKind. Only CompressionZlib is inflated inline; the rest
// surface as opaque byte payloads (spec.md §4.1).
var compressionIDs = map[[16]byte]CompressionKind{
	zlibID:       CompressionZlib,
	nullID:       CompressionNull,
	soundCodecID: CompressionSoundCodec,
	fontMapID:    CompressionFontMap,
}

var (
	zlibID       = mustID("zlib-compress-id0")
	nullID       = mustID("null-compress-id0")
	soundCodecID = mustID("snd -compress-id0")
	fontMapID    = mustID("font-compress-id0")
)

func mustID(s string) [16]byte {
	if len(s) != 16 {
		panic("container: compression identifier literal must be 16 bytes")
	}
	var id [16]byte
	copy(id[:], s)
	return id
}

// ChunkRecord is an immutable reference to one chunk's bytes, decoded
// lazily on first access (spec.md §3 "ChunkRecord").
type ChunkRecord struct {
	ID               uint32
	Kind             binio.FourCC
	Offset           uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Compression      CompressionKind

	raw      []byte // the container's bytes, not yet decompressed
	bytes    []byte // decoded bytes, computed on first access
	resolved bool
}

// Bytes decompresses (if needed) and returns the chunk's payload. The
// result is cached: subsequent calls are free.
func (c *ChunkRecord) Bytes() ([]byte, error) {
	if c.resolved {
		return c.bytes, nil
	}
	switch c.Compression {
	case CompressionNull:
		c.bytes = c.raw
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(c.raw))
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "chunk %d (%s): zlib open: %v", c.ID, c.Kind, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "chunk %d (%s): zlib inflate: %v", c.ID, c.Kind, err)
		}
		if c.UncompressedSize != 0 && uint32(len(out)) != c.UncompressedSize {
			return nil, vmerr.New(vmerr.CorruptChunk, "chunk %d (%s): decompressed %d bytes, header declared %d", c.ID, c.Kind, len(out), c.UncompressedSize)
		}
		c.bytes = out
	case CompressionSoundCodec, CompressionFontMap:
		// Opaque to the VM core; surfaced untouched for the presenter.
		c.bytes = c.raw
	default:
		return nil, vmerr.New(vmerr.UnsupportedCompression, "chunk %d (%s): unrecognized compression", c.ID, c.Kind)
	}
	c.resolved = true
	return c.bytes, nil
}

// Index is the parsed container: every chunk keyed by resource id, plus
// the root chunk kind the caller should start decoding from (typically
// the movie's top-level "Cinf"-equivalent config chunk).
type Index struct {
	Chunks   map[uint32]*ChunkRecord
	RootKind binio.FourCC
	Endian   binio.Endian
}

// Get looks up a chunk by resource id.
func (idx *Index) Get(id uint32) (*ChunkRecord, bool) {
	c, ok := idx.Chunks[id]
	return c, ok
}

// Load parses raw container bytes into an Index (spec.md §4.1).
func Load(data []byte) (*Index, error) {
	if len(data) < 4 {
		return nil, vmerr.New(vmerr.BadFormat, "file too short to contain a root tag")
	}
	var root binio.FourCC
	copy(root[:], data[:4])

	switch root {
	case RootBigEndian:
		return loadUncompressed(data, binio.BigEndian)
	case RootLittleEndian:
		return loadUncompressed(data, binio.LittleEndian)
	case RootCompressed:
		return loadCompressed(data)
	default:
		return nil, vmerr.New(vmerr.BadFormat, "unrecognized root tag %q", root)
	}
}

// loadUncompressed parses the flat uncompressed container: a memory-map
// chunk gives (id, kind, offset, size) for every chunk; chunks themselves
// follow in a flat sequence (spec.md §4.1).
func loadUncompressed(data []byte, endian binio.Endian) (*Index, error) {
	r := binio.NewReader(data, endian)
	if _, err := r.FourCCTag(); err != nil { // consume root tag
		return nil, vmerr.New(vmerr.BadFormat, "short root tag: %v", err)
	}
	totalSize, err := r.Uint32()
	if err != nil {
		return nil, vmerr.New(vmerr.BadFormat, "missing total-size field: %v", err)
	}
	if int(totalSize)+8 > len(data) {
		// Tolerate an optimistic/short total-size field as long as the
		// memory map itself validates; some encoders under-report it.
		log.Printf("container: declared size %d exceeds buffer length %d, continuing", totalSize, len(data))
	}
	rootKind, err := r.FourCCTag()
	if err != nil {
		return nil, vmerr.New(vmerr.BadFormat, "missing root chunk kind: %v", err)
	}

	mmapRecord, err := findMemoryMap(data, endian)
	if err != nil {
		return nil, err
	}

	idx := &Index{Chunks: make(map[uint32]*ChunkRecord, len(mmapRecord)), RootKind: rootKind, Endian: endian}
	for _, e := range mmapRecord {
		if _, dup := idx.Chunks[e.ID]; dup {
			log.Printf("container: duplicate resource id %d, using last occurrence", e.ID)
		}
		raw, err := sliceChunkBytes(data, e.Offset, e.Size)
		if err != nil {
			return nil, err
		}
		idx.Chunks[e.ID] = &ChunkRecord{
			ID:               e.ID,
			Kind:             e.Kind,
			Offset:           e.Offset,
			CompressedSize:   e.Size,
			UncompressedSize: e.Size,
			Compression:      CompressionNull,
			raw:              raw,
		}
	}
	return idx, nil
}

type mmapEntry struct {
	ID     uint32
	Kind   binio.FourCC
	Offset uint32
	Size   uint32
}

// findMemoryMap scans the flat chunk sequence for the memory-map chunk
// (kind "KEY*"-table style "mmap") and parses its entries. Real Director
// files place it near the end; we scan the whole sequence rather than
// assume position, since spec.md only promises it exists somewhere in
// the flat sequence.
func findMemoryMap(data []byte, endian binio.Endian) ([]mmapEntry, error) {
	mmapKind := binio.NewFourCC("mmap")
	r := binio.NewReader(data, endian)
	r.Seek(12) // past root tag + size + root kind
	for r.Remaining() >= 8 {
		kind, err := r.FourCCTag()
		if err != nil {
			break
		}
		size, err := r.Uint32()
		if err != nil {
			break
		}
		bodyStart := r.Pos()
		if kind == mmapKind {
			return parseMemoryMapBody(data[bodyStart:bodyStart+int(size)], endian)
		}
		next := bodyStart + int(size)
		if size%2 != 0 {
			next++ // chunks are word-aligned
		}
		r.Seek(next)
	}
	return nil, vmerr.New(vmerr.BadFormat, "no memory-map chunk found")
}

func parseMemoryMapBody(body []byte, endian binio.Endian) ([]mmapEntry, error) {
	r := binio.NewReader(body, endian)
	// header: headerSize(2) entrySize(2) maxEntries(4) usedEntries(4) ...
	if _, err := r.Uint16(); err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "mmap header: %v", err)
	}
	if _, err := r.Uint16(); err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "mmap header: %v", err)
	}
	if _, err := r.Uint32(); err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "mmap header: %v", err)
	}
	used, err := r.Uint32()
	if err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "mmap header: %v", err)
	}
	// skip remaining header fields (old-free-head, junk-head, etc.), if
	// any trail before the entry table; entries start at offset 24 in
	// the canonical layout.
	r.Seek(24)

	entries := make([]mmapEntry, 0, used)
	for i := uint32(0); i < used; i++ {
		kind, err := r.FourCCTag()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "mmap entry %d: %v", i, err)
		}
		size, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "mmap entry %d: %v", i, err)
		}
		offset, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "mmap entry %d: %v", i, err)
		}
		// flags(2) + unused(2) + nextFree(4) trailer per entry, skipped.
		if _, err := r.Bytes(8); err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "mmap entry %d trailer: %v", i, err)
		}
		if kind == (binio.FourCC{}) {
			continue // free slot
		}
		entries = append(entries, mmapEntry{ID: i, Kind: kind, Offset: offset, Size: size})
	}
	return entries, nil
}

func sliceChunkBytes(data []byte, offset, size uint32) ([]byte, error) {
	start := int(offset) + 8 // past the chunk's own kind+size header
	end := start + int(size)
	if start < 0 || end > len(data) || start > end {
		return nil, vmerr.New(vmerr.CorruptChunk, "chunk at offset %d size %d out of bounds (file length %d)", offset, size, len(data))
	}
	return data[start:end], nil
}

// loadCompressed parses the afterburner container: a single compressed
// segment with a header table mapping id -> (kind, offset, compressed
// size, uncompressed size, compression kind) (spec.md §4.1).
func loadCompressed(data []byte) (*Index, error) {
	r := binio.NewReader(data, binio.BigEndian)
	if _, err := r.FourCCTag(); err != nil {
		return nil, vmerr.New(vmerr.BadFormat, "short root tag: %v", err)
	}
	if _, err := r.Uint32(); err != nil {
		return nil, vmerr.New(vmerr.BadFormat, "missing total size: %v", err)
	}
	rootKind, err := r.FourCCTag()
	if err != nil {
		return nil, vmerr.New(vmerr.BadFormat, "missing root chunk kind: %v", err)
	}

	count, err := r.Uint32()
	if err != nil {
		return nil, vmerr.New(vmerr.CorruptChunk, "header table count: %v", err)
	}

	idx := &Index{Chunks: make(map[uint32]*ChunkRecord, count), RootKind: rootKind, Endian: binio.BigEndian}

	type headerEntry struct {
		id                             uint32
		kind                           binio.FourCC
		offset, compSize, uncompSize   uint32
		compID                         [16]byte
	}
	entries := make([]headerEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d: %v", i, err)
		}
		kind, err := r.FourCCTag()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d: %v", i, err)
		}
		offset, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d: %v", i, err)
		}
		compSize, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d: %v", i, err)
		}
		uncompSize, err := r.Uint32()
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d: %v", i, err)
		}
		compIDBytes, err := r.Bytes(16)
		if err != nil {
			return nil, vmerr.New(vmerr.CorruptChunk, "header entry %d compression id: %v", i, err)
		}
		var compID [16]byte
		copy(compID[:], compIDBytes)
		entries = append(entries, headerEntry{id: id, kind: kind, offset: offset, compSize: compSize, uncompSize: uncompSize, compID: compID})
	}

	for _, e := range entries {
		if _, dup := idx.Chunks[e.id]; dup {
			log.Printf("container: duplicate resource id %d, using last occurrence", e.id)
		}
		kind, known := compressionIDs[e.compID]
		if !known {
			kind = CompressionUnknown
		}
		start := int(e.offset)
		end := start + int(e.compSize)
		if start < 0 || end > len(data) || start > end {
			return nil, vmerr.New(vmerr.CorruptChunk, "chunk %d at offset %d size %d out of bounds", e.id, e.offset, e.compSize)
		}
		idx.Chunks[e.id] = &ChunkRecord{
			ID:               e.id,
			Kind:             e.kind,
			Offset:           e.offset,
			CompressedSize:   e.compSize,
			UncompressedSize: e.uncompSize,
			Compression:      kind,
			raw:              data[start:end],
		}
	}
	return idx, nil
}
