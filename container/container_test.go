package container

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/quackster/libreshockwave/binio"
	"github.com/stretchr/testify/require"
)

// buildUncompressed assembles a minimal valid uncompressed container with
// one data chunk plus its memory-map chunk, for loader tests.
func buildUncompressed(t *testing.T, dataChunkKind string, dataChunkBody []byte) []byte {
	t.Helper()

	var chunks bytes.Buffer

	writeChunk := func(kind string, body []byte) uint32 {
		offset := uint32(chunks.Len())
		w := binio.NewWriter(binio.BigEndian)
		w.WriteFourCC(binio.NewFourCC(kind))
		w.WriteUint32(uint32(len(body)))
		w.WriteBytes(body)
		if len(body)%2 != 0 {
			w.WriteUint8(0)
		}
		chunks.Write(w.Bytes())
		return offset
	}

	const rootHeaderLen = 12 // root FourCC + size + root-kind FourCC
	dataOffset := rootHeaderLen + writeChunk(dataChunkKind, dataChunkBody)

	// Build mmap body: header (2+2+4+4) then one entry (4+4+4+2+2+4=20)
	// per slot, reserving slot 0 for the free-head convention.
	mmapBody := binio.NewWriter(binio.BigEndian)
	mmapBody.WriteUint16(24) // header size
	mmapBody.WriteUint16(20) // entry size
	mmapBody.WriteUint32(2)  // max entries
	mmapBody.WriteUint32(2)  // used entries
	mmapBody.WriteBytes(make([]byte, 12)) // padding to reach offset 24

	// slot 0: free/root marker, skipped by kind == zero value
	mmapBody.WriteFourCC(binio.FourCC{})
	mmapBody.WriteUint32(0)
	mmapBody.WriteUint32(0)
	mmapBody.WriteBytes(make([]byte, 8))

	// slot 1: our data chunk
	mmapBody.WriteFourCC(binio.NewFourCC(dataChunkKind))
	mmapBody.WriteUint32(uint32(len(dataChunkBody)))
	mmapBody.WriteUint32(dataOffset)
	mmapBody.WriteBytes(make([]byte, 8))

	mmapOffset := writeChunk("mmap", mmapBody.Bytes())
	_ = mmapOffset

	root := binio.NewWriter(binio.BigEndian)
	root.WriteFourCC(RootBigEndian)
	root.WriteUint32(uint32(4 + chunks.Len())) // total size (approximate, loader tolerates)
	root.WriteFourCC(binio.NewFourCC("Cinf"))
	root.WriteBytes(chunks.Bytes())

	return root.Bytes()
}

func TestLoadUncompressedRoundTrip(t *testing.T) {
	body := []byte("hello, movie")
	data := buildUncompressed(t, "Test", body)

	idx, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, "Cinf", idx.RootKind.String())

	rec, ok := idx.Get(1)
	require.True(t, ok)
	require.Equal(t, "Test", rec.Kind.String())

	got, err := rec.Bytes()
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestLoadBadRootTag(t *testing.T) {
	_, err := Load([]byte("XXXXjunkjunkjunk"))
	require.Error(t, err)
}

func TestLoadCompressedZlib(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog, repeated for compressibility, repeated for compressibility")

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	w := binio.NewWriter(binio.BigEndian)
	w.WriteFourCC(RootCompressed)
	w.WriteUint32(0) // total size, unchecked in compressed path
	w.WriteFourCC(binio.NewFourCC("Cinf"))
	w.WriteUint32(1) // one header entry
	w.WriteUint32(1)
	w.WriteFourCC(binio.NewFourCC("Test"))
	headerLen := 4 + 4 + 4 + 4 + 4 + 16
	compOffset := uint32(4 + 4 + 4 + 4 + headerLen)
	w.WriteUint32(compOffset)
	w.WriteUint32(uint32(compressed.Len()))
	w.WriteUint32(uint32(len(body)))
	w.WriteBytes(zlibID[:])
	w.WriteBytes(compressed.Bytes())

	idx, err := Load(w.Bytes())
	require.NoError(t, err)
	rec, ok := idx.Get(1)
	require.True(t, ok)
	require.Equal(t, CompressionZlib, rec.Compression)

	got, err := rec.Bytes()
	require.NoError(t, err)
	require.Equal(t, body, got)
}

func TestUnsupportedCompressionSurfacesError(t *testing.T) {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteFourCC(RootCompressed)
	w.WriteUint32(0)
	w.WriteFourCC(binio.NewFourCC("Cinf"))
	w.WriteUint32(1)
	w.WriteUint32(1)
	w.WriteFourCC(binio.NewFourCC("Test"))
	headerLen := 4 + 4 + 4 + 4 + 4 + 16
	payloadOffset := uint32(4 + 4 + 4 + 4 + headerLen)
	w.WriteUint32(payloadOffset)
	w.WriteUint32(4)
	w.WriteUint32(4)
	var unknownID [16]byte
	copy(unknownID[:], "totally-unknown!")
	w.WriteBytes(unknownID[:])
	w.WriteBytes([]byte("data"))

	idx, err := Load(w.Bytes())
	require.NoError(t, err)
	rec, _ := idx.Get(1)
	require.Equal(t, CompressionUnknown, rec.Compression)

	_, err = rec.Bytes()
	require.Error(t, err)
}
