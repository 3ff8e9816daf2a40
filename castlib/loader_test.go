package castlib

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/stretchr/testify/require"
)

// bundleChunk is one (kind, body) pair to place in a synthesized movie
// container, generalizing container_test.go's single-chunk buildUncompressed
// helper to an arbitrary ordered sequence.
type bundleChunk struct {
	kind string
	body []byte
}

// buildBundle assembles a minimal uncompressed container holding every
// chunk in chunksIn, each addressable at mmap slot i+1 (slot 0 stays
// reserved for the free-head convention), grounded on
// container/container_test.go's buildUncompressed.
func buildBundle(t *testing.T, chunksIn []bundleChunk) []byte {
	t.Helper()

	var body bytes.Buffer
	offsets := make([]uint32, len(chunksIn))

	writeChunk := func(kind string, payload []byte) uint32 {
		offset := uint32(body.Len())
		w := binio.NewWriter(binio.BigEndian)
		w.WriteFourCC(binio.NewFourCC(kind))
		w.WriteUint32(uint32(len(payload)))
		w.WriteBytes(payload)
		if len(payload)%2 != 0 {
			w.WriteUint8(0)
		}
		body.Write(w.Bytes())
		return offset
	}

	const rootHeaderLen = 12
	for i, c := range chunksIn {
		offsets[i] = rootHeaderLen + writeChunk(c.kind, c.body)
	}

	slotCount := uint32(len(chunksIn) + 1)
	mmapBody := binio.NewWriter(binio.BigEndian)
	mmapBody.WriteUint16(24)
	mmapBody.WriteUint16(20)
	mmapBody.WriteUint32(slotCount)
	mmapBody.WriteUint32(slotCount)
	mmapBody.WriteBytes(make([]byte, 12))

	mmapBody.WriteFourCC(binio.FourCC{})
	mmapBody.WriteUint32(0)
	mmapBody.WriteUint32(0)
	mmapBody.WriteBytes(make([]byte, 8))

	for i, c := range chunksIn {
		mmapBody.WriteFourCC(binio.NewFourCC(c.kind))
		mmapBody.WriteUint32(uint32(len(c.body)))
		mmapBody.WriteUint32(offsets[i])
		mmapBody.WriteBytes(make([]byte, 8))
	}

	writeChunk("mmap", mmapBody.Bytes())

	root := binio.NewWriter(binio.BigEndian)
	root.WriteFourCC(binio.NewFourCC("RIFX"))
	root.WriteUint32(uint32(4 + body.Len()))
	root.WriteFourCC(binio.NewFourCC("Cinf"))
	root.WriteBytes(body.Bytes())

	return root.Bytes()
}

func sampleConfigBody(t *testing.T) []byte {
	t.Helper()
	cfg := chunks.Config{
		StageWidth:      640,
		StageHeight:     480,
		Tempo:           30,
		ColorDepth:      32,
		DirectorVersion: 0x0a00,
		StageColor:      value.Color{R: 0, G: 0, B: 0},
		CapitalX:        false,
	}
	return chunks.EncodeConfig(cfg)
}

func sampleMovieBundle(t *testing.T) ([]byte, script.Script) {
	t.Helper()

	names := script.NewNameTable([]string{"go", "frame", "hello"})
	namesBody := chunks.EncodeScriptNames(names)

	s := script.Script{
		ID:   1,
		Kind: script.KindMovie,
		Handlers: []script.Handler{
			{
				NameID:     2, // "hello"
				ArgCount:   0,
				LocalCount: 0,
				Instructions: []script.Instruction{
					{Opcode: script.OpPushVoid},
					{Opcode: script.OpRet},
				},
			},
		},
		Literals: []value.Value{value.Void{}},
	}
	_, fv, err := chunks.DecodeConfig(sampleConfigBody(t))
	require.NoError(t, err)
	scriptBody := chunks.EncodeScript(s, fv)

	member := chunks.CastMember{
		Number:   1,
		ID:       1,
		Name:     "hello",
		Kind:     chunks.MemberScript,
		ScriptID: 1,
	}
	memberBody := chunks.EncodeCastMember(member)

	castList := chunks.CastList{Entries: []chunks.CastListEntry{{Name: "Internal"}}}
	castListBody := chunks.EncodeCastList(castList)

	data := buildBundle(t, []bundleChunk{
		{kind: chunks.KindConfig.String(), body: sampleConfigBody(t)},
		{kind: chunks.KindScriptNames.String(), body: namesBody},
		{kind: chunks.KindScript.String(), body: scriptBody},
		{kind: chunks.KindCastMember.String(), body: memberBody},
		{kind: chunks.KindCastList.String(), body: castListBody},
	})
	return data, s
}

func TestParseCastBundle(t *testing.T) {
	data, s := sampleMovieBundle(t)

	parsed, err := ParseCastBundle(data)
	require.NoError(t, err)
	require.Equal(t, int32(640), parsed.Config.StageWidth)
	require.Len(t, parsed.Scripts, 1)

	gotOps := make([]script.Opcode, len(parsed.Scripts[1].Handlers[0].Instructions))
	for i, in := range parsed.Scripts[1].Handlers[0].Instructions {
		gotOps[i] = in.Opcode
	}
	wantOps := make([]script.Opcode, len(s.Handlers[0].Instructions))
	for i, in := range s.Handlers[0].Instructions {
		wantOps[i] = in.Opcode
	}
	require.Equal(t, wantOps, gotOps)
	require.Len(t, parsed.Members, 1)
	require.Equal(t, "hello", parsed.Members[1].Name)
	require.Len(t, parsed.CastList.Entries, 1)
}

func TestManagerLoadMovieAndFindHandler(t *testing.T) {
	data, _ := sampleMovieBundle(t)

	m := NewManager(nil)
	_, err := m.LoadMovie(data)
	require.NoError(t, err)

	lib, ok := m.CastLibByNumber(1)
	require.True(t, ok)
	require.Equal(t, StateLoaded, lib.State())

	loc, ok := m.FindHandler("hello")
	require.True(t, ok)
	require.Equal(t, uint16(1), loc.CastLib)
	require.Equal(t, uint32(1), loc.Script)

	_, ok = m.FindHandler("doesNotExist")
	require.False(t, ok)
}

// fakeFetcher serves fixed bytes per URL, standing in for a real network
// fetch in lifecycle tests.
type fakeFetcher struct {
	mu   sync.Mutex
	data map[string][]byte
	err  map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{data: make(map[string][]byte), err: make(map[string]error)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.err[url]; ok {
		return nil, err
	}
	return f.data[url], nil
}

func TestManagerPreloadAndWaitExternalCast(t *testing.T) {
	internalData, _ := sampleMovieBundle(t)

	extNames := script.NewNameTable([]string{"externalHandler"})
	extScript := script.Script{
		ID:       1,
		Kind:     script.KindMovie,
		Handlers: []script.Handler{{NameID: 0, Instructions: []script.Instruction{{Opcode: script.OpRet}}}},
		Literals: []value.Value{},
	}
	_, fv, err := chunks.DecodeConfig(sampleConfigBody(t))
	require.NoError(t, err)
	extScriptBody := chunks.EncodeScript(extScript, fv)
	extMember := chunks.EncodeCastMember(chunks.CastMember{Number: 1, ID: 1, Name: "externalHandler", Kind: chunks.MemberScript, ScriptID: 1})

	extData := buildBundle(t, []bundleChunk{
		{kind: chunks.KindConfig.String(), body: sampleConfigBody(t)},
		{kind: chunks.KindScriptNames.String(), body: chunks.EncodeScriptNames(extNames)},
		{kind: chunks.KindScript.String(), body: extScriptBody},
		{kind: chunks.KindCastMember.String(), body: extMember},
	})

	fetcher := newFakeFetcher()
	fetcher.data["external.cst"] = extData

	m := NewManager(fetcher)
	// Seed a movie whose cast list names one internal and one external cast.
	m.register(newCastLib(1, "Internal", false, "", 0))
	lib, _ := m.CastLibByNumber(1)
	parsed, err := ParseCastBundle(internalData)
	require.NoError(t, err)
	lib.installParsed(parsed.NameTable, parsed.Members, parsed.Scripts)

	ext := newCastLib(2, "External", true, "external.cst", 1)
	m.register(ext)

	require.NoError(t, m.PreloadAndWait(context.Background(), []uint16{2}))

	reloaded, ok := m.CastLibByNumber(2)
	require.True(t, ok)
	require.Equal(t, StateLoaded, reloaded.State())
	require.NotEqual(t, [32]byte{}, reloaded.FetchChecksum())

	_, ok = reloaded.MemberByName("externalHandler")
	require.True(t, ok)
}

func TestManagerPreloadAndWaitFetchFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.err["broken.cst"] = errors.New("connection reset")

	m := NewManager(fetcher)
	ext := newCastLib(2, "External", true, "broken.cst", 1)
	m.register(ext)

	err := m.PreloadAndWait(context.Background(), []uint16{2})
	require.Error(t, err)
	require.Equal(t, StateFailed, ext.State())
}
