package runtime

import (
	"bytes"
	"testing"
	"time"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/stretchr/testify/require"
)

// buildMovieBundle mirrors dispatcher_test.go's synthesized-container
// fixture: a minimal uncompressed container with one internal cast
// holding one movie-kind script (prepareMovie/startMovie/stopMovie),
// a single-channel Score chunk, and a Config chunk.
func buildMovieBundle(t *testing.T, tempo int32) []byte {
	t.Helper()

	names := script.NewNameTable([]string{"log", "prepareMovie", "startMovie", "stopMovie", "enterFrame"})

	appendLiteral := func(nameID uint16, literalIdx int32) script.Handler {
		return script.Handler{NameID: nameID, Instructions: []script.Instruction{
			{Opcode: script.OpGetGlobal, Argument: 0},
			{Opcode: script.OpPushConstant, Argument: literalIdx},
			{Opcode: script.OpAdd},
			{Opcode: script.OpSetGlobal, Argument: 0},
			{Opcode: script.OpRet},
		}}
	}

	cfg := chunks.EncodeConfig(chunks.Config{
		StageWidth:      640,
		StageHeight:     480,
		Tempo:           tempo,
		ColorDepth:      32,
		DirectorVersion: 0x0a00,
	})
	_, fv, err := chunks.DecodeConfig(cfg)
	require.NoError(t, err)

	movieScript := script.Script{
		Kind: script.KindMovie,
		Handlers: []script.Handler{
			appendLiteral(1, 0), // prepareMovie appends "P"
			appendLiteral(2, 1), // startMovie appends "S"
			appendLiteral(3, 2), // stopMovie appends "X"
		},
		Literals: []value.Value{value.String("P"), value.String("S"), value.String("X")},
	}

	scoreChunk := chunks.EncodeScore(chunks.Score{
		FrameCount: 10,
		Channels: []chunks.ScoreChannel{
			{Channel: 1, Intervals: []chunks.SpriteInterval{{StartFrame: 1, EndFrame: 10, MemberID: 1}}},
		},
	})

	bundleChunks := []bundleChunk{
		{kind: chunks.KindConfig.String(), body: cfg},
		{kind: chunks.KindScriptNames.String(), body: chunks.EncodeScriptNames(names)},
		{kind: chunks.KindScore.String(), body: scoreChunk},
	}

	// The container assigns each chunk's resource id by its position in
	// the memory map; a cast member's ScriptID must match the id the
	// Script chunk actually lands on, not any ID field encoded inside it
	// (DecodeScript always overwrites Script.ID with the container id).
	scriptResourceID := uint32(len(bundleChunks) + 1)
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindScript.String(), body: chunks.EncodeScript(movieScript, fv)})
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastMember.String(), body: chunks.EncodeCastMember(chunks.CastMember{Number: 1, ID: 2, Name: "Movie", Kind: chunks.MemberScript, ScriptID: scriptResourceID})})
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastList.String(), body: chunks.EncodeCastList(chunks.CastList{Entries: []chunks.CastListEntry{{Name: "Internal"}}})})

	return buildBundle(t, bundleChunks)
}

type bundleChunk struct {
	kind string
	body []byte
}

// buildBundle assembles a minimal uncompressed RIFX container: each
// chunk written in sequence, followed by an "mmap" chunk indexing them
// by offset — the same shape container.Load expects, duplicated here
// from dispatcher_test.go's helper of the same name since test fixtures
// don't cross package boundaries.
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

func TestMovieLoadSeedsTempoAndStageFromConfig(t *testing.T) {
	m := New(nil, nil, nil)
	require.NoError(t, m.Load(buildMovieBundle(t, 20)))

	require.Equal(t, int32(20), m.Score.Tempo())
	require.Equal(t, int32(10), m.Score.FrameCount())

	bounds, ok := m.Props.GetProperty(value.Void{}, "stageRight")
	require.True(t, ok)
	require.Equal(t, value.Int32(640), bounds)
}

func TestMovieLoadFallsBackToDefaultTempoWhenMovieTempoIsZero(t *testing.T) {
	cfg := Default()
	cfg.DefaultTempo = 12
	m := New(cfg, nil, nil)
	require.NoError(t, m.Load(buildMovieBundle(t, 0)))

	require.Equal(t, int32(12), m.Score.Tempo())
}

func TestPlayFiresPrepareAndStartMovieThenTicksUntilStop(t *testing.T) {
	cfg := Default()
	m := New(cfg, nil, nil)
	require.NoError(t, m.Load(buildMovieBundle(t, 200))) // fast tempo for a quick test
	m.VM.SetGlobal("log", value.String(""))

	m.Play()
	require.True(t, m.IsRunning())

	require.Eventually(t, func() bool {
		return m.VM.Global("log").Equal(value.String("PS"))
	}, time.Second, 5*time.Millisecond, "prepareMovie/startMovie should fire once before ticking starts")

	m.Stop()
	require.False(t, m.IsRunning())
	require.Equal(t, value.String("PSX"), m.VM.Global("log"), "stopMovie should fire exactly once on Stop")
}

func TestGoToFrameAndStepFrameAdvanceWithoutTicking(t *testing.T) {
	m := New(nil, nil, nil)
	require.NoError(t, m.Load(buildMovieBundle(t, 30)))

	require.Equal(t, int32(1), m.Dispatcher.CurrentFrame())
	m.GoToFrame(5)
	m.StepFrame()
	require.Equal(t, int32(5), m.Dispatcher.CurrentFrame())

	m.SetTempo(7)
	require.Equal(t, int32(7), m.Score.Tempo())
}
