package dispatcher

import (
	"bytes"
	"testing"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/dispatcher/score"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
	"github.com/stretchr/testify/require"
)

// The bundle-building helpers below mirror vm/vm_test.go's synthesized-
// container fixture (itself grounded on castlib/loader_test.go): a
// minimal uncompressed container holding one internal cast library with
// a single behavior script, so Tick can exercise real handler dispatch
// rather than stub collaborators.

type bundleChunk struct {
	kind string
	body []byte
}

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
	return chunks.EncodeConfig(chunks.Config{
		StageWidth:      640,
		StageHeight:     480,
		Tempo:           30,
		ColorDepth:      32,
		DirectorVersion: 0x0a00,
	})
}

// loadOneBehavior builds a one-cast-library movie holding a single
// behavior script with the given handlers, bound under a shared name
// table, and loads it into a fresh castlib.Manager.
func loadOneBehavior(t *testing.T, names []string, handlers []script.Handler, literals []value.Value) (*castlib.Manager, value.ScriptRef) {
	t.Helper()

	nameTable := script.NewNameTable(names)
	namesBody := chunks.EncodeScriptNames(nameTable)

	_, fv, err := chunks.DecodeConfig(sampleConfigBody(t))
	require.NoError(t, err)

	bundleChunks := []bundleChunk{
		{kind: chunks.KindConfig.String(), body: sampleConfigBody(t)},
		{kind: chunks.KindScriptNames.String(), body: namesBody},
	}

	scriptResourceID := uint32(len(bundleChunks) + 1)
	s := script.Script{ID: scriptResourceID, Kind: script.KindParent, Handlers: handlers, Literals: literals}
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindScript.String(), body: chunks.EncodeScript(s, fv)})
	member := chunks.CastMember{Number: 1, ID: 1, Name: "Behavior", Kind: chunks.MemberScript, ScriptID: scriptResourceID}
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastMember.String(), body: chunks.EncodeCastMember(member)})
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastList.String(), body: chunks.EncodeCastList(chunks.CastList{Entries: []chunks.CastListEntry{{Name: "Internal"}}})})

	data := buildBundle(t, bundleChunks)

	m := castlib.NewManager(nil)
	_, err = m.LoadMovie(data)
	require.NoError(t, err)

	return m, value.ScriptRef{CastLib: 1, Member: 1}
}

func handler(nameID uint16, instrs ...script.Instruction) script.Handler {
	return script.Handler{NameID: nameID, Instructions: instrs}
}

func in(op script.Opcode, arg int32) script.Instruction { return script.Instruction{Opcode: op, Argument: arg} }

// appendGlobalHandler builds a handler body that appends a literal
// string constant onto a VM global named "log", used by the
// tests below to observe the order in which fireEvent calls a
// behavior's handlers.
func appendGlobalHandler(nameID uint16, literalIdx int32) script.Handler {
	return handler(nameID,
		in(script.OpGetGlobal, 0), // "log"
		in(script.OpPushConstant, literalIdx),
		in(script.OpAdd, 0),
		in(script.OpSetGlobal, 0),
		in(script.OpRet, 0),
	)
}

func TestTickFiresFrameEventsInOrder(t *testing.T) {
	names := []string{"log", "prepareFrame", "enterFrame", "exitFrame"}
	manager, ref := loadOneBehavior(t, names,
		[]script.Handler{
			appendGlobalHandler(1, 0), // prepareFrame appends "P"
			appendGlobalHandler(2, 1), // enterFrame appends "E"
			appendGlobalHandler(3, 2), // exitFrame appends "X"
		},
		[]value.Value{value.String("P"), value.String("E"), value.String("X")},
	)

	vmInst := vm.NewVM(manager, nil, nil)
	vmInst.SetGlobal("log", value.String(""))

	inst := value.NewScriptInstance(value.NextScriptID()).WithScriptRef(ref)
	sc := score.New([]score.Channel{
		{Number: 1, StartFrame: 1, EndFrame: 10, Behaviors: []value.ScriptInstance{inst}},
	}, nil, 10)

	d := New(vmInst, sc, nil)
	d.Tick()

	require.Equal(t, value.String("PEX"), vmInst.Global("log"))
}

func TestGoToFrameTakesEffectOnNextAdvance(t *testing.T) {
	sc := score.New(nil, map[string]int32{"end": 5}, 10)
	vmInst := vm.NewVM(castlib.NewManager(nil), nil, nil)
	d := New(vmInst, sc, nil)

	require.Equal(t, int32(1), d.CurrentFrame())

	d.GoToLabel("end")
	require.Equal(t, int32(1), d.CurrentFrame(), "go to must not jump immediately")

	d.Tick()
	require.Equal(t, int32(5), d.CurrentFrame(), "override takes effect at the next advance step")

	d.Tick()
	require.Equal(t, int32(6), d.CurrentFrame(), "with no further override, advance proceeds by one")
}

func TestFrameWrapsPastLastFrame(t *testing.T) {
	sc := score.New(nil, nil, 3)
	vmInst := vm.NewVM(castlib.NewManager(nil), nil, nil)
	d := New(vmInst, sc, nil)

	d.Tick() // 1 -> 2
	d.Tick() // 2 -> 3
	d.Tick() // 3 -> wraps to 1
	require.Equal(t, int32(1), d.CurrentFrame())
}

func TestSpriteBeginEndFiresOnChannelActivation(t *testing.T) {
	names := []string{"log", "beginSprite", "endSprite"}
	manager, ref := loadOneBehavior(t, names,
		[]script.Handler{
			appendGlobalHandler(1, 0), // beginSprite appends "B"
			appendGlobalHandler(2, 1), // endSprite appends "N"
		},
		[]value.Value{value.String("B"), value.String("N")},
	)

	vmInst := vm.NewVM(manager, nil, nil)
	vmInst.SetGlobal("log", value.String(""))

	inst := value.NewScriptInstance(value.NextScriptID()).WithScriptRef(ref)
	// Channel 1 is active only on frame 2.
	sc := score.New([]score.Channel{
		{Number: 1, StartFrame: 2, EndFrame: 2, Behaviors: []value.ScriptInstance{inst}},
	}, nil, 3)

	d := New(vmInst, sc, nil)
	d.Tick() // advance to frame 2: channel 1 activates -> beginSprite
	d.Tick() // advance to frame 3: channel 1 deactivates -> endSprite

	require.Equal(t, value.String("BN"), vmInst.Global("log"))
}

func TestPuppetSpriteAndTempoRouteToScore(t *testing.T) {
	sc := score.New(nil, nil, 10)
	vmInst := vm.NewVM(castlib.NewManager(nil), nil, nil)
	d := New(vmInst, sc, nil)

	d.PuppetSprite(3, true)
	require.True(t, sc.IsPuppet(3))

	d.PuppetTempo(15)
	require.Equal(t, int32(15), sc.Tempo())
}
