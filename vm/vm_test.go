package vm

import (
	"bytes"
	"testing"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
	"github.com/stretchr/testify/require"
)

// bundleChunk and buildBundle mirror castlib/loader_test.go's synthesized-
// container helper: a minimal uncompressed RIFX container holding an
// arbitrary ordered sequence of chunks, addressable via a trailing mmap.
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

// testScript is one cast-member script to place in the synthesized movie:
// its own name (the cast member's name), its handlers, and its literal
// pool.
type testScript struct {
	memberNumber uint16
	name         string
	kind         script.Kind
	handlers     []script.Handler
	literals     []value.Value
}

// loadTestMovie assembles a one-cast-library movie holding every script in
// scripts, named in a shared name table, and loads it into a fresh
// castlib.Manager — grounded on castlib/loader_test.go's sampleMovieBundle,
// generalized from one script to an arbitrary set. A script chunk's
// resource id is assigned by its position in the synthesized mmap (1
// plus its index among every chunk in the bundle), not anything this
// helper chooses itself, so each cast member's ScriptID is taken from
// that same position to keep the two in agreement.
func loadTestMovie(t *testing.T, names []string, scripts []testScript) *castlib.Manager {
	t.Helper()

	nameTable := script.NewNameTable(names)
	namesBody := chunks.EncodeScriptNames(nameTable)

	_, fv, err := chunks.DecodeConfig(sampleConfigBody(t))
	require.NoError(t, err)

	bundleChunks := []bundleChunk{
		{kind: chunks.KindConfig.String(), body: sampleConfigBody(t)},
		{kind: chunks.KindScriptNames.String(), body: namesBody},
	}

	castEntries := []chunks.CastListEntry{{Name: "Internal"}}
	for _, ts := range scripts {
		scriptResourceID := uint32(len(bundleChunks) + 1)
		s := script.Script{ID: scriptResourceID, Kind: ts.kind, Handlers: ts.handlers, Literals: ts.literals}
		bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindScript.String(), body: chunks.EncodeScript(s, fv)})
		member := chunks.CastMember{Number: ts.memberNumber, ID: uint32(ts.memberNumber), Name: ts.name, Kind: chunks.MemberScript, ScriptID: scriptResourceID}
		bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastMember.String(), body: chunks.EncodeCastMember(member)})
	}
	bundleChunks = append(bundleChunks, bundleChunk{kind: chunks.KindCastList.String(), body: chunks.EncodeCastList(chunks.CastList{Entries: castEntries})})

	data := buildBundle(t, bundleChunks)

	m := castlib.NewManager(nil)
	_, err = m.LoadMovie(data)
	require.NoError(t, err)
	return m
}

func handler(nameID uint16, instrs ...script.Instruction) script.Handler {
	return script.Handler{NameID: nameID, Instructions: instrs}
}

func in(op script.Opcode, arg int32) script.Instruction { return script.Instruction{Opcode: op, Argument: arg} }

func TestArithmeticAndStackDiscipline(t *testing.T) {
	names := script.NewNameTable([]string{"sum"})
	h := handler(0,
		in(script.OpPushInt, 2),
		in(script.OpPushInt, 3),
		in(script.OpAdd, 0),
		in(script.OpRet, 0),
	)
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}

	vmInst := NewVM(castlib.NewManager(nil), nil, nil)
	result := vmInst.ExecuteHandler(1, s, names, h, "sum", value.Void{}, nil)

	require.Equal(t, value.Int32(5), result)
	require.Empty(t, vmInst.frames, "call stack must be empty after a top-level handler returns")
}

func TestStepLimitAbortsLongRunningHandler(t *testing.T) {
	names := script.NewNameTable([]string{"loop"})
	// JMP back to its own offset: an infinite loop, bounded only by the
	// step limit. The delta is relative to the byte offset of the
	// instruction after the jump (offset 0 + 1 opcode byte + 2 argument
	// bytes = 3), so a delta of -3 lands back on offset 0.
	loopInstr := script.Instruction{Opcode: script.OpJmp, Argument: -3, ByteOffset: 0}
	h := script.Handler{
		NameID:        0,
		Instructions:  []script.Instruction{loopInstr},
		OffsetToIndex: map[uint32]uint32{0: 0},
	}
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}

	vmInst := NewVM(castlib.NewManager(nil), nil, nil)
	vmInst.StepLimit = 50

	result := vmInst.ExecuteHandler(1, s, names, h, "loop", value.Void{}, nil)
	require.Equal(t, value.Void{}, result)
	require.Empty(t, vmInst.frames)
}

func TestListNewBuildsOneIndexedList(t *testing.T) {
	names := script.NewNameTable([]string{"build"})
	h := handler(0,
		in(script.OpPushInt, 10),
		in(script.OpPushInt, 20),
		in(script.OpPushInt, 30),
		in(script.OpListNew, 3),
		in(script.OpRet, 0),
	)
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}

	vmInst := NewVM(castlib.NewManager(nil), nil, nil)
	result := vmInst.ExecuteHandler(1, s, names, h, "build", value.Void{}, nil)

	list, ok := result.(value.List)
	require.True(t, ok)
	require.Equal(t, 3, list.Len())
	require.Equal(t, value.Int32(10), list.GetAt(1))
	require.Equal(t, value.Int32(30), list.GetAt(3))
}

func TestChunkExprItemSlice(t *testing.T) {
	names := script.NewNameTable([]string{"secondItem"})
	h := handler(0,
		in(script.OpPushConstant, 0), // "a,b,c"
		in(script.OpPushInt, 2),
		in(script.OpPushInt, 2),
		in(script.OpChunkExpr, int32(chunkItem)),
		in(script.OpRet, 0),
	)
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}, Literals: []value.Value{value.String("a,b,c")}}

	vmInst := NewVM(castlib.NewManager(nil), nil, nil)
	result := vmInst.ExecuteHandler(1, s, names, h, "secondItem", value.Void{}, nil)

	require.Equal(t, value.String("b"), result)
}

// TestAncestorDispatch grounds spec.md §8's ancestor-dispatch scenario: a
// parent script A defines "greet"; an instance of a second script B has no
// own "greet" handler but its #ancestor points at an instance of A. Calling
// "greet" on the B instance must resolve through the ancestor chain while
// keeping "me" bound to the original B instance, not the ancestor.
func TestAncestorDispatch(t *testing.T) {
	names := []string{"greet", "whoAmI"}
	greetHandler := handler(0, // "greet"
		in(script.OpPushConstant, 0),
		in(script.OpRet, 0),
	)
	scriptA := testScript{memberNumber: 1, name: "ParentA", kind: script.KindParent,
		handlers: []script.Handler{greetHandler}, literals: []value.Value{value.String("hi from A")}}
	scriptB := testScript{memberNumber: 2, name: "ParentB", kind: script.KindParent}

	manager := loadTestMovie(t, names, []testScript{scriptA, scriptB})
	vmInst := NewVM(manager, nil, nil)

	instA := value.NewScriptInstance(value.NextScriptID()).WithScriptRef(value.ScriptRef{CastLib: 1, Member: 1})
	instB := value.NewScriptInstance(value.NextScriptID()).
		WithScriptRef(value.ScriptRef{CastLib: 1, Member: 2}).
		WithAncestor(instA)
	vmInst.putInstance(instA)
	vmInst.putInstance(instB)

	result, found, err := vmInst.dispatchOnChain(instB, "greet", instB, nil)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, value.String("hi from A"), result)
}

func TestAncestorCycleDetected(t *testing.T) {
	vmInst := NewVM(castlib.NewManager(nil), nil, nil)

	instA := value.NewScriptInstance(value.NextScriptID())
	instB := value.NewScriptInstance(value.NextScriptID()).WithAncestor(instA)
	instA = instA.WithAncestor(instB)
	vmInst.putInstance(instA)
	vmInst.putInstance(instB)

	_, _, err := vmInst.dispatchOnChain(instA, "missingHandler", instA, nil)
	require.Error(t, err)
	require.True(t, vmerr.Is(err, vmerr.AncestorCycle))
}
