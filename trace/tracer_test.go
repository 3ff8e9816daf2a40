package trace

import (
	"testing"

	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTracerLogsHandlerEnterExit(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := NewTracer(zap.New(core))

	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	v.Trace = tr

	names := script.NewNameTable([]string{"sum"})
	h := script.Handler{NameID: 0, Instructions: []script.Instruction{
		{ByteOffset: 0, Opcode: script.OpPushInt, Argument: 2},
		{ByteOffset: 1, Opcode: script.OpRet},
	}}
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}

	result := v.ExecuteHandler(1, s, names, h, "sum", value.Void{}, nil)
	require.Equal(t, value.Int32(2), result)

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	require.Contains(t, messages, "handler enter")
	require.Contains(t, messages, "handler exit")
	require.Contains(t, messages, "instruction")
}

func TestTracerFiltersByHandlerName(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := NewTracer(zap.New(core), "want*")

	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	v.Trace = tr

	names := script.NewNameTable([]string{"skipMe"})
	h := script.Handler{NameID: 0, Instructions: []script.Instruction{
		{ByteOffset: 0, Opcode: script.OpRet},
	}}
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}

	v.ExecuteHandler(1, s, names, h, "skipMe", value.Void{}, nil)

	for _, entry := range logs.All() {
		require.NotEqual(t, "handler enter", entry.Message, "a non-matching handler name must be filtered out")
		require.NotEqual(t, "handler exit", entry.Message, "a non-matching handler name must be filtered out")
	}
}

func TestMultiFansOutToEveryListener(t *testing.T) {
	core1, logs1 := observer.New(zap.DebugLevel)
	core2, logs2 := observer.New(zap.DebugLevel)
	m := Multi{NewTracer(zap.New(core1)), NewTracer(zap.New(core2))}

	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	v.Trace = m

	names := script.NewNameTable([]string{"noop"})
	h := script.Handler{NameID: 0, Instructions: []script.Instruction{
		{ByteOffset: 0, Opcode: script.OpRet},
	}}
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}
	v.ExecuteHandler(1, s, names, h, "noop", value.Void{}, nil)

	require.Positive(t, logs1.Len())
	require.Equal(t, logs1.Len(), logs2.Len())
}
