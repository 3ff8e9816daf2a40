package trace

import (
	"testing"
	"time"

	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
	"github.com/stretchr/testify/require"
)

func at(offset uint32, op script.Opcode, arg int32) script.Instruction {
	return script.Instruction{ByteOffset: offset, Opcode: op, Argument: arg}
}

// countingHandler returns 2+3 through four instructions at offsets 0, 1,
// 2, 3, giving each one a distinct breakpoint address to target.
func countingHandler() script.Handler {
	return script.Handler{NameID: 0, Instructions: []script.Instruction{
		at(0, script.OpPushInt, 2),
		at(1, script.OpPushInt, 3),
		at(2, script.OpAdd, 0),
		at(3, script.OpRet, 0),
	}}
}

func runHandler(t *testing.T, v *vm.VM, h script.Handler, names script.NameTable) <-chan value.Value {
	t.Helper()
	s := script.Script{ID: 7, Kind: script.KindMovie, Handlers: []script.Handler{h}}
	done := make(chan value.Value, 1)
	go func() {
		done <- v.ExecuteHandler(1, s, names, h, "sum", value.Void{}, nil)
	}()
	return done
}

func TestDebugControllerPausesAtBreakpointAndResumes(t *testing.T) {
	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	ctrl := NewDebugController(v)
	v.Trace = ctrl

	paused := make(chan PauseEvent, 4)
	ctrl.OnPause = func(ev PauseEvent) { paused <- ev }

	ctrl.SetBreakpoint(Breakpoint{ScriptID: 7, Offset: 2})

	names := script.NewNameTable([]string{"sum"})
	done := runHandler(t, v, countingHandler(), names)

	select {
	case ev := <-paused:
		require.Equal(t, "breakpoint", ev.Reason)
		require.Equal(t, uint32(2), ev.Offset)
	case <-time.After(time.Second):
		t.Fatal("expected a pause event")
	}
	require.True(t, ctrl.IsPaused())

	ctrl.Resume()

	select {
	case result := <-done:
		require.Equal(t, value.Int32(5), result)
	case <-time.After(time.Second):
		t.Fatal("handler never resumed to completion")
	}
	require.False(t, ctrl.IsPaused())
}

func TestDebugControllerConditionalBreakpointSkipsWhenFalse(t *testing.T) {
	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	ctrl := NewDebugController(v)
	v.Trace = ctrl

	v.SetGlobal("armed", value.Int32(0))
	ctrl.SetBreakpoint(Breakpoint{ScriptID: 7, Offset: 2, Condition: "global:armed"})

	names := script.NewNameTable([]string{"sum"})
	done := runHandler(t, v, countingHandler(), names)

	select {
	case result := <-done:
		require.Equal(t, value.Int32(5), result, "the false condition must never pause execution")
	case <-time.After(time.Second):
		t.Fatal("handler blocked despite a false breakpoint condition")
	}
}

func TestDebugControllerLogPointNeverPauses(t *testing.T) {
	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	ctrl := NewDebugController(v)
	v.Trace = ctrl

	hits := make(chan PauseEvent, 4)
	ctrl.OnPause = func(ev PauseEvent) { hits <- ev }
	ctrl.SetBreakpoint(Breakpoint{ScriptID: 7, Offset: 2, LogPoint: true})

	names := script.NewNameTable([]string{"sum"})
	done := runHandler(t, v, countingHandler(), names)

	select {
	case result := <-done:
		require.Equal(t, value.Int32(5), result)
	case <-time.After(time.Second):
		t.Fatal("a log-point breakpoint must never block execution")
	}

	select {
	case ev := <-hits:
		require.Equal(t, "logpoint", ev.Reason)
	default:
		t.Fatal("expected a logpoint hit to have been reported")
	}
}

func TestEvalWatchReadsGlobalsLocalsArgsAndProps(t *testing.T) {
	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	ctrl := NewDebugController(v)
	v.SetGlobal("score", value.Int32(42))

	require.Equal(t, value.Int32(42), ctrl.EvalWatch("global:score"))
	require.Equal(t, value.Void{}, ctrl.EvalWatch("global:missing"))

	// Outside of a paused frame, local/arg/prop watches degrade to Void.
	require.Equal(t, value.Void{}, ctrl.EvalWatch("local:0"))
	require.Equal(t, value.Void{}, ctrl.EvalWatch("arg:0"))
	require.Equal(t, value.Void{}, ctrl.EvalWatch("prop:x"))

	// An unrecognized expression form also degrades to Void.
	require.Equal(t, value.Void{}, ctrl.EvalWatch("bogus"))
}

func TestStepInPausesOnNextInstruction(t *testing.T) {
	v := vm.NewVM(castlib.NewManager(nil), nil, nil)
	ctrl := NewDebugController(v)
	v.Trace = ctrl

	paused := make(chan PauseEvent, 8)
	ctrl.OnPause = func(ev PauseEvent) { paused <- ev }
	ctrl.SetBreakpoint(Breakpoint{ScriptID: 7, Offset: 0})

	names := script.NewNameTable([]string{"sum"})
	done := runHandler(t, v, countingHandler(), names)

	first := <-paused
	require.Equal(t, uint32(0), first.Offset)

	ctrl.StepIn()
	second := <-paused
	require.Equal(t, "step", second.Reason)
	require.Equal(t, uint32(1), second.Offset)

	// Let it run to completion.
	ctrl.Resume()
	<-done
}
