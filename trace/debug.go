package trace

import (
	"strconv"
	"strings"
	"sync"

	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// Breakpoint is one (script, byte-offset) pause point (spec.md §4.8).
// Condition, if non-empty, is a watch expression (see EvalWatch) gating
// the pause: the breakpoint only fires when it evaluates truthy. LogPoint
// breakpoints never pause — they fire a trace event and let execution
// continue, the "log-point" variant spec.md names explicitly.
type Breakpoint struct {
	ScriptID  uint32
	Offset    uint32
	Condition string
	LogPoint  bool
}

func bpKey(scriptID, offset uint32) uint64 { return uint64(scriptID)<<32 | uint64(offset) }

// StepMode selects what the next OnInstruction call should do before
// resuming automatically.
type StepMode int

const (
	stepNone StepMode = iota
	stepIn
	stepOver
	stepOut
)

// PauseEvent describes why the VM parked, handed to OnPause.
type PauseEvent struct {
	Reason   string // "breakpoint", "step", "logpoint"
	ScriptID uint32
	Offset   uint32
	Frame    vm.FrameView
}

// DebugController is the VM's breakpoint/step/watch collaborator (spec.md
// §4.8): a vm.TraceListener that parks the calling goroutine inside
// OnInstruction — the VM's only per-step hook — until Resume/StepIn/
// StepOver/StepOut is called. Breakpoint persistence against a
// caller-provided key (e.g. movie URL) is the caller's concern; the
// controller itself only holds the live, in-memory breakpoint set.
type DebugController struct {
	vm *vm.VM

	mu          sync.Mutex
	breakpoints map[uint64]Breakpoint
	mode        StepMode
	baseDepth   int
	depth       int
	paused      bool
	resume      chan struct{}

	// OnPause, if set, is invoked synchronously (on the VM's own
	// execution context) every time the controller parks execution.
	// Implementations that need to notify a remote client should hand
	// the event to a queue rather than block here.
	OnPause func(PauseEvent)
}

// NewDebugController builds a controller attached to v for watch-
// expression evaluation against the paused frame.
func NewDebugController(v *vm.VM) *DebugController {
	return &DebugController{
		vm:          v,
		breakpoints: make(map[uint64]Breakpoint),
	}
}

// SetBreakpoint installs or replaces a breakpoint at (scriptID, offset).
func (d *DebugController) SetBreakpoint(bp Breakpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints[bpKey(bp.ScriptID, bp.Offset)] = bp
}

// ClearBreakpoint removes any breakpoint at (scriptID, offset).
func (d *DebugController) ClearBreakpoint(scriptID, offset uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.breakpoints, bpKey(scriptID, offset))
}

// Breakpoints returns a snapshot of every installed breakpoint.
func (d *DebugController) Breakpoints() []Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		out = append(out, bp)
	}
	return out
}

// IsPaused reports whether the VM is currently parked.
func (d *DebugController) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// Resume lets a paused VM continue running until the next breakpoint.
func (d *DebugController) Resume() { d.signalResume(stepNone) }

// StepIn resumes and pauses again at the very next instruction,
// regardless of call depth.
func (d *DebugController) StepIn() { d.signalResume(stepIn) }

// StepOver resumes and pauses again at the next instruction executed at
// the same call depth (a LOCAL_CALL/EXT_CALL made from here runs to
// completion without pausing inside it).
func (d *DebugController) StepOver() { d.signalResume(stepOver) }

// StepOut resumes and pauses again once the current handler returns to
// its caller (call depth drops below the depth StepOut was issued at).
func (d *DebugController) StepOut() { d.signalResume(stepOut) }

func (d *DebugController) signalResume(mode StepMode) {
	d.mu.Lock()
	if !d.paused {
		d.mu.Unlock()
		return
	}
	d.mode = mode
	d.baseDepth = d.depth
	ch := d.resume
	d.paused = false
	d.mu.Unlock()
	close(ch)
}

func (d *DebugController) OnHandlerEnter(vm.HandlerInfo) {
	d.mu.Lock()
	d.depth++
	d.mu.Unlock()
}

func (d *DebugController) OnHandlerExit(vm.HandlerInfo, value.Value) {
	d.mu.Lock()
	d.depth--
	d.mu.Unlock()
}

func (d *DebugController) OnError(string) {}

// OnInstruction is the VM's synchronous per-step hook: decides whether to
// pause here, and if so, blocks until Resume/StepIn/StepOver/StepOut is
// called — fulfilling spec.md §4.8's "pauses... until the controller
// signals resume" with no change needed to the VM's own dispatch loop.
func (d *DebugController) OnInstruction(scriptID uint32, offset uint32, op script.Opcode, arg int32, stack []value.Value) {
	d.mu.Lock()
	reason, shouldPause, logPointHit := d.shouldPauseLocked(scriptID, offset)
	if !shouldPause {
		d.mu.Unlock()
		if logPointHit && d.OnPause != nil {
			frame, _ := d.vm.CurrentFrame()
			d.OnPause(PauseEvent{Reason: "logpoint", ScriptID: scriptID, Offset: offset, Frame: frame})
		}
		return
	}
	d.paused = true
	d.resume = make(chan struct{})
	ch := d.resume
	d.mu.Unlock()

	if d.OnPause != nil {
		frame, _ := d.vm.CurrentFrame()
		d.OnPause(PauseEvent{Reason: reason, ScriptID: scriptID, Offset: offset, Frame: frame})
	}
	<-ch
}

// shouldPauseLocked must be called with d.mu held. logPointHit is true
// when a log-point breakpoint's condition matched — it reports the hit
// via OnPause but never pauses.
func (d *DebugController) shouldPauseLocked(scriptID, offset uint32) (reason string, shouldPause bool, logPointHit bool) {
	if bp, ok := d.breakpoints[bpKey(scriptID, offset)]; ok {
		if bp.Condition == "" || d.evalTruthyLocked(bp.Condition) {
			if bp.LogPoint {
				return "", false, true
			}
			return "breakpoint", true, false
		}
	}
	switch d.mode {
	case stepIn:
		return "step", true, false
	case stepOver:
		if d.depth <= d.baseDepth {
			return "step", true, false
		}
	case stepOut:
		if d.depth < d.baseDepth {
			return "step", true, false
		}
	}
	return "", false, false
}

// evalTruthyLocked is safe to call with d.mu held: EvalWatch only reaches
// the VM, never d's own mutex-guarded fields.
func (d *DebugController) evalTruthyLocked(expr string) bool {
	return d.EvalWatch(expr).Truthy()
}

// EvalWatch evaluates a minimal watch expression against the currently
// paused frame (spec.md §4.8 "watch expressions evaluated against the
// current frame's locals/globals/properties"). Supported forms:
//
//	local:N    — the Nth local slot
//	arg:N      — the Nth argument slot
//	global:X   — the VM global named X
//	prop:X     — property X on the frame's receiver (Void if the
//	             receiver isn't a script instance)
//
// An unrecognized form, or an out-of-range index, evaluates to Void
// rather than erroring — this is a debugging aid, not part of the
// scripting language itself.
func (d *DebugController) EvalWatch(expr string) value.Value {
	kind, rest, ok := strings.Cut(expr, ":")
	if !ok {
		return value.Void{}
	}
	switch kind {
	case "global":
		return d.vm.Global(rest)
	case "local", "arg":
		frame, ok := d.vm.CurrentFrame()
		if !ok {
			return value.Void{}
		}
		idx, err := strconv.Atoi(rest)
		if err != nil {
			return value.Void{}
		}
		slots := frame.Locals
		if kind == "arg" {
			slots = frame.Args
		}
		if idx < 0 || idx >= len(slots) {
			return value.Void{}
		}
		return slots[idx]
	case "prop":
		frame, ok := d.vm.CurrentFrame()
		if !ok {
			return value.Void{}
		}
		inst, ok := frame.Receiver.(value.ScriptInstance)
		if !ok {
			return value.Void{}
		}
		return inst.GetProperty(rest)
	default:
		return value.Void{}
	}
}

var _ vm.TraceListener = (*DebugController)(nil)
