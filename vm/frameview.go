package vm

import "github.com/quackster/libreshockwave/value"

// FrameView is a read-only snapshot of a paused call frame's evaluation
// context (spec.md §4.8 "watch expressions evaluated against the current
// frame's locals/globals/properties") — handed to a debugger from inside
// a TraceListener callback, where the VM is synchronously parked.
type FrameView struct {
	CastLib     uint16
	ScriptID    uint32
	HandlerName string
	Receiver    value.Value
	Args        []value.Value
	Locals      []value.Value
}

// CurrentFrame returns a snapshot of the innermost active call frame.
// Safe to call from a TraceListener callback (same goroutine, no
// in-flight mutation); returns false if the VM isn't mid-dispatch.
func (vm *VM) CurrentFrame() (FrameView, bool) {
	if len(vm.frames) == 0 {
		return FrameView{}, false
	}
	f := vm.frames[len(vm.frames)-1]
	return FrameView{
		CastLib:     f.CastLib,
		ScriptID:    f.ScriptID,
		HandlerName: f.HandlerName,
		Receiver:    f.Receiver,
		Args:        append([]value.Value(nil), f.Args...),
		Locals:      append([]value.Value(nil), f.Locals...),
	}, true
}
