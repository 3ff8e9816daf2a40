package trace

import (
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// Multi fans a single vm.TraceListener slot out to several listeners —
// a Tracer for structured logging and a DebugController for breakpoints
// can both be attached to the same VM this way. Listeners run in order;
// a DebugController that pauses execution should be listed last so the
// Tracer has already observed the instruction before the VM parks.
type Multi []vm.TraceListener

func (m Multi) OnInstruction(scriptID uint32, offset uint32, op script.Opcode, arg int32, stack []value.Value) {
	for _, l := range m {
		l.OnInstruction(scriptID, offset, op, arg, stack)
	}
}

func (m Multi) OnHandlerEnter(info vm.HandlerInfo) {
	for _, l := range m {
		l.OnHandlerEnter(info)
	}
}

func (m Multi) OnHandlerExit(info vm.HandlerInfo, result value.Value) {
	for _, l := range m {
		l.OnHandlerExit(info, result)
	}
}

func (m Multi) OnError(msg string) {
	for _, l := range m {
		l.OnError(msg)
	}
}

var _ vm.TraceListener = Multi(nil)
