package vm

import (
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
)

// Builtins is the VM's narrow view of the built-in handler registry
// (spec.md §4.5), consulted by EXT_CALL once name resolution has
// produced a string name. Call reports whether name was recognized at
// all, separate from whatever Value it returns.
type Builtins interface {
	Call(ctx *Context, name string, args []value.Value) (value.Value, bool)
}

// PropertyRouter resolves GET_PROP/SET_PROP against a receiver that
// isn't a script-instance: sprite-ref, cast-member-ref, the stage, or a
// movie property (spec.md §4.4 "Property access semantics").
type PropertyRouter interface {
	GetProperty(receiver value.Value, name string) (value.Value, bool)
	SetProperty(receiver value.Value, name string, v value.Value) bool
}

// Context threads VM access through to a builtin call so it can resolve
// handlers, report trace events, or reach globals without the builtins
// package importing vm's unexported internals.
type Context struct {
	VM    *VM
	Frame *CallFrame
}

// HandlerInfo identifies a running handler activation for trace events.
type HandlerInfo struct {
	CastLib     uint16
	ScriptID    uint32
	HandlerName string
	Receiver    value.Value
}

// TraceListener is the VM's debug/trace hook surface (spec.md §4.8). All
// methods are invoked synchronously on the VM's own execution context;
// an implementation that needs to do real work should forward to a
// queue rather than block here. A listener that DOES need to block —
// a debugger parking execution at a breakpoint — is the one documented
// exception: OnInstruction is the VM's only per-step hook, so a
// DebugController blocks inside it until told to resume, which is
// exactly "park the async execution" from the VM's point of view.
type TraceListener interface {
	OnInstruction(scriptID uint32, offset uint32, op script.Opcode, arg int32, stack []value.Value)
	OnHandlerEnter(info HandlerInfo)
	OnHandlerExit(info HandlerInfo, result value.Value)
	OnError(msg string)
}

type noopTrace struct{}

func (noopTrace) OnInstruction(uint32, uint32, script.Opcode, int32, []value.Value) {}
func (noopTrace) OnHandlerEnter(HandlerInfo)                                        {}
func (noopTrace) OnHandlerExit(HandlerInfo, value.Value)                            {}
func (noopTrace) OnError(string)                                                    {}
