package vm

import (
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
)

// CallFrame is one activation of a handler on the VM's call stack
// (spec.md §4.4 "Operand stack and frames"). Pushed on EXT_CALL/
// LOCAL_CALL/OBJ_CALL, popped on RET. Each frame owns its own operand
// stack; locals and argument slots are fixed-size, set at entry.
type CallFrame struct {
	CastLib     uint16
	ScriptID    uint32
	HandlerName string
	Handler     script.Handler
	Handlers    []script.Handler // sibling handlers of the owning script, for LOCAL_CALL
	Literals    []value.Value    // the owning script's literal pool, for PUSH_CONSTANT and friends
	Names       script.NameTable
	Receiver    value.Value // "me"; Void for a movie-script handler with no instance
	Args        []value.Value
	Locals      []value.Value

	operands []value.Value
	ip       uint32 // instruction index into Handler.Instructions

	unknownSeen map[script.Opcode]bool
}

func newCallFrame(castLib uint16, s script.Script, names script.NameTable, h script.Handler, handlerName string, receiver value.Value, args []value.Value) *CallFrame {
	locals := make([]value.Value, h.LocalCount)
	for i := range locals {
		locals[i] = value.Void{}
	}
	return &CallFrame{
		CastLib: castLib, ScriptID: s.ID, HandlerName: handlerName,
		Handler: h, Handlers: s.Handlers, Literals: s.Literals, Names: names,
		Receiver: receiver, Args: args, Locals: locals,
		unknownSeen: make(map[script.Opcode]bool),
	}
}

func (f *CallFrame) push(v value.Value) { f.operands = append(f.operands, v) }

func (f *CallFrame) pop() (value.Value, bool) {
	if len(f.operands) == 0 {
		return value.Void{}, false
	}
	v := f.operands[len(f.operands)-1]
	f.operands = f.operands[:len(f.operands)-1]
	return v, true
}

func (f *CallFrame) peek() (value.Value, bool) {
	if len(f.operands) == 0 {
		return value.Void{}, false
	}
	return f.operands[len(f.operands)-1], true
}

// StackSnapshot returns a copy of the operand stack, for trace reporting
// (spec.md §4.8 "on_instruction(offset, opcode, arg, stack_snapshot)").
func (f *CallFrame) StackSnapshot() []value.Value {
	out := make([]value.Value, len(f.operands))
	copy(out, f.operands)
	return out
}

// StackDepth reports the operand stack's current size, used by the
// stack-discipline check after a handler returns normally (spec.md §8).
func (f *CallFrame) StackDepth() int { return len(f.operands) }

func (f *CallFrame) literal(idx int) value.Value {
	if idx < 0 || idx >= len(f.Literals) {
		return value.Void{}
	}
	return f.Literals[idx]
}

func (f *CallFrame) getLocal(i int) value.Value {
	if i < 0 || i >= len(f.Locals) {
		return value.Void{}
	}
	return f.Locals[i]
}

func (f *CallFrame) setLocal(i int, v value.Value) {
	if i < 0 || i >= len(f.Locals) {
		return
	}
	f.Locals[i] = v
}

func (f *CallFrame) getArg(i int) value.Value {
	if i < 0 || i >= len(f.Args) {
		return value.Void{}
	}
	return f.Args[i]
}

func (f *CallFrame) setArg(i int, v value.Value) {
	if i < 0 || i >= len(f.Args) {
		return
	}
	f.Args[i] = v
}
