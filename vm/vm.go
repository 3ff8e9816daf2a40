// Package vm implements the stack-based bytecode interpreter of
// spec.md §4.4: per-frame operand stacks, EXT_CALL/LOCAL_CALL/OBJ_CALL
// dispatch, ancestor-chain method resolution, and the recoverable-vs-
// fatal error split that keeps the interpreter usable across ticks.
//
// Grounded on the teacher's vm/vm.go dispatch-loop shape (a per-frame
// operand stack, a Step-style loop consuming one instruction at a time,
// and an error split between "log and continue" and "abort the current
// top-level call"), generalized from MOO verb dispatch to Lingo
// handler/ancestor dispatch; on vm/opcodes.go's grouped-const opcode
// table style (already carried into script/opcode.go); on
// vm/operators.go for arithmetic dispatch; on vm/properties.go for
// property routing; on vm/indexing.go for 1-indexed slice operations;
// and on vm/builtin_pass.go's parent-chain BFS walk for MOO's pass(),
// adapted here from multi-parent BFS to a single #ancestor chain walk
// with a depth cap and cycle detection.
package vm

import (
	"sync"

	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// maxAncestorDepth bounds OBJ_CALL/EXT_CALL ancestor-chain walks
// (spec.md §4.4 "depth cap 64, defensive only").
const maxAncestorDepth = 64

// defaultUnknownOpcodeTolerance is the default per-handler count of
// distinct unknown opcodes tolerated before a dispatch aborts (spec.md
// §7 "configurable, default 1").
const defaultUnknownOpcodeTolerance = 1

// VM is the single-threaded cooperative bytecode interpreter. All of its
// mutable state (globals, instance table, call stack) belongs to one
// logical execution context; callers must not drive the same VM from
// more than one goroutine concurrently (spec.md §5 "Scheduling model").
type VM struct {
	Manager  *castlib.Manager
	Builtins Builtins
	Props    PropertyRouter
	Trace    TraceListener

	// StepLimit is the per-top-level-dispatch instruction budget; 0
	// means unlimited. UnknownOpcodeTolerance overrides the default of 1
	// distinct unknown opcode tolerated per handler before abort; <= 0
	// falls back to the default.
	StepLimit              int
	UnknownOpcodeTolerance int

	mu            sync.Mutex
	globals       value.PropList
	instances     map[int64]value.ScriptInstance
	itemDelimiter string

	frames         []*CallFrame
	stepsRemaining int
}

// NewVM constructs a VM bound to manager for handler/member resolution.
// builtins and props may be nil; a nil Builtins skips straight to the
// movie-script/ancestor-chain steps of EXT_CALL resolution, and a nil
// PropertyRouter means property access on a non-instance receiver always
// misses.
func NewVM(manager *castlib.Manager, builtins Builtins, props PropertyRouter) *VM {
	return &VM{
		Manager:                manager,
		Builtins:               builtins,
		Props:                  props,
		UnknownOpcodeTolerance: defaultUnknownOpcodeTolerance,
		globals:                value.NewPropList(),
		instances:              make(map[int64]value.ScriptInstance),
		itemDelimiter:          ",",
	}
}

// ItemDelimiter returns the current `the itemDelimiter` value, used by
// CHUNK_EXPR's item splitting.
func (vm *VM) ItemDelimiter() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.itemDelimiter
}

// SetItemDelimiter updates `the itemDelimiter`; an empty string resets
// it to the default comma.
func (vm *VM) SetItemDelimiter(s string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if s == "" {
		s = ","
	}
	vm.itemDelimiter = s
}

// Global reads a VM-global by name, case-insensitively.
func (vm *VM) Global(name string) value.Value {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	v, ok := vm.globals.Get(name)
	if !ok {
		return value.Void{}
	}
	return v
}

// SetGlobal writes a VM-global.
func (vm *VM) SetGlobal(name string, v value.Value) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.globals = vm.globals.Set(value.Symbol(name), v)
}

// instance returns the canonical, possibly-mutated copy of a script
// instance by id. The instance table is the source of truth for object
// identity (value.ScriptInstance's doc comment); a stack-held
// ScriptInstance value is only a snapshot until resolved against it.
func (vm *VM) instance(id int64) (value.ScriptInstance, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	inst, ok := vm.instances[id]
	return inst, ok
}

func (vm *VM) putInstance(inst value.ScriptInstance) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.instances[inst.ScriptID] = inst
}

// canonical resolves v to its VM-owned copy if it is a registered script
// instance, else returns v unchanged.
func (vm *VM) canonical(v value.Value) value.Value {
	si, ok := v.(value.ScriptInstance)
	if !ok {
		return v
	}
	if c, ok := vm.instance(si.ScriptID); ok {
		return c
	}
	return si
}

func (vm *VM) trace() TraceListener {
	if vm.Trace != nil {
		return vm.Trace
	}
	return noopTrace{}
}

// recoverable reports a non-fatal lookup/arithmetic failure to the trace
// listener; the caller is responsible for leaving void on the stack
// where a value was expected and continuing (spec.md §7 "Propagation
// policy").
func (vm *VM) recoverable(err *vmerr.Error) {
	vm.trace().OnError(err.Error())
}

// ExecuteHandler is the synchronous entry point (spec.md §4.4
// "execute_handler(handler_ref, args, receiver) → Value"): runs h to
// completion, or to a fatal abort, and returns its result. castLib/s/
// names identify where h lives; receiver is the "me" value (Void for a
// movie-script handler).
func (vm *VM) ExecuteHandler(castLib uint16, s script.Script, names script.NameTable, h script.Handler, handlerName string, receiver value.Value, args []value.Value) value.Value {
	if len(vm.frames) == 0 {
		vm.stepsRemaining = vm.StepLimit
	}
	frame := newCallFrame(castLib, s, names, h, handlerName, receiver, args)
	result, err := vm.runFrame(frame)
	if err != nil {
		vm.trace().OnError(err.Error())
		return value.Void{}
	}
	return result
}

// runFrame drives frame's dispatch loop to completion. A non-nil error
// is always fatal (recoverable failures are absorbed inside step and
// never reach here) and unwinds every nested runFrame call back to the
// outermost ExecuteHandler, matching "fatal errors abort the currently
// executing top-level dispatch only."
func (vm *VM) runFrame(frame *CallFrame) (value.Value, error) {
	info := HandlerInfo{CastLib: frame.CastLib, ScriptID: frame.ScriptID, HandlerName: frame.HandlerName, Receiver: frame.Receiver}
	vm.trace().OnHandlerEnter(info)

	vm.frames = append(vm.frames, frame)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	for {
		if vm.StepLimit > 0 {
			if vm.stepsRemaining <= 0 {
				err := vmerr.New(vmerr.StepLimitExceeded, "handler %s exceeded step limit of %d", frame.HandlerName, vm.StepLimit)
				vm.trace().OnHandlerExit(info, value.Void{})
				return value.Void{}, err
			}
			vm.stepsRemaining--
		}

		if int(frame.ip) >= len(frame.Handler.Instructions) {
			// Ran off the end without an explicit RET: implicit void
			// return, same as RET's "no value pushed" case.
			vm.trace().OnHandlerExit(info, value.Void{})
			return value.Void{}, nil
		}

		in := frame.Handler.Instructions[frame.ip]
		vm.trace().OnInstruction(frame.ScriptID, in.ByteOffset, in.Opcode, in.Argument, frame.StackSnapshot())

		result, done, err := vm.step(frame, in)
		if err != nil {
			vm.trace().OnHandlerExit(info, value.Void{})
			return value.Void{}, err
		}
		if done {
			vm.trace().OnHandlerExit(info, result)
			return result, nil
		}
	}
}

// step executes a single instruction, advancing frame.ip for every path
// except RET (which returns done=true) and the jump/call opcodes (which
// manage frame.ip themselves).
func (vm *VM) step(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	switch in.Opcode {
	case script.OpPushVoid:
		frame.push(value.Void{})
	case script.OpPop:
		if _, ok := frame.pop(); !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "POP on empty stack")
		}
	case script.OpDup:
		v, ok := frame.peek()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "DUP on empty stack")
		}
		frame.push(v)
	case script.OpSwap:
		b, ok1 := frame.pop()
		a, ok2 := frame.pop()
		if !ok1 || !ok2 {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "SWAP on stack with <2 operands")
		}
		frame.push(b)
		frame.push(a)

	case script.OpAdd, script.OpSub, script.OpMul, script.OpDiv, script.OpMod,
		script.OpEq, script.OpNe, script.OpLt, script.OpLe, script.OpGt, script.OpGe,
		script.OpAnd, script.OpOr, script.OpConcat, script.OpConcatSpace:
		b, ok1 := frame.pop()
		a, ok2 := frame.pop()
		if !ok1 || !ok2 {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "%s on stack with <2 operands", in.Opcode)
		}
		v, bErr := vm.binaryOp(in.Opcode, a, b)
		if bErr != nil {
			vm.recoverable(bErr)
			frame.push(value.Void{})
		} else {
			frame.push(v)
		}
	case script.OpNeg, script.OpNot:
		a, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "%s on empty stack", in.Opcode)
		}
		frame.push(vm.unaryOp(in.Opcode, a))

	case script.OpRet:
		v, ok := frame.pop()
		if !ok {
			v = value.Void{}
		}
		return v, true, nil

	case script.OpPushInt:
		frame.push(value.Int32(in.Argument))
	case script.OpPushFloat, script.OpPushStringLiteral, script.OpPushConstant:
		frame.push(frame.literal(int(in.Argument)))
	case script.OpPushSymbol:
		name, ok := frame.Names.Name(uint16(in.Argument))
		if !ok {
			vm.recoverable(vmerr.New(vmerr.UnresolvedName, "symbol name id %d", in.Argument))
			frame.push(value.Void{})
		} else {
			frame.push(value.Symbol(name))
		}

	case script.OpGetLocal:
		frame.push(frame.getLocal(int(in.Argument)))
	case script.OpSetLocal:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "SET_LOCAL on empty stack")
		}
		frame.setLocal(int(in.Argument), v)
	case script.OpGetArg:
		frame.push(frame.getArg(int(in.Argument)))
	case script.OpSetArg:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "SET_ARG on empty stack")
		}
		frame.setArg(int(in.Argument), v)
	case script.OpGetGlobal:
		name, ok := frame.Names.Name(uint16(in.Argument))
		if !ok {
			vm.recoverable(vmerr.New(vmerr.UnresolvedName, "global name id %d", in.Argument))
			frame.push(value.Void{})
		} else {
			frame.push(vm.Global(name))
		}
	case script.OpSetGlobal:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "SET_GLOBAL on empty stack")
		}
		name, ok2 := frame.Names.Name(uint16(in.Argument))
		if !ok2 {
			vm.recoverable(vmerr.New(vmerr.UnresolvedName, "global name id %d", in.Argument))
		} else {
			vm.SetGlobal(name, v)
		}
	case script.OpGetProp:
		name, ok := frame.Names.Name(uint16(in.Argument))
		if !ok {
			vm.recoverable(vmerr.New(vmerr.UnresolvedName, "prop name id %d", in.Argument))
			frame.push(value.Void{})
		} else {
			frame.push(vm.getProp(frame, name))
		}
	case script.OpSetProp:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "SET_PROP on empty stack")
		}
		name, ok2 := frame.Names.Name(uint16(in.Argument))
		if !ok2 {
			vm.recoverable(vmerr.New(vmerr.UnresolvedName, "prop name id %d", in.Argument))
		} else {
			vm.setProp(frame, name, v)
		}

	case script.OpJmp:
		return vm.jump(frame, in)
	case script.OpJmpIfZero:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "JMP_IF_ZERO on empty stack")
		}
		if !v.Truthy() {
			return vm.jump(frame, in)
		}
		frame.ip++
		return value.Void{}, false, nil
	case script.OpJmpIfNotZero:
		v, ok := frame.pop()
		if !ok {
			return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "JMP_IF_NOT_ZERO on empty stack")
		}
		if v.Truthy() {
			return vm.jump(frame, in)
		}
		frame.ip++
		return value.Void{}, false, nil

	case script.OpExtCall:
		return vm.extCall(frame, in)
	case script.OpLocalCall:
		return vm.localCall(frame, in)
	case script.OpObjCall:
		return vm.objCall(frame, in)
	case script.OpNew:
		return vm.newInstance(frame, in)

	case script.OpListNew:
		return vm.listNew(frame, in)
	case script.OpPropListNew:
		return vm.propListNew(frame, in)
	case script.OpChunkExpr:
		return vm.chunkExpr(frame, in)
	case script.OpChunkExprSet:
		return vm.chunkExprSet(frame, in)

	default:
		return vm.unknownOpcode(frame, in)
	}
	frame.ip++
	return value.Void{}, false, nil
}

// jump resolves a JMP*'s delta (a byte offset relative to the
// instruction after the jump, per spec.md §4.4) to an instruction index
// via the handler's offset_to_index map.
func (vm *VM) jump(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	next := in.ByteOffset + 1 + uint32(in.Opcode.ArgumentWidth())
	target := int64(next) + int64(in.Argument)
	idx, ok := frame.Handler.IndexForOffset(uint32(target))
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.CorruptChunk, "jump target %d is not an instruction boundary", target)
	}
	frame.ip = idx
	return value.Void{}, false, nil
}

// unknownOpcode implements spec.md §7's tolerance policy: the first
// occurrence of each distinct unknown opcode in a handler logs and
// yields void; once the tolerance is exhausted, the next distinct
// unknown opcode aborts the dispatch. A previously-seen unknown opcode
// recurring is tolerated silently.
func (vm *VM) unknownOpcode(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	if !frame.unknownSeen[in.Opcode] {
		tolerance := vm.UnknownOpcodeTolerance
		if tolerance <= 0 {
			tolerance = defaultUnknownOpcodeTolerance
		}
		if len(frame.unknownSeen) >= tolerance {
			return value.Void{}, false, vmerr.New(vmerr.UnknownOpcode, "opcode %s in handler %s exceeds tolerance", in.Opcode, frame.HandlerName)
		}
		frame.unknownSeen[in.Opcode] = true
		vm.trace().OnError(vmerr.New(vmerr.UnknownOpcode, "opcode %s in handler %s", in.Opcode, frame.HandlerName).Error())
	}
	frame.push(value.Void{})
	frame.ip++
	return value.Void{}, false, nil
}

// popArgs pops the call-family opcodes' evaluated-argument bundle off
// the stack. A plain value.ArgList/value.ArgListNoRet (pushed by the
// compiler's call-site prelude) unpacks directly; any other bare value
// is tolerated as a single return-expecting argument, so a hand-built
// test fixture need not always wrap a single argument in a bundle.
func popArgs(frame *CallFrame) (args []value.Value, expectsReturn bool, ok bool) {
	v, popped := frame.pop()
	if !popped {
		return nil, false, false
	}
	switch a := v.(type) {
	case value.ArgList:
		return a.Items, a.ExpectsReturn, true
	case value.ArgListNoRet:
		return a.Items, false, true
	default:
		return []value.Value{v}, true, true
	}
}

func (vm *VM) scriptFor(loc castlib.HandlerLocation) (script.Script, bool) {
	lib, ok := vm.Manager.CastLibByNumber(loc.CastLib)
	if !ok {
		return script.Script{}, false
	}
	return lib.ScriptByID(loc.Script)
}

func (vm *VM) callLocation(loc castlib.HandlerLocation, handlerName string, receiver value.Value, args []value.Value) (value.Value, error) {
	s, ok := vm.scriptFor(loc)
	if !ok {
		return value.Void{}, nil
	}
	return vm.runFrame(newCallFrame(loc.CastLib, s, loc.Names, loc.Handler, handlerName, receiver, args))
}
