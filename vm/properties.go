package vm

import (
	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// getProp resolves GET_PROP against the current frame's receiver ("me"):
// a script instance's own property map, falling back up its #ancestor
// chain, then the PropertyRouter (if set) with the receiver as-is,
// instance or not. If neither finds the name it reports a recoverable
// UnresolvedMember and yields Void; the enclosing script's property-name
// declarations are not consulted — spec.md §4.4 groups GET_PROP/SET_PROP among the opcodes
// that act on "me" directly rather than popping an object off the stack,
// matching Lingo's `property pFoo` surface where a bare name inside a
// handler always means the current object's own property.
func (vm *VM) getProp(frame *CallFrame, name string) value.Value {
	if inst, ok := vm.canonical(frame.Receiver).(value.ScriptInstance); ok {
		if v, ok := getPropOnChain(inst, name, vm); ok {
			return v
		}
	}
	if vm.Props != nil {
		if v, ok := vm.Props.GetProperty(frame.Receiver, name); ok {
			return v
		}
	}
	vm.recoverable(vmerr.New(vmerr.UnresolvedMember, "property %q not found on %s", name, frame.Receiver.String()))
	return value.Void{}
}

// getPropOnChain walks inst's own properties, then #ancestor, then
// #ancestor's #ancestor, and so on, cycle-detected and depth-capped —
// grounded on builtin_pass.go's parent-chain walk for MOO's pass(),
// narrowed here from a multi-parent BFS to the single #ancestor chain
// Lingo actually has.
func getPropOnChain(inst value.ScriptInstance, name string, vm *VM) (value.Value, bool) {
	seen := make(map[int64]bool)
	cur := inst
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if seen[cur.ScriptID] {
			return value.Void{}, false
		}
		seen[cur.ScriptID] = true
		cur = vm.canonical(cur).(value.ScriptInstance)
		if v, ok := cur.Properties.Get(name); ok {
			return v, true
		}
		anc, ok := cur.Ancestor()
		if !ok {
			return value.Void{}, false
		}
		cur = anc
	}
	return value.Void{}, false
}

// setProp implements SET_PROP. It always writes to the receiver's own
// property map (never to an ancestor's), matching Lingo's "assigning to
// an inherited property name shadows it on the instance that was
// assigned to" — a non-instance receiver routes through PropertyRouter.
func (vm *VM) setProp(frame *CallFrame, name string, v value.Value) {
	if inst, ok := vm.canonical(frame.Receiver).(value.ScriptInstance); ok {
		next := inst.SetProperty(value.Symbol(name), v)
		vm.putInstance(next)
		frame.Receiver = next
		return
	}
	if vm.Props != nil && vm.Props.SetProperty(frame.Receiver, name, v) {
		return
	}
	vm.recoverable(vmerr.New(vmerr.UnresolvedMember, "cannot set property %q on %s", name, frame.Receiver.String()))
}

// extCall implements EXT_CALL's 5-step resolution order (spec.md §4.4):
// name-table lookup of the opcode's argument → built-in registry →
// movie-script handler searched across every cast → the frame's own
// receiver's ancestor chain → unresolved (trace + void).
func (vm *VM) extCall(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	name, ok := frame.Names.Name(uint16(in.Argument))
	if !ok {
		vm.recoverable(vmerr.New(vmerr.UnresolvedName, "ext_call name id %d", in.Argument))
		frame.push(value.Void{})
		frame.ip++
		return value.Void{}, false, nil
	}

	args, _, ok := popArgs(frame)
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "EXT_CALL %q missing argument bundle", name)
	}

	if vm.Builtins != nil {
		if v, handled := vm.Builtins.Call(&Context{VM: vm, Frame: frame}, name, args); handled {
			frame.push(v)
			frame.ip++
			return value.Void{}, false, nil
		}
	}

	if loc, ok := vm.findMovieHandler(name); ok {
		result, err := vm.callLocation(loc, name, value.Void{}, args)
		if err != nil {
			return value.Void{}, false, err
		}
		frame.push(result)
		frame.ip++
		return value.Void{}, false, nil
	}

	if inst, ok := vm.canonical(frame.Receiver).(value.ScriptInstance); ok {
		result, found, err := vm.dispatchOnChain(inst, name, inst, args)
		if err != nil {
			return value.Void{}, false, err
		}
		if found {
			frame.push(result)
			frame.ip++
			return value.Void{}, false, nil
		}
	}

	vm.recoverable(vmerr.New(vmerr.UnresolvedHandler, "handler %q not found", name))
	frame.push(value.Void{})
	frame.ip++
	return value.Void{}, false, nil
}

// findMovieHandler searches every registered cast for a handler named
// name owned by a movie-kind script — castlib.Manager.FindHandler
// doesn't filter by script.Kind on its own, since parent/behavior
// scripts share the same search path for OBJ_CALL.
func (vm *VM) findMovieHandler(name string) (castlib.HandlerLocation, bool) {
	loc, ok := vm.Manager.FindHandler(name)
	if !ok {
		return castlib.HandlerLocation{}, false
	}
	s, ok := vm.scriptFor(loc)
	if !ok || s.Kind != script.KindMovie {
		return castlib.HandlerLocation{}, false
	}
	return loc, true
}

// localCall implements LOCAL_CALL: invoke a sibling handler within the
// currently executing script by its index into that script's own
// Handlers slice (the opcode's argument), inheriting the calling
// frame's receiver.
func (vm *VM) localCall(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	idx := int(in.Argument)
	if idx < 0 || idx >= len(frame.Handlers) {
		return value.Void{}, false, vmerr.New(vmerr.UnresolvedHandler, "local_call index %d out of range", idx)
	}
	h := frame.Handlers[idx]
	args, _, ok := popArgs(frame)
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "LOCAL_CALL missing argument bundle")
	}
	name, _ := frame.Names.Name(h.NameID)
	result, err := vm.runFrame(newCallFrame(frame.CastLib, script.Script{ID: frame.ScriptID, Handlers: frame.Handlers, Literals: frame.Literals}, frame.Names, h, name, frame.Receiver, args))
	if err != nil {
		return value.Void{}, false, err
	}
	frame.push(result)
	frame.ip++
	return value.Void{}, false, nil
}

// objCall implements OBJ_CALL: pop a receiver object off the stack, then
// invoke the named handler against its own script, or failing that its
// #ancestor chain, cycle-detected and depth-capped (spec.md §4.4
// "Ancestor dispatch").
func (vm *VM) objCall(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	name, ok := frame.Names.Name(uint16(in.Argument))
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.UnresolvedName, "obj_call name id %d", in.Argument)
	}
	receiver, ok := frame.pop()
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "OBJ_CALL missing receiver")
	}
	args, _, ok := popArgs(frame)
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "OBJ_CALL %q missing argument bundle", name)
	}

	inst, isInst := vm.canonical(receiver).(value.ScriptInstance)
	if !isInst {
		vm.recoverable(vmerr.New(vmerr.UnresolvedHandler, "OBJ_CALL %q on non-instance receiver %s", name, receiver.String()))
		frame.push(value.Void{})
		frame.ip++
		return value.Void{}, false, nil
	}

	result, found, err := vm.dispatchOnChain(inst, name, inst, args)
	if err != nil {
		return value.Void{}, false, err
	}
	if !found {
		vm.recoverable(vmerr.New(vmerr.UnresolvedHandler, "handler %q not found on instance %d or its ancestors", name, inst.ScriptID))
		frame.push(value.Void{})
		frame.ip++
		return value.Void{}, false, nil
	}
	frame.push(result)
	frame.ip++
	return value.Void{}, false, nil
}

// dispatchOnChain resolves name against start's own script, then walks
// start's #ancestor chain invoking the same lookup — the receiver bound
// to "me" inside the called handler is always the original receiver
// passed in, never the ancestor the handler happened to be found on,
// matching Lingo's single-dispatch-target-with-delegated-lookup model.
func (vm *VM) dispatchOnChain(start value.ScriptInstance, name string, receiver value.ScriptInstance, args []value.Value) (value.Value, bool, error) {
	seen := make(map[int64]bool)
	cur := start
	for depth := 0; depth < maxAncestorDepth; depth++ {
		if seen[cur.ScriptID] {
			return value.Void{}, false, vmerr.New(vmerr.AncestorCycle, "ancestor cycle detected at instance %d", cur.ScriptID)
		}
		seen[cur.ScriptID] = true
		cur = vm.canonical(cur).(value.ScriptInstance)

		if ref, ok := cur.ScriptRefOf(); ok {
			if loc, ok := vm.Manager.FindHandlerInScriptAt(ref.CastLib, ref.Member, name); ok {
				result, err := vm.callLocation(loc, name, receiver, args)
				return result, err == nil, err
			}
		}

		anc, ok := cur.Ancestor()
		if !ok {
			return value.Void{}, false, nil
		}
		cur = anc
	}
	return value.Void{}, false, vmerr.New(vmerr.AncestorCycle, "ancestor chain exceeds depth %d", maxAncestorDepth)
}

// newInstance implements NEW(name_id, argc): resolve a parent/behavior
// script by name, create a fresh instance tagged with its origin, invoke
// its "new" handler if one exists (discarding its own return value in
// favor of the freshly canonical instance, matching Lingo's `new()`
// always returning the constructed object regardless of what the `new`
// handler itself returns), and register it as canonical.
func (vm *VM) newInstance(frame *CallFrame, in script.Instruction) (value.Value, bool, error) {
	name, ok := frame.Names.Name(uint16(in.Argument))
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.UnresolvedName, "new name id %d", in.Argument)
	}
	args, _, ok := popArgs(frame)
	if !ok {
		return value.Void{}, false, vmerr.New(vmerr.StackUnderflow, "NEW %q missing argument bundle", name)
	}

	s, castLib, member, ok := vm.Manager.ScriptByName(name)
	if !ok {
		vm.recoverable(vmerr.New(vmerr.UnresolvedMember, "no parent script named %q", name))
		frame.push(value.Void{})
		frame.ip++
		return value.Void{}, false, nil
	}

	inst := value.NewScriptInstance(value.NextScriptID()).WithScriptRef(value.ScriptRef{CastLib: castLib, Member: member})
	vm.putInstance(inst)

	if h, ok := s.HandlerNamed(frame.Names, "new"); ok {
		names := frame.Names
		if lib, ok := vm.Manager.CastLibByNumber(castLib); ok {
			names = lib.NameTable()
		}
		_, err := vm.runFrame(newCallFrame(castLib, s, names, h, "new", inst, args))
		if err != nil {
			return value.Void{}, false, err
		}
	}

	final, _ := vm.instance(inst.ScriptID)
	frame.push(final)
	frame.ip++
	return value.Void{}, false, nil
}
