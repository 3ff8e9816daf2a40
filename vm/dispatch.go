package vm

import "github.com/quackster/libreshockwave/value"

// Send resolves handlerName against receiver's own script then its
// #ancestor chain, the same order OBJ_CALL uses — exported for
// collaborators outside the opcode loop (the frame dispatcher's
// behavior fan-out, the timeout manager's fired-callback and
// system-event dispatch) that need to invoke a handler on a
// script-instance without going through a CallFrame. found is false,
// with a nil error, when no such handler exists anywhere on the chain —
// callers silently skip per spec.md §4.6/§4.7 rather than treating a
// missing handler as a failure.
func (vm *VM) Send(receiver value.ScriptInstance, handlerName string, args []value.Value) (result value.Value, found bool, err error) {
	if len(vm.frames) == 0 {
		vm.stepsRemaining = vm.StepLimit
	}
	return vm.dispatchOnChain(receiver, handlerName, receiver, args)
}

// CallMovieHandler invokes a movie-script-owned handler (as opposed to a
// behavior/parent-script instance method) by name, searched across every
// registered cast in cast order — used by the frame dispatcher's
// prepareFrame/enterFrame/exitFrame fan-out and the timeout manager's
// fired-callback dispatch when a timeout's target isn't a script-instance.
func (vm *VM) CallMovieHandler(name string, args []value.Value) (result value.Value, found bool, err error) {
	if len(vm.frames) == 0 {
		vm.stepsRemaining = vm.StepLimit
	}
	loc, ok := vm.findMovieHandler(name)
	if !ok {
		return value.Void{}, false, nil
	}
	result, err = vm.callLocation(loc, name, value.Void{}, args)
	return result, err == nil, err
}
