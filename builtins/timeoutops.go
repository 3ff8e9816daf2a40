package builtins

import (
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// TimeoutController is the timeout-op collaborator (spec.md §4.5 "Timeout
// ops", §4.7 "Timeout manager") implemented by the timeout package.
// spec.md's surface syntax — `timeout("name").new(period, #handler,
// target, persistent?)`, `timeout("name").forget()` — is Lingo's
// dot-chained method-call-on-a-handle form; since value.Kind has no
// timeout-handle variant (a timeout is identified by name alone, not a
// first-class Value), the VM-facing built-ins collapse the chain into
// one call each: timeoutNew(name, period, handlerSymbol, target,
// persistent) and timeoutForget(name).
type TimeoutController interface {
	NewTimeout(name string, periodMs int32, handlerName string, target value.Value, persistent bool)
	ForgetTimeout(name string)
	TimeoutNames() []string
}

// registerTimeouts wires the timeout-op group. With no TimeoutController
// configured, timeoutNew/timeoutForget are no-ops and timeoutList is
// always empty.
func (r *Registry) registerTimeouts() {
	r.register("timeoutNew", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Timeouts == nil || len(args) < 3 {
			return value.Void{}
		}
		name := value.AsString(args[0])
		period, _ := value.AsInt32(args[1])
		handler := value.AsString(args[2])
		var target value.Value = value.Void{}
		if len(args) > 3 {
			target = args[3]
		}
		persistent := len(args) > 4 && args[4].Truthy()
		r.Timeouts.NewTimeout(name, period, handler, target, persistent)
		return value.Void{}
	})
	r.register("timeoutForget", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Timeouts == nil {
			return value.Void{}
		}
		r.Timeouts.ForgetTimeout(value.AsString(arg(args, 0)))
		return value.Void{}
	})
	r.register("timeoutList", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Timeouts == nil {
			return value.NewList(nil)
		}
		names := r.Timeouts.TimeoutNames()
		out := make([]value.Value, len(names))
		for i, n := range names {
			out[i] = value.String(n)
		}
		return value.NewList(out)
	})
}
