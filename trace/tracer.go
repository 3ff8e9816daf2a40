// Package trace implements the debug/trace hook surface of spec.md §4.8:
// a structured-log TraceListener, a breakpoint/step/watch DebugController
// that pauses the VM in place, and (in the debugserver sub-package) a
// minimal remote-attach transport for driving the controller.
package trace

import (
	"path/filepath"

	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
	"go.uber.org/zap"
)

// Tracer is a vm.TraceListener backed by a structured zap logger,
// narrowed by an optional set of handler-name glob filters — grounded on
// the teacher's global Tracer's enabled/filters/writer shape, rebuilt on
// zap instead of fmt.Fprintf so trace output composes with the rest of
// the runtime's logging.
type Tracer struct {
	log     *zap.Logger
	filters []string
}

// NewTracer builds a Tracer writing through log. filters, if non-empty,
// restricts OnHandlerEnter/Exit/Error events to handler names matching at
// least one glob pattern (filepath.Match semantics); OnInstruction is
// never filtered by name since it doesn't carry one.
func NewTracer(log *zap.Logger, filters ...string) *Tracer {
	return &Tracer{log: log, filters: filters}
}

func (t *Tracer) matches(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, pattern := range t.filters {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (t *Tracer) OnInstruction(scriptID uint32, offset uint32, op script.Opcode, arg int32, stack []value.Value) {
	t.log.Debug("instruction",
		zap.Uint32("script_id", scriptID),
		zap.Uint32("offset", offset),
		zap.String("opcode", op.String()),
		zap.Int32("arg", arg),
		zap.Int("stack_depth", len(stack)),
	)
}

func (t *Tracer) OnHandlerEnter(info vm.HandlerInfo) {
	if !t.matches(info.HandlerName) {
		return
	}
	t.log.Info("handler enter",
		zap.Uint16("cast_lib", info.CastLib),
		zap.Uint32("script_id", info.ScriptID),
		zap.String("handler", info.HandlerName),
		zap.String("receiver", info.Receiver.String()),
	)
}

func (t *Tracer) OnHandlerExit(info vm.HandlerInfo, result value.Value) {
	if !t.matches(info.HandlerName) {
		return
	}
	t.log.Info("handler exit",
		zap.Uint32("script_id", info.ScriptID),
		zap.String("handler", info.HandlerName),
		zap.String("result", result.String()),
	)
}

func (t *Tracer) OnError(msg string) {
	t.log.Warn("trace error", zap.String("msg", msg))
}

var _ vm.TraceListener = (*Tracer)(nil)
