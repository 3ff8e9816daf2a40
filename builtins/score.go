package builtins

import (
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// ScoreController is the score/sprite collaborator (spec.md §4.5
// "Score/sprite", §4.6 "Frame dispatcher") implemented by the frame
// dispatcher's score sub-package. Kept as a narrow interface here so the
// builtins package doesn't import dispatcher (which, in turn, calls into
// the VM) — grounded on the teacher's ConnectionManager/InputForcer
// pattern in builtins/network.go, where the builtins layer only knows a
// collaborator interface, not the concrete server package implementing
// it.
type ScoreController interface {
	Sprite(channel int32) value.Value
	PuppetSprite(channel int32, puppet bool)
	SendSprite(channel int32, handlerName string, args []value.Value) value.Value
	PuppetTempo(tempo int32)
	GoToFrame(frame int32)
	GoToLabel(label string)
	UpdateStage()
	CurrentFrame() int32
}

// registerScore wires the score/sprite group. With no ScoreController
// configured (a VM under test with no dispatcher attached), every member
// of this group is a harmless no-op/void — matches spec.md §4.6's note
// that `updateStage` is "a no-op hook in the core" even when wired.
func (r *Registry) registerScore() {
	r.register("sprite", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil {
			return value.Void{}
		}
		ch, _ := value.AsInt32(arg(args, 0))
		return r.Score.Sprite(ch)
	})
	r.register("puppetSprite", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil {
			return value.Void{}
		}
		ch, _ := value.AsInt32(arg(args, 0))
		r.Score.PuppetSprite(ch, arg(args, 1).Truthy())
		return value.Void{}
	})
	r.register("sendSprite", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil || len(args) < 2 {
			return value.Void{}
		}
		ch, _ := value.AsInt32(args[0])
		handler := value.AsString(args[1])
		return r.Score.SendSprite(ch, handler, args[2:])
	})
	r.register("puppetTempo", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil {
			return value.Void{}
		}
		tempo, _ := value.AsInt32(arg(args, 0))
		r.Score.PuppetTempo(tempo)
		return value.Void{}
	})
	r.register("go", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil {
			return value.Void{}
		}
		switch v := arg(args, 0).(type) {
		case value.String:
			r.Score.GoToLabel(string(v))
		default:
			f, _ := value.AsInt32(v)
			r.Score.GoToFrame(f)
		}
		return value.Void{}
	})
	r.register("updateStage", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score != nil {
			r.Score.UpdateStage()
		}
		return value.Void{}
	})
	r.register("theFrame", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Score == nil {
			return value.Int32(0)
		}
		return value.Int32(r.Score.CurrentFrame())
	})
}
