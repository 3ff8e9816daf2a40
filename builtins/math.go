package builtins

import (
	"math"
	"math/rand"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// registerMath wires the math group (spec.md §4.5 "Math": abs, sin, cos,
// sqrt, integer, float, power, random, min, max, …) — grounded on the
// teacher's builtins/math.go, narrowed to Lingo's coercing argument
// convention: a non-numeric argument coerces via value.AsFloat64 rather
// than raising a typed error.
func (r *Registry) registerMath() {
	r.register("abs", builtinAbs)
	r.register("sqrt", unaryMath(math.Sqrt))
	r.register("sin", unaryMath(math.Sin))
	r.register("cos", unaryMath(math.Cos))
	r.register("tan", unaryMath(math.Tan))
	r.register("atan", unaryMath(math.Atan))
	r.register("exp", unaryMath(math.Exp))
	r.register("log", unaryMath(math.Log))
	r.register("power", builtinPower)
	r.register("integer", builtinInteger)
	r.register("float", builtinFloat)
	r.register("min", builtinMin)
	r.register("max", builtinMax)
	r.register("random", builtinRandom)
}

func unaryMath(f func(float64) float64) Func {
	return func(ctx *vm.Context, args []value.Value) value.Value {
		x, _ := value.AsFloat64(arg(args, 0))
		return value.Float64(f(x))
	}
}

// builtinAbs preserves Int32-in/Int32-out, matching Lingo's abs() keeping
// an integer argument an integer rather than promoting to float.
func builtinAbs(ctx *vm.Context, args []value.Value) value.Value {
	switch v := arg(args, 0).(type) {
	case value.Int32:
		if v < 0 {
			return -v
		}
		return v
	default:
		f, _ := value.AsFloat64(v)
		return value.Float64(math.Abs(f))
	}
}

func builtinPower(ctx *vm.Context, args []value.Value) value.Value {
	base, _ := value.AsFloat64(arg(args, 0))
	exp, _ := value.AsFloat64(arg(args, 1))
	return value.Float64(math.Pow(base, exp))
}

func builtinInteger(ctx *vm.Context, args []value.Value) value.Value {
	f, _ := value.AsFloat64(arg(args, 0))
	return value.Int32(int32(math.Round(f)))
}

func builtinFloat(ctx *vm.Context, args []value.Value) value.Value {
	f, _ := value.AsFloat64(arg(args, 0))
	return value.Float64(f)
}

func builtinMin(ctx *vm.Context, args []value.Value) value.Value {
	return minMax(args, func(a, b float64) bool { return a < b })
}

func builtinMax(ctx *vm.Context, args []value.Value) value.Value {
	return minMax(args, func(a, b float64) bool { return a > b })
}

func minMax(args []value.Value, better func(a, b float64) bool) value.Value {
	if len(args) == 0 {
		return value.Void{}
	}
	best := args[0]
	bestF, _ := value.AsFloat64(best)
	for _, a := range args[1:] {
		f, _ := value.AsFloat64(a)
		if better(f, bestF) {
			best, bestF = a, f
		}
	}
	return best
}

// builtinRandom implements `random(max)` → an integer in [1, max], and
// `random()` → a raw 32-bit value, matching Lingo's 1-indexed random
// range convention (distinct from MOO's 0-indexed `random()`).
func builtinRandom(ctx *vm.Context, args []value.Value) value.Value {
	if len(args) == 0 {
		return value.Int32(rand.Int31())
	}
	max, _ := value.AsInt32(arg(args, 0))
	if max <= 0 {
		return value.Int32(0)
	}
	return value.Int32(rand.Int31n(max) + 1)
}
