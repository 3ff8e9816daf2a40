package builtins

import (
	"strconv"
	"strings"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// registerSymbols wires the symbol/type group (spec.md §4.5 "Symbol/type":
// symbol, ilk, value — the last parsing a literal expression, limited
// here to basic scalar forms per spec.md's own allowance: "implementers
// may limit this to basic forms").
func (r *Registry) registerSymbols() {
	r.register("symbol", builtinSymbol)
	r.register("ilk", builtinIlk)
	r.register("value", builtinValue)
}

func builtinSymbol(ctx *vm.Context, args []value.Value) value.Value {
	return value.Symbol(value.AsString(arg(args, 0)))
}

// builtinIlk names a Value's kind as a symbol, matching Lingo's
// ilk()/voidP()-family type-testing surface.
func builtinIlk(ctx *vm.Context, args []value.Value) value.Value {
	switch arg(args, 0).(type) {
	case value.Void:
		return value.Symbol("void")
	case value.Int32:
		return value.Symbol("integer")
	case value.Float64:
		return value.Symbol("float")
	case value.String:
		return value.Symbol("string")
	case value.Symbol:
		return value.Symbol("symbol")
	case value.List:
		return value.Symbol("list")
	case value.PropList:
		return value.Symbol("propList")
	case value.Point:
		return value.Symbol("point")
	case value.Rect:
		return value.Symbol("rect")
	case value.Color:
		return value.Symbol("color")
	case value.SpriteRef:
		return value.Symbol("sprite")
	case value.CastMemberRef:
		return value.Symbol("member")
	case value.CastLibRef:
		return value.Symbol("castLib")
	case value.ScriptInstance:
		return value.Symbol("instance")
	default:
		return value.Symbol("object")
	}
}

// builtinValue parses a basic literal expression: a quoted string, a
// leading-sign integer or float, a `#name` symbol, or VOID — anything
// else yields Void rather than running a full expression parser.
func builtinValue(ctx *vm.Context, args []value.Value) value.Value {
	s := strings.TrimSpace(value.AsString(arg(args, 0)))
	switch {
	case s == "" || strings.EqualFold(s, "void"):
		return value.Void{}
	case strings.HasPrefix(s, "#"):
		return value.Symbol(s[1:])
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		return value.String(s[1 : len(s)-1])
	}
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return value.Int32(int32(i))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float64(f)
	}
	return value.Void{}
}
