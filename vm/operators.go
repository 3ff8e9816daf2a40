package vm

import (
	"strings"

	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// binaryOp implements the two-operand opcodes (spec.md §4.4 "Arithmetic
// and comparison"): numeric operators promote int/int to int and
// anything touching a float to float via value.NumericPromote;
// comparisons fall back to lexicographic string comparison when either
// operand isn't numeric, matching Lingo's permissive `<`/`>` on strings.
func (vm *VM) binaryOp(op script.Opcode, a, b value.Value) (value.Value, *vmerr.Error) {
	switch op {
	case script.OpAdd, script.OpSub, script.OpMul, script.OpDiv, script.OpMod:
		return vm.arith(op, a, b)
	case script.OpEq:
		return value.Int32(boolInt(a.Equal(b))), nil
	case script.OpNe:
		return value.Int32(boolInt(!a.Equal(b))), nil
	case script.OpLt, script.OpLe, script.OpGt, script.OpGe:
		return vm.compare(op, a, b)
	case script.OpAnd:
		return value.Int32(boolInt(a.Truthy() && b.Truthy())), nil
	case script.OpOr:
		return value.Int32(boolInt(a.Truthy() || b.Truthy())), nil
	case script.OpConcat:
		return value.String(value.AsString(a) + value.AsString(b)), nil
	case script.OpConcatSpace:
		return value.String(value.AsString(a) + " " + value.AsString(b)), nil
	default:
		return value.Void{}, vmerr.New(vmerr.UnresolvedName, "unhandled binary opcode %s", op)
	}
}

// unaryOp implements NEG/NOT. NEG on a non-numeric operand coerces
// through AsFloat64 (yielding 0 for unparsable input), matching the
// permissive numeric coercion used throughout this layer.
func (vm *VM) unaryOp(op script.Opcode, a value.Value) value.Value {
	switch op {
	case script.OpNeg:
		if f, ok := a.(value.Float64); ok {
			return -f
		}
		i, _ := value.AsInt32(a)
		return value.Int32(-i)
	case script.OpNot:
		return value.Int32(boolInt(!a.Truthy()))
	default:
		return value.Void{}
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// arith dispatches ADD/SUB/MUL/DIV/MOD. Division and modulo by zero are a
// recoverable condition (spec.md §3 notes no dedicated error kind for
// arithmetic faults exists in this layer; reusing UnresolvedName's
// message bucket here is a deliberate, documented choice — see
// DESIGN.md's vm entry — rather than inventing a new vmerr.Kind for a
// single call site).
func (vm *VM) arith(op script.Opcode, a, b value.Value) (value.Value, *vmerr.Error) {
	if op == script.OpAdd {
		if as, aok := a.(value.String); aok {
			if _, bok := b.(value.String); bok {
				return as + b.(value.String), nil
			}
		}
	}

	af, bf, isFloat := value.NumericPromote(a, b)
	switch op {
	case script.OpAdd:
		return numericResult(af+bf, isFloat), nil
	case script.OpSub:
		return numericResult(af-bf, isFloat), nil
	case script.OpMul:
		return numericResult(af*bf, isFloat), nil
	case script.OpDiv:
		if bf == 0 {
			return value.Void{}, vmerr.New(vmerr.UnresolvedName, "division by zero")
		}
		return numericResult(af/bf, isFloat), nil
	case script.OpMod:
		if int64(bf) == 0 {
			return value.Void{}, vmerr.New(vmerr.UnresolvedName, "modulo by zero")
		}
		return value.Int32(int64(af) % int64(bf)), nil
	default:
		return value.Void{}, vmerr.New(vmerr.UnresolvedName, "unhandled arithmetic opcode %s", op)
	}
}

func numericResult(f float64, isFloat bool) value.Value {
	if isFloat {
		return value.Float64(f)
	}
	return value.Int32(int32(f))
}

// compare implements LT/LE/GT/GE: numeric when both operands are Int32
// or Float64, lexicographic string comparison otherwise.
func (vm *VM) compare(op script.Opcode, a, b value.Value) (value.Value, *vmerr.Error) {
	if isNumeric(a) && isNumeric(b) {
		af, bf, _ := value.NumericPromote(a, b)
		switch op {
		case script.OpLt:
			return value.Int32(boolInt(af < bf)), nil
		case script.OpLe:
			return value.Int32(boolInt(af <= bf)), nil
		case script.OpGt:
			return value.Int32(boolInt(af > bf)), nil
		case script.OpGe:
			return value.Int32(boolInt(af >= bf)), nil
		}
	}

	as, bs := value.AsString(a), value.AsString(b)
	cmp := strings.Compare(as, bs)
	switch op {
	case script.OpLt:
		return value.Int32(boolInt(cmp < 0)), nil
	case script.OpLe:
		return value.Int32(boolInt(cmp <= 0)), nil
	case script.OpGt:
		return value.Int32(boolInt(cmp > 0)), nil
	case script.OpGe:
		return value.Int32(boolInt(cmp >= 0)), nil
	}
	return value.Void{}, vmerr.New(vmerr.UnresolvedName, "unhandled comparison opcode %s", op)
}

func isNumeric(v value.Value) bool {
	switch v.(type) {
	case value.Int32, value.Float64:
		return true
	default:
		return false
	}
}
