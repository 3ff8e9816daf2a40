package builtins

import (
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// maxCastMemberProbe bounds findEmpty's linear scan for an unused member
// slot — castlib.CastLib doesn't track a highest-assigned number, so
// findEmpty probes from 1 until it finds a gap or exhausts this bound.
const maxCastMemberProbe = 32768

// registerMembers wires the cast/member group (spec.md §4.5 "Cast/
// member": member(n[, castLib]), castLib(n|name), the number of member
// "X", the name of member N of castLib N, findEmpty) — grounded on
// castlib.Manager's Member/MemberByName/CastLibByNumber/CastLibByName,
// already built for the VM's own NEW-opcode resolution.
func (r *Registry) registerMembers() {
	r.register("member", builtinMember)
	r.register("castLib", builtinCastLib)
	r.register("numberOfMember", builtinNumberOfMember)
	r.register("nameOfMember", builtinNameOfMember)
	r.register("findEmpty", builtinFindEmpty)
}

func builtinMember(ctx *vm.Context, args []value.Value) value.Value {
	castLib := int32(1)
	if len(args) > 1 {
		castLib, _ = value.AsInt32(args[1])
	}

	switch v := arg(args, 0).(type) {
	case value.String:
		lib, ok := ctx.VM.Manager.CastLibByNumber(uint16(castLib))
		if !ok {
			return value.Void{}
		}
		mem, ok := lib.MemberByName(string(v))
		if !ok {
			return value.Void{}
		}
		return value.CastMemberRef{CastLib: uint16(castLib), Member: mem.Number}
	default:
		n, _ := value.AsInt32(v)
		return value.CastMemberRef{CastLib: uint16(castLib), Member: uint16(n)}
	}
}

func builtinCastLib(ctx *vm.Context, args []value.Value) value.Value {
	switch v := arg(args, 0).(type) {
	case value.String:
		lib, ok := ctx.VM.Manager.CastLibByName(string(v))
		if !ok {
			return value.Void{}
		}
		return value.CastLibRef{Number: lib.Number()}
	default:
		n, _ := value.AsInt32(v)
		return value.CastLibRef{Number: uint16(n)}
	}
}

func builtinNumberOfMember(ctx *vm.Context, args []value.Value) value.Value {
	name := value.AsString(arg(args, 0))
	castLib := int32(1)
	if len(args) > 1 {
		castLib, _ = value.AsInt32(args[1])
	}
	mem, ok := ctx.VM.Manager.MemberByName(uint16(castLib), name)
	if !ok {
		return value.Int32(0)
	}
	return value.Int32(int32(mem.Number))
}

func builtinNameOfMember(ctx *vm.Context, args []value.Value) value.Value {
	number, _ := value.AsInt32(arg(args, 0))
	castLib := int32(1)
	if len(args) > 1 {
		castLib, _ = value.AsInt32(args[1])
	}
	mem, ok := ctx.VM.Manager.Member(uint16(castLib), uint16(number))
	if !ok {
		return value.String("")
	}
	return value.String(mem.Name)
}

func builtinFindEmpty(ctx *vm.Context, args []value.Value) value.Value {
	castLib := int32(1)
	if len(args) > 0 {
		castLib, _ = value.AsInt32(args[0])
	}
	lib, ok := ctx.VM.Manager.CastLibByNumber(uint16(castLib))
	if !ok {
		return value.Int32(0)
	}
	for n := uint16(1); n < maxCastMemberProbe; n++ {
		if _, ok := lib.Member(n); !ok {
			return value.Int32(int32(n))
		}
	}
	return value.Int32(0)
}
