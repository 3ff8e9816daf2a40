package builtins

import (
	"sort"
	"strings"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// registerLists wires the list group (spec.md §4.5 "List": list, count,
// add, addAt, addProp, deleteAt, deleteProp, getAt, getProp, setAt,
// setProp, getOne, getPropAt, findPos, sort) — grounded on the teacher's
// builtins/lists.go (listappend/listinsert/listdelete/listset/sort/
// reverse/unique/slice), narrowed to the names spec.md's group actually
// lists and split across value.List (ordered) and value.PropList
// (key→value) the way Lingo itself has two distinct list flavors.
func (r *Registry) registerLists() {
	r.register("list", builtinListCtor)
	r.register("count", builtinCount)
	r.register("add", builtinAdd)
	r.register("addAt", builtinAddAt)
	r.register("addProp", builtinAddProp)
	r.register("deleteAt", builtinDeleteAt)
	r.register("deleteProp", builtinDeleteProp)
	r.register("getAt", builtinGetAt)
	r.register("getProp", builtinGetProp)
	r.register("setAt", builtinSetAt)
	r.register("setProp", builtinSetProp)
	r.register("getOne", builtinGetOne)
	r.register("getPropAt", builtinGetPropAt)
	r.register("findPos", builtinFindPos)
	r.register("sort", builtinSort)
}

func builtinListCtor(ctx *vm.Context, args []value.Value) value.Value {
	items := make([]value.Value, len(args))
	copy(items, args)
	return value.NewList(items)
}

func builtinCount(ctx *vm.Context, args []value.Value) value.Value {
	switch v := arg(args, 0).(type) {
	case value.List:
		return value.Int32(int32(v.Len()))
	case value.PropList:
		return value.Int32(int32(v.Count()))
	default:
		return value.Int32(0)
	}
}

func builtinAdd(ctx *vm.Context, args []value.Value) value.Value {
	l := value.AsList(arg(args, 0))
	return l.Append(arg(args, 1))
}

func builtinAddAt(ctx *vm.Context, args []value.Value) value.Value {
	l := value.AsList(arg(args, 0))
	idx, _ := value.AsInt32(arg(args, 1))
	return l.InsertAt(int(idx), arg(args, 2))
}

func builtinAddProp(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		pl = value.NewPropList()
	}
	key := value.AsString(arg(args, 1))
	return pl.Set(value.Symbol(key), arg(args, 2))
}

func builtinDeleteAt(ctx *vm.Context, args []value.Value) value.Value {
	l := value.AsList(arg(args, 0))
	idx, _ := value.AsInt32(arg(args, 1))
	return l.DeleteAt(int(idx))
}

func builtinDeleteProp(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		return value.NewPropList()
	}
	return pl.Delete(value.AsString(arg(args, 1)))
}

func builtinGetAt(ctx *vm.Context, args []value.Value) value.Value {
	l := value.AsList(arg(args, 0))
	idx, _ := value.AsInt32(arg(args, 1))
	return l.GetAt(int(idx))
}

func builtinGetProp(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		return value.Void{}
	}
	v, _ := pl.Get(value.AsString(arg(args, 1)))
	return v
}

func builtinSetAt(ctx *vm.Context, args []value.Value) value.Value {
	l := value.AsList(arg(args, 0))
	idx, _ := value.AsInt32(arg(args, 1))
	return l.SetAt(int(idx), arg(args, 2))
}

func builtinSetProp(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		pl = value.NewPropList()
	}
	return pl.Set(value.Symbol(value.AsString(arg(args, 1))), arg(args, 2))
}

// builtinGetOne implements Lingo's `getOne(propList, value)`: the key
// whose value is first Equal to the given value, or Void if none match —
// the inverse lookup direction of getProp.
func builtinGetOne(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		return value.Void{}
	}
	target := arg(args, 1)
	for _, p := range pl.Pairs() {
		if p.Val.Equal(target) {
			return p.Key
		}
	}
	return value.Void{}
}

func builtinGetPropAt(ctx *vm.Context, args []value.Value) value.Value {
	pl, ok := arg(args, 0).(value.PropList)
	if !ok {
		return value.Void{}
	}
	idx, _ := value.AsInt32(arg(args, 1))
	key, _, found := pl.GetAt(int(idx))
	if !found {
		return value.Void{}
	}
	return key
}

func builtinFindPos(ctx *vm.Context, args []value.Value) value.Value {
	switch v := arg(args, 0).(type) {
	case value.List:
		return value.Int32(int32(v.FindPos(arg(args, 1))))
	case value.PropList:
		norm := strings.ToLower(value.AsString(arg(args, 1)))
		for i, p := range v.Pairs() {
			if strings.ToLower(string(p.Key)) == norm {
				return value.Int32(int32(i + 1))
			}
		}
		return value.Int32(0)
	default:
		return value.Int32(0)
	}
}

func builtinSort(ctx *vm.Context, args []value.Value) value.Value {
	l, ok := arg(args, 0).(value.List)
	if !ok {
		return arg(args, 0)
	}
	elems := append([]value.Value(nil), l.Elements()...)
	sort.SliceStable(elems, func(i, j int) bool {
		af, aok := value.AsFloat64(elems[i])
		bf, bok := value.AsFloat64(elems[j])
		if aok && bok {
			return af < bf
		}
		return value.AsString(elems[i]) < value.AsString(elems[j])
	})
	return value.NewList(elems)
}
