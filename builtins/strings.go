package builtins

import (
	"strings"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// registerStrings wires the string group (spec.md §4.5 "String": length,
// chars, words, items, lines, contains, starts, offset, string, …) —
// grounded on the teacher's builtins/strings.go, generalized from MOO's
// byte-indexed `index`/`rindex` pair to Lingo's whole-collection
// chars/words/items/lines helpers (the `char M of S` chunk-expression
// form itself is handled directly by the VM's CHUNK_EXPR opcode, not a
// built-in call).
func (r *Registry) registerStrings() {
	r.register("length", builtinLength)
	r.register("chars", builtinChars)
	r.register("words", builtinWords)
	r.register("items", builtinItems)
	r.register("lines", builtinLines)
	r.register("contains", builtinContains)
	r.register("starts", builtinStarts)
	r.register("offset", builtinOffset)
	r.register("string", builtinString)
}

func builtinLength(ctx *vm.Context, args []value.Value) value.Value {
	switch v := arg(args, 0).(type) {
	case value.List:
		return value.Int32(int32(v.Len()))
	case value.PropList:
		return value.Int32(int32(v.Count()))
	default:
		return value.Int32(int32(len([]rune(value.AsString(v)))))
	}
}

func builtinChars(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	runes := []rune(s)
	out := make([]value.Value, len(runes))
	for i, rn := range runes {
		out[i] = value.String(string(rn))
	}
	return value.NewList(out)
}

func builtinWords(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	words := strings.Fields(s)
	out := make([]value.Value, len(words))
	for i, w := range words {
		out[i] = value.String(w)
	}
	return value.NewList(out)
}

func builtinItems(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	delim := ctx.VM.ItemDelimiter()
	if len(args) > 1 {
		delim = value.AsString(args[1])
	}
	if s == "" {
		return value.NewList(nil)
	}
	parts := strings.Split(s, delim)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.NewList(out)
}

func builtinLines(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	if s == "" {
		return value.NewList(nil)
	}
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]value.Value, len(lines))
	for i, l := range lines {
		out[i] = value.String(l)
	}
	return value.NewList(out)
}

func builtinContains(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	sub := value.AsString(arg(args, 1))
	return value.Int32(boolInt(strings.Contains(s, sub)))
}

func builtinStarts(ctx *vm.Context, args []value.Value) value.Value {
	s := value.AsString(arg(args, 0))
	prefix := value.AsString(arg(args, 1))
	return value.Int32(boolInt(strings.HasPrefix(s, prefix)))
}

// builtinOffset implements Lingo's `offset(find, source)` → 1-indexed
// position of the first match, or 0 if absent.
func builtinOffset(ctx *vm.Context, args []value.Value) value.Value {
	find := value.AsString(arg(args, 0))
	source := value.AsString(arg(args, 1))
	if find == "" {
		return value.Int32(0)
	}
	idx := strings.Index(source, find)
	if idx < 0 {
		return value.Int32(0)
	}
	return value.Int32(int32(len([]rune(source[:idx])) + 1))
}

func builtinString(ctx *vm.Context, args []value.Value) value.Value {
	return value.String(value.AsString(arg(args, 0)))
}
