package builtins

import (
	"testing"

	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

func newTestContext(r *Registry) *vm.Context {
	v := vm.NewVM(castlib.NewManager(nil), r, nil)
	return &vm.Context{VM: v}
}

func call(t *testing.T, r *Registry, name string, args ...value.Value) value.Value {
	t.Helper()
	ctx := newTestContext(r)
	result, ok := r.Call(ctx, name, args)
	if !ok {
		t.Fatalf("builtin %q not registered", name)
	}
	return result
}

func TestMathBuiltins(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if got := call(t, r, "abs", value.Int32(-4)); !got.Equal(value.Int32(4)) {
		t.Errorf("abs(-4) = %v, want 4", got)
	}
	if got := call(t, r, "power", value.Int32(2), value.Int32(10)); !got.Equal(value.Float64(1024)) {
		t.Errorf("power(2, 10) = %v, want 1024", got)
	}
	if got := call(t, r, "min", value.Int32(3), value.Int32(1), value.Int32(2)); !got.Equal(value.Int32(1)) {
		t.Errorf("min(3,1,2) = %v, want 1", got)
	}
	if got := call(t, r, "max", value.Int32(3), value.Int32(1), value.Int32(2)); !got.Equal(value.Int32(3)) {
		t.Errorf("max(3,1,2) = %v, want 3", got)
	}
	if got := call(t, r, "integer", value.Float64(3.7)); !got.Equal(value.Int32(4)) {
		t.Errorf("integer(3.7) = %v, want rounded 4", got)
	}
}

func TestStringBuiltins(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if got := call(t, r, "length", value.String("hello")); !got.Equal(value.Int32(5)) {
		t.Errorf("length(\"hello\") = %v, want 5", got)
	}
	words := call(t, r, "words", value.String("the quick fox"))
	if got := call(t, r, "count", words); !got.Equal(value.Int32(3)) {
		t.Errorf("count(words(...)) = %v, want 3", got)
	}
	items := call(t, r, "items", value.String("a,b,c"))
	if got := call(t, r, "count", items); !got.Equal(value.Int32(3)) {
		t.Errorf("count(items(\"a,b,c\")) = %v, want 3", got)
	}
	if got := call(t, r, "offset", value.String("lo"), value.String("hello")); !got.Equal(value.Int32(4)) {
		t.Errorf("offset(\"lo\", \"hello\") = %v, want 4", got)
	}
	if got := call(t, r, "contains", value.String("hello"), value.String("ell")); !got.Equal(value.Int32(1)) {
		t.Errorf("contains(\"hello\", \"ell\") = %v, want 1", got)
	}
}

func TestListBuiltins(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	l := call(t, r, "list", value.Int32(1), value.Int32(2), value.Int32(3))
	if got := call(t, r, "count", l); !got.Equal(value.Int32(3)) {
		t.Errorf("count(list(1,2,3)) = %v, want 3", got)
	}
	added := call(t, r, "add", l, value.Int32(4))
	if got := call(t, r, "count", added); !got.Equal(value.Int32(4)) {
		t.Errorf("count after add = %v, want 4", got)
	}
	if got := call(t, r, "getAt", l, value.Int32(2)); !got.Equal(value.Int32(2)) {
		t.Errorf("getAt(l, 2) = %v, want 2", got)
	}
	if got := call(t, r, "findPos", l, value.Int32(3)); !got.Equal(value.Int32(3)) {
		t.Errorf("findPos(l, 3) = %v, want 3", got)
	}
	// count(l) must remain 3: add returns a new list, never mutates l.
	if got := call(t, r, "count", l); !got.Equal(value.Int32(3)) {
		t.Errorf("count(l) after add = %v, want unchanged 3", got)
	}
}

func TestSymbolBuiltins(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if got := call(t, r, "symbol", value.String("foo")); !got.Equal(value.Symbol("foo")) {
		t.Errorf("symbol(\"foo\") = %v, want #foo", got)
	}
	if got := call(t, r, "ilk", value.Int32(1)); !got.Equal(value.Symbol("integer")) {
		t.Errorf("ilk(1) = %v, want #integer", got)
	}
	if got := call(t, r, "ilk", value.String("x")); !got.Equal(value.Symbol("string")) {
		t.Errorf("ilk(\"x\") = %v, want #string", got)
	}
}

func TestMemberBuiltinsWithNoCastLibs(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if got := call(t, r, "findEmpty", value.Int32(1)); !got.Equal(value.Int32(0)) {
		t.Errorf("findEmpty on a cast library that doesn't exist should yield 0, got %v", got)
	}
}

func TestNilCollaboratorsDegradeSafely(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	if got := call(t, r, "sprite", value.Int32(1)); got.Kind() != value.KindVoid {
		t.Errorf("sprite() with no ScoreController should be Void, got %v", got)
	}
	if got := call(t, r, "preloadNetThing", value.String("http://example.com")); !got.Equal(value.Int32(0)) {
		t.Errorf("preloadNetThing with no NetFetcher should be 0, got %v", got)
	}
	if got := call(t, r, "timeoutList"); got.Kind() != value.KindList {
		t.Errorf("timeoutList with no TimeoutController should still be a List, got %v", got)
	}
	call(t, r, "timeoutNew", value.String("tick"), value.Int32(1000), value.String("onTick"))
	call(t, r, "timeoutForget", value.String("tick"))
}

func TestHasReportsRegisteredNames(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	if !r.Has("ABS") {
		t.Error("Has should be case-insensitive")
	}
	if r.Has("notARealBuiltin") {
		t.Error("Has should report false for an unregistered name")
	}
}
