// Package value implements the VM's universal tagged value type and its
// kind enumeration (spec.md §3 Data Model).
package value

import "fmt"

// Kind identifies which variant a Value holds. The set is exhaustive per
// the Data Model: every Value implementation maps to exactly one Kind.
type Kind int

const (
	KindVoid Kind = iota
	KindInt32
	KindFloat64
	KindString
	KindSymbol
	KindList
	KindPropList
	KindPoint
	KindRect
	KindColor
	KindSpriteRef
	KindCastMemberRef
	KindCastLibRef
	KindStageRef
	KindWindowRef
	KindXtraRef
	KindXtraInstance
	KindScriptRef
	KindScriptInstance
	KindArgList
	KindArgListNoRet
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt32:
		return "int32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindList:
		return "list"
	case KindPropList:
		return "propList"
	case KindPoint:
		return "point"
	case KindRect:
		return "rect"
	case KindColor:
		return "color"
	case KindSpriteRef:
		return "spriteRef"
	case KindCastMemberRef:
		return "castMemberRef"
	case KindCastLibRef:
		return "castLibRef"
	case KindStageRef:
		return "stageRef"
	case KindWindowRef:
		return "windowRef"
	case KindXtraRef:
		return "xtraRef"
	case KindXtraInstance:
		return "xtraInstance"
	case KindScriptRef:
		return "scriptRef"
	case KindScriptInstance:
		return "scriptInstance"
	case KindArgList:
		return "argList"
	case KindArgListNoRet:
		return "argListNoRet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the interface every tagged value implements. Implementations
// are immutable except List/PropList/ScriptInstance, whose mutation
// methods are documented on the concrete types.
type Value interface {
	Kind() Kind
	String() string  // Lingo-surface textual form, e.g. for `put`
	Truthy() bool     // used by JMP_IF_ZERO / JMP_IF_NOT_ZERO
	Equal(Value) bool // value equality per spec.md §3 coercion rules
}

// Void is the absence of a value; opcodes push it where a value was
// expected but none was produced (§4.4 "Errors inside the VM").
type Void struct{}

func (Void) Kind() Kind        { return KindVoid }
func (Void) String() string    { return "" }
func (Void) Truthy() bool      { return false }
func (Void) Equal(o Value) bool {
	_, ok := o.(Void)
	return ok
}

// Int32 is a 32-bit signed integer value.
type Int32 int32

func (Int32) Kind() Kind     { return KindInt32 }
func (v Int32) String() string { return fmt.Sprintf("%d", int32(v)) }
func (v Int32) Truthy() bool   { return v != 0 }
func (v Int32) Equal(o Value) bool {
	switch other := o.(type) {
	case Int32:
		return v == other
	case Float64:
		return float64(v) == float64(other)
	default:
		return false
	}
}

// Float64 is a floating-point value.
type Float64 float64

func (Float64) Kind() Kind       { return KindFloat64 }
func (v Float64) String() string { return fmt.Sprintf("%g", float64(v)) }
func (v Float64) Truthy() bool   { return v != 0 }
func (v Float64) Equal(o Value) bool {
	switch other := o.(type) {
	case Float64:
		return v == other
	case Int32:
		return float64(v) == float64(other)
	default:
		return false
	}
}

// String is a Lingo string value.
type String string

func (String) Kind() Kind       { return KindString }
func (v String) String() string { return string(v) }
func (v String) Truthy() bool   { return v != "" }
func (v String) Equal(o Value) bool {
	other, ok := o.(String)
	return ok && v == other
}

// Symbol is an interned atom used as a prop-list key or selector, e.g.
// `#foo`. Equality and the symbol table are case-sensitive at this layer;
// built-ins that need case-insensitive symbol compares normalize first.
type Symbol string

func (Symbol) Kind() Kind       { return KindSymbol }
func (v Symbol) String() string { return "#" + string(v) }
func (v Symbol) Truthy() bool   { return true }
func (v Symbol) Equal(o Value) bool {
	other, ok := o.(Symbol)
	return ok && v == other
}

// Point is a 2D coordinate pair.
type Point struct{ X, Y int32 }

func (Point) Kind() Kind     { return KindPoint }
func (p Point) String() string { return fmt.Sprintf("point(%d, %d)", p.X, p.Y) }
func (Point) Truthy() bool   { return true }
func (p Point) Equal(o Value) bool {
	other, ok := o.(Point)
	return ok && p == other
}

// Rect is a left/top/right/bottom rectangle.
type Rect struct{ Left, Top, Right, Bottom int32 }

func (Rect) Kind() Kind { return KindRect }
func (r Rect) String() string {
	return fmt.Sprintf("rect(%d, %d, %d, %d)", r.Left, r.Top, r.Right, r.Bottom)
}
func (Rect) Truthy() bool { return true }
func (r Rect) Equal(o Value) bool {
	other, ok := o.(Rect)
	return ok && r == other
}

// Color is an RGB triplet.
type Color struct{ R, G, B uint8 }

func (Color) Kind() Kind { return KindColor }
func (c Color) String() string {
	return fmt.Sprintf("color(%d, %d, %d)", c.R, c.G, c.B)
}
func (Color) Truthy() bool { return true }
func (c Color) Equal(o Value) bool {
	other, ok := o.(Color)
	return ok && c == other
}

// SpriteRef names a score channel, e.g. `sprite(3)`.
type SpriteRef struct{ Channel int32 }

func (SpriteRef) Kind() Kind        { return KindSpriteRef }
func (s SpriteRef) String() string  { return fmt.Sprintf("(sprite %d)", s.Channel) }
func (SpriteRef) Truthy() bool      { return true }
func (s SpriteRef) Equal(o Value) bool {
	other, ok := o.(SpriteRef)
	return ok && s == other
}

// CastMemberRef names a member by (castLib, member number).
type CastMemberRef struct {
	CastLib uint16
	Member  uint16
}

func (CastMemberRef) Kind() Kind { return KindCastMemberRef }
func (c CastMemberRef) String() string {
	return fmt.Sprintf("(member %d of castLib %d)", c.Member, c.CastLib)
}
func (CastMemberRef) Truthy() bool { return true }
func (c CastMemberRef) Equal(o Value) bool {
	other, ok := o.(CastMemberRef)
	return ok && c == other
}

// CastLibRef names a cast library by number.
type CastLibRef struct{ Number uint16 }

func (CastLibRef) Kind() Kind       { return KindCastLibRef }
func (c CastLibRef) String() string { return fmt.Sprintf("(castLib %d)", c.Number) }
func (CastLibRef) Truthy() bool     { return true }
func (c CastLibRef) Equal(o Value) bool {
	other, ok := o.(CastLibRef)
	return ok && c == other
}

// StageRef is the singleton handle for `the stage`.
type StageRef struct{}

func (StageRef) Kind() Kind       { return KindStageRef }
func (StageRef) String() string   { return "(the stage)" }
func (StageRef) Truthy() bool     { return true }
func (StageRef) Equal(o Value) bool {
	_, ok := o.(StageRef)
	return ok
}

// WindowRef names a MIAW (movie-in-a-window) by name.
type WindowRef struct{ Name string }

func (WindowRef) Kind() Kind       { return KindWindowRef }
func (w WindowRef) String() string { return fmt.Sprintf("(window %q)", w.Name) }
func (WindowRef) Truthy() bool     { return true }
func (w WindowRef) Equal(o Value) bool {
	other, ok := o.(WindowRef)
	return ok && w == other
}

// XtraRef names an Xtra (plugin) class by name.
type XtraRef struct{ Name string }

func (XtraRef) Kind() Kind       { return KindXtraRef }
func (x XtraRef) String() string { return fmt.Sprintf("(xtra %q)", x.Name) }
func (XtraRef) Truthy() bool     { return true }
func (x XtraRef) Equal(o Value) bool {
	other, ok := o.(XtraRef)
	return ok && x == other
}

// XtraInstance is a live instance of an Xtra class.
type XtraInstance struct {
	Name string
	ID   int64
}

func (XtraInstance) Kind() Kind { return KindXtraInstance }
func (x XtraInstance) String() string {
	return fmt.Sprintf("(instance %d of xtra %q)", x.ID, x.Name)
}
func (XtraInstance) Truthy() bool { return true }
func (x XtraInstance) Equal(o Value) bool {
	other, ok := o.(XtraInstance)
	return ok && x == other
}

// ScriptRef names a script by its owning (castLib, member).
type ScriptRef struct {
	CastLib uint16
	Member  uint16
}

func (ScriptRef) Kind() Kind { return KindScriptRef }
func (s ScriptRef) String() string {
	return fmt.Sprintf("(script %d of castLib %d)", s.Member, s.CastLib)
}
func (ScriptRef) Truthy() bool { return true }
func (s ScriptRef) Equal(o Value) bool {
	other, ok := o.(ScriptRef)
	return ok && s == other
}
