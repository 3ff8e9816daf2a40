package value

import "fmt"

// reservedAncestor is the normalized property key used for ancestor-chain
// dispatch (spec.md §3 "#ancestor"). reservedScriptRef carries the
// instance's origin (castLib, member) for handler re-lookup.
const (
	reservedAncestor  = "ancestor"
	reservedScriptRef = "scriptref"
)

// instanceCounter hands out monotonically increasing script-instance ids
// within a process. The VM core holds the authoritative instance store;
// this counter only needs to be unique, not contiguous or persisted
// (spec.md §6 "Persisted state: None in the core").
var instanceCounter int64

// NextScriptID returns a fresh, process-unique script-instance id.
func NextScriptID() int64 {
	instanceCounter++
	return instanceCounter
}

// ScriptInstance is a live object-instance created by `new(...)`. Its
// Properties map is copy-on-write like List/PropList: SetProperty returns
// a new ScriptInstance value, so two Value references to "the same"
// instance must in practice share a *Handle — see the vm package's
// instance table, which is the source of truth for object identity.
// ScriptInstance here is the lightweight value seen on the operand stack;
// identity equality is by ScriptID, not by deep property comparison.
type ScriptInstance struct {
	ScriptID   int64
	Properties PropList
}

// NewScriptInstance creates an instance value bound to a fresh id with an
// empty property set.
func NewScriptInstance(scriptID int64) ScriptInstance {
	return ScriptInstance{ScriptID: scriptID, Properties: NewPropList()}
}

func (ScriptInstance) Kind() Kind { return KindScriptInstance }

func (s ScriptInstance) String() string {
	return fmt.Sprintf("(instance %d)", s.ScriptID)
}

func (ScriptInstance) Truthy() bool { return true }

// Equal compares script instances by identity (ScriptID), matching the
// language surface's `x == y` for objects: two instances are equal only
// if they are literally the same instance, never by property comparison.
func (s ScriptInstance) Equal(o Value) bool {
	other, ok := o.(ScriptInstance)
	return ok && s.ScriptID == other.ScriptID
}

// SetProperty returns a new ScriptInstance with key bound to val.
func (s ScriptInstance) SetProperty(key Symbol, val Value) ScriptInstance {
	return ScriptInstance{ScriptID: s.ScriptID, Properties: s.Properties.Set(key, val)}
}

// GetProperty returns the property's value, or Void if absent — GET_PROP
// on a script-instance never errors (spec.md §4.4 "Property access
// semantics").
func (s ScriptInstance) GetProperty(key string) Value {
	v, ok := s.Properties.Get(key)
	if !ok {
		return Void{}
	}
	return v
}

// Ancestor returns the instance's #ancestor property, if it is itself a
// ScriptInstance, and whether one was found at all.
func (s ScriptInstance) Ancestor() (ScriptInstance, bool) {
	v, ok := s.Properties.Get(reservedAncestor)
	if !ok {
		return ScriptInstance{}, false
	}
	anc, ok := v.(ScriptInstance)
	return anc, ok
}

// WithAncestor returns a new instance with #ancestor bound to anc.
func (s ScriptInstance) WithAncestor(anc ScriptInstance) ScriptInstance {
	return s.SetProperty(Symbol(reservedAncestor), anc)
}

// ScriptRefOf returns the instance's #scriptRef property if set.
func (s ScriptInstance) ScriptRefOf() (ScriptRef, bool) {
	v, ok := s.Properties.Get(reservedScriptRef)
	if !ok {
		return ScriptRef{}, false
	}
	ref, ok := v.(ScriptRef)
	return ref, ok
}

// WithScriptRef returns a new instance with #scriptRef bound to ref.
func (s ScriptInstance) WithScriptRef(ref ScriptRef) ScriptInstance {
	return s.SetProperty(Symbol(reservedScriptRef), ref)
}
