package value

import "strings"

// propEntry is a single prop-list slot, keeping the original-cased key
// alongside its normalized form for case-insensitive surface lookups.
type propEntry struct {
	key      Symbol
	normKey  string
	val      Value
}

// PropList is an ordered key→value map with Symbol keys and
// insertion-order iteration (spec.md §3). Lookup by string at the
// language surface is case-insensitive; iteration and Count reflect
// insertion order with no reordering on update, per the "Prop-list order"
// testable property in spec.md §8.
//
// Like List, PropList is copy-on-write: every mutating method returns a
// new PropList and leaves the receiver untouched.
type PropList struct {
	entries []propEntry
}

// NewPropList builds an empty prop-list.
func NewPropList() PropList {
	return PropList{}
}

func (PropList) Kind() Kind { return KindPropList }

func (p PropList) String() string {
	if len(p.entries) == 0 {
		return "[:]"
	}
	parts := make([]string, len(p.entries))
	for i, e := range p.entries {
		parts[i] = e.key.String() + ": " + e.val.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (p PropList) Truthy() bool { return len(p.entries) > 0 }

func (p PropList) Equal(o Value) bool {
	other, ok := o.(PropList)
	if !ok || len(p.entries) != len(other.entries) {
		return false
	}
	for i := range p.entries {
		if p.entries[i].key != other.entries[i].key || !p.entries[i].val.Equal(other.entries[i].val) {
			return false
		}
	}
	return true
}

// Count returns the number of key/value pairs.
func (p PropList) Count() int { return len(p.entries) }

func normalize(k string) string { return strings.ToLower(k) }

// Get looks up a key by its normalized (case-insensitive) string form.
// Returns Void and false if absent.
func (p PropList) Get(key string) (Value, bool) {
	norm := normalize(key)
	for _, e := range p.entries {
		if e.normKey == norm {
			return e.val, true
		}
	}
	return Void{}, false
}

// Set returns a new PropList with key bound to val. If key already exists
// (case-insensitively), its value is replaced in place — insertion order
// is preserved, matching "iteration order equals insertion order across
// any number of inserts not preceded by a delete of the same key."
func (p PropList) Set(key Symbol, val Value) PropList {
	norm := normalize(string(key))
	next := make([]propEntry, len(p.entries))
	copy(next, p.entries)
	for i, e := range next {
		if e.normKey == norm {
			next[i].val = val
			return PropList{entries: next}
		}
	}
	next = append(next, propEntry{key: key, normKey: norm, val: val})
	return PropList{entries: next}
}

// Delete returns a new PropList with key removed, if present.
func (p PropList) Delete(key string) PropList {
	norm := normalize(key)
	next := make([]propEntry, 0, len(p.entries))
	for _, e := range p.entries {
		if e.normKey != norm {
			next = append(next, e)
		}
	}
	return PropList{entries: next}
}

// Keys returns the symbol keys in insertion order.
func (p PropList) Keys() []Symbol {
	keys := make([]Symbol, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.key
	}
	return keys
}

// Pairs returns (key, value) pairs in insertion order, for builtins that
// iterate the whole prop-list (e.g. `getPropAt`, JSON export).
func (p PropList) Pairs() []struct {
	Key Symbol
	Val Value
} {
	out := make([]struct {
		Key Symbol
		Val Value
	}, len(p.entries))
	for i, e := range p.entries {
		out[i] = struct {
			Key Symbol
			Val Value
		}{Key: e.key, Val: e.val}
	}
	return out
}

// GetAt returns the 1-indexed entry's (key, value), used by
// `getPropAt`/`getAt` on a prop-list.
func (p PropList) GetAt(i int) (Symbol, Value, bool) {
	if i < 1 || i > len(p.entries) {
		return "", Void{}, false
	}
	e := p.entries[i-1]
	return e.key, e.val, true
}
