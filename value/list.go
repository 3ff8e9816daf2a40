package value

import "strings"

// List is an ordered, 1-indexed sequence (spec.md §3). All mutating
// methods are copy-on-write, mirroring the teacher's MooList discipline:
// a handler holding a reference to an old List never observes a mutation
// made through a different reference.
type List struct {
	elements []Value
}

// NewList builds a List from elements already in surface order (elements[0]
// is "item 1 of").
func NewList(elements []Value) List {
	return List{elements: elements}
}

func (List) Kind() Kind { return KindList }

func (l List) String() string {
	if len(l.elements) == 0 {
		return "[]"
	}
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l List) Truthy() bool { return len(l.elements) > 0 }

func (l List) Equal(o Value) bool {
	other, ok := o.(List)
	if !ok || len(l.elements) != len(other.elements) {
		return false
	}
	for i := range l.elements {
		if !l.elements[i].Equal(other.elements[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of elements.
func (l List) Len() int { return len(l.elements) }

// GetAt returns the element at 1-indexed position i, or Void if i is out
// of range (spec.md §8 "List indexing" property).
func (l List) GetAt(i int) Value {
	if i < 1 || i > len(l.elements) {
		return Void{}
	}
	return l.elements[i-1]
}

// SetAt returns a new List with position i (1-indexed) replaced. Out of
// range i returns l unchanged.
func (l List) SetAt(i int, v Value) List {
	if i < 1 || i > len(l.elements) {
		return l
	}
	next := make([]Value, len(l.elements))
	copy(next, l.elements)
	next[i-1] = v
	return List{elements: next}
}

// Append returns a new List with v appended.
func (l List) Append(v Value) List {
	next := make([]Value, len(l.elements)+1)
	copy(next, l.elements)
	next[len(l.elements)] = v
	return List{elements: next}
}

// InsertAt returns a new List with v inserted before 1-indexed position i.
// i is clamped to [1, len+1].
func (l List) InsertAt(i int, v Value) List {
	if i < 1 {
		i = 1
	}
	if i > len(l.elements)+1 {
		i = len(l.elements) + 1
	}
	next := make([]Value, len(l.elements)+1)
	copy(next[:i-1], l.elements[:i-1])
	next[i-1] = v
	copy(next[i:], l.elements[i-1:])
	return List{elements: next}
}

// DeleteAt returns a new List with the 1-indexed position i removed. Out
// of range i returns l unchanged.
func (l List) DeleteAt(i int) List {
	if i < 1 || i > len(l.elements) {
		return l
	}
	next := make([]Value, 0, len(l.elements)-1)
	next = append(next, l.elements[:i-1]...)
	next = append(next, l.elements[i:]...)
	return List{elements: next}
}

// Slice returns the 1-indexed inclusive range [start, end] as a new List,
// clamped to bounds (used by `item M to N of`).
func (l List) Slice(start, end int) List {
	if start < 1 {
		start = 1
	}
	if end > len(l.elements) {
		end = len(l.elements)
	}
	if start > end {
		return List{elements: []Value{}}
	}
	next := make([]Value, end-start+1)
	copy(next, l.elements[start-1:end])
	return List{elements: next}
}

// Elements exposes the underlying slice for iteration by built-ins; the
// caller must not mutate it in place.
func (l List) Elements() []Value { return l.elements }

// FindPos returns the 1-indexed position of the first element Equal to v,
// or 0 if not found (matches the `findPos`/`getOne` built-ins' contract).
func (l List) FindPos(v Value) int {
	for i, e := range l.elements {
		if e.Equal(v) {
			return i + 1
		}
	}
	return 0
}
