package script

import "strings"

// NameTable is the ordered, 0-indexed list of strings a cast library's
// scripts share; opcodes and handler fields reference entries by index
// (spec.md §3 "NameTable").
type NameTable struct {
	names []string
}

// NewNameTable builds a NameTable from a decoded name list.
func NewNameTable(names []string) NameTable {
	cp := make([]string, len(names))
	copy(cp, names)
	return NameTable{names: cp}
}

// Len returns the number of names in the table.
func (t NameTable) Len() int { return len(t.names) }

// Name resolves a name id to its string, or "" with ok=false if out of
// range.
func (t NameTable) Name(id uint16) (string, bool) {
	if int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Names returns the underlying slice; callers must not mutate it.
func (t NameTable) Names() []string { return t.names }

// Find returns the id of name (case-insensitive), or -1 if absent.
func (t NameTable) Find(name string) int {
	for i, n := range t.names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}
