package value

import "strings"

// ArgList is a variable-arity argument bundle left on the stack for
// built-ins whose arity is declared variable (spec.md §3, §4.5). A plain
// ArgList signals the caller expects a return value; ArgListNoRet is used
// for fire-and-forget calls (e.g. some sprite/score built-ins).
type ArgList struct {
	Items         []Value
	ExpectsReturn bool
}

func (ArgList) Kind() Kind { return KindArgList }

func (a ArgList) String() string {
	parts := make([]string, len(a.Items))
	for i, v := range a.Items {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (ArgList) Truthy() bool { return true }

func (a ArgList) Equal(o Value) bool {
	other, ok := o.(ArgList)
	if !ok || len(a.Items) != len(other.Items) || a.ExpectsReturn != other.ExpectsReturn {
		return false
	}
	for i := range a.Items {
		if !a.Items[i].Equal(other.Items[i]) {
			return false
		}
	}
	return true
}

// ArgListNoRet is an ArgList whose call site discards any return value.
type ArgListNoRet struct {
	Items []Value
}

func (ArgListNoRet) Kind() Kind { return KindArgListNoRet }

func (a ArgListNoRet) String() string {
	parts := make([]string, len(a.Items))
	for i, v := range a.Items {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (ArgListNoRet) Truthy() bool { return true }

func (a ArgListNoRet) Equal(o Value) bool {
	other, ok := o.(ArgListNoRet)
	if !ok || len(a.Items) != len(other.Items) {
		return false
	}
	for i := range a.Items {
		if !a.Items[i].Equal(other.Items[i]) {
			return false
		}
	}
	return true
}
