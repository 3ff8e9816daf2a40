package script

import (
	"strings"

	"github.com/quackster/libreshockwave/value"
)

// Kind distinguishes the four script roles named in spec.md §3.
type Kind int

const (
	KindMovie Kind = iota
	KindBehavior
	KindParent
	KindScore
)

func (k Kind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindBehavior:
		return "behavior"
	case KindParent:
		return "parent"
	case KindScore:
		return "score"
	default:
		return "unknown"
	}
}

// Script is a fully parsed script body (spec.md §3 "Script").
type Script struct {
	ID              uint32
	Kind            Kind
	Handlers        []Handler
	Literals        []value.Value
	PropertyNameIDs []uint16
	GlobalNameIDs   []uint16
	OwningCastLib   uint16
	RawBytecode     []byte
}

// HandlerNamed returns the handler whose name (resolved through names)
// matches name case-insensitively, and whether one was found.
func (s Script) HandlerNamed(names NameTable, name string) (Handler, bool) {
	for _, h := range s.Handlers {
		hn, ok := names.Name(h.NameID)
		if ok && strings.EqualFold(hn, name) {
			return h, true
		}
	}
	return Handler{}, false
}
