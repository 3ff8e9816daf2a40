package castlib

import "fmt"

// State is the external-cast lifecycle state machine of spec.md §4.3:
// Declared → Fetching → Fetched → Parsed → Loaded, with a terminal
// Failed reachable from any state.
type State int

const (
	StateDeclared State = iota
	StateFetching
	StateFetched
	StateParsed
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDeclared:
		return "declared"
	case StateFetching:
		return "fetching"
	case StateFetched:
		return "fetched"
	case StateParsed:
		return "parsed"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
