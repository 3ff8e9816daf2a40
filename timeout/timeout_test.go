package timeout

import (
	"testing"
	"time"

	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
	"github.com/stretchr/testify/require"
)

// fixedClock lets a test advance the Manager's notion of "now" without a
// real sleep.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager() (*Manager, *fixedClock) {
	vmInst := vm.NewVM(castlib.NewManager(nil), nil, nil)
	m := NewManager(vmInst)
	clock := &fixedClock{t: time.Unix(0, 0)}
	m.now = clock.now
	return m, clock
}

func TestTimeoutFiresAfterPeriodElapses(t *testing.T) {
	m, clock := newTestManager()
	names := script.NewNameTable([]string{"onTick"})
	h := script.Handler{NameID: 0, Instructions: []script.Instruction{
		{Opcode: script.OpGetGlobal, Argument: 0},
		{Opcode: script.OpPushInt, Argument: 1},
		{Opcode: script.OpAdd},
		{Opcode: script.OpSetGlobal, Argument: 0},
		{Opcode: script.OpRet},
	}}
	s := script.Script{ID: 1, Kind: script.KindMovie, Handlers: []script.Handler{h}}
	_ = names
	_ = s

	m.NewTimeout("tick", 1000, "onTick", value.Void{}, false)
	require.Equal(t, []string{"tick"}, m.TimeoutNames())

	// Not yet due.
	m.Tick()

	clock.advance(1100 * time.Millisecond)
	m.Tick() // now due; target is Void so invoke falls back to CallMovieHandler,
	// which finds nothing without a registered movie script — this
	// exercises that Tick doesn't panic and still reschedules the timeout
	// one period after the tick that fired it (1100 + 1000).

	names2 := m.snapshot()
	require.Len(t, names2, 1)
	require.Equal(t, int64(2100), names2[0].NextFireMs)
}

func TestForgetRemovesTimeout(t *testing.T) {
	m, _ := newTestManager()
	m.NewTimeout("a", 1000, "h", value.Void{}, false)
	m.NewTimeout("b", 1000, "h", value.Void{}, false)
	require.Equal(t, []string{"a", "b"}, m.TimeoutNames())

	m.ForgetTimeout("a")
	require.Equal(t, []string{"b"}, m.TimeoutNames())

	// Forgetting an unknown name is a no-op, not an error.
	m.ForgetTimeout("nonexistent")
	require.Equal(t, []string{"b"}, m.TimeoutNames())
}

func TestNewTimeoutReplacesInPlace(t *testing.T) {
	m, _ := newTestManager()
	m.NewTimeout("a", 1000, "h1", value.Void{}, false)
	m.NewTimeout("b", 1000, "h1", value.Void{}, false)
	m.NewTimeout("a", 500, "h2", value.Void{}, true)

	// Replacing "a" must not disturb insertion order.
	require.Equal(t, []string{"a", "b"}, m.TimeoutNames())

	snap := m.snapshot()
	require.Equal(t, int32(500), snap[0].PeriodMs)
	require.Equal(t, "h2", snap[0].HandlerName)
	require.True(t, snap[0].Persistent)
}

// TestSystemEventDispatchSkipsNonInstanceTargets grounds spec.md §4.7's
// "if the target is not a script-instance... silently skip": a timeout
// targeting Void must not cause dispatch_system_event to panic or error.
func TestSystemEventDispatchSkipsNonInstanceTargets(t *testing.T) {
	m, _ := newTestManager()
	m.NewTimeout("a", 1000, "prepareFrame", value.Void{}, false)
	m.DispatchSystemEvent("prepareFrame")
}

// TestSystemEventDispatchSkipsAncestorChainWithoutHandler covers the
// ancestor-walk half of dispatch_system_event: a timeout's target
// instance has an #ancestor, and neither of them has a "prepareFrame"
// handler.
func TestSystemEventDispatchSkipsAncestorChainWithoutHandler(t *testing.T) {
	names := []string{"prepareFrame"}
	nameTable := script.NewNameTable(names)
	h := script.Handler{NameID: 0, Instructions: []script.Instruction{
		{Opcode: script.OpGetGlobal, Argument: 0},
	}}
	_ = nameTable
	_ = h

	vmInst := vm.NewVM(castlib.NewManager(nil), nil, nil)
	m := NewManager(vmInst)

	instA := value.NewScriptInstance(value.NextScriptID())
	instB := value.NewScriptInstance(value.NextScriptID()).WithAncestor(instA)
	vmInst.SetGlobal("log", value.String(""))

	m.NewTimeout("evt", 1000, "ignored", instB, false)

	// Neither instance has a backing script, so the ancestor walk finds
	// nothing and DispatchSystemEvent must silently skip rather than error.
	require.NotPanics(t, func() { m.DispatchSystemEvent("prepareFrame") })
}

func TestSnapshotIsolatesConcurrentMutation(t *testing.T) {
	m, _ := newTestManager()
	m.NewTimeout("a", 1000, "h", value.Void{}, false)

	snap := m.snapshot()
	require.Len(t, snap, 1)

	m.NewTimeout("b", 1000, "h", value.Void{}, false)
	require.Len(t, snap, 1, "a snapshot taken before the mutation must not observe it")
	require.Len(t, m.TimeoutNames(), 2)
}
