// Package timeout implements the timeout manager of spec.md §4.7:
// named periodic callbacks plus a system-event fan-out to every
// registered target, with ancestor-chain handler lookup delegated to
// the VM.
//
// Grounded on the teacher's task/manager.go (an id-keyed map of mutable
// records behind a single mutex, no global sort), narrowed from a
// suspend/resume task scheduler to a flat list of named periodic
// callbacks fired by elapsed-time comparison rather than task
// priority.
package timeout

import (
	"sync"
	"time"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// Timeout is one registered named periodic callback.
type Timeout struct {
	Name        string
	PeriodMs    int32
	HandlerName string
	Target      value.Value
	Persistent  bool
	NextFireMs  int64
}

// Manager is the VM's timeout/system-event collaborator (implements
// builtins.TimeoutController). State is an ordered list of Timeout
// records keyed by insertion order, not sorted by fire time, matching
// spec.md §4.7's explicit "not sorted by time" — the list is short
// enough in practice that a linear scan per tick is the simpler and
// more literal implementation of the stated model.
type Manager struct {
	mu    sync.Mutex
	order []string
	byName map[string]*Timeout

	vm  *vm.VM
	now func() time.Time
}

// NewManager builds an empty Manager bound to v for handler dispatch.
func NewManager(v *vm.VM) *Manager {
	return &Manager{
		byName: make(map[string]*Timeout),
		vm:     v,
		now:    time.Now,
	}
}

// nowMs returns the current time in milliseconds via the Manager's
// clock (overridable in tests).
func (m *Manager) nowMs() int64 {
	return m.now().UnixMilli()
}

// NewTimeout implements `timeout("name").new(period, #handler, target,
// persistent?)`: creates the named timeout if absent, preserving its
// position in insertion order, or replaces its fields in place if a
// timeout by that name already exists (same position, fresh
// next-fire deadline).
func (m *Manager) NewTimeout(name string, periodMs int32, handlerName string, target value.Value, persistent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, exists := m.byName[name]
	if !exists {
		t = &Timeout{Name: name}
		m.byName[name] = t
		m.order = append(m.order, name)
	}
	t.PeriodMs = periodMs
	t.HandlerName = handlerName
	t.Target = target
	t.Persistent = persistent
	t.NextFireMs = m.nowMs() + int64(periodMs)
}

// ForgetTimeout implements `timeout("name").forget()`. Forgetting an
// unknown name is a no-op.
func (m *Manager) ForgetTimeout(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[name]; !ok {
		return
	}
	delete(m.byName, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// TimeoutNames implements `the timeoutList`, in insertion order.
func (m *Manager) TimeoutNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// snapshot returns the currently registered timeouts, in insertion
// order, as a defensive copy — both Tick and DispatchSystemEvent iterate
// this rather than the live map/slice, so a timeout created or removed
// from inside a fired handler takes effect only on the next call
// (spec.md §4.7 "Invariants").
func (m *Manager) snapshot() []*Timeout {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Timeout, 0, len(m.order))
	for _, n := range m.order {
		if t, ok := m.byName[n]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// Tick fires every timeout whose deadline has passed: invokes
// HandlerName on Target with a single argument (the timeout's own
// name), then reschedules NextFireMs = now + PeriodMs. Drift is
// allowed and catch-up is not enforced — a timeout that missed several
// periods while the movie was busy fires once, not once per missed
// period, per spec.md §9's no-catch-up decision.
func (m *Manager) Tick() {
	now := m.nowMs()
	for _, t := range m.snapshot() {
		if t.NextFireMs > now {
			continue
		}
		m.invoke(t.Target, t.HandlerName, []value.Value{value.String(t.Name)})
		m.reschedule(t.Name, now+int64(t.PeriodMs))
	}
}

func (m *Manager) reschedule(name string, nextFireMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.byName[name]; ok {
		t.NextFireMs = nextFireMs
	}
}

// DispatchSystemEvent implements dispatch_system_event(event_name):
// for every registered timeout whose target is a script-instance,
// resolve eventName on it (or its ancestor chain) and invoke with no
// arguments if found, silently skipping otherwise. Non-instance targets
// are skipped entirely, per spec.md §4.7.
func (m *Manager) DispatchSystemEvent(eventName string) {
	for _, t := range m.snapshot() {
		inst, ok := t.Target.(value.ScriptInstance)
		if !ok {
			continue
		}
		m.vm.Send(inst, eventName, nil)
	}
}

// invoke dispatches handlerName on target: a script-instance target
// walks the VM's ancestor-chain resolution; any other target (e.g. the
// movie itself, represented as Void) falls back to a movie-script
// handler search. A handler missing everywhere is silently skipped,
// matching spec.md §4.7's "if the handler is missing... silently skip."
func (m *Manager) invoke(target value.Value, handlerName string, args []value.Value) {
	if inst, ok := target.(value.ScriptInstance); ok {
		m.vm.Send(inst, handlerName, args)
		return
	}
	m.vm.CallMovieHandler(handlerName, args)
}
