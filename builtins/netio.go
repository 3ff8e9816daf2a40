package builtins

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// NetFetcher is the net-io group's collaborator (spec.md §4.5 "Net I/O
// stubs": "actual fetching is delegated to the external fetcher
// collaborator") — the same narrow shape as castlib.Fetcher, kept as its
// own interface here rather than shared so builtins doesn't need to
// import castlib just to name a type.
type NetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type netTask struct {
	mu   sync.RWMutex
	done bool
	data []byte
	err  error
}

func (t *netTask) finish(data []byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done, t.data, t.err = true, data, err
}

func (t *netTask) snapshot() (done bool, data []byte, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.done, t.data, t.err
}

// netTasks is the net-io group's private task table, keyed by an
// incrementing task id — grounded on the teacher's task.Manager's own
// id-keyed task map (tasks.go), narrowed from MOO's full suspend/resume
// task model to a fire-and-forget fetch/poll pair.
type netTasks struct {
	mu     sync.RWMutex
	nextID int32
	byID   map[int32]*netTask
}

func newNetTasks() *netTasks {
	return &netTasks{byID: make(map[int32]*netTask)}
}

func (nt *netTasks) start(ctx context.Context, fetcher NetFetcher, url string) int32 {
	id := atomic.AddInt32(&nt.nextID, 1)
	t := &netTask{}
	nt.mu.Lock()
	nt.byID[id] = t
	nt.mu.Unlock()

	go func() {
		data, err := fetcher.Fetch(ctx, url)
		t.finish(data, err)
	}()
	return id
}

func (nt *netTasks) get(id int32) (*netTask, bool) {
	nt.mu.RLock()
	defer nt.mu.RUnlock()
	t, ok := nt.byID[id]
	return t, ok
}

// registerNet wires the net I/O stub group: preloadNetThing(url) →
// taskId, netDone(taskId) → int, netError(taskId) → string,
// getNetText(taskId) → string. Each Registry owns its own netTasks table
// (r.netTasks, lazily created) rather than a package-level singleton, so
// two VMs under test don't share task ids.
func (r *Registry) registerNet() {
	r.register("preloadNetThing", func(ctx *vm.Context, args []value.Value) value.Value {
		if r.Net == nil {
			return value.Int32(0)
		}
		url := value.AsString(arg(args, 0))
		id := r.netTasksTable().start(context.Background(), r.Net, url)
		return value.Int32(id)
	})
	r.register("netDone", func(ctx *vm.Context, args []value.Value) value.Value {
		id, _ := value.AsInt32(arg(args, 0))
		t, ok := r.netTasksTable().get(id)
		if !ok {
			return value.Int32(0)
		}
		done, _, _ := t.snapshot()
		return value.Int32(boolInt(done))
	})
	r.register("netError", func(ctx *vm.Context, args []value.Value) value.Value {
		id, _ := value.AsInt32(arg(args, 0))
		t, ok := r.netTasksTable().get(id)
		if !ok {
			return value.String("")
		}
		_, _, err := t.snapshot()
		if err == nil {
			return value.String("")
		}
		return value.String(err.Error())
	})
	r.register("getNetText", func(ctx *vm.Context, args []value.Value) value.Value {
		id, _ := value.AsInt32(arg(args, 0))
		t, ok := r.netTasksTable().get(id)
		if !ok {
			return value.String("")
		}
		done, data, err := t.snapshot()
		if !done || err != nil {
			return value.String("")
		}
		return value.String(string(data))
	})
}

func (r *Registry) netTasksTable() *netTasks {
	r.netTasksOnce.Do(func() { r.netTasks = newNetTasks() })
	return r.netTasks
}
