// Package castlib implements the cast-library manager of spec.md §4.3:
// member/handler resolution across one internal and N external cast
// libraries, and the external-cast async fetch/parse/install lifecycle.
package castlib

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/vmerr"
)

// HandlerLocation is the result of a successful find_handler search: the
// cast library and script that own the handler, plus the name table
// needed to resolve the handler's own name id.
type HandlerLocation struct {
	CastLib uint16
	Script  uint32
	Handler script.Handler
	Names   script.NameTable
}

// Listener is invoked once an external cast finishes installing
// (Parsed → Loaded), per spec.md §4.3 "listeners notified."
type Listener func(*CastLib)

// Manager owns every cast library declared by a movie: the internal cast
// plus any external casts, resolving members and handlers across them in
// cast-number order. Grounded on the teacher's db/store.go RWMutex-guarded
// map-of-records shape and task/manager.go's singleton-manager-of-stateful-
// records shape, generalized from "one map" to "map + name index +
// listeners."
type Manager struct {
	mu        sync.RWMutex
	libs      map[uint16]*CastLib
	byName    map[string]uint16
	fetcher   Fetcher
	sf        singleflight.Group
	listeners []Listener
}

// NewManager creates an empty Manager. fetcher may be nil if the movie
// declares no external casts.
func NewManager(fetcher Fetcher) *Manager {
	return &Manager{
		libs:    make(map[uint16]*CastLib),
		byName:  make(map[string]uint16),
		fetcher: fetcher,
	}
}

// LoadMovie parses a movie's own container bytes, installs cast library 1
// (the internal cast) as already Loaded, and declares every external cast
// named in the movie's cast list as Declared, returning the parsed cast
// list for the caller's own bookkeeping (e.g. the runtime's Movie).
func (m *Manager) LoadMovie(data []byte) (chunks.CastList, error) {
	parsed, err := ParseCastBundle(data)
	if err != nil {
		return chunks.CastList{}, err
	}

	internalName := "Internal"
	if len(parsed.CastList.Entries) > 0 {
		internalName = parsed.CastList.Entries[0].Name
	}
	internal := newCastLib(1, internalName, false, "", 0)
	internal.installParsed(parsed.NameTable, parsed.Members, parsed.Scripts)
	m.register(internal)

	for i, entry := range parsed.CastList.Entries {
		if i == 0 {
			continue // entry 0 is the internal cast, already installed above
		}
		number := uint16(i + 1)
		ext := newCastLib(number, entry.Name, true, entry.Path, entry.PreloadSetting)
		m.register(ext)
	}

	return parsed.CastList, nil
}

func (m *Manager) register(lib *CastLib) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.libs[lib.Number()] = lib
	if lib.Name() != "" {
		m.byName[strings.ToLower(lib.Name())] = lib.Number()
	}
}

// AddListener registers a callback invoked whenever an external cast
// finishes loading.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) notify(lib *CastLib) {
	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.RUnlock()
	for _, l := range listeners {
		l(lib)
	}
}

// CastLibByNumber implements castlib_by_number.
func (m *Manager) CastLibByNumber(n uint16) (*CastLib, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lib, ok := m.libs[n]
	return lib, ok
}

// CastLibByName implements castlib_by_name, case-insensitively.
func (m *Manager) CastLibByName(name string) (*CastLib, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return m.libs[n], true
}

// Member implements member(castLib, n).
func (m *Manager) Member(castLib uint16, number uint16) (chunks.CastMember, bool) {
	lib, ok := m.CastLibByNumber(castLib)
	if !ok {
		return chunks.CastMember{}, false
	}
	return lib.Member(number)
}

// MemberByName implements member_by_name(castLib, s).
func (m *Manager) MemberByName(castLib uint16, name string) (chunks.CastMember, bool) {
	lib, ok := m.CastLibByNumber(castLib)
	if !ok {
		return chunks.CastMember{}, false
	}
	return lib.MemberByName(name)
}

// orderedLibs returns every registered cast library in ascending cast-
// number order — the search order find_handler uses.
func (m *Manager) orderedLibs() []*CastLib {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*CastLib, 0, len(m.libs))
	for _, lib := range m.libs {
		out = append(out, lib)
	}
	sortCastLibs(out)
	return out
}

func sortCastLibs(libs []*CastLib) {
	sort.Slice(libs, func(i, j int) bool { return libs[i].Number() < libs[j].Number() })
}

// FindHandler implements find_handler(name): cast order, then script
// order within a cast, first match wins, case-insensitive.
func (m *Manager) FindHandler(name string) (HandlerLocation, bool) {
	for _, lib := range m.orderedLibs() {
		names := lib.NameTable()
		for _, s := range lib.Scripts() {
			if h, ok := s.HandlerNamed(names, name); ok {
				return HandlerLocation{CastLib: lib.Number(), Script: s.ID, Handler: h, Names: names}, true
			}
		}
	}
	return HandlerLocation{}, false
}

// FindHandlerInScript implements find_handler_in_script(script_id, name):
// direct lookup, scanning every registered library for the owning script.
func (m *Manager) FindHandlerInScript(scriptID uint32, name string) (HandlerLocation, bool) {
	for _, lib := range m.orderedLibs() {
		s, ok := lib.ScriptByID(scriptID)
		if !ok {
			continue
		}
		names := lib.NameTable()
		if h, ok := s.HandlerNamed(names, name); ok {
			return HandlerLocation{CastLib: lib.Number(), Script: s.ID, Handler: h, Names: names}, true
		}
		return HandlerLocation{}, false
	}
	return HandlerLocation{}, false
}

// FindHandlerInScriptAt implements find_handler_in_script_at(castLib,
// member, name): resolve the member to its backing script, then by name.
func (m *Manager) FindHandlerInScriptAt(castLib uint16, member uint16, name string) (HandlerLocation, bool) {
	lib, ok := m.CastLibByNumber(castLib)
	if !ok {
		return HandlerLocation{}, false
	}
	s, ok := lib.ScriptForMember(member)
	if !ok {
		return HandlerLocation{}, false
	}
	names := lib.NameTable()
	h, ok := s.HandlerNamed(names, name)
	if !ok {
		return HandlerLocation{}, false
	}
	return HandlerLocation{CastLib: lib.Number(), Script: s.ID, Handler: h, Names: names}, true
}

// ScriptByName resolves a parent/behavior script by its owning member's
// name, searching in cast order — used by the VM's NEW opcode to
// instantiate `new(#name)` against a named parent script.
func (m *Manager) ScriptByName(name string) (s script.Script, castLib uint16, member uint16, ok bool) {
	for _, lib := range m.orderedLibs() {
		mem, ok := lib.MemberByName(name)
		if !ok || mem.Kind != chunks.MemberScript {
			continue
		}
		if sc, ok := lib.ScriptByID(mem.ScriptID); ok {
			return sc, lib.Number(), mem.Number, true
		}
	}
	return script.Script{}, 0, 0, false
}

// PreloadAllExternals implements preload_all_externals(): enqueues an
// asynchronous fetch for every external cast whose preload setting is
// not the "when needed" default (0), returning the count enqueued
// without waiting for them to finish.
func (m *Manager) PreloadAllExternals(ctx context.Context) int {
	var pending []*CastLib
	for _, lib := range m.orderedLibs() {
		if lib.IsExternal() && lib.State() == StateDeclared && lib.PreloadMode() != 0 {
			pending = append(pending, lib)
		}
	}
	for _, lib := range pending {
		lib := lib
		go m.fetchAndInstall(ctx, lib)
	}
	return len(pending)
}

// PreloadAndWait fetches and installs the named cast libraries
// concurrently, blocking until all complete and returning the first
// error encountered (if any). Unlike PreloadAllExternals it ignores each
// library's preload setting — the caller is asking explicitly.
func (m *Manager) PreloadAndWait(ctx context.Context, numbers []uint16) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, n := range numbers {
		n := n
		g.Go(func() error {
			lib, ok := m.CastLibByNumber(n)
			if !ok {
				return vmerr.New(vmerr.UnresolvedMember, "no cast library numbered %d", n)
			}
			m.fetchAndInstall(ctx, lib)
			if lib.State() == StateFailed {
				return lib.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchAndInstall drives one external cast through Declared → Fetching →
// Fetched → Parsed → Loaded, or to Failed on error. Concurrent calls for
// the same file name are deduplicated via singleflight so a racing
// PreloadAllExternals and PreloadAndWait fetch the bytes only once.
func (m *Manager) fetchAndInstall(ctx context.Context, lib *CastLib) {
	if m.fetcher == nil {
		lib.fail(vmerr.New(vmerr.NetFailure, "no fetcher configured for external cast %q", lib.FileName()))
		return
	}

	lib.setState(StateFetching)
	result, err, _ := m.sf.Do(lib.FileName(), func() (interface{}, error) {
		return m.fetcher.Fetch(ctx, lib.FileName())
	})
	if err != nil {
		lib.fail(vmerr.New(vmerr.NetFailure, "fetch %q: %v", lib.FileName(), err))
		return
	}
	data := result.([]byte)
	lib.setState(StateFetched)
	lib.setChecksum(blake2b.Sum256(data))

	parsed, err := ParseCastBundle(data)
	if err != nil {
		lib.fail(err)
		return
	}
	lib.setState(StateParsed)
	lib.installParsed(parsed.NameTable, parsed.Members, parsed.Scripts)
	m.notify(lib)
}
