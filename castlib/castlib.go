package castlib

import (
	"sort"
	"strings"
	"sync"

	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/script"
)

// CastLib is one loaded or declared-external cast library (spec.md §3
// "CastLib"). Chunk bytes, name tables, and parsed scripts are immutable
// once installed; a CastLib's own mutex guards only the lifecycle fields
// that change during an external fetch (state, members, scripts).
type CastLib struct {
	mu sync.RWMutex

	number     uint16
	name       string
	isExternal bool
	fileName   string

	preloadMode uint16

	state State
	err   error

	// fetchChecksum is a blake2b-256 fingerprint of the fetched bytes,
	// computed once the fetch completes and exposed via FetchChecksum; it
	// is informational only, not a pass/fail integrity gate — the format
	// carries no expected-hash manifest.
	fetchChecksum [32]byte

	scripts     map[uint32]script.Script
	members     map[uint16]chunks.CastMember
	memberNames map[string]uint16
	nameTable   script.NameTable
}

// newCastLib constructs a CastLib in its initial Declared state. Internal
// casts (isExternal=false) are constructed already Loaded by the loader.
func newCastLib(number uint16, name string, isExternal bool, fileName string, preloadMode uint16) *CastLib {
	return &CastLib{
		number:      number,
		name:        name,
		isExternal:  isExternal,
		fileName:    fileName,
		preloadMode: preloadMode,
		state:       StateDeclared,
		scripts:     make(map[uint32]script.Script),
		members:     make(map[uint16]chunks.CastMember),
		memberNames: make(map[string]uint16),
	}
}

// Number returns the cast library's 1-indexed number (0 is reserved,
// spec.md §6).
func (c *CastLib) Number() uint16 { return c.number }

// Name returns the cast library's declared name.
func (c *CastLib) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// IsExternal reports whether this cast is fetched from a separate file.
func (c *CastLib) IsExternal() bool { return c.isExternal }

// FileName returns the external cast's declared file name/URL, or "" for
// the internal cast.
func (c *CastLib) FileName() string { return c.fileName }

// PreloadMode returns the cast list's preload setting for this library.
func (c *CastLib) PreloadMode() uint16 { return c.preloadMode }

// State returns the current lifecycle state.
func (c *CastLib) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the retained error once State is Failed, else nil.
func (c *CastLib) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// FetchChecksum returns the blake2b-256 fingerprint of the fetched bytes,
// valid once State has reached Fetched or later.
func (c *CastLib) FetchChecksum() [32]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchChecksum
}

// Member resolves a member by its 1-indexed number within this library.
func (c *CastLib) Member(number uint16) (chunks.CastMember, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.members[number]
	return m, ok
}

// MemberByName resolves a member by name, case-insensitively.
func (c *CastLib) MemberByName(name string) (chunks.CastMember, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	number, ok := c.memberNames[normalizeMemberName(name)]
	if !ok {
		return chunks.CastMember{}, false
	}
	return c.members[number], true
}

// ScriptByID resolves a script owned by this library.
func (c *CastLib) ScriptByID(id uint32) (script.Script, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scripts[id]
	return s, ok
}

// Scripts returns the scripts owned by this library, in ascending id
// order — the order find_handler's "script order within a cast" walks.
func (c *CastLib) Scripts() []script.Script {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uint32, 0, len(c.scripts))
	for id := range c.scripts {
		ids = append(ids, id)
	}
	sortUint32s(ids)
	out := make([]script.Script, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.scripts[id])
	}
	return out
}

// NameTable returns the name table shared by this library's scripts.
func (c *CastLib) NameTable() script.NameTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nameTable
}

// ScriptForMember resolves a member number to its backing script, if the
// member is a script-kind member.
func (c *CastLib) ScriptForMember(number uint16) (script.Script, bool) {
	m, ok := c.Member(number)
	if !ok || m.Kind != chunks.MemberScript {
		return script.Script{}, false
	}
	return c.ScriptByID(m.ScriptID)
}

// installParsed installs a fully parsed set of members/scripts/name
// table, transitioning Parsed → Loaded. Readers using Member/Script
// before this call see the library's prior (possibly empty) contents;
// the swap is atomic under the write lock so no reader observes a
// partially-installed map.
func (c *CastLib) installParsed(nameTable script.NameTable, members map[uint16]chunks.CastMember, scripts map[uint32]script.Script) {
	memberNames := make(map[string]uint16, len(members))
	for number, m := range members {
		if m.Name != "" {
			memberNames[normalizeMemberName(m.Name)] = number
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nameTable = nameTable
	c.members = members
	c.memberNames = memberNames
	c.scripts = scripts
	c.state = StateLoaded
}

func (c *CastLib) setChecksum(sum [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchChecksum = sum
}

func (c *CastLib) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *CastLib) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateFailed
	c.err = err
}

func normalizeMemberName(name string) string {
	return strings.ToLower(name)
}

func sortUint32s(ids []uint32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
