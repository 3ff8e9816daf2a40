package builtins

import (
	"strings"
	"sync"
	"time"

	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// MovieProperties implements vm.PropertyRouter for the receiver-less
// movie properties spec.md §6 "MoviePropertyProvider" names at minimum:
// itemDelimiter, timer, mouseH/mouseV, lastKey, keyPressed, and the
// stageLeft/Top/Right/Bottom stage-bounds quartet. Grounded on the
// teacher's connectionOptionState pattern in builtins/network.go — a
// package-level mutex-guarded struct exposing setters the surrounding
// host calls, with the VM's own built-ins reading through the same
// struct.
type MovieProperties struct {
	mu sync.RWMutex

	vm          *vm.VM
	mouseH      int32
	mouseV      int32
	lastKey     string
	keyPressed  bool
	timerBase   time.Time
	stageLeft   int32
	stageTop    int32
	stageRight  int32
	stageBottom int32
}

// NewMovieProperties binds a MovieProperties to v, so itemDelimiter reads
// and writes go through the VM's own `the itemDelimiter` state rather
// than a second copy of it.
func NewMovieProperties(v *vm.VM) *MovieProperties {
	return &MovieProperties{vm: v, timerBase: time.Now()}
}

// SetMouse updates the last-known mouse position, called by the
// presenter on pointer-move events.
func (p *MovieProperties) SetMouse(h, v int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mouseH, p.mouseV = h, v
}

// SetLastKey records the most recently pressed key, called by the
// presenter on key-down events.
func (p *MovieProperties) SetLastKey(k string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastKey = k
}

// SetKeyPressed records whether any key is currently held down, called by
// the presenter on key-down/key-up events.
func (p *MovieProperties) SetKeyPressed(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keyPressed = down
}

// SetStageBounds records the stage's rectangle in global coordinates,
// called once by the runtime at load time (the stage size itself comes
// from the movie's own Config chunk and doesn't change at runtime).
func (p *MovieProperties) SetStageBounds(left, top, right, bottom int32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stageLeft, p.stageTop, p.stageRight, p.stageBottom = left, top, right, bottom
}

// GetProperty implements vm.PropertyRouter.
func (p *MovieProperties) GetProperty(receiver value.Value, name string) (value.Value, bool) {
	switch strings.ToLower(name) {
	case "itemdelimiter":
		return value.String(p.vm.ItemDelimiter()), true
	case "mouseh":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.mouseH), true
	case "mousev":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.mouseV), true
	case "lastkey":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.String(p.lastKey), true
	case "keypressed":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(boolInt(p.keyPressed)), true
	case "stageleft":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.stageLeft), true
	case "stagetop":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.stageTop), true
	case "stageright":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.stageRight), true
	case "stagebottom":
		p.mu.RLock()
		defer p.mu.RUnlock()
		return value.Int32(p.stageBottom), true
	case "timer":
		p.mu.RLock()
		base := p.timerBase
		p.mu.RUnlock()
		ticks := time.Since(base) * 60 / time.Second
		return value.Int32(int32(ticks)), true
	default:
		return value.Void{}, false
	}
}

// SetProperty implements vm.PropertyRouter. Only itemDelimiter and timer
// (reset) are meaningfully writable from script code; mouseH/mouseV/
// lastKey are presenter-driven inputs and ignore script writes the same
// way Director itself treats them as read-only from Lingo.
func (p *MovieProperties) SetProperty(receiver value.Value, name string, v value.Value) bool {
	switch strings.ToLower(name) {
	case "itemdelimiter":
		p.vm.SetItemDelimiter(value.AsString(v))
		return true
	case "timer":
		p.mu.Lock()
		p.timerBase = time.Now()
		p.mu.Unlock()
		return true
	default:
		return false
	}
}
