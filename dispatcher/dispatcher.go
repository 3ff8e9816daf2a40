// Package dispatcher implements the score-driven frame dispatcher of
// spec.md §4.6: current-frame tracking, the ordered per-tick frame
// event fan-out, tempo-paced advance with "go to" overrides, and
// BEGIN_SPRITE/END_SPRITE channel-activation deltas.
//
// Grounded on the teacher's server/scheduler.go tick-loop shape (a
// ticker-driven `run` goroutine dispatching queued work each tick),
// narrowed here from "drain an input queue, then run ready tasks" to
// "fire the frame's fixed event sequence, then advance."
package dispatcher

import (
	"sync"

	"github.com/quackster/libreshockwave/dispatcher/score"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// RenderSprite is one active sprite's renderable state at the end of a
// tick, handed to the Presenter (spec.md §6 "apply_frame_snapshot").
type RenderSprite struct {
	Channel int32
	Member  value.CastMemberRef
	Loc     value.Point
	Visible bool
}

// FrameSnapshot is the Presenter's per-tick render input.
type FrameSnapshot struct {
	Background value.Value
	Sprites    []RenderSprite
	StageSize  value.Point
}

// Presenter is the core's narrow view of the host's renderer (spec.md
// §6): applied once at the end of every tick, and again on an explicit
// `updateStage` call from script code.
type Presenter interface {
	ApplyFrameSnapshot(snap FrameSnapshot)
}

type noopPresenter struct{}

func (noopPresenter) ApplyFrameSnapshot(FrameSnapshot) {}

// Dispatcher owns `current_frame` and `next_frame_override` and drives
// the fixed per-tick event sequence of spec.md §4.6. It is not
// goroutine-safe to call Tick concurrently with any builtin that reaches
// it through ScoreController — both are expected to run on the VM's own
// single execution context (spec.md §5 "Scheduling model").
type Dispatcher struct {
	vm        *vm.VM
	score     *score.Score
	presenter Presenter

	mu             sync.Mutex
	currentFrame   int32
	nextOverride   int32
	hasOverride    bool
	activeChannels map[int32]bool
}

// New builds a Dispatcher starting at frame 1. presenter may be nil, in
// which case frame snapshots are computed but discarded.
func New(v *vm.VM, sc *score.Score, presenter Presenter) *Dispatcher {
	if presenter == nil {
		presenter = noopPresenter{}
	}
	return &Dispatcher{
		vm:             v,
		score:          sc,
		presenter:      presenter,
		currentFrame:   1,
		activeChannels: make(map[int32]bool),
	}
}

// CurrentFrame implements `the frame`.
func (d *Dispatcher) CurrentFrame() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentFrame
}

// GoToFrame implements `go to frame N`: records an override that takes
// effect at the next advance step, per spec.md §4.6 — it never jumps
// immediately.
func (d *Dispatcher) GoToFrame(frame int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextOverride = frame
	d.hasOverride = true
}

// GoToLabel implements `go to label`, resolving label to a frame number
// via the score; an unknown label is silently ignored (no override set).
func (d *Dispatcher) GoToLabel(label string) {
	frame, ok := d.score.FrameForLabel(label)
	if !ok {
		return
	}
	d.GoToFrame(frame)
}

// UpdateStage implements `updateStage`: a no-op hook in the core beyond
// forcing an immediate presenter snapshot — spec.md §4.6 notes it "is
// observable via trace and is routed to the presenter."
func (d *Dispatcher) UpdateStage() {
	d.pushSnapshot()
}

// Sprite implements `sprite(channel)`.
func (d *Dispatcher) Sprite(channel int32) value.Value {
	return value.SpriteRef{Channel: channel}
}

// PuppetSprite implements `puppetSprite(channel, bool)`.
func (d *Dispatcher) PuppetSprite(channel int32, puppet bool) {
	d.score.SetPuppet(channel, puppet)
}

// PuppetTempo implements `puppetTempo(n)`.
func (d *Dispatcher) PuppetTempo(tempo int32) {
	d.score.SetTempo(tempo)
}

// SendSprite implements `sendSprite(channel, #handler, args...)`: invoke
// handlerName on every behavior attached to channel, in attachment
// order, returning the last behavior's result (or Void if the channel
// has no behaviors, or none of them implement the handler).
func (d *Dispatcher) SendSprite(channel int32, handlerName string, args []value.Value) value.Value {
	var result value.Value = value.Void{}
	for _, b := range d.score.Behaviors(channel) {
		if v, found, err := d.vm.Send(b, handlerName, args); err == nil && found {
			result = v
		}
	}
	return result
}

// Tick executes one frame step, in the fixed order spec.md §4.6 names:
// PREPARE_FRAME, ENTER_FRAME, the current frame's exitFrame handlers,
// the frame advance (honoring any pending "go to" override), then
// BEGIN_SPRITE/END_SPRITE deltas for the newly active/inactive channels.
// It finishes by pushing a snapshot to the Presenter.
func (d *Dispatcher) Tick() {
	d.fireEvent("prepareFrame")
	d.fireEvent("enterFrame")
	d.fireEvent("exitFrame")
	d.advance()
	d.fireSpriteDeltas()
	d.pushSnapshot()
}

// fireEvent invokes name once on the movie scripts (spec.md §4.6 "Fire
// X event"), then on every behavior instance attached to a channel
// active in the current frame, in ascending channel order. A handler
// missing on a given target is silently skipped — the movie may have no
// global handler by that name, and most behaviors implement only a
// subset of the frame events.
func (d *Dispatcher) fireEvent(name string) {
	d.vm.CallMovieHandler(name, nil)
	frame := d.CurrentFrame()
	for _, ch := range d.score.ActiveChannels(frame) {
		for _, b := range d.score.Behaviors(ch) {
			d.vm.Send(b, name, nil)
		}
	}
}

// advance applies a pending "go to" override if one was set during this
// tick's handler calls, else steps forward by one frame, wrapping past
// the last frame back to frame 1.
func (d *Dispatcher) advance() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasOverride {
		d.currentFrame = d.nextOverride
		d.hasOverride = false
	} else {
		d.currentFrame++
	}
	if count := d.score.FrameCount(); count > 0 && d.currentFrame > count {
		d.currentFrame = 1
	}
	if d.currentFrame < 1 {
		d.currentFrame = 1
	}
}

// fireSpriteDeltas computes which channels became active or inactive
// across the frame advance and calls beginSprite/endSprite on their
// behaviors, per spec.md §4.6 step 5.
func (d *Dispatcher) fireSpriteDeltas() {
	frame := d.CurrentFrame()
	next := make(map[int32]bool)
	for _, ch := range d.score.ActiveChannels(frame) {
		next[ch] = true
	}

	for ch := range next {
		if !d.activeChannels[ch] {
			for _, b := range d.score.Behaviors(ch) {
				d.vm.Send(b, "beginSprite", nil)
			}
		}
	}
	for ch := range d.activeChannels {
		if !next[ch] {
			for _, b := range d.score.Behaviors(ch) {
				d.vm.Send(b, "endSprite", nil)
			}
		}
	}
	d.activeChannels = next
}

func (d *Dispatcher) pushSnapshot() {
	frame := d.CurrentFrame()
	var sprites []RenderSprite
	for _, ch := range d.score.ActiveChannels(frame) {
		sprites = append(sprites, RenderSprite{Channel: ch, Visible: true})
	}
	d.presenter.ApplyFrameSnapshot(FrameSnapshot{Sprites: sprites})
}
