// Package score implements the score/sprite-channel state the frame
// dispatcher steps (spec.md §2 item 12, §4.6): per-channel frame
// intervals, behavior-instance attachment, frame labels, tempo, and the
// puppet-sprite override flag. Kept as its own package rather than
// folded into dispatcher since it carries its own invariant (channel
// interval lookup) independent of frame-stepping itself.
package score

import (
	"sort"
	"sync"

	"github.com/quackster/libreshockwave/value"
)

// Channel is one sprite channel's static placement in the score: the
// inclusive frame range it spans and the behavior instances attached to
// it for that span.
type Channel struct {
	Number     int32
	StartFrame int32
	EndFrame   int32
	Behaviors  []value.ScriptInstance
}

func (c Channel) activeAt(frame int32) bool {
	return frame >= c.StartFrame && frame <= c.EndFrame
}

// Score is the score-driven frame dispatcher's sprite/channel/label/
// tempo state, grounded on castlib.Manager's RWMutex-guarded
// registry-of-records shape — mirrored here for a registry of channel
// placements instead of cast members.
type Score struct {
	mu         sync.RWMutex
	channels   []Channel
	labels     map[string]int32
	frameCount int32
	tempo      int32
	puppets    map[int32]bool
}

// New builds a Score from its static channel layout, frame-label table,
// and total frame count (the last frame wraps back to 1).
func New(channels []Channel, labels map[string]int32, frameCount int32) *Score {
	if labels == nil {
		labels = make(map[string]int32)
	}
	return &Score{
		channels:   channels,
		labels:     labels,
		frameCount: frameCount,
		tempo:      30,
		puppets:    make(map[int32]bool),
	}
}

// FrameCount returns the movie's total frame count.
func (s *Score) FrameCount() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameCount
}

// FrameForLabel resolves a frame label to its 1-indexed frame number.
func (s *Score) FrameForLabel(label string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.labels[label]
	return f, ok
}

// ActiveChannels returns the channel numbers whose interval contains
// frame, in ascending channel order.
func (s *Score) ActiveChannels(frame int32) []int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int32
	for _, c := range s.channels {
		if c.activeAt(frame) {
			out = append(out, c.Number)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Behaviors returns the behavior instances attached to channel, or nil
// if the channel has none or doesn't exist.
func (s *Score) Behaviors(channel int32) []value.ScriptInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.channels {
		if c.Number == channel {
			return c.Behaviors
		}
	}
	return nil
}

// SetPuppet implements `puppetSprite(channel, bool)`: a puppet channel
// is driven by script code rather than the static score layout. The
// core only tracks the flag; a runtime layer decides what "driven by
// script code" means for rendering.
func (s *Score) SetPuppet(channel int32, puppet bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if puppet {
		s.puppets[channel] = true
	} else {
		delete(s.puppets, channel)
	}
}

// IsPuppet reports whether channel has been puppeted.
func (s *Score) IsPuppet(channel int32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puppets[channel]
}

// SetTempo implements `puppetTempo(n)`: frames per second the dispatcher
// advances at. The core records the value for the presenter/runtime
// scheduler to honor; it does not itself own a clock.
func (s *Score) SetTempo(t int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = t
}

// Tempo returns the current tempo in frames per second.
func (s *Score) Tempo() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tempo
}
