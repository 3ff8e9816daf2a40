package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// SpriteInterval is one channel's occupancy over a frame range in the
// decoded "Score" chunk.
type SpriteInterval struct {
	StartFrame uint32
	EndFrame   uint32
	MemberID   uint32
	SpriteType uint8
}

// ScoreChannel is one sprite channel's ordered list of occupancy
// intervals.
type ScoreChannel struct {
	Channel   uint16
	Intervals []SpriteInterval
}

// Score is the decoded "Score" chunk: frame/channel layout (spec.md
// §4.2), consumed by the frame dispatcher's BEGIN_SPRITE/END_SPRITE
// bookkeeping.
type Score struct {
	FrameCount uint32
	Channels   []ScoreChannel
}

// DecodeScore parses a "Score" chunk.
func DecodeScore(raw []byte) (Score, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	frameCount, err := r.Uint32()
	if err != nil {
		return Score{}, vmerr.New(vmerr.CorruptChunk, "score frame count: %v", err)
	}
	channelCount, err := r.Uint16()
	if err != nil {
		return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel count: %v", err)
	}

	channels := make([]ScoreChannel, 0, channelCount)
	for c := 0; c < int(channelCount); c++ {
		channel, err := r.Uint16()
		if err != nil {
			return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d number: %v", c, err)
		}
		intervalCount, err := r.Uint16()
		if err != nil {
			return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d interval count: %v", c, err)
		}
		intervals := make([]SpriteInterval, 0, intervalCount)
		for i := 0; i < int(intervalCount); i++ {
			start, err := r.Uint32()
			if err != nil {
				return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d interval %d start: %v", c, i, err)
			}
			end, err := r.Uint32()
			if err != nil {
				return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d interval %d end: %v", c, i, err)
			}
			memberID, err := r.Uint32()
			if err != nil {
				return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d interval %d member: %v", c, i, err)
			}
			spriteType, err := r.Uint8()
			if err != nil {
				return Score{}, vmerr.New(vmerr.CorruptChunk, "score channel %d interval %d type: %v", c, i, err)
			}
			intervals = append(intervals, SpriteInterval{StartFrame: start, EndFrame: end, MemberID: memberID, SpriteType: spriteType})
		}
		channels = append(channels, ScoreChannel{Channel: channel, Intervals: intervals})
	}
	return Score{FrameCount: frameCount, Channels: channels}, nil
}

// EncodeScore is the symmetric inverse of DecodeScore.
func EncodeScore(s Score) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint32(s.FrameCount)
	w.WriteUint16(uint16(len(s.Channels)))
	for _, ch := range s.Channels {
		w.WriteUint16(ch.Channel)
		w.WriteUint16(uint16(len(ch.Intervals)))
		for _, iv := range ch.Intervals {
			w.WriteUint32(iv.StartFrame)
			w.WriteUint32(iv.EndFrame)
			w.WriteUint32(iv.MemberID)
			w.WriteUint8(iv.SpriteType)
		}
	}
	return w.Bytes()
}

// ActiveChannels returns the set of channels with an interval covering
// frame.
func (s Score) ActiveChannels(frame uint32) map[uint16]bool {
	active := make(map[uint16]bool)
	for _, ch := range s.Channels {
		for _, iv := range ch.Intervals {
			if frame >= iv.StartFrame && frame <= iv.EndFrame {
				active[ch.Channel] = true
				break
			}
		}
	}
	return active
}
