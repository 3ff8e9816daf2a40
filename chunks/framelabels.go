package chunks

import (
	"strings"

	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/vmerr"
)

// FrameLabel is one ordered (label, frame_number) entry.
type FrameLabel struct {
	FrameNumber uint32
	Label       string
}

// FrameLabels is the decoded "Frame-Labels" chunk.
type FrameLabels struct {
	Labels []FrameLabel
}

// DecodeFrameLabels parses a "Frame-Labels" chunk.
func DecodeFrameLabels(raw []byte) (FrameLabels, error) {
	r := binio.NewReader(raw, binio.BigEndian)
	count, err := r.Uint16()
	if err != nil {
		return FrameLabels{}, vmerr.New(vmerr.CorruptChunk, "frame labels count: %v", err)
	}
	labels := make([]FrameLabel, 0, count)
	for i := 0; i < int(count); i++ {
		frame, err := r.Uint32()
		if err != nil {
			return FrameLabels{}, vmerr.New(vmerr.CorruptChunk, "frame label %d frame number: %v", i, err)
		}
		label, err := r.PascalString()
		if err != nil {
			return FrameLabels{}, vmerr.New(vmerr.CorruptChunk, "frame label %d text: %v", i, err)
		}
		labels = append(labels, FrameLabel{FrameNumber: frame, Label: label})
	}
	return FrameLabels{Labels: labels}, nil
}

// EncodeFrameLabels is the symmetric inverse of DecodeFrameLabels.
func EncodeFrameLabels(fl FrameLabels) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint16(uint16(len(fl.Labels)))
	for _, l := range fl.Labels {
		w.WriteUint32(l.FrameNumber)
		w.WritePascalString(l.Label)
	}
	return w.Bytes()
}

// FrameFor resolves a label to its frame number, case-insensitively.
func (fl FrameLabels) FrameFor(label string) (uint32, bool) {
	for _, l := range fl.Labels {
		if strings.EqualFold(l.Label, label) {
			return l.FrameNumber, true
		}
	}
	return 0, false
}
