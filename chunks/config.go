package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// Config is the decoded "Config" chunk (spec.md §4.2): stage geometry,
// tempo, color depth, and the version fields every other decoder needs.
type Config struct {
	StageWidth      int32
	StageHeight     int32
	Tempo           int32
	ColorDepth      int32
	DirectorVersion int32
	StageColor      value.Color
	CapitalX        bool
}

// DecodeConfig parses a Config chunk and resolves the FileVersion every
// other decoder in this package is parameterized on.
func DecodeConfig(raw []byte) (Config, FileVersion, error) {
	r := binio.NewReader(raw, binio.BigEndian)

	stageWidth, err := r.Int32()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config stage width: %v", err)
	}
	stageHeight, err := r.Int32()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config stage height: %v", err)
	}
	tempo, err := r.Int32()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config tempo: %v", err)
	}
	colorDepth, err := r.Int32()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config color depth: %v", err)
	}
	directorVersion, err := r.Int32()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config director version: %v", err)
	}
	red, err := r.Uint8()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config stage color red: %v", err)
	}
	green, err := r.Uint8()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config stage color green: %v", err)
	}
	blue, err := r.Uint8()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config stage color blue: %v", err)
	}
	capX, err := r.Uint8()
	if err != nil {
		return Config{}, FileVersion{}, vmerr.New(vmerr.CorruptChunk, "config capital-X flag: %v", err)
	}

	cfg := Config{
		StageWidth:      stageWidth,
		StageHeight:     stageHeight,
		Tempo:           tempo,
		ColorDepth:      colorDepth,
		DirectorVersion: directorVersion,
		StageColor:      value.Color{R: red, G: green, B: blue},
		CapitalX:        capX != 0,
	}

	fv, err := resolveFileVersion(directorVersion, cfg.CapitalX)
	if err != nil {
		return Config{}, FileVersion{}, err
	}
	return cfg, fv, nil
}

// EncodeConfig is the symmetric inverse of DecodeConfig.
func EncodeConfig(cfg Config) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint32(uint32(cfg.StageWidth))
	w.WriteUint32(uint32(cfg.StageHeight))
	w.WriteUint32(uint32(cfg.Tempo))
	w.WriteUint32(uint32(cfg.ColorDepth))
	w.WriteUint32(uint32(cfg.DirectorVersion))
	w.WriteUint8(cfg.StageColor.R)
	w.WriteUint8(cfg.StageColor.G)
	w.WriteUint8(cfg.StageColor.B)
	if cfg.CapitalX {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	return w.Bytes()
}
