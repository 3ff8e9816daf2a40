package chunks

import (
	"github.com/quackster/libreshockwave/binio"
	gscript "github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vmerr"
)

// DecodeScript parses a "Script" chunk into a fully parsed script.Script,
// including its handler vectors and literal pool, using fv to pick the
// name-id width and handler stride (spec.md §9).
func DecodeScript(id uint32, raw []byte, fv FileVersion) (gscript.Script, error) {
	r := binio.NewReader(raw, binio.BigEndian)

	owningCastLib, err := r.Uint16()
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d owning cast lib: %v", id, err)
	}
	kindByte, err := r.Uint8()
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d kind: %v", id, err)
	}

	propertyNameIDs, err := readNameIDVector(r, fv)
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d property names: %v", id, err)
	}
	globalNameIDs, err := readNameIDVector(r, fv)
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d global names: %v", id, err)
	}

	literalCount, err := r.Uint32()
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d literal count: %v", id, err)
	}
	literals := make([]value.Value, 0, literalCount)
	for i := 0; i < int(literalCount); i++ {
		lit, err := decodeLiteral(r)
		if err != nil {
			return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d literal %d: %v", id, i, err)
		}
		literals = append(literals, lit)
	}

	handlerCount, err := r.Uint16()
	if err != nil {
		return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d handler count: %v", id, err)
	}
	handlers := make([]gscript.Handler, 0, handlerCount)
	for i := 0; i < int(handlerCount); i++ {
		h, err := decodeHandler(r, fv)
		if err != nil {
			return gscript.Script{}, vmerr.New(vmerr.CorruptChunk, "script %d handler %d: %v", id, i, err)
		}
		handlers = append(handlers, h)
	}

	return gscript.Script{
		ID:              id,
		Kind:            gscript.Kind(kindByte),
		Handlers:        handlers,
		Literals:        literals,
		PropertyNameIDs: propertyNameIDs,
		GlobalNameIDs:   globalNameIDs,
		OwningCastLib:   owningCastLib,
		RawBytecode:     raw,
	}, nil
}

// EncodeScript is the symmetric inverse of DecodeScript.
func EncodeScript(s gscript.Script, fv FileVersion) []byte {
	w := binio.NewWriter(binio.BigEndian)
	w.WriteUint16(s.OwningCastLib)
	w.WriteUint8(uint8(s.Kind))
	writeNameIDVector(w, fv, s.PropertyNameIDs)
	writeNameIDVector(w, fv, s.GlobalNameIDs)

	w.WriteUint32(uint32(len(s.Literals)))
	for _, lit := range s.Literals {
		encodeLiteral(w, lit)
	}

	w.WriteUint16(uint16(len(s.Handlers)))
	for _, h := range s.Handlers {
		encodeHandler(w, fv, h)
	}
	return w.Bytes()
}

func readNameIDVector(r *binio.Reader, fv FileVersion) ([]uint16, error) {
	count, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	ids := make([]uint16, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := readNameID(r, fv)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint16(id))
	}
	return ids, nil
}

func writeNameIDVector(w *binio.Writer, fv FileVersion, ids []uint16) {
	w.WriteUint16(uint16(len(ids)))
	for _, id := range ids {
		writeNameID(w, fv, uint32(id))
	}
}

// decodeHandler reads one handler vector entry: the fixed-size header
// whose width is fv.HandlerStride, then its variable-length arg/local
// name vectors and its bytecode body.
func decodeHandler(r *binio.Reader, fv FileVersion) (gscript.Handler, error) {
	nameID, err := readNameID(r, fv)
	if err != nil {
		return gscript.Handler{}, err
	}
	argCount, err := r.Uint16()
	if err != nil {
		return gscript.Handler{}, err
	}
	localCount, err := r.Uint16()
	if err != nil {
		return gscript.Handler{}, err
	}

	argNameIDs := make([]uint16, 0, argCount)
	for i := 0; i < int(argCount); i++ {
		id, err := readNameID(r, fv)
		if err != nil {
			return gscript.Handler{}, err
		}
		argNameIDs = append(argNameIDs, uint16(id))
	}
	localNameIDs := make([]uint16, 0, localCount)
	for i := 0; i < int(localCount); i++ {
		id, err := readNameID(r, fv)
		if err != nil {
			return gscript.Handler{}, err
		}
		localNameIDs = append(localNameIDs, uint16(id))
	}

	bytecodeLen, err := r.Uint32()
	if err != nil {
		return gscript.Handler{}, err
	}
	raw, err := r.Bytes(int(bytecodeLen))
	if err != nil {
		return gscript.Handler{}, err
	}
	instrs, offsetToIndex, err := gscript.DecodeBytecode(raw)
	if err != nil {
		return gscript.Handler{}, err
	}

	return gscript.Handler{
		NameID:        uint16(nameID),
		ArgCount:      argCount,
		LocalCount:    localCount,
		ArgNameIDs:    argNameIDs,
		LocalNameIDs:  localNameIDs,
		Instructions:  instrs,
		OffsetToIndex: offsetToIndex,
	}, nil
}

func encodeHandler(w *binio.Writer, fv FileVersion, h gscript.Handler) {
	writeNameID(w, fv, uint32(h.NameID))
	w.WriteUint16(h.ArgCount)
	w.WriteUint16(h.LocalCount)
	for _, id := range h.ArgNameIDs {
		writeNameID(w, fv, uint32(id))
	}
	for _, id := range h.LocalNameIDs {
		writeNameID(w, fv, uint32(id))
	}
	raw := gscript.EncodeBytecode(h.Instructions)
	w.WriteUint32(uint32(len(raw)))
	w.WriteBytes(raw)
}
