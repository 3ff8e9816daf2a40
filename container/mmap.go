package container

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// MappedFile is a memory-mapped movie file. Close releases the mapping;
// the Index returned by OpenMapped borrows from the mapping's bytes, so
// it must not outlive a Close call.
type MappedFile struct {
	f  *os.File
	mm mmap.MMap
}

// Close unmaps and closes the underlying file.
func (m *MappedFile) Close() error {
	var errs []error
	if err := m.mm.Unmap(); err != nil {
		errs = append(errs, err)
	}
	if err := m.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// OpenMapped memory-maps path (read-only) and parses it as a container,
// avoiding a full read into the Go heap for large movie files. The
// returned *MappedFile must be kept open and Close()d by the caller once
// the Index and any ChunkRecord bytes derived from it are no longer
// needed.
func OpenMapped(path string) (*Index, *MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	idx, err := Load(mm)
	if err != nil {
		mm.Unmap()
		f.Close()
		return nil, nil, err
	}
	return idx, &MappedFile{f: f, mm: mm}, nil
}
