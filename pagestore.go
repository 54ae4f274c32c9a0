// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"os"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// PageStore allocates page mappings backed by unlinked files inside one
// quota domain. It only reserves quota; instantiation happens when the
// mapping is touched, and a denied instantiation faults rather than failing,
// so all operations are meant to run inside a disposable worker process.
type PageStore struct {
	dir      string
	pageSize int64
}

// NewPageStore returns a store rooted at dir with the given page size. The
// page size is the stride used by Touch; for a hugetlbfs domain it must be
// the hugepage size.
func NewPageStore(dir string, pageSize int64) *PageStore {
	return &PageStore{dir: dir, pageSize: pageSize}
}

// Mapping is one mapped region. The primary mapping returned by Allocate
// owns the backing fd; copy-on-write views share it and must be released
// before their primary.
type Mapping struct {
	data     []byte
	file     *os.File // nil for views
	pageSize int64
}

// unlinkedFile creates an anonymous backing file in the store directory: the
// name is removed immediately and only the fd survives, so an abnormally
// terminated worker leaves nothing behind for the domain to carry.
func (s *PageStore) unlinkedFile() (*os.File, error) {
	f, err := os.CreateTemp(s.dir, "map-")
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := os.Remove(f.Name()); err != nil {
		f.Close()
		return nil, errors.Trace(err)
	}
	return f, nil
}

// Allocate maps size bytes with the given visibility. Only a reservation is
// accounted; no page is instantiated. A quota refusal at reserve time (the
// shared-mapping case, and the private case on reservation-accounting
// kernels) surfaces here as an error.
func (s *PageStore) Allocate(size int64, vis Visibility) (*Mapping, error) {
	f, err := s.unlinkedFile()
	if err != nil {
		return nil, errors.Annotate(err, "creating backing file")
	}
	if err := unix.Ftruncate(int(f.Fd()), size); err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "sizing backing file to %d bytes", size)
	}
	flags := unix.MAP_SHARED
	if vis == Private {
		flags = unix.MAP_PRIVATE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "mapping %d bytes %s", size, vis)
	}
	return &Mapping{data: data, file: f, pageSize: s.pageSize}, nil
}

// Data exposes the mapped region.
func (m *Mapping) Data() []byte { return m.data }

// Touch writes the value 1 at every page-size stride, forcing the allocator
// to instantiate backing storage for each page. A denied instantiation is a
// fatal fault, not an error return; containment is the caller's process
// boundary.
func (m *Mapping) Touch() {
	for off := int64(0); off < int64(len(m.data)); off += m.pageSize {
		m.data[off] = 1
	}
}

// CowView maps a private copy-on-write view over the primary mapping's
// backing file. Reads through the view observe the shared content until the
// first write, which charges quota for a new private page and may fault.
func (m *Mapping) CowView() (*Mapping, error) {
	if m.file == nil {
		return nil, errors.New("mapping has no backing file, views cannot be layered")
	}
	data, err := unix.Mmap(int(m.file.Fd()), 0, len(m.data),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Annotate(err, "creating copy-on-write view")
	}
	return &Mapping{data: data, pageSize: m.pageSize}, nil
}

// Release unmaps the region and, for the primary mapping, closes the backing
// fd. This is the point at which reserved-but-uninstantiated quota returns
// to the pool.
func (m *Mapping) Release() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return errors.Annotate(err, "unmapping")
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return errors.Trace(err)
		}
		m.file = nil
	}
	return nil
}
