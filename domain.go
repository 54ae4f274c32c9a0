// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// Domain is a privately mounted, quota-limited hugetlbfs instance. It is the
// single shared resource every scenario allocates from; the harness keeps
// exactly one and tears it down on every exit path.
type Domain struct {
	dir      string
	pageSize int64
	capacity int64 // pages
	log      *slog.Logger
	torn     bool
}

// ProvisionDomain creates a fresh mountpoint and mounts hugetlbfs on it with
// a size= option limiting the domain to cfg.CapacityPages pages.
// cfg.PageSize must already be resolved to the real hugepage size.
func ProvisionDomain(cfg *Config, log *slog.Logger) (*Domain, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PageSize <= 0 {
		return nil, &EnvironmentError{errors.Errorf("page size %d is not usable", cfg.PageSize)}
	}
	dir, err := os.MkdirTemp(cfg.MountBase, "huge-")
	if err != nil {
		return nil, &EnvironmentError{errors.Annotate(err, "creating mountpoint")}
	}
	opts := fmt.Sprintf("size=%dK", cfg.PageSize*cfg.CapacityPages/1024)
	if err := unix.Mount("none", dir, "hugetlbfs", 0, opts); err != nil {
		os.Remove(dir)
		return nil, &EnvironmentError{errors.Annotatef(err, "mounting hugetlbfs at %s", dir)}
	}
	log.Debug("provisioned quota domain",
		"mountpoint", dir, "pages", cfg.CapacityPages, "page_size", cfg.PageSize)
	return &Domain{
		dir:      dir,
		pageSize: cfg.PageSize,
		capacity: cfg.CapacityPages,
		log:      log,
	}, nil
}

// Dir returns the domain's mountpoint.
func (d *Domain) Dir() string { return d.dir }

// PageSize returns the domain's page size in bytes.
func (d *Domain) PageSize() int64 { return d.pageSize }

// Capacity returns the domain's quota in pages.
func (d *Domain) Capacity() int64 { return d.capacity }

// Teardown unmounts and removes the domain's mountpoint. It is idempotent so
// that callers can hook it on both normal and abort paths without bookkeeping.
func (d *Domain) Teardown() error {
	if d.torn {
		return nil
	}
	d.torn = true
	var merr *multierror.Error
	if err := unix.Unmount(d.dir, 0); err != nil {
		merr = multierror.Append(merr, errors.Annotatef(err, "unmounting %s", d.dir))
		if err := unix.Unmount(d.dir, unix.MNT_DETACH); err != nil {
			merr = multierror.Append(merr, errors.Annotatef(err, "lazy-unmounting %s", d.dir))
		}
	}
	if err := os.Remove(d.dir); err != nil {
		merr = multierror.Append(merr, errors.Trace(err))
	}
	return merr.ErrorOrNil()
}

// Stat queries the domain's quota counters. Every call hits statfs; the
// counters are never cached because every scenario mutates them.
func (d *Domain) Stat() (Counters, error) {
	var s unix.Statfs_t
	if err := unix.Statfs(d.dir, &s); err != nil {
		return Counters{}, errors.Annotatef(err, "statfs %s", d.dir)
	}
	return Counters{
		Total: int64(s.Blocks),
		Free:  int64(s.Bfree),
		Avail: int64(s.Bavail),
	}, nil
}

// ProbePrivateReservations determines whether the kernel debits quota up
// front for private mappings, the way it always does for shared ones. The
// answer decides whether an over-quota private touch is refused cleanly or
// only discovered at fault time, so the scenario sequence branches on it.
//
// The probe maps one private page without touching it and watches
// HugePages_Rsvd: on reservation-accounting kernels the count rises at map
// time. Run it exactly once, before any scenario.
func (d *Domain) ProbePrivateReservations() (bool, error) {
	before, err := ReadMemInfo(MemInfoPath)
	if err != nil {
		return false, errors.Trace(err)
	}
	store := NewPageStore(d.dir, d.pageSize)
	m, err := store.Allocate(d.pageSize, Private)
	if err != nil {
		return false, errors.Annotate(err, "probe mapping")
	}
	after, err := ReadMemInfo(MemInfoPath)
	if relErr := m.Release(); relErr != nil {
		return false, errors.Annotate(relErr, "releasing probe mapping")
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	resv := after.RsvdPages > before.RsvdPages
	d.log.Debug("probed private reservation accounting", "reserved", resv)
	return resv, nil
}
