// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// MemInfoPath is the kernel's memory accounting pseudo-file.
const MemInfoPath = "/proc/meminfo"

// MemInfo holds the hugepage fields of /proc/meminfo that the harness needs:
// the hugepage size plus the global pool counters.
type MemInfo struct {
	HugePageSize int64 // bytes
	TotalPages   int64
	FreePages    int64
	RsvdPages    int64
}

// ReadMemInfo reads and parses a /proc/meminfo-format file.
func ReadMemInfo(path string) (*MemInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	mi, err := parseMemInfo(string(data))
	if err != nil {
		return nil, errors.Annotatef(err, "parsing %s", path)
	}
	return mi, nil
}

func parseMemInfo(raw string) (*MemInfo, error) {
	mi := &MemInfo{}
	seenSize := false
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		val, err := strconv.ParseInt(fields[1], 10, 64)
		switch strings.TrimSuffix(fields[0], ":") {
		case "Hugepagesize":
			if err != nil {
				return nil, errors.Annotatef(err, "bad Hugepagesize %q", fields[1])
			}
			// Reported in kB
			mi.HugePageSize = val * 1024
			seenSize = true
		case "HugePages_Total":
			if err != nil {
				return nil, errors.Annotatef(err, "bad HugePages_Total %q", fields[1])
			}
			mi.TotalPages = val
		case "HugePages_Free":
			if err != nil {
				return nil, errors.Annotatef(err, "bad HugePages_Free %q", fields[1])
			}
			mi.FreePages = val
		case "HugePages_Rsvd":
			if err != nil {
				return nil, errors.Annotatef(err, "bad HugePages_Rsvd %q", fields[1])
			}
			mi.RsvdPages = val
		}
	}
	if !seenSize {
		return nil, errors.New("no Hugepagesize entry, kernel built without hugepage support?")
	}
	return mi, nil
}
