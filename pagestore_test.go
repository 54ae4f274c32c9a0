// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The unit tests run the store against a regular filesystem with the host
// page size; the hugetlbfs-specific behavior is covered by itest.

func TestPageStoreAllocateTouchRelease(t *testing.T) {
	pageSize := int64(os.Getpagesize())
	ps := NewPageStore(t.TempDir(), pageSize)

	m, err := ps.Allocate(2*pageSize, Shared)
	require.NoError(t, err)
	assert.Len(t, m.Data(), int(2*pageSize))

	m.Touch()
	assert.Equal(t, byte(1), m.Data()[0])
	assert.Equal(t, byte(1), m.Data()[pageSize])
	// Touch strides pages, it does not fill them.
	assert.Equal(t, byte(0), m.Data()[1])

	require.NoError(t, m.Release())
	// Release is safe to repeat.
	assert.NoError(t, m.Release())
}

func TestPageStoreBackingFileIsUnlinked(t *testing.T) {
	dir := t.TempDir()
	ps := NewPageStore(dir, int64(os.Getpagesize()))

	m, err := ps.Allocate(int64(os.Getpagesize()), Private)
	require.NoError(t, err)
	defer m.Release()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPageStoreCowView(t *testing.T) {
	pageSize := int64(os.Getpagesize())
	ps := NewPageStore(t.TempDir(), pageSize)

	// The base must be shared so its touch reaches the file pages the view
	// reads through.
	m, err := ps.Allocate(pageSize, Shared)
	require.NoError(t, err)
	defer m.Release()
	m.Touch()

	view, err := m.CowView()
	require.NoError(t, err)

	// The view observes touched content until its first write.
	assert.Equal(t, byte(1), view.Data()[0])
	view.Data()[0] = 0
	assert.Equal(t, byte(0), view.Data()[0])
	// The private write never reaches the base mapping.
	assert.Equal(t, byte(1), m.Data()[0])

	require.NoError(t, view.Release())
}

func TestPageStoreCowViewRequiresBackingFile(t *testing.T) {
	pageSize := int64(os.Getpagesize())
	ps := NewPageStore(t.TempDir(), pageSize)

	m, err := ps.Allocate(pageSize, Shared)
	require.NoError(t, err)
	defer m.Release()

	view, err := m.CowView()
	require.NoError(t, err)
	defer view.Release()

	// Views share the primary's fd and cannot be layered.
	layered, err := view.CowView()
	assert.Error(t, err)
	assert.Nil(t, layered)
}

func TestPageStorePrivateWritesStayPrivate(t *testing.T) {
	pageSize := int64(os.Getpagesize())
	ps := NewPageStore(t.TempDir(), pageSize)

	m, err := ps.Allocate(pageSize, Private)
	require.NoError(t, err)
	defer m.Release()
	m.Touch()

	// A fresh view of the same file sees the untouched file content: the
	// private touch went to copy-on-write pages, not the file.
	view, err := m.CowView()
	require.NoError(t, err)
	defer view.Release()
	assert.Equal(t, byte(0), view.Data()[0])
}
