// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStat struct {
	c   Counters
	err error
}

func (f fakeStat) Stat() (Counters, error) { return f.c, f.err }

func TestVerifyMatch(t *testing.T) {
	v := &Verifier{Source: fakeStat{c: Counters{Total: 1, Free: 1, Avail: 1}}}
	assert.NoError(t, v.Verify("scenario 1", Counters{Total: 1, Free: 1, Avail: 1}))
}

func TestVerifyMismatch(t *testing.T) {
	v := &Verifier{Source: fakeStat{c: Counters{Total: 1, Free: 0, Avail: 0}}}
	err := v.Verify("scenario 2 (untouched shared reclaims quota)", Counters{Total: 1, Free: 1, Avail: 1})
	require.Error(t, err)

	var mismatch *CounterMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, Counters{Total: 1, Free: 1, Avail: 1}, mismatch.Expected)
	assert.Equal(t, Counters{Total: 1, Free: 0, Avail: 0}, mismatch.Actual)
	// The diagnostic must name the step and both triples.
	assert.Contains(t, err.Error(), "scenario 2 (untouched shared reclaims quota)")
	assert.Contains(t, err.Error(), "expected total: 1 free: 1 avail: 1")
	assert.Contains(t, err.Error(), "actual total: 1 free: 0 avail: 0")
}

func TestVerifyOnePageOfDriftFails(t *testing.T) {
	v := &Verifier{Source: fakeStat{c: Counters{Total: 2, Free: 2, Avail: 1}}}
	assert.Error(t, v.Verify("scenario 1", Counters{Total: 2, Free: 2, Avail: 2}))
}

func TestVerifyStatError(t *testing.T) {
	v := &Verifier{Source: fakeStat{err: errors.New("statfs: no such file or directory")}}
	err := v.Verify("scenario 1", Counters{Total: 1, Free: 1, Avail: 1})
	require.Error(t, err)
	var mismatch *CounterMismatchError
	assert.False(t, errors.As(err, &mismatch))
}
