// Copyright 2024 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilLog2(t *testing.T) {
	cases := map[int]uint{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 1024: 10}
	for n, want := range cases {
		assert.Equalf(t, want, ceilLog2(n), "ceilLog2(%d)", n)
	}
}

func TestNewIndexRejectsEmptyReference(t *testing.T) {
	_, err := NewIndex(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewIndex([]byte{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBuildIndexOneRecordPerBlock(t *testing.T) {
	ref := []byte("0123456789abcdef" + "GHIJKLMNOPQRSTUV") // exactly two full blocks
	idx, err := buildIndex(ref)
	require.NoError(t, err)
	defer idx.Close()

	var offsets []uint32
	for _, head := range idx.buckets {
		for r := head; r != nil; r = r.next {
			offsets = append(offsets, r.offset)
		}
	}
	assert.ElementsMatch(t, []uint32{0, 16}, offsets)
}

func TestBuildIndexTailBlockWhenNotBlockAligned(t *testing.T) {
	ref := []byte("0123456789abcdef" + "tail") // one full block + 4-byte tail
	idx, err := buildIndex(ref)
	require.NoError(t, err)
	defer idx.Close()

	var offsets []uint32
	for _, head := range idx.buckets {
		for r := head; r != nil; r = r.next {
			offsets = append(offsets, r.offset)
		}
	}
	assert.ElementsMatch(t, []uint32{0, 16}, offsets)
}

func TestBuildIndexChainOrderIsLowToHighOffset(t *testing.T) {
	// two blocks engineered to collide on the same bucket: identical content
	// means identical checksum, hence the same bucket and the same chain.
	block := "0123456789abcdef"
	ref := []byte(block + block)
	idx, err := buildIndex(ref)
	require.NoError(t, err)
	defer idx.Close()

	fp := adler32Checksum(0, []byte(block))
	chain := idx.probe(fp)
	require.NotNil(t, chain)
	require.NotNil(t, chain.next)
	assert.EqualValues(t, 0, chain.offset, "head of the chain should be the lowest offset")
	assert.EqualValues(t, 16, chain.next.offset)
	assert.Nil(t, chain.next.next)
}

func TestProbeChainHasNoRecordForUnindexedChecksum(t *testing.T) {
	ref := []byte("0123456789abcdef")
	idx, err := buildIndex(ref)
	require.NoError(t, err)
	defer idx.Close()

	for rec := idx.probe(adler32Checksum(0, ref)); rec != nil; rec = rec.next {
		assert.NotEqual(t, uint32(0xdeadbeef), rec.checksum)
	}
}
