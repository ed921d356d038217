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

func TestArenaAllocAcrossChunks(t *testing.T) {
	ar := newArena(2, 0) // two slots per chunk, forces a second chunk on the 3rd alloc

	var recs []*record
	for i := 0; i < 5; i++ {
		r, err := ar.alloc()
		require.NoError(t, err)
		r.offset = uint32(i)
		recs = append(recs, r)
	}
	assert.Len(t, ar.chunks, 3)

	for i, r := range recs {
		assert.EqualValues(t, i, r.offset)
	}
}

func TestArenaAllocReportsOutOfMemory(t *testing.T) {
	ar := newArena(4, 3)
	for i := 0; i < 3; i++ {
		_, err := ar.alloc()
		require.NoError(t, err)
	}
	_, err := ar.alloc()
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArenaFreeAllResetsState(t *testing.T) {
	ar := newArena(4, 0)
	_, err := ar.alloc()
	require.NoError(t, err)
	ar.freeAll()
	assert.Equal(t, 0, ar.allocated)
	assert.Equal(t, 0, ar.cursor)
	assert.Empty(t, ar.chunks)

	r, err := ar.alloc()
	require.NoError(t, err)
	assert.EqualValues(t, 0, r.offset)
}
