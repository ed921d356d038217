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

// blockSize is B: the fixed window size used to checksum reference blocks.
const blockSize = 16

// Index is a hash table over the rolling checksums of blockSize-byte blocks
// of a reference buffer, used by Diff to find candidate copy sources for
// the target. Each bucket holds a singly-linked chain of records.
//
// buildIndex walks the reference from its end backward, prepending each
// record to its bucket as it goes; a chain traversed head to tail therefore
// runs from low reference offset to high. Diff's extend-and-pick loop
// relies on that order: it keeps a new candidate whenever it extends at
// least as far as the current best, so among ties the last (highest-offset)
// match traversed wins, which this chain order produces without an
// explicit offset comparison.
//
// An Index is built once over a reference and can be reused across many
// Diff calls against that same reference (see DiffWithIndex) - this is what
// lets a cache key an already-built Index by the reference's identity
// instead of rebuilding it per target.
type Index struct {
	bucketBits uint
	buckets    []*record
	arena      *arena
}

// NewIndex builds an Index over reference. It returns ErrInvalidInput for
// an empty reference, which has no blocks to index. Callers done with the
// Index should call Close to release the arena backing its records.
func NewIndex(reference []byte) (*Index, error) {
	return buildIndex(reference)
}

// Close releases the arena backing this Index's records. The Index must
// not be used afterward.
func (idx *Index) Close() {
	if idx.arena != nil {
		idx.arena.freeAll()
		idx.arena = nil
	}
}

// ceilLog2 returns the smallest b such that 1<<b >= n, for n >= 1.
func ceilLog2(n int) uint {
	b := uint(0)
	for (1 << b) < n {
		b++
	}
	return b
}

// hashBucket mixes a block checksum into a bucket index with a Fibonacci
// multiplicative hash, spreading the weak rolling checksum evenly across
// the 1<<bucketBits buckets.
func hashBucket(checksum uint32, bucketBits uint) uint32 {
	return (checksum * 0x9E370001) >> (32 - bucketBits)
}

// buildIndex builds an Index over every blockSize-byte block of reference.
// When len(reference) is not a multiple of blockSize, the last block of the
// reference (the first one built, since the walk runs backward) is the short
// tail block.
func buildIndex(reference []byte) (*Index, error) {
	refSize := len(reference)
	if refSize == 0 {
		return nil, ErrInvalidInput
	}

	bucketBits := ceilLog2(refSize/blockSize + 1)
	if bucketBits < 1 {
		bucketBits = 1
	}
	numBuckets := 1 << bucketBits

	ar := newArena(numBuckets/4+1, 0)
	idx := &Index{bucketBits: bucketBits, buckets: make([]*record, numBuckets), arena: ar}

	data := (refSize / blockSize) * blockSize
	if data == refSize {
		data -= blockSize
	}

	for {
		end := data + blockSize
		if end > refSize {
			end = refSize
		}

		rec, err := ar.alloc()
		if err != nil {
			ar.freeAll()
			return nil, err
		}
		rec.checksum = adler32Checksum(0, reference[data:end])
		rec.offset = uint32(data)

		b := hashBucket(rec.checksum, bucketBits)
		rec.next = idx.buckets[b]
		idx.buckets[b] = rec

		if data == 0 {
			break
		}
		data -= blockSize
	}

	return idx, nil
}

// probe returns the chain of records whose block checksum hashes to the
// same bucket as checksum. The caller still has to compare rec.checksum
// against checksum for each link, since the hash bucket itself may collide.
func (idx *Index) probe(checksum uint32) *record {
	return idx.buckets[hashBucket(checksum, idx.bucketBits)]
}
