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

const (
	// maxOpSize is the largest number of bytes a single copy opcode can
	// consume: one mask byte, up to four offset bytes, up to two size bytes.
	maxOpSize = 7

	// maxCopySize is the largest span a single copy opcode can cover. A
	// span of exactly maxCopySize is encoded with both size bytes zero,
	// since the low 16 bits of maxCopySize (0x10000) are themselves zero.
	maxCopySize = 0x10000

	// maxInsertRun is the largest number of literal bytes a single insert
	// opcode can carry; its length byte must have bit 7 clear.
	maxInsertRun = 127

	initialOutCap = 8192
)

// encoder accumulates the opcode stream for a single Diff call: the output
// buffer, the position of any insert run still being appended to, and the
// max-output-size ceiling that governs buffer growth.
type encoder struct {
	out      []byte
	outpos   int
	ceiling  uint64
	runStart int // outpos of the reserved length byte for the open insert run; -1 if none
	runLen   int
}

func newEncoder(ceiling uint64) *encoder {
	outCap := clampCap(initialOutCap, ceiling)
	return &encoder{out: make([]byte, outCap), ceiling: ceiling, runStart: -1}
}

// clampCap keeps a proposed buffer capacity from growing unboundedly past a
// positive ceiling: once the delta has used up the ceiling, at most one
// more opcode's worth of slack is allowed before Diff gives up.
func clampCap(proposed int, ceiling uint64) int {
	if ceiling == 0 {
		return proposed
	}
	limit := ceiling + maxOpSize + 1
	if uint64(proposed) > limit {
		return int(limit)
	}
	return proposed
}

// grow reallocates out to a larger backing array, or reports
// ErrSizeLimitExceeded if the ceiling has already been passed.
func (e *encoder) grow() error {
	if e.ceiling > 0 && uint64(e.outpos) > e.ceiling {
		return ErrSizeLimitExceeded
	}
	newCap := clampCap(len(e.out)*3/2, e.ceiling)
	if newCap <= len(e.out) {
		return ErrSizeLimitExceeded
	}
	grown := make([]byte, newCap)
	copy(grown, e.out[:e.outpos])
	e.out = grown
	return nil
}

// growIfNeeded is called after every opcode emission. It keeps at least
// maxOpSize bytes of slack ahead of outpos, and doubles as the ceiling
// checkpoint: once outpos has crossed the ceiling, the next call here is
// what turns that into ErrSizeLimitExceeded.
func (e *encoder) growIfNeeded() error {
	if e.outpos < len(e.out)-maxOpSize {
		return nil
	}
	return e.grow()
}

// writeVarintHeader appends v as a base-128 varint, used for the two
// header fields. It reserves room directly rather than relying on the
// maxOpSize slack growIfNeeded maintains, since a 64-bit varint can be
// longer than a copy opcode.
func (e *encoder) writeVarintHeader(v uint64) error {
	for len(e.out)-e.outpos < 10 {
		if err := e.grow(); err != nil {
			return err
		}
	}
	e.outpos += putVarint(e.out[e.outpos:], v)
	return e.growIfNeeded()
}

func putVarint(buf []byte, v uint64) int {
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if v == 0 {
			break
		}
	}
	return n
}

// appendLiteral appends one byte of the target to the currently open
// insert run, opening a new one (reserving its length byte) if necessary,
// and flushing it once it reaches maxInsertRun bytes.
func (e *encoder) appendLiteral(b byte) error {
	if e.runStart < 0 {
		e.runStart = e.outpos
		e.outpos++
		e.runLen = 0
		if err := e.growIfNeeded(); err != nil {
			return err
		}
	}
	e.out[e.outpos] = b
	e.outpos++
	e.runLen++
	if err := e.growIfNeeded(); err != nil {
		return err
	}
	if e.runLen == maxInsertRun {
		e.flushInsertRun()
	}
	return nil
}

// flushInsertRun closes the currently open insert run, if any, by writing
// its byte count into the reserved length byte.
func (e *encoder) flushInsertRun() {
	if e.runStart < 0 {
		return
	}
	e.out[e.runStart] = byte(e.runLen)
	e.runStart = -1
	e.runLen = 0
}

// copyOpSize returns the number of bytes a copy opcode for (moff, msize)
// would consume: the mask byte plus one byte per nonzero offset/size byte.
func copyOpSize(moff uint32, msize int) int {
	n := 1
	for i := 0; i < 4; i++ {
		if byte(moff>>(8*i)) != 0 {
			n++
		}
	}
	sz := uint32(msize)
	for i := 0; i < 2; i++ {
		if byte(sz>>(8*i)) != 0 {
			n++
		}
	}
	return n
}

// writeCopy appends a copy opcode for (moff, msize): a mask byte with bit 7
// set, followed by only the nonzero little-endian offset and size bytes,
// in increasing byte-index order.
func (e *encoder) writeCopy(moff uint32, msize int) error {
	maskPos := e.outpos
	e.out[e.outpos] = 0x80
	e.outpos++

	var mask byte = 0x80
	for i := 0; i < 4; i++ {
		b := byte(moff >> (8 * i))
		if b != 0 {
			e.out[e.outpos] = b
			e.outpos++
			mask |= 1 << i
		}
	}
	sz := uint32(msize)
	for i := 0; i < 2; i++ {
		b := byte(sz >> (8 * i))
		if b != 0 {
			e.out[e.outpos] = b
			e.outpos++
			mask |= 1 << (4 + i)
		}
	}
	e.out[maskPos] = mask
	return e.growIfNeeded()
}

// Diff computes a binary delta that reconstructs target when applied to
// reference (see Apply). maxOutputSize, if positive, bounds the length of
// the returned delta; Diff reports ErrSizeLimitExceeded rather than return
// a longer one. Both buffers must be fully resident in memory and
// non-empty.
//
// The algorithm indexes reference by the Adler-32-style checksum of its
// blockSize-byte blocks, then scans target left to right: at each
// position it probes the index, extends every checksum-matching candidate
// byte by byte, and keeps the longest. If that match is cheaper to encode
// as a copy opcode than as literal bytes, it emits a copy and skips ahead
// by the match length; otherwise it emits the current target byte as a
// literal and advances by one. The choice is purely local and greedy - Diff
// does not search for a globally optimal split.
func Diff(reference, target []byte, maxOutputSize uint64) ([]byte, error) {
	if len(reference) == 0 || len(target) == 0 {
		return nil, ErrInvalidInput
	}

	idx, err := NewIndex(reference)
	if err != nil {
		return nil, err
	}
	defer idx.Close()

	return DiffWithIndex(idx, reference, target, maxOutputSize)
}

// DiffWithIndex is Diff against an Index built ahead of time over reference
// (see NewIndex). Callers that diff many targets against the same
// reference - the common object-store pattern of one base revision and
// many incremental ones - build the Index once and reuse it here instead
// of paying the index-build cost on every call.
func DiffWithIndex(idx *Index, reference, target []byte, maxOutputSize uint64) ([]byte, error) {
	if len(reference) == 0 || len(target) == 0 {
		return nil, ErrInvalidInput
	}

	e := newEncoder(maxOutputSize)
	if err := e.writeVarintHeader(uint64(len(reference))); err != nil {
		return nil, err
	}
	if err := e.writeVarintHeader(uint64(len(target))); err != nil {
		return nil, err
	}

	refTop := len(reference)
	top := len(target)
	data := 0
	for data < top {
		window := blockSize
		if top-data < window {
			window = top - data
		}
		fp := adler32Checksum(0, target[data:data+window])

		msize := 0
		var moff uint32
		for rec := idx.probe(fp); rec != nil; rec = rec.next {
			if rec.checksum != fp {
				continue
			}
			csize := refTop - int(rec.offset)
			if top-data < csize {
				csize = top - data
			}
			if csize > maxCopySize {
				csize = maxCopySize
			}

			n := 0
			for n < csize && reference[int(rec.offset)+n] == target[data+n] {
				n++
			}
			if n >= msize {
				msize = n
				moff = rec.offset
				if msize >= maxCopySize {
					msize = maxCopySize
					break
				}
			}
		}

		if msize == 0 || msize < copyOpSize(moff, msize) {
			if err := e.appendLiteral(target[data]); err != nil {
				return nil, err
			}
			data++
			continue
		}

		e.flushInsertRun()
		if err := e.writeCopy(moff, msize); err != nil {
			return nil, err
		}
		data += msize
	}

	e.flushInsertRun()
	return e.out[:e.outpos], nil
}
