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

import "fmt"

// Apply reconstructs the buffer a Diff call produced delta from, given the
// same reference buffer. It exists both as the reference decoder the wire
// format is designed around and as the half of the round-trip law this
// package's tests verify.
func Apply(reference, delta []byte) ([]byte, error) {
	refSize, n, err := getVarint(delta)
	if err != nil {
		return nil, fmt.Errorf("delta: reading reference size header: %w", err)
	}
	pos := n

	targetSize, n, err := getVarint(delta[pos:])
	if err != nil {
		return nil, fmt.Errorf("delta: reading target size header: %w", err)
	}
	pos += n

	if refSize != uint64(len(reference)) {
		return nil, fmt.Errorf("delta: header declares a %d-byte reference, %d bytes were provided", refSize, len(reference))
	}

	out := make([]byte, 0, targetSize)
	for pos < len(delta) {
		op := delta[pos]
		pos++

		if op&0x80 == 0 {
			n := int(op)
			if n == 0 {
				return nil, fmt.Errorf("delta: insert opcode with zero length")
			}
			if pos+n > len(delta) {
				return nil, fmt.Errorf("delta: truncated insert payload")
			}
			out = append(out, delta[pos:pos+n]...)
			pos += n
			continue
		}

		var offset uint32
		for i := 0; i < 4; i++ {
			if op&(1<<i) == 0 {
				continue
			}
			if pos >= len(delta) {
				return nil, fmt.Errorf("delta: truncated copy offset")
			}
			offset |= uint32(delta[pos]) << (8 * i)
			pos++
		}

		var size uint32
		for i := 0; i < 2; i++ {
			if op&(1<<(4+i)) == 0 {
				continue
			}
			if pos >= len(delta) {
				return nil, fmt.Errorf("delta: truncated copy size")
			}
			size |= uint32(delta[pos]) << (8 * i)
			pos++
		}
		if size == 0 {
			size = maxCopySize
		}

		if uint64(offset)+uint64(size) > uint64(len(reference)) {
			return nil, fmt.Errorf("delta: copy opcode (offset=%d, size=%d) runs past the end of a %d-byte reference", offset, size, len(reference))
		}
		out = append(out, reference[offset:offset+size]...)
	}

	if uint64(len(out)) != targetSize {
		return nil, fmt.Errorf("delta: reconstructed %d bytes, header declared %d", len(out), targetSize)
	}
	return out, nil
}

// getVarint decodes a base-128 varint from the front of buf, returning its
// value and the number of bytes it occupied.
func getVarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("delta: varint longer than 64 bits")
		}
	}
	return 0, 0, fmt.Errorf("delta: truncated varint")
}
