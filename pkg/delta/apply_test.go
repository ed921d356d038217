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

func TestApplyRejectsWrongReferenceSize(t *testing.T) {
	ref := []byte("abcdefghijklmnop")
	out, err := Diff(ref, ref, 0)
	require.NoError(t, err)

	_, err = Apply(ref[:8], out)
	assert.Error(t, err)
}

func TestApplyRejectsTruncatedInsert(t *testing.T) {
	delta := []byte{0x01, 0x01, 0x05} // header: ref size 1, target size 1; insert n=5 but no payload
	_, err := Apply([]byte{'x'}, delta)
	assert.Error(t, err)
}

func TestApplyRejectsZeroLengthInsert(t *testing.T) {
	delta := []byte{0x01, 0x00, 0x00} // insert opcode with n == 0 is reserved
	_, err := Apply([]byte{'x'}, delta)
	assert.Error(t, err)
}

func TestApplyRejectsOutOfBoundsCopy(t *testing.T) {
	// header: ref size 4, target size 4, copy opcode offset=10 size=16 (only offset byte0 set, one size byte)
	delta := []byte{0x04, 0x04, 0x80 | 0x01 | 0x10, 10, 16}
	_, err := Apply([]byte("abcd"), delta)
	assert.Error(t, err)
}

func TestApplyZeroSizeBitsMeans65536(t *testing.T) {
	ref := make([]byte, maxCopySize)
	for i := range ref {
		ref[i] = byte(i)
	}

	var delta []byte
	delta = append(delta, putVarintBytes(uint64(len(ref)))...)
	delta = append(delta, putVarintBytes(uint64(len(ref)))...)
	delta = append(delta, 0x80) // copy opcode, no offset/size bytes -> offset 0, size 65536

	out, err := Apply(ref, delta)
	require.NoError(t, err)
	assert.Equal(t, ref, out)
}

func putVarintBytes(v uint64) []byte {
	buf := make([]byte, 10)
	n := putVarint(buf, v)
	return buf[:n]
}
