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
)

func TestAdler32ChecksumDeterministic(t *testing.T) {
	a := adler32Checksum(0, []byte("abcdefghijklmnop"))
	b := adler32Checksum(0, []byte("abcdefghijklmnop"))
	assert.Equal(t, a, b)
}

func TestAdler32ChecksumDistinguishesContent(t *testing.T) {
	a := adler32Checksum(0, []byte("abcdefghijklmnop"))
	b := adler32Checksum(0, []byte("ppppppppppppppp0"))
	assert.NotEqual(t, a, b)
}

func TestAdler32ChecksumEmpty(t *testing.T) {
	assert.Zero(t, adler32Checksum(0, nil))
}
