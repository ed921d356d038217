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
	"fmt"

	ggerrors "github.com/solarisdb/blockdelta/golibs/errors"
)

// The three failure kinds Diff can return. Callers should match them with
// golibs/errors.Is, the same way the rest of this module compares sentinels.
var (
	// ErrInvalidInput is returned when reference or target is empty.
	ErrInvalidInput = fmt.Errorf("delta: reference and target buffers must both be non-empty: %w", ggerrors.ErrInvalid)

	// ErrOutOfMemory is returned when the reference block index could not
	// be built - in practice, only reachable if an arena slot ceiling is
	// configured (see newArena), since this package otherwise allocates
	// through the Go heap.
	ErrOutOfMemory = fmt.Errorf("delta: could not allocate block index storage: %w", ggerrors.ErrExhausted)

	// ErrSizeLimitExceeded is returned when maxOutputSize is positive and
	// the delta would exceed it.
	ErrSizeLimitExceeded = fmt.Errorf("delta: delta would exceed the requested max output size: %w", ggerrors.ErrExhausted)
)
