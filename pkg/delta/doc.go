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

/*
Package delta computes a compact binary delta that, applied to a reference
buffer, reconstructs a target buffer. It exists to minimize the bytes an
object store has to persist for a new revision of a blob given the previous
one.

Diff builds a block index over the reference (a hash table keyed by a
rolling checksum of fixed 16-byte blocks), then greedily scans the target,
probing the index and extending candidate matches byte by byte, emitting
either literal insert runs or copy opcodes depending on which is cheaper to
encode. Apply is the inverse: it walks the opcode stream and reconstructs
the target from the reference.

Both buffers must be fully resident in memory; there is no streaming input,
no resumability, and the algorithm is greedy rather than optimal - see the
package-level non-goals in the project's design notes.
*/
package delta
