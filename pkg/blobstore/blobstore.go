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

// Package blobstore abstracts the reference/target buffers fed to
// pkg/delta.Diff away from where they actually live. Every implementation
// resolves a key to a fully-read []byte before returning it: pkg/delta
// never streams, so there is no value in handing it an io.Reader.
package blobstore

import (
	"context"
	"strings"

	"github.com/solarisdb/blockdelta/golibs/ulidutils"
)

// Storage is a key-addressed blob store. Every method takes a context since
// the network implementation (s3) needs one to cancel in-flight calls.
type Storage interface {
	// Get reads the full value for key. It returns golibs/errors.ErrNotExist
	// if key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any existing value.
	Put(ctx context.Context, key string, data []byte) error

	// List returns the keys and sub-paths with the given path prefix.
	List(ctx context.Context, path string) ([]string, error)

	// Delete removes key. It is a no-op, not an error, if key does not exist.
	Delete(ctx context.Context, key string) error
}

// NewRevisionKey returns a fresh key under path for a newly-ingested blob
// revision, addressed by a ULID rather than a random UUID so that revisions
// of the same logical object sort in creation order.
func NewRevisionKey(path string) string {
	return path + ulidutils.NewID()
}

// PutRevision stores data under a freshly minted NewRevisionKey(path) and
// returns the key, so a caller that just ingested a blob gets back the
// identity the delta pipeline will address it by.
func PutRevision(ctx context.Context, store Storage, path string, data []byte) (string, error) {
	key := NewRevisionKey(path)
	if err := store.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// IsKeyValid reports whether key follows the <path><valId> convention: it
// starts with '/', does not end with '/', and its final segment is non-empty.
func IsKeyValid(key string) bool {
	idx := strings.LastIndex(key, "/")
	if idx == -1 {
		return false
	}
	if strings.TrimSpace(key[idx+1:]) == "" {
		return false
	}
	return IsPathValid(key[:idx+1])
}

// IsPathValid reports whether path starts and ends with '/' and has no
// empty interior segments.
func IsPathValid(path string) bool {
	if path == "" {
		return false
	}
	parts := strings.Split(path, "/")
	if parts[0] != "" || parts[len(parts)-1] != "" {
		return false
	}
	for _, p := range parts[1 : len(parts)-1] {
		if p == "" {
			return false
		}
	}
	return true
}

