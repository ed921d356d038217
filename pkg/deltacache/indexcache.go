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

// Package deltacache holds the caching layers around pkg/delta.Diff that an
// object store needs for the "one base revision, many incremental targets"
// pattern: an LRU cache of built pkg/delta.Index objects (IndexCache) and a
// buntdb-backed cache of already-computed delta results (ResultCache).
package deltacache

import (
	"context"
	"fmt"

	"github.com/solarisdb/blockdelta/golibs/container/lru"
	"github.com/solarisdb/blockdelta/pkg/blobstore"
	"github.com/solarisdb/blockdelta/pkg/delta"
)

// IndexCache caches a pkg/delta.Index, keyed by the ULID of the reference
// blob it was built over, so that diffing many targets against the same
// reference only pays the index-build cost once. Building the index
// requires reading the full reference out of store, which is why the
// create function needs a blobstore.Storage and a context.
type IndexCache struct {
	store blobstore.Storage
	cache *lru.Cache[string, *delta.Index]
}

// NewIndexCache returns an IndexCache of at most maxEntries built indexes,
// reading reference bytes from store on a miss.
func NewIndexCache(store blobstore.Storage, maxEntries int) (*IndexCache, error) {
	ic := &IndexCache{store: store}
	cache, err := lru.NewCache[string, *delta.Index](maxEntries,
		func(referenceKey string) (*delta.Index, error) {
			return ic.build(referenceKey)
		},
		func(_ string, idx *delta.Index) {
			idx.Close()
		})
	if err != nil {
		return nil, fmt.Errorf("deltacache.NewIndexCache: %w", err)
	}
	ic.cache = cache
	return ic, nil
}

// Get returns the built Index for referenceKey, building it (and reading
// the reference blob from the store) on a cache miss.
func (ic *IndexCache) Get(referenceKey string) (*delta.Index, error) {
	return ic.cache.GetOrCreate(referenceKey)
}

// Invalidate drops referenceKey from the cache, releasing its Index. Call
// this whenever the underlying reference blob is overwritten or deleted.
func (ic *IndexCache) Invalidate(referenceKey string) {
	ic.cache.Remove(referenceKey)
}

func (ic *IndexCache) build(referenceKey string) (*delta.Index, error) {
	ref, err := ic.store.Get(context.Background(), referenceKey)
	if err != nil {
		return nil, fmt.Errorf("deltacache.IndexCache: reading reference %s: %w", referenceKey, err)
	}
	return delta.NewIndex(ref)
}
