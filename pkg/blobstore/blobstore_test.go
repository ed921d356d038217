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
package blobstore_test

import (
	"context"
	"testing"

	"github.com/solarisdb/blockdelta/pkg/blobstore"
	"github.com/solarisdb/blockdelta/pkg/blobstore/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRevisionKeysAreSortableAndValid(t *testing.T) {
	k1 := blobstore.NewRevisionKey("/revisions/")
	k2 := blobstore.NewRevisionKey("/revisions/")
	assert.True(t, blobstore.IsKeyValid(k1))
	assert.True(t, blobstore.IsKeyValid(k2))
	assert.Less(t, k1, k2)
}

func TestPutRevisionStoresUnderGeneratedKey(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	key, err := blobstore.PutRevision(ctx, store, "/revisions/", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, blobstore.IsKeyValid(key))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}
