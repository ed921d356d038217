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
package service

import (
	"context"
	"testing"
	"time"

	"github.com/solarisdb/blockdelta/pkg/blobstore/inmem"
	"github.com/solarisdb/blockdelta/pkg/deltacache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolComputesAndRecordsDiff(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "/blobs/ref", []byte("abcdefghijklmnopabcdefghijklmnop")))
	require.NoError(t, store.Put(ctx, "/blobs/target", []byte("abcdefghijklmnopabcdefghijklmnopQ")))

	index, err := deltacache.NewIndexCache(store, 4)
	require.NoError(t, err)

	results := deltacache.NewResultCache(deltacache.Config{})
	require.NoError(t, results.Init(ctx))
	t.Cleanup(results.Shutdown)

	jobs := NewJobStore(JobStoreConfig{})
	require.NoError(t, jobs.Init(ctx))
	t.Cleanup(jobs.Shutdown)

	wp := NewWorkerPool(WorkerPoolConfig{Workers: 2}, store, index, results, jobs)
	require.NoError(t, wp.Init(ctx))
	t.Cleanup(wp.Shutdown)

	require.NoError(t, wp.Enqueue("/blobs/ref", "/blobs/target"))

	require.Eventually(t, func() bool {
		rec, err := jobs.Get("/blobs/ref", "/blobs/target")
		return err == nil && rec.Status != JobPending
	}, time.Second, 5*time.Millisecond)

	rec, err := jobs.Get("/blobs/ref", "/blobs/target")
	require.NoError(t, err)
	assert.Equal(t, JobDone, rec.Status)
	assert.Greater(t, rec.SizeBytes, 0)
	assert.NotNil(t, rec.BuildDuration)

	cached, err := results.Get("/blobs/ref", "/blobs/target")
	require.NoError(t, err)
	assert.Equal(t, rec.SizeBytes, len(cached))
}

func TestWorkerPoolRecordsFailureForMissingBlob(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "/blobs/ref", []byte("abcdefghijklmnop")))

	index, err := deltacache.NewIndexCache(store, 4)
	require.NoError(t, err)

	results := deltacache.NewResultCache(deltacache.Config{})
	require.NoError(t, results.Init(ctx))
	t.Cleanup(results.Shutdown)

	jobs := NewJobStore(JobStoreConfig{})
	require.NoError(t, jobs.Init(ctx))
	t.Cleanup(jobs.Shutdown)

	wp := NewWorkerPool(WorkerPoolConfig{Workers: 1}, store, index, results, jobs)
	require.NoError(t, wp.Init(ctx))
	t.Cleanup(wp.Shutdown)

	require.NoError(t, wp.Enqueue("/blobs/ref", "/blobs/missing-target"))

	require.Eventually(t, func() bool {
		rec, err := jobs.Get("/blobs/ref", "/blobs/missing-target")
		return err == nil && rec.Status != JobPending
	}, time.Second, 5*time.Millisecond)

	rec, err := jobs.Get("/blobs/ref", "/blobs/missing-target")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, rec.Status)
	assert.NotEmpty(t, rec.Err)
}
