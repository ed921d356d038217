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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/solarisdb/blockdelta/pkg/deltacache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointerWritesFinalExportOnShutdown(t *testing.T) {
	results := deltacache.NewResultCache(deltacache.Config{})
	require.NoError(t, results.Init(context.Background()))
	t.Cleanup(results.Shutdown)
	require.NoError(t, results.Put("ref-ulid", "target-ulid", []byte{1, 2, 3}))

	path := filepath.Join(t.TempDir(), "results.checkpoint")
	cp := NewCheckpointer(CheckpointConfig{FilePath: path, Interval: time.Minute}, results)
	require.NoError(t, cp.Init(context.Background()))

	// the interval is far longer than the test; the export written by
	// Shutdown is what must cover entries computed since the last tick.
	cp.Shutdown()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ref-ulid")
	assert.Contains(t, string(data), "target-ulid")
}

func TestCheckpointerExportsOnTicks(t *testing.T) {
	results := deltacache.NewResultCache(deltacache.Config{})
	require.NoError(t, results.Init(context.Background()))
	t.Cleanup(results.Shutdown)
	require.NoError(t, results.Put("r", "t", []byte{42}))

	path := filepath.Join(t.TempDir(), "results.checkpoint")
	cp := NewCheckpointer(CheckpointConfig{FilePath: path, Interval: 5 * time.Millisecond}, results)
	require.NoError(t, cp.Init(context.Background()))
	t.Cleanup(cp.Shutdown)

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestCheckpointerDisabledWithoutFilePath(t *testing.T) {
	results := deltacache.NewResultCache(deltacache.Config{})
	require.NoError(t, results.Init(context.Background()))
	t.Cleanup(results.Shutdown)

	cp := NewCheckpointer(CheckpointConfig{}, results)
	require.NoError(t, cp.Init(context.Background()))
	cp.Shutdown() // must not block waiting for a goroutine that never started
}
