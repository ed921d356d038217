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

	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
)

func newTestJobStore(t *testing.T) *JobStore {
	js := NewJobStore(JobStoreConfig{})
	require.NoError(t, js.Init(context.Background()))
	t.Cleanup(js.Shutdown)
	return js
}

func TestJobStoreMissReturnsNotExist(t *testing.T) {
	js := newTestJobStore(t)
	_, err := js.Get("ref", "target")
	assert.ErrorIs(t, err, errors.ErrNotExist)
}

func TestJobStorePutThenGetRoundTrips(t *testing.T) {
	js := newTestJobStore(t)
	rec := JobRecord{
		ReferenceULID: "ref",
		TargetULID:    "target",
		Status:        JobDone,
		SizeBytes:     42,
		BuildDuration: durationpb.New(250 * time.Millisecond),
	}
	require.NoError(t, js.Put(rec))

	got, err := js.Get("ref", "target")
	require.NoError(t, err)
	assert.Equal(t, JobDone, got.Status)
	assert.Equal(t, 42, got.SizeBytes)
	assert.Equal(t, 250*time.Millisecond, got.BuildDuration.AsDuration())
}

func TestJobStorePutOverwritesExistingRecord(t *testing.T) {
	js := newTestJobStore(t)
	require.NoError(t, js.Put(JobRecord{ReferenceULID: "ref", TargetULID: "target", Status: JobPending}))
	require.NoError(t, js.Put(JobRecord{ReferenceULID: "ref", TargetULID: "target", Status: JobFailed, Err: "boom"}))

	got, err := js.Get("ref", "target")
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "boom", got.Err)
}
