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

// Package service is the long-running blockdeltad process: a gRPC
// health-check endpoint plus a worker pool that drains an in-memory queue of
// (referenceULID, targetULID) diff requests, computes the delta via
// pkg/delta, and records each request and its outcome in a buntdb-backed
// job store. Records left pending at a restart are not queued again.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/tidwall/buntdb"
	"google.golang.org/protobuf/types/known/durationpb"
)

// JobStatus is the lifecycle state of one diff request recorded in the JobStore.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// JobRecord is one (referenceULID, targetULID) diff request and its outcome.
// BuildDuration is a durationpb.Duration rather than a bespoke field, so it
// round-trips through any future gRPC status surface without a conversion.
type JobRecord struct {
	ReferenceULID string               `json:"referenceULID"`
	TargetULID    string               `json:"targetULID"`
	Status        JobStatus            `json:"status"`
	SizeBytes     int                  `json:"sizeBytes,omitempty"`
	BuildDuration *durationpb.Duration `json:"buildDuration,omitempty"`
	// ContentHash is the sha256 of the target blob the delta was built
	// from, so a consumer can confirm it against the source of truth
	// without re-reading the blob store.
	ContentHash string `json:"contentHash,omitempty"`
	Err         string `json:"error,omitempty"`
}

// JobStore persists JobRecords in a buntdb database, keyed by the
// (referenceULID, targetULID) pair they describe.
type JobStore struct {
	cfg    JobStoreConfig
	db     *buntdb.DB
	logger logging.Logger
}

// JobStoreConfig controls where JobStore persists its database.
type JobStoreConfig struct {
	// DBFilePath is the buntdb file path; empty opens an in-memory database.
	DBFilePath string
}

// NewJobStore creates a JobStore. It is a github.com/logrange/linker
// component: call Init before use and Shutdown when done.
func NewJobStore(cfg JobStoreConfig) *JobStore {
	return &JobStore{cfg: cfg}
}

// Init implements linker.Initializer.
func (js *JobStore) Init(_ context.Context) error {
	path := js.cfg.DBFilePath
	if path == "" {
		path = ":memory:"
	}
	js.logger = logging.NewLogger("service.JobStore")
	js.logger.Infof("opening job store at %s", path)

	db, err := buntdb.Open(path)
	if err != nil {
		return fmt.Errorf("service.JobStore: buntdb.Open(%s): %w", path, err)
	}
	js.db = db
	return nil
}

// Shutdown implements linker.Shutdowner.
func (js *JobStore) Shutdown() {
	if js.db == nil {
		return
	}
	js.logger.Infof("closing job store")
	_ = js.db.Close()
}

// Put records rec, replacing any existing record for its pair.
func (js *JobStore) Put(rec JobRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("service.JobStore.Put: marshal: %w", err)
	}
	key := jobKey(rec.ReferenceULID, rec.TargetULID)
	return js.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(val), nil)
		return err
	})
}

// Get returns the JobRecord for (referenceULID, targetULID), or
// golibs/errors.ErrNotExist if no request has been recorded for that pair.
func (js *JobStore) Get(referenceULID, targetULID string) (JobRecord, error) {
	var rec JobRecord
	key := jobKey(referenceULID, targetULID)

	var raw string
	err := js.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key, true)
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err != nil {
		if err == buntdb.ErrNotFound {
			return rec, fmt.Errorf("service.JobStore.Get(%s, %s): %w", referenceULID, targetULID, errors.ErrNotExist)
		}
		return rec, fmt.Errorf("service.JobStore.Get(%s, %s): %w", referenceULID, targetULID, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return rec, fmt.Errorf("service.JobStore.Get(%s, %s): unmarshal: %w", referenceULID, targetULID, err)
	}
	return rec, nil
}

func jobKey(referenceULID, targetULID string) string {
	return fmt.Sprintf("/jobs/%s/%s", referenceULID, targetULID)
}
