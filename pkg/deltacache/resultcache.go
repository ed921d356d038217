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
package deltacache

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/tidwall/buntdb"
)

// ResultCache maps a (referenceULID, targetULID) pair to an already-computed
// delta, so a repeated diff request for the same pair is served without
// recomputation. It is backed by an embedded github.com/tidwall/buntdb
// database, keyed on a single string built from the pair.
type ResultCache struct {
	cfg    Config
	db     *buntdb.DB
	logger logging.Logger
}

// Config controls where ResultCache persists its database.
type Config struct {
	// DBFilePath is the buntdb file path. An empty path opens an in-memory
	// database.
	DBFilePath string
}

// NewResultCache creates a ResultCache. It is a github.com/logrange/linker
// component: call Init before use and Shutdown when done.
func NewResultCache(cfg Config) *ResultCache {
	return &ResultCache{cfg: cfg}
}

// Init implements linker.Initializer: it opens the backing buntdb database.
func (rc *ResultCache) Init(_ context.Context) error {
	path := rc.cfg.DBFilePath
	if path == "" {
		path = ":memory:"
	}
	rc.logger = logging.NewLogger("deltacache.ResultCache")
	rc.logger.Infof("opening result cache at %s", path)

	db, err := buntdb.Open(path)
	if err != nil {
		return fmt.Errorf("deltacache.ResultCache: buntdb.Open(%s): %w", path, err)
	}
	rc.db = db
	return nil
}

// Shutdown implements linker.Shutdowner: it closes the backing database.
func (rc *ResultCache) Shutdown() {
	if rc.db == nil {
		return
	}
	rc.logger.Infof("closing result cache")
	_ = rc.db.Close()
}

// Get returns the cached delta for (referenceULID, targetULID), or
// golibs/errors.ErrNotExist if nothing is cached for that pair yet.
func (rc *ResultCache) Get(referenceULID, targetULID string) ([]byte, error) {
	key := pairKey(referenceULID, targetULID)

	var encoded string
	err := rc.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key, true)
		if err != nil {
			return err
		}
		encoded = v
		return nil
	})
	if err != nil {
		if err == buntdb.ErrNotFound {
			return nil, fmt.Errorf("deltacache.ResultCache.Get(%s, %s): %w", referenceULID, targetULID, errors.ErrNotExist)
		}
		return nil, fmt.Errorf("deltacache.ResultCache.Get(%s, %s): %w", referenceULID, targetULID, err)
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Put stores delta under (referenceULID, targetULID), replacing any value
// already cached for that pair.
func (rc *ResultCache) Put(referenceULID, targetULID string, delta []byte) error {
	key := pairKey(referenceULID, targetULID)
	encoded := base64.StdEncoding.EncodeToString(delta)

	return rc.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, encoded, nil)
		return err
	})
}

// SnapshotTo writes a point-in-time export of every cached pair to path,
// one tab-separated key/value line per entry, read under a single View
// transaction so the export is consistent. buntdb already persists its own
// append-only file (opened with its default config, which fsyncs about once
// a second); the export is the separate artifact the service's periodic
// checkpoint ships off-box.
func (rc *ResultCache) SnapshotTo(path string) error {
	var buf bytes.Buffer
	err := rc.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			buf.WriteString(key)
			buf.WriteByte('\t')
			buf.WriteString(value)
			buf.WriteByte('\n')
			return true
		})
	})
	if err != nil {
		return fmt.Errorf("deltacache.ResultCache.SnapshotTo(%s): %w", path, err)
	}
	return Snapshot(path, buf.Bytes())
}

// Snapshot writes data to path atomically via github.com/natefinch/atomic,
// matching the atomic-rename discipline this codebase uses anywhere a file
// must never be observed half-written.
func Snapshot(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func pairKey(referenceULID, targetULID string) string {
	return fmt.Sprintf("/delta/%s/%s", referenceULID, targetULID)
}
