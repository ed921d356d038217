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
	"sync"
	"time"

	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/pkg/deltacache"
)

// Checkpointer periodically exports the result cache to a file via
// deltacache.ResultCache.SnapshotTo, so an operator always has a recent
// consistent copy of the computed deltas to ship off-box. It is a
// github.com/logrange/linker component: Init starts the ticker goroutine,
// Shutdown stops it after one final export.
type Checkpointer struct {
	cfg     CheckpointConfig
	results *deltacache.ResultCache
	logger  logging.Logger

	done chan struct{}
	wg   sync.WaitGroup
}

// CheckpointConfig controls where and how often the Checkpointer exports.
type CheckpointConfig struct {
	// FilePath is where the export is written. Empty disables checkpointing.
	FilePath string
	// Interval is the time between exports.
	Interval time.Duration
}

// NewCheckpointer returns a Checkpointer exporting results per cfg.
func NewCheckpointer(cfg CheckpointConfig, results *deltacache.ResultCache) *Checkpointer {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Checkpointer{cfg: cfg, results: results, done: make(chan struct{})}
}

// Init implements linker.Initializer: it starts the checkpoint goroutine,
// or does nothing when no FilePath is configured.
func (cp *Checkpointer) Init(_ context.Context) error {
	cp.logger = logging.NewLogger("service.Checkpointer")
	if cp.cfg.FilePath == "" {
		cp.logger.Infof("no checkpoint file configured, checkpointing is off")
		return nil
	}
	cp.logger.Infof("checkpointing to %s every %s", cp.cfg.FilePath, cp.cfg.Interval)

	cp.wg.Add(1)
	go cp.run()
	return nil
}

// Shutdown implements linker.Shutdowner: it stops the ticker and writes one
// last export so nothing computed since the previous tick is lost.
func (cp *Checkpointer) Shutdown() {
	close(cp.done)
	cp.wg.Wait()
	if cp.cfg.FilePath != "" {
		cp.checkpoint()
	}
}

func (cp *Checkpointer) run() {
	defer cp.wg.Done()
	ticker := time.NewTicker(cp.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-cp.done:
			return
		case <-ticker.C:
			cp.checkpoint()
		}
	}
}

func (cp *Checkpointer) checkpoint() {
	if err := cp.results.SnapshotTo(cp.cfg.FilePath); err != nil {
		cp.logger.Errorf("could not write checkpoint to %s: %v", cp.cfg.FilePath, err)
		return
	}
	cp.logger.Debugf("checkpoint written to %s", cp.cfg.FilePath)
}
