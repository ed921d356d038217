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
	"io"
	"sync"
	"time"

	"github.com/solarisdb/blockdelta/golibs/container"
	gocontext "github.com/solarisdb/blockdelta/golibs/context"
	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/golibs/strutil"
	"github.com/solarisdb/blockdelta/pkg/blobstore"
	"github.com/solarisdb/blockdelta/pkg/delta"
	"github.com/solarisdb/blockdelta/pkg/deltacache"
	"google.golang.org/protobuf/types/known/durationpb"
)

// diffJob is one pending (referenceULID, targetULID) pair waiting for a
// worker, as held by the in-memory queue ahead of the durable JobStore.
type diffJob struct {
	referenceULID string
	targetULID    string
}

// WorkerPoolConfig controls a WorkerPool's concurrency and the ceiling it
// passes through to every pkg/delta.DiffWithIndex call.
type WorkerPoolConfig struct {
	// Workers is the number of goroutines draining the queue concurrently.
	Workers int
	// QueueCapacity bounds the in-memory backlog of not-yet-started jobs;
	// Enqueue reports golibs/errors.ErrExhausted once it is full.
	QueueCapacity uint
	// MaxOutputSize is passed through to pkg/delta.DiffWithIndex as the
	// per-diff size ceiling. Zero means unlimited.
	MaxOutputSize uint64
}

// WorkerPool drains (referenceULID, targetULID) diff requests recorded in a
// JobStore: for each one it resolves both blobs through a blobstore.Storage,
// builds or reuses the reference's index via a deltacache.IndexCache,
// computes the delta, caches it in a deltacache.ResultCache, and writes the
// outcome - size, build duration, or failure - back into the JobStore.
//
// The in-memory queue is a golibs/container.RingBuffer guarded by a mutex;
// workers block on a buffered notify channel rather than busy-polling it.
type WorkerPool struct {
	cfg     WorkerPoolConfig
	store   blobstore.Storage
	index   *deltacache.IndexCache
	results *deltacache.ResultCache
	jobs    *JobStore
	logger  logging.Logger

	mu     sync.Mutex
	queue  container.RingBuffer[diffJob]
	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	cancel gocontext.CancelErrFunc
}

// NewWorkerPool returns a WorkerPool. It is a github.com/logrange/linker
// component: call Init to start its worker goroutines and Shutdown to drain
// and stop them.
func NewWorkerPool(cfg WorkerPoolConfig, store blobstore.Storage, index *deltacache.IndexCache, results *deltacache.ResultCache, jobs *JobStore) *WorkerPool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	capacity := cfg.QueueCapacity
	if capacity == 0 {
		capacity = 1024
	}
	return &WorkerPool{
		cfg:     WorkerPoolConfig{Workers: workers, QueueCapacity: capacity, MaxOutputSize: cfg.MaxOutputSize},
		store:   store,
		index:   index,
		results: results,
		jobs:    jobs,
		queue:   container.NewRingBuffer[diffJob](capacity),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Init implements linker.Initializer: it starts the configured number of
// worker goroutines.
func (wp *WorkerPool) Init(ctx context.Context) error {
	wp.logger = logging.NewLogger("service.WorkerPool")
	wp.logger.Infof("starting %d workers, queue capacity=%d", wp.cfg.Workers, wp.cfg.QueueCapacity)

	wctx, cancel := gocontext.WithCancelError(ctx)
	wp.cancel = cancel
	for i := 0; i < wp.cfg.Workers; i++ {
		wp.wg.Add(1)
		go wp.run(wctx)
	}
	return nil
}

// Shutdown implements linker.Shutdowner: it cancels every in-flight
// blobstore call with golibs/errors.ErrClosed rather than a bare context
// cancellation, stops accepting new notifications, and waits for workers to
// finish draining the queue.
func (wp *WorkerPool) Shutdown() {
	wp.logger.Infof("stopping workers...")
	close(wp.done)
	wp.cancel(errors.ErrClosed)
	wp.wg.Wait()
}

// Enqueue records a pending JobRecord and schedules (referenceULID,
// targetULID) for a worker to pick up. It returns golibs/errors.ErrExhausted
// if the in-memory backlog is already at QueueCapacity.
func (wp *WorkerPool) Enqueue(referenceULID, targetULID string) error {
	wp.mu.Lock()
	err := wp.queue.Write(diffJob{referenceULID: referenceULID, targetULID: targetULID})
	wp.mu.Unlock()
	if err != nil {
		return err
	}

	if err := wp.jobs.Put(JobRecord{ReferenceULID: referenceULID, TargetULID: targetULID, Status: JobPending}); err != nil {
		return err
	}

	select {
	case wp.notify <- struct{}{}:
	default:
	}
	return nil
}

func (wp *WorkerPool) run(ctx context.Context) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.done:
			wp.drain(ctx)
			return
		case <-ctx.Done():
			wp.drain(ctx)
			return
		case <-wp.notify:
			wp.drain(ctx)
		}
	}
}

// drain processes every job currently in the queue. It is called on the
// notify, done and context-cancelled paths so a final Shutdown still
// finishes work that was enqueued right before it.
func (wp *WorkerPool) drain(ctx context.Context) {
	for {
		wp.mu.Lock()
		job, err := wp.queue.Read()
		wp.mu.Unlock()
		if err == io.EOF {
			return
		}
		wp.process(ctx, job)
	}
}

func (wp *WorkerPool) process(ctx context.Context, job diffJob) {
	start := time.Now()
	rec := JobRecord{ReferenceULID: job.referenceULID, TargetULID: job.targetULID}

	out, contentHash, err := wp.compute(ctx, job)
	rec.BuildDuration = durationpb.New(time.Since(start))
	if err != nil {
		rec.Status = JobFailed
		rec.Err = err.Error()
		wp.logger.Warnf("diff(%s, %s) failed: %v", job.referenceULID, job.targetULID, err)
	} else {
		rec.Status = JobDone
		rec.SizeBytes = len(out)
		rec.ContentHash = contentHash
		wp.logger.Debugf("diff(%s, %s) -> %d bytes in %s", job.referenceULID, job.targetULID, len(out), rec.BuildDuration.AsDuration())
	}

	if putErr := wp.jobs.Put(rec); putErr != nil {
		wp.logger.Errorf("recording outcome for (%s, %s) failed: %v", job.referenceULID, job.targetULID, putErr)
	}
}

// compute returns the delta bytes and, on a cache miss (where the target is
// read in full anyway), the target's sha256 content hash so the caller can
// confirm the diff was built from the content it expects. A cache hit skips
// re-reading the target, so its ContentHash is left empty.
func (wp *WorkerPool) compute(ctx context.Context, job diffJob) ([]byte, string, error) {
	if cached, err := wp.results.Get(job.referenceULID, job.targetULID); err == nil {
		return cached, "", nil
	} else if !errors.Is(err, errors.ErrNotExist) {
		return nil, "", err
	}

	idx, err := wp.index.Get(job.referenceULID)
	if err != nil {
		return nil, "", err
	}
	reference, err := wp.store.Get(ctx, job.referenceULID)
	if err != nil {
		return nil, "", err
	}
	target, err := wp.store.Get(ctx, job.targetULID)
	if err != nil {
		return nil, "", err
	}
	contentHash, err := strutil.NewSha256ForData(target)
	if err != nil {
		return nil, "", err
	}

	out, err := delta.DiffWithIndex(idx, reference, target, wp.cfg.MaxOutputSize)
	if err != nil {
		return nil, "", err
	}
	if err := wp.results.Put(job.referenceULID, job.targetULID, out); err != nil {
		return nil, "", err
	}
	return out, contentHash.String(), nil
}
