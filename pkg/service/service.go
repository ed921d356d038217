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
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/logrange/linker"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/pkg/blobstore/inmem"
	"github.com/solarisdb/blockdelta/pkg/deltacache"
	"github.com/solarisdb/blockdelta/pkg/grpc"
	"github.com/solarisdb/blockdelta/pkg/version"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	ggrpc "google.golang.org/grpc"
)

// Run starts blockdeltad: a gRPC health-check endpoint and a worker pool
// draining diff requests, wired together with github.com/logrange/linker
// exactly the way this codebase's other long-running process does it. Run
// blocks until ctx is done, then shuts every component down in reverse
// registration order.
func Run(ctx context.Context, cfg *Config) error {
	log := logging.NewLogger("service")
	log.Infof("starting blockdeltad: %s", version.BuildVersionString())
	log.Infof(spew.Sprint(cfg))
	defer log.Infof("blockdeltad is stopped")

	var grpcRegF grpc.RegisterF = func(gs *ggrpc.Server) error {
		grpc_health_v1.RegisterHealthServer(gs, health.NewServer())
		return nil
	}

	store := inmem.New()
	results := deltacache.NewResultCache(deltacache.Config{DBFilePath: cfg.ResultDBFilePath})
	jobs := NewJobStore(JobStoreConfig{DBFilePath: cfg.JobDBFilePath})
	index, err := deltacache.NewIndexCache(store, cfg.IndexCacheEntries)
	if err != nil {
		return err
	}
	workers := NewWorkerPool(WorkerPoolConfig{Workers: cfg.Workers, MaxOutputSize: cfg.MaxOutputSize}, store, index, results, jobs)
	checkpoints := NewCheckpointer(CheckpointConfig{
		FilePath: cfg.CheckpointFilePath,
		Interval: time.Duration(cfg.CheckpointIntervalSec) * time.Second,
	}, results)

	// shutdown runs in reverse registration order: the worker pool drains
	// first, then the checkpointer writes its final export, and only then
	// does the result cache close its database.
	inj := linker.New()
	inj.Register(linker.Component{Name: "", Value: grpc.NewServer(grpc.Config{Transport: *cfg.GrpcTransport, RegisterEndpoints: grpcRegF})})
	inj.Register(linker.Component{Name: "", Value: results})
	inj.Register(linker.Component{Name: "", Value: checkpoints})
	inj.Register(linker.Component{Name: "", Value: jobs})
	inj.Register(linker.Component{Name: "", Value: workers})

	inj.Init(ctx)
	<-ctx.Done()
	inj.Shutdown()
	return nil
}
