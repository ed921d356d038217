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
	"encoding/json"

	"github.com/solarisdb/blockdelta/golibs/config"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/golibs/transport"
)

// Config is the blockdeltad process configuration.
type Config struct {
	// GrpcTransport specifies the gRPC health-check listener configuration.
	GrpcTransport *transport.Config
	// ResultDBFilePath is where the delta result cache persists; empty uses
	// an in-memory database.
	ResultDBFilePath string
	// JobDBFilePath is where the job store persists its request and outcome
	// records; empty uses
	// an in-memory database.
	JobDBFilePath string
	// CheckpointFilePath is where the result cache is periodically exported;
	// empty turns checkpointing off.
	CheckpointFilePath string
	// CheckpointIntervalSec is the number of seconds between exports.
	CheckpointIntervalSec int
	// MaxOutputSize bounds every diff the worker pool computes; zero is
	// unlimited.
	MaxOutputSize uint64
	// Workers is the worker pool's concurrency.
	Workers int
	// IndexCacheEntries bounds how many built reference indexes the
	// IndexCache keeps resident at once.
	IndexCacheEntries int
}

func getDefaultConfig() *Config {
	return &Config{
		GrpcTransport:         transport.GetDefaultGRPCConfig(),
		ResultDBFilePath:      ":memory:",
		JobDBFilePath:         ":memory:",
		CheckpointFilePath:    "",
		CheckpointIntervalSec: 60,
		MaxOutputSize:         0,
		Workers:               4,
		IndexCacheEntries:     16,
	}
}

// BuildConfig loads a Config starting from getDefaultConfig, overlaying
// cfgFile (if non-empty) and then the BLOCKDELTAD_-prefixed environment.
func BuildConfig(cfgFile string) (*Config, error) {
	log := logging.NewLogger("service.ConfigBuilder")
	log.Infof("building config, cfgFile=%s", cfgFile)

	e := config.NewEnricher(*getDefaultConfig())
	if err := e.LoadFromFile(cfgFile); err != nil {
		return nil, err
	}
	_ = e.ApplyEnvVariables("BLOCKDELTAD", "_")
	cfg := e.Value()
	return &cfg, nil
}

// String implements fmt.Stringer for a pretty console form.
func (c *Config) String() string {
	b, _ := json.MarshalIndent(*c, "", "  ")
	return string(b)
}
