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

// Command blockdeltad is the long-running delta-build service: a gRPC
// health endpoint in front of a worker pool that drains diff requests
// against a result cache.
package main

import (
	"fmt"
	"os"
	"syscall"

	gocontext "github.com/solarisdb/blockdelta/golibs/context"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/pkg/service"
	"github.com/spf13/cobra"
)

func main() {
	var cfgFile string

	root := &cobra.Command{
		Use:   "blockdeltad",
		Short: "Run the blockdelta build service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML/JSON config file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	log := logging.NewLogger("blockdeltad")

	cfg, err := service.BuildConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("building config: %w", err)
	}

	ctx := gocontext.NewSignalsContext(syscall.SIGINT, syscall.SIGTERM)
	log.Infof("starting, SIGINT/SIGTERM triggers a graceful shutdown")
	return service.Run(ctx, cfg)
}
