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

// Command blockdelta is a CLI front-end for pkg/delta: it diffs one
// reference/target file pair, or every matching pair across two
// directories, and writes the resulting delta(s) to disk (a single pair goes
// to stdout when no --out path is given).
package main

import (
	"fmt"
	"os"

	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "blockdelta",
		Short: "Compute binary deltas between reference and target blobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLevel(logging.ParseLevel(logLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: error, warn, info, debug, trace")

	root.AddCommand(newDiffCmd())
	root.AddCommand(newBatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// addSizeLimitFlag registers the --max-output-size flag the diff and batch
// subcommands share.
func addSizeLimitFlag(fs *pflag.FlagSet, p *uint64) {
	fs.Uint64Var(p, "max-output-size", 0, "abort if a delta would exceed this many bytes (0 = unlimited)")
}
