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
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/pkg/blobstore/localfile"
	"github.com/solarisdb/blockdelta/pkg/delta"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var (
		refPath, targetPath, outPath string
		maxOutputSize                uint64
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff a reference file against a target file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(refPath, targetPath, outPath, maxOutputSize)
		},
	}
	cmd.Flags().StringVar(&refPath, "ref", "", "path to the reference file (required)")
	cmd.Flags().StringVar(&targetPath, "target", "", "path to the target file (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the delta to (defaults to stdout)")
	addSizeLimitFlag(cmd.Flags(), &maxOutputSize)
	_ = cmd.MarkFlagRequired("ref")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func runDiff(refPath, targetPath, outPath string, maxOutputSize uint64) error {
	log := logging.NewLogger("blockdelta.diff")
	ctx := context.Background()

	reference, err := readLocalFile(ctx, refPath)
	if err != nil {
		return fmt.Errorf("reading reference %s: %w", refPath, err)
	}
	target, err := readLocalFile(ctx, targetPath)
	if err != nil {
		return fmt.Errorf("reading target %s: %w", targetPath, err)
	}

	out, err := delta.Diff(reference, target, maxOutputSize)
	if err != nil {
		return fmt.Errorf("diff(%s, %s): %w", refPath, targetPath, err)
	}
	log.Infof("diff(%s, %s) -> %d bytes", refPath, targetPath, len(out))

	if outPath == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}

// readLocalFile maps path read-only through blobstore/localfile rather than
// os.ReadFile, so the CLI exercises the same code path production use of
// local reference/target files would.
func readLocalFile(ctx context.Context, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	store := localfile.New("")
	return store.Get(ctx, filepath.ToSlash(abs))
}
