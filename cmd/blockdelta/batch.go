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

	"github.com/gobwas/glob"
	"github.com/solarisdb/blockdelta/golibs/logging"
	"github.com/solarisdb/blockdelta/pkg/delta"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		refDir, targetDir, outDir, pattern string
		maxOutputSize                      uint64
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Diff every target-dir file matching a glob against its same-named reference-dir file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(refDir, targetDir, outDir, pattern, maxOutputSize)
		},
	}
	cmd.Flags().StringVar(&refDir, "ref-dir", "", "directory holding reference files (required)")
	cmd.Flags().StringVar(&targetDir, "target-dir", "", "directory holding target files (required)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory to write .delta files to (required)")
	cmd.Flags().StringVar(&pattern, "pattern", "*", "glob matched against target-dir file names")
	addSizeLimitFlag(cmd.Flags(), &maxOutputSize)
	_ = cmd.MarkFlagRequired("ref-dir")
	_ = cmd.MarkFlagRequired("target-dir")
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}

func runBatch(refDir, targetDir, outDir, pattern string, maxOutputSize uint64) error {
	log := logging.NewLogger("blockdelta.batch")
	ctx := context.Background()

	g, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid --pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		return fmt.Errorf("reading --target-dir %s: %w", targetDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating --out-dir %s: %w", outDir, err)
	}

	var matched, failed int
	for _, entry := range entries {
		if entry.IsDir() || !g.Match(entry.Name()) {
			continue
		}
		matched++

		targetPath := filepath.Join(targetDir, entry.Name())
		refPath := filepath.Join(refDir, entry.Name())
		outPath := filepath.Join(outDir, entry.Name()+".delta")

		if err := diffPair(ctx, refPath, targetPath, outPath, maxOutputSize); err != nil {
			failed++
			log.Errorf("%s: %s", entry.Name(), err)
			continue
		}
		log.Infof("%s -> %s", entry.Name(), outPath)
	}

	log.Infof("batch: %d matched, %d failed", matched, failed)
	if failed > 0 {
		return fmt.Errorf("batch: %d of %d pairs failed", failed, matched)
	}
	return nil
}

func diffPair(ctx context.Context, refPath, targetPath, outPath string, maxOutputSize uint64) error {
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
		return fmt.Errorf("diff: %w", err)
	}
	return os.WriteFile(outPath, out, 0o644)
}
