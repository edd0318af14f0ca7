/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"slidescript/internal/presentation"
	"slidescript/internal/script"
	"slidescript/internal/storage"
)

// errCompile is returned when at least one presentation failed to compile.
var errCompile = errors.New("compile failed")

// compileManifest opens the presentation at path and compiles it into a
// fresh store.
func compileManifest(ctx context.Context, path string, l *slog.Logger) (*presentation.Compiled, error) {
	p, err := presentation.Open(path)
	if err != nil {
		return nil, err
	}
	return presentation.Compile(ctx, p, presentation.CompileOptions{Logger: l})
}

func printDiagnostics(w io.Writer, diags []*script.Error) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s\n", d.Severity, d.Error())
	}
}

func printSummary(w io.Writer, c *presentation.Compiled) {
	fmt.Fprintf(w, "%s: %d elements, %d slides, %d warnings (%s)\n",
		c.Project.ManifestPath, c.Store.Len(), c.Store.SlideCount(), len(c.Diagnostics), c.Took.Round(time.Millisecond))
}

func newCompileCmd(a *app) *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Compile a presentation and optionally export its SQLite index",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := compileManifest(ctx, args[0], a.log)
			if err != nil {
				return fmt.Errorf("%w: %w", errCompile, err)
			}
			printDiagnostics(cmd.ErrOrStderr(), c.Diagnostics)
			printSummary(cmd.OutOrStdout(), c)

			if index == "" {
				index = a.cfg.Index.Path
			}
			if index == "" {
				return nil
			}
			if err := storage.WriteIndex(ctx, index, c.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "index written to", index)
			return nil
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "write the SQLite index to this file")
	return cmd
}

// checkResult is the outcome for one manifest of the check command.
type checkResult struct {
	compiled *presentation.Compiled
	err      error
}

func newCheckCmd(a *app) *cobra.Command {
	var failFast bool
	var jobs int
	cmd := &cobra.Command{
		Use:   "check <manifest>...",
		Short: "Compile several presentations in parallel and report problems",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					c, err := compileManifest(ctx, path, a.log)
					results[i] = checkResult{compiled: c, err: err}
					if failFast && err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("%w: %w", errCompile, err)
			}

			out, failed := cmd.OutOrStdout(), 0
			for i, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", args[i], r.err)
					continue
				}
				printDiagnostics(cmd.ErrOrStderr(), r.compiled.Diagnostics)
				fmt.Fprint(out, "ok   ")
				printSummary(out, r.compiled)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d presentations", errCompile, failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first presentation that does not compile")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "presentations compiled at once")
	return cmd
}
