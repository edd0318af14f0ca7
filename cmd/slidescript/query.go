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
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"slidescript/internal/storage"
)

// openExistingIndex opens an index written by compile. OpenIndex would
// create a missing file, which is never what a query wants.
func openExistingIndex(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return storage.OpenIndex(ctx, path)
}

func printElement(w io.Writer, e storage.IndexedElement) {
	text := e.Text
	if e.Snippet != "" {
		text = e.Snippet
	}
	id := e.ID
	if id == "" {
		id = "-"
	}
	fmt.Fprintf(w, "slide %d line %d %s %s", e.Slide+1, e.Line, e.Kind, id)
	if text != "" {
		fmt.Fprintf(w, " %q", text)
	}
	fmt.Fprintln(w)
}

// printFooter reports the match count against the index totals.
func printFooter(ctx context.Context, w io.Writer, db *sql.DB, n int) error {
	total, ok, err := storage.IndexMeta(ctx, db, "elements")
	if err != nil {
		return err
	}
	if !ok {
		total = "?"
	}
	fmt.Fprintf(w, "%d of %s elements\n", n, total)
	return nil
}

func newQueryCmd() *cobra.Command {
	var q storage.SearchQuery
	cmd := &cobra.Command{
		Use:   "query <index> [terms...]",
		Short: "Search the timeline of a compiled SQLite index",
		Long: "Terms use SQLite full-text syntax (words, \"phrases\", AND/OR/NOT). Without terms\n" +
			"every element matching --kind and --slide is listed.",
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openExistingIndex(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			q.Text = strings.Join(args[1:], " ")
			res, err := storage.Search(ctx, db, q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range res {
				printElement(out, e)
			}
			return printFooter(ctx, out, db, len(res))
		},
	}
	cmd.Flags().StringSliceVar(&q.Kinds, "kind", nil, "only these element kinds (TEXT, IMAGE, ...)")
	cmd.Flags().IntVar(&q.Slide, "slide", 0, "only this slide (1-based)")
	cmd.Flags().IntVar(&q.Limit, "limit", 100, "maximum number of results")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "skip this many results")
	return cmd
}

func newWhereUsedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where-used <index> <style|effect|resource> <name>",
		Short: "List the elements that reference a style, effect or image resource",
		Args: usageArgs(cobra.MatchAll(cobra.ExactArgs(3), func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(args[1]) {
			case "style", "effect", "resource":
				return nil
			}
			return fmt.Errorf("unknown reference kind %q", args[1])
		})),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openExistingIndex(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			res, err := storage.WhereUsed(ctx, db, args[1], args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range res {
				printElement(out, e)
			}
			return printFooter(ctx, out, db, len(res))
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <index> <id>",
		Short: "Show the element a PLAY_EFFECT with this id would target",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openExistingIndex(ctx, args[0])
			if err != nil {
				return err
			}
			defer db.Close()
			e, err := storage.LookupElement(ctx, db, args[1])
			if err != nil {
				return err
			}
			printElement(cmd.OutOrStdout(), e)
			return nil
		},
	}
}
