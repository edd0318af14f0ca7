/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"slidescript/internal/presentation"
	"slidescript/internal/storage"
)

// watchDebounce collapses the burst of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchSet tracks the files of one presentation. Directories are watched
// instead of files so that editors replacing a file by rename are noticed.
type watchSet struct {
	w     *fsnotify.Watcher
	dirs  map[string]bool
	files map[string]bool
}

func newWatchSet(w *fsnotify.Watcher) *watchSet {
	return &watchSet{w: w, dirs: map[string]bool{}, files: map[string]bool{}}
}

// update replaces the watched files with paths and subscribes to any new
// directory. Directories that no longer hold a watched file stay subscribed.
func (s *watchSet) update(paths []string) error {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if s.dirs[dir] {
			continue
		}
		if s.w != nil {
			if err := s.w.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
		}
		s.dirs[dir] = true
	}
	s.files = files
	return nil
}

// relevant reports whether ev touches a watched file.
func (s *watchSet) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && s.files[abs]
}

func newWatchCmd(a *app) *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "watch <manifest>",
		Short: "Recompile a presentation whenever one of its files changes",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := a.log.With(slog.String("op", "watch"))
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()
			set := newWatchSet(w)

			rebuild := func() error {
				c, err := compileManifest(ctx, args[0], l)
				if err != nil {
					fmt.Fprintln(errOut, "error:", err)
					// keep following the files of the last readable manifest
					p, oerr := presentation.Open(args[0])
					if oerr != nil {
						return nil
					}
					return set.update(p.WatchPaths())
				}
				printDiagnostics(errOut, c.Diagnostics)
				printSummary(out, c)
				if index != "" {
					if err := storage.WriteIndex(ctx, index, c.Store); err != nil {
						fmt.Fprintln(errOut, "error:", err)
					}
				}
				return set.update(c.Project.WatchPaths())
			}
			if err := rebuild(); err != nil {
				return err
			}
			if len(set.files) == 0 {
				return fmt.Errorf("%w: no readable manifest at %s", errCompile, args[0])
			}
			l.Info("watching", slog.Int("files", len(set.files)), slog.Int("dirs", len(set.dirs)))

			debounce := time.NewTimer(watchDebounce)
			debounce.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					if set.relevant(ev) {
						l.Debug("change", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
						debounce.Reset(watchDebounce)
					}
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					l.Warn("watcher error", slog.Any("err", err))
				case <-debounce.C:
					if err := rebuild(); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "rewrite the SQLite index after every successful compile")
	return cmd
}
