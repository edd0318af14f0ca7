/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack moves the look of a presentation between projects. A
// pack is a zip holding the style, effect and template scripts of one
// presentation plus a small YAML index naming which file is which.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "slidescript/internal/log"
	"slidescript/internal/presentation"
)

// IndexName is the pack index at the root of the archive.
const IndexName = "stylepack.yaml"

// Index lists the definition files of a pack by kind, with the paths they
// had in the source presentation.
type Index struct {
	Created   time.Time `yaml:"created"`
	Source    string    `yaml:"source,omitempty"`
	Styles    []string  `yaml:"styles,omitempty"`
	Effects   []string  `yaml:"effects,omitempty"`
	Templates []string  `yaml:"templates,omitempty"`
}

func (ix *Index) files() []string {
	out := append([]string{}, ix.Styles...)
	out = append(out, ix.Effects...)
	return append(out, ix.Templates...)
}

// Export writes the style, effect and template files of p into a zip at
// dest. Slides and images are not part of a pack.
func Export(p *presentation.Project, dest string) error {
	if p == nil {
		return errors.New("nil Project")
	}
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("presentation", p.ManifestPath))
	if strings.TrimSpace(dest) == "" {
		return errors.New("destination is required")
	}
	m := p.Manifest
	ix := Index{Created: time.Now().UTC(), Source: m.Title, Styles: m.Styles, Effects: m.Effects, Templates: m.Templates}
	if len(ix.files()) == 0 {
		return errors.New("presentation has no style, effect or template files")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(dest)

	zf, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)
	err = writePack(zw, p, &ix)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := zf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		l.Error("pack build failed", slog.Any("err", err))
		_ = os.Remove(dest)
		return fmt.Errorf("build pack: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", len(ix.files())), slog.String("zip", dest))
	return nil
}

func writePack(zw *zip.Writer, p *presentation.Project, ix *Index) error {
	data, err := yaml.Marshal(ix)
	if err != nil {
		return err
	}
	w, err := zw.Create(IndexName)
	if err != nil {
		return fmt.Errorf("add index: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	for _, rel := range ix.files() {
		if err := addFile(zw, p.Path(rel), rel); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	fw, err := zw.Create(path.Clean(filepath.ToSlash(name)))
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, f)
	return err
}

// safeRel validates an archive path and returns it cleaned. Absolute paths
// and paths leaving the presentation directory are rejected.
func safeRel(name string) (string, bool) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", false
	}
	return clean, true
}

// Install extracts the pack at zipPath into p and appends its files to the
// manifest, which is saved afterwards. Files that already exist are kept
// and not overwritten; they are still referenced from the manifest.
// Returns the number of files written.
func Install(p *presentation.Project, zipPath string) (int, error) {
	if p == nil {
		return 0, errors.New("nil Project")
	}
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("presentation", p.ManifestPath))
	if strings.TrimSpace(zipPath) == "" {
		return 0, errors.New("pack path is required")
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	ix, err := readIndex(&r.Reader)
	if err != nil {
		return 0, err
	}
	listed := map[string]bool{}
	for _, f := range ix.files() {
		rel, ok := safeRel(f)
		if !ok {
			return 0, fmt.Errorf("pack lists unsafe path %q", f)
		}
		listed[rel] = true
	}

	installed := 0
	for _, f := range r.File {
		if f.Name == IndexName || f.FileInfo().IsDir() {
			continue
		}
		rel, ok := safeRel(f.Name)
		if !ok || !listed[rel] {
			l.Warn("skip entry", slog.String("name", f.Name))
			continue
		}
		target := p.Path(rel)
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return installed, err
		}
		installed++
	}

	m := &p.Manifest
	m.Styles = appendMissing(m.Styles, ix.Styles)
	m.Effects = appendMissing(m.Effects, ix.Effects)
	m.Templates = appendMissing(m.Templates, ix.Templates)
	if err := presentation.Save(p); err != nil {
		return installed, err
	}
	l.Info("style pack installed", slog.Int("files", installed), slog.String("source", ix.Source))
	return installed, nil
}

func readIndex(r *zip.Reader) (*Index, error) {
	f, err := r.Open(IndexName)
	if err != nil {
		return nil, fmt.Errorf("pack has no %s: %w", IndexName, err)
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	var ix Index
	if err := yaml.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("pack index: %w", err)
	}
	return &ix, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// appendMissing appends the cleaned entries of add not yet in list.
func appendMissing(list, add []string) []string {
	for _, a := range add {
		rel, ok := safeRel(a)
		if ok && !slices.Contains(list, rel) {
			list = append(list, rel)
		}
	}
	return list
}
