/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package presentation

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ManifestFileName = "presentation.yaml"
	BackupsDirName   = "backups"
)

// Standard subfolders of a new presentation.
var standardSubDirs = []string{
	"styles",
	"effects",
	"templates",
	"slides",
	"images",
	BackupsDirName,
}

// Project is a manifest loaded from (or saved to) disk.
// Root is the directory the manifest paths are relative to.
type Project struct {
	Root         string
	ManifestPath string
	Manifest     Manifest
}

// Init creates a presentation directory at root, scaffolds the standard
// subfolders and writes m as its manifest.
func Init(root string, m Manifest) (*Project, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create presentation root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	p := &Project{Root: root, ManifestPath: filepath.Join(root, ManifestFileName), Manifest: m}
	if err := Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Open loads a manifest. path may name the manifest file or the directory
// holding presentation.yaml. If the manifest cannot be read or is invalid,
// the latest backup is tried.
func Open(path string) (*Project, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, ManifestFileName)
	}
	root := filepath.Dir(path)
	b, err := os.ReadFile(path)
	if err != nil {
		m, berr := openFromLatestBackup(root, filepath.Base(path))
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &Project{Root: root, ManifestPath: path, Manifest: *m}, nil
	}
	m, perr := ParseManifest(b)
	if perr != nil {
		bm, berr := openFromLatestBackup(root, filepath.Base(path))
		if berr != nil {
			return nil, fmt.Errorf("parse manifest %s: %w; backup attempt: %v", path, perr, berr)
		}
		return &Project{Root: root, ManifestPath: path, Manifest: *bm}, nil
	}
	return &Project{Root: root, ManifestPath: path, Manifest: *m}, nil
}

// Save writes the manifest transactionally and keeps a timestamped backup
// of the previous one.
func Save(p *Project) error {
	if p == nil {
		return errors.New("nil Project")
	}
	if p.Root == "" || p.ManifestPath == "" {
		return errors.New("invalid Project: missing paths")
	}
	data, err := p.Manifest.Marshal()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if _, err := ParseManifest(data); err != nil {
		return err
	}

	bdir := filepath.Join(p.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	name := filepath.Base(p.ManifestPath)
	if _, statErr := os.Stat(p.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", name, stamp))
		if cerr := copyFile(p.ManifestPath, bpath); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// temp file in the same directory, then rename over the target
	dir := filepath.Dir(p.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", name, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// Windows cannot rename over an existing file
	if _, err := os.Stat(p.ManifestPath); err == nil {
		_ = os.Remove(p.ManifestPath)
	}
	if rerr := os.Rename(temp, p.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// Path resolves a manifest-relative file name.
func (p *Project) Path(rel string) string { return filepath.Join(p.Root, filepath.FromSlash(rel)) }

// WatchPaths returns the manifest and every file it references.
func (p *Project) WatchPaths() []string {
	out := []string{p.ManifestPath}
	for _, f := range p.Manifest.Files() {
		out = append(out, p.Path(f))
	}
	for _, r := range p.Manifest.Resources {
		out = append(out, p.Path(r.Path))
	}
	return out
}

func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup parses the newest backup of the manifest called name.
func openFromLatestBackup(root, name string) (*Manifest, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		n := e.Name()
		if strings.HasPrefix(n, name+".") && strings.HasSuffix(n, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, n))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	return ParseManifest(b)
}
