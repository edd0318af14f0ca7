/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package resource keeps the image resources a presentation registers with
// \LOAD_IMAGE. Only metadata (format and implicit size) is read; decoding
// pixels is left to the renderer.
package resource

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrDuplicate = errors.New("resource already registered")
	ErrNotFound  = errors.New("resource not found")
)

// Resource is one registered image. IDs start at 1; 0 means "none".
type Resource struct {
	ID     int
	Name   string
	Path   string
	Format string // png, jpeg, gif, bmp, tiff, webp; empty if undecodable
	Width  int
	Height int
}

// HasSize reports whether implicit dimensions are known.
func (r Resource) HasSize() bool { return r.Width > 0 && r.Height > 0 }

// Registry holds resources in registration order. Lookup by name is a
// case-insensitive linear scan.
type Registry struct {
	fsys  fs.FS
	items []Resource
}

// NewRegistry resolves resource paths against fsys. A nil fsys registers
// resources without probing them.
func NewRegistry(fsys fs.FS) *Registry { return &Registry{fsys: fsys} }

// Add registers name -> p and probes the file. A missing file is an error;
// an unreadable image format is not (the resource is kept without size).
func (r *Registry) Add(name, p string) (Resource, error) {
	if _, ok := r.Get(name); ok {
		return Resource{}, fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	res := Resource{ID: len(r.items) + 1, Name: name, Path: p}
	if r.fsys != nil {
		clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
		f, err := r.fsys.Open(clean)
		if err != nil {
			return Resource{}, fmt.Errorf("resource %s: %w", name, err)
		}
		cfg, format, derr := image.DecodeConfig(f)
		_ = f.Close()
		if derr == nil {
			res.Format, res.Width, res.Height = format, cfg.Width, cfg.Height
		}
	}
	r.items = append(r.items, res)
	return res, nil
}

// Get finds a resource by name.
func (r *Registry) Get(name string) (Resource, bool) {
	for _, it := range r.items {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return Resource{}, false
}

// GetByID finds a resource by its numeric id.
func (r *Registry) GetByID(id int) (Resource, bool) {
	if id < 1 || id > len(r.items) {
		return Resource{}, false
	}
	return r.items[id-1], true
}

// Len returns the number of registered resources.
func (r *Registry) Len() int { return len(r.items) }

// All returns a copy of the registered resources.
func (r *Registry) All() []Resource { return append([]Resource(nil), r.items...) }

// Truncate drops resources registered after the first n.
func (r *Registry) Truncate(n int) {
	if n >= 0 && n < len(r.items) {
		r.items = r.items[:n]
	}
}
