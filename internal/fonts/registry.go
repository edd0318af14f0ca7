/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fonts assigns renderer font handles to style font specs and
// measures text. Handles are built lazily: asking for an unknown spec queues
// it, and the next Build call (normally made by the renderer between frames)
// creates the face and assigns the id.
package fonts

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"slidescript/internal/domain"
)

// DefaultSize is used for specs without a size.
const DefaultSize = 24

// Registry maps font specs to ids and faces. It is safe for concurrent use
// so a renderer goroutine may call Build while the driver asks for ids.
type Registry struct {
	lib *Library
	dpi float64

	mu      sync.Mutex
	ids     map[domain.FontSpec]int
	faces   []font.Face // index id-1
	pending []domain.FontSpec
	queued  map[domain.FontSpec]bool
}

// NewRegistry resolves families through lib; nil uses DefaultLibrary.
func NewRegistry(lib *Library) *Registry {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &Registry{lib: lib, dpi: 72, ids: map[domain.FontSpec]int{}, queued: map[domain.FontSpec]bool{}}
}

func normalizeSpec(spec domain.FontSpec) domain.FontSpec {
	if spec.Size <= 0 {
		spec.Size = DefaultSize
	}
	if spec.Family == "" {
		spec.Family = "sans"
	}
	return spec
}

// FontID returns the handle of spec. While the face is not built it queues
// the spec and returns false.
func (r *Registry) FontID(spec domain.FontSpec) (int, bool) {
	spec = normalizeSpec(spec)
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[spec]; ok {
		return id, true
	}
	if !r.queued[spec] {
		r.queued[spec] = true
		r.pending = append(r.pending, spec)
	}
	return 0, false
}

// Pending reports how many specs wait for Build.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Build creates faces for all queued specs and returns how many were built.
// Families missing from the library fall back to a fixed bitmap face.
func (r *Registry) Build() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.pending)
	for _, spec := range r.pending {
		r.faces = append(r.faces, r.newFace(spec))
		r.ids[spec] = len(r.faces)
		delete(r.queued, spec)
	}
	r.pending = r.pending[:0]
	return n
}

func (r *Registry) newFace(spec domain.FontSpec) font.Face {
	if f := r.lib.find(spec.Family, spec.Bold, spec.Italic); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.Size), DPI: r.dpi, Hinting: font.HintingFull})
		if err == nil {
			return face
		}
	}
	return basicfont.Face7x13
}

// Face returns the face of a built handle.
func (r *Registry) Face(id int) (font.Face, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || id > len(r.faces) {
		return nil, false
	}
	return r.faces[id-1], true
}

// Close releases all faces.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for _, f := range r.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.faces = nil
	r.ids = map[domain.FontSpec]int{}
	return first
}
