/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"slidescript/internal/domain"
	"slidescript/internal/resource"
)

// ErrDuplicate is returned when a named entity is registered twice.
var ErrDuplicate = errors.New("duplicate name")

// DefaultStyleName is the name of the built-in fallback style.
const DefaultStyleName = "default"

type entry[T any] struct {
	key  string
	name string
	val  T
}

// registry is an ordered association with case-insensitive keys. Lookup is a
// linear scan (O(n) in the number of names) and the first match wins.
type registry[T any] struct{ entries []entry[T] }

func normalize(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }

func (r *registry[T]) get(name string) (T, bool) {
	k := normalize(name)
	for _, e := range r.entries {
		if e.key == k {
			return e.val, true
		}
	}
	var zero T
	return zero, false
}

func (r *registry[T]) add(name string, v T) error {
	if _, ok := r.get(name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.entries = append(r.entries, entry[T]{key: normalize(name), name: name, val: v})
	return nil
}

func (r *registry[T]) names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

func (r *registry[T]) values() []T {
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.val
	}
	return out
}

func (r *registry[T]) truncate(n int) {
	if n >= 0 && n < len(r.entries) {
		r.entries = r.entries[:n]
	}
}

// Store is the content store: the canonical, ordered repository of everything
// the parsers produce. Element order is the playback timeline.
//
// A Store is not safe for concurrent use; parsing and playback both run on a
// single goroutine.
type Store struct {
	styles    registry[*domain.Style]
	effects   registry[*domain.Effect]
	templates registry[*domain.Template]
	macros    registry[string]
	instances registry[struct{}]
	elements  []*domain.SlideElement
	resources *resource.Registry

	defaultStyle string
	instanceSeq  int
}

// New creates an empty store whose resources resolve against fsys.
func New(fsys fs.FS) *Store {
	return &Store{resources: resource.NewRegistry(fsys)}
}

// Mark captures the store size so a rejected file can be undone with Reset.
type Mark struct {
	styles, effects, templates, macros, instances, elements, resources, instanceSeq int
}

func (s *Store) Mark() Mark {
	return Mark{
		styles:      len(s.styles.entries),
		effects:     len(s.effects.entries),
		templates:   len(s.templates.entries),
		macros:      len(s.macros.entries),
		instances:   len(s.instances.entries),
		elements:    len(s.elements),
		resources:   s.resources.Len(),
		instanceSeq: s.instanceSeq,
	}
}

// Reset drops everything added since m. Elements inserted by template calls
// always land at or after the mark, so truncation is enough.
func (s *Store) Reset(m Mark) {
	s.styles.truncate(m.styles)
	s.effects.truncate(m.effects)
	s.templates.truncate(m.templates)
	s.macros.truncate(m.macros)
	s.instances.truncate(m.instances)
	if m.elements < len(s.elements) {
		clear(s.elements[m.elements:])
		s.elements = s.elements[:m.elements]
	}
	s.resources.Truncate(m.resources)
	s.instanceSeq = m.instanceSeq
}

func (s *Store) AddStyle(st *domain.Style) error { return s.styles.add(st.Name, st) }

func (s *Store) GetStyle(name string) (*domain.Style, bool) { return s.styles.get(name) }

func (s *Store) StyleNames() []string { return s.styles.names() }

func (s *Store) Styles() []*domain.Style { return s.styles.values() }

// SetDefaultStyle names the style used when an element has none.
func (s *Store) SetDefaultStyle(name string) { s.defaultStyle = name }

// DefaultStyle returns the configured default style, or a built-in one.
func (s *Store) DefaultStyle() *domain.Style {
	if s.defaultStyle != "" {
		if st, ok := s.styles.get(s.defaultStyle); ok {
			return st
		}
	}
	if st, ok := s.styles.get(DefaultStyleName); ok {
		return st
	}
	return builtinDefault
}

var builtinDefault = &domain.Style{Name: DefaultStyleName, FontFamily: "sans", FontSize: 24}

// StyleOrDefault resolves name, falling back to the default style. ok is
// false when the fallback was used for a non-empty name.
func (s *Store) StyleOrDefault(name string) (st *domain.Style, ok bool) {
	if name == "" {
		return s.DefaultStyle(), true
	}
	if st, found := s.styles.get(name); found {
		return st, true
	}
	return s.DefaultStyle(), false
}

func (s *Store) AddEffect(e *domain.Effect) error { return s.effects.add(e.Name, e) }

func (s *Store) GetEffect(name string) (*domain.Effect, bool) { return s.effects.get(name) }

func (s *Store) EffectNames() []string { return s.effects.names() }

func (s *Store) Effects() []*domain.Effect { return s.effects.values() }

func (s *Store) AddTemplate(t *domain.Template) error { return s.templates.add(t.Name, t) }

func (s *Store) GetTemplate(name string) (*domain.Template, bool) { return s.templates.get(name) }

func (s *Store) Templates() []*domain.Template { return s.templates.values() }

// AddMacro registers a macro. Macros are append-only: a second definition of
// the same key is rejected and the first value stays.
func (s *Store) AddMacro(key, value string) error { return s.macros.add(key, value) }

// MacroValue looks up a macro by key.
func (s *Store) MacroValue(key string) (string, bool) { return s.macros.get(key) }

// Resources exposes the resource registry.
func (s *Store) Resources() *resource.Registry { return s.resources }

// GetResource resolves a resource by name.
func (s *Store) GetResource(name string) (resource.Resource, bool) { return s.resources.Get(name) }

// AddSlideElement appends e to the timeline and returns its position.
func (s *Store) AddSlideElement(e *domain.SlideElement) int {
	s.elements = append(s.elements, e)
	return len(s.elements) - 1
}

// InsertAfter inserts e right after position pos (pos -1 inserts at the
// front) and returns the new element's position.
func (s *Store) InsertAfter(pos int, e *domain.SlideElement) int {
	at := pos + 1
	if at < 0 {
		at = 0
	}
	if at >= len(s.elements) {
		return s.AddSlideElement(e)
	}
	s.elements = slices.Insert(s.elements, at, e)
	return at
}

// GetSlideElement returns the element at position pos.
func (s *Store) GetSlideElement(pos int) (*domain.SlideElement, bool) {
	if pos < 0 || pos >= len(s.elements) {
		return nil, false
	}
	return s.elements[pos], true
}

// GetSlideElementByID finds the first element with the given id. PlayEffect
// elements reuse the id of their target and are skipped.
func (s *Store) GetSlideElementByID(id string) (*domain.SlideElement, bool) {
	for _, e := range s.elements {
		if e.Kind() != domain.KindPlayEffect && strings.EqualFold(e.ID, id) {
			return e, true
		}
	}
	return nil, false
}

// GetTemplateSlideElementByID searches from the end of the timeline, so the
// most recent template instance wins. It returns the element and its position.
func (s *Store) GetTemplateSlideElementByID(id string) (*domain.SlideElement, int, bool) {
	for i := len(s.elements) - 1; i >= 0; i-- {
		e := s.elements[i]
		if e.Kind() != domain.KindPlayEffect && strings.EqualFold(e.ID, id) {
			return e, i, true
		}
	}
	return nil, -1, false
}

// Len returns the number of timeline elements.
func (s *Store) Len() int { return len(s.elements) }

// Elements returns the timeline. The slice must not be modified.
func (s *Store) Elements() []*domain.SlideElement { return s.elements }

// NextInstanceID claims a fresh template instance id ("1", "2", ...).
func (s *Store) NextInstanceID() string {
	for {
		s.instanceSeq++
		id := strconv.Itoa(s.instanceSeq)
		if s.instances.add(id, struct{}{}) == nil {
			return id
		}
	}
}

// ClaimInstanceID reserves an explicit template instance id; it fails if the
// id was used by an earlier call.
func (s *Store) ClaimInstanceID(id string) error { return s.instances.add(id, struct{}{}) }
