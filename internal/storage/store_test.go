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
	"testing"

	"slidescript/internal/domain"
)

func TestStyleLookupIsCaseInsensitive(t *testing.T) {
	s := New(nil)
	red := &domain.Style{Name: "red", FontFamily: "serif", FontSize: 20}
	if err := s.AddStyle(red); err != nil {
		t.Fatalf("AddStyle: %v", err)
	}
	a, okA := s.GetStyle("Red")
	b, okB := s.GetStyle("RED")
	if !okA || !okB || a != red || b != red {
		t.Fatalf("lookups disagree: %p %p want %p", a, b, red)
	}
	if err := s.AddStyle(&domain.Style{Name: "RED"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got, _ := s.GetStyle("red"); got != red {
		t.Fatalf("duplicate replaced the first definition")
	}
}

func TestDefaultStyleFallbacks(t *testing.T) {
	s := New(nil)
	if st := s.DefaultStyle(); st.Name != DefaultStyleName {
		t.Fatalf("builtin default expected, got %q", st.Name)
	}
	body := &domain.Style{Name: "body", FontSize: 18}
	_ = s.AddStyle(body)
	s.SetDefaultStyle("BODY")
	if st, ok := s.StyleOrDefault("missing"); ok || st != body {
		t.Fatalf("StyleOrDefault(missing) = %v,%v", st, ok)
	}
	if st, ok := s.StyleOrDefault(""); !ok || st != body {
		t.Fatalf("empty name should map to default without complaint")
	}
}

func TestMacrosFirstDefinitionWins(t *testing.T) {
	s := New(nil)
	if err := s.AddMacro("TITLE", "First"); err != nil {
		t.Fatalf("AddMacro: %v", err)
	}
	if err := s.AddMacro("title", "Second"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("redefinition must be rejected, got %v", err)
	}
	if v, ok := s.MacroValue("Title"); !ok || v != "First" {
		t.Fatalf("MacroValue = %q,%v", v, ok)
	}
}

func TestInsertAfterAndTemplateLookup(t *testing.T) {
	s := New(nil)
	s.AddSlideElement(&domain.SlideElement{ID: "a@1", Payload: &domain.TextData{Text: "first"}})
	s.AddSlideElement(&domain.SlideElement{ID: "b", Payload: &domain.TextData{}})
	s.AddSlideElement(&domain.SlideElement{ID: "a@1", Payload: &domain.TextData{Text: "second"}})
	s.AddSlideElement(&domain.SlideElement{ID: "a@1", Payload: &domain.PlayEffectData{}})

	e, pos, ok := s.GetTemplateSlideElementByID("A@1")
	if !ok || pos != 2 || e.Text().Text != "second" {
		t.Fatalf("template lookup must search from the end: pos=%d ok=%v", pos, ok)
	}
	if e, ok := s.GetSlideElementByID("a@1"); !ok || e.Text().Text != "first" {
		t.Fatalf("forward lookup must return the first match")
	}

	at := s.InsertAfter(0, &domain.SlideElement{ID: "new"})
	if at != 1 {
		t.Fatalf("InsertAfter(0) = %d, want 1", at)
	}
	if got, _ := s.GetSlideElement(1); got.ID != "new" {
		t.Fatalf("insert landed at wrong place")
	}
	if at := s.InsertAfter(s.Len()-1, &domain.SlideElement{ID: "tail"}); at != s.Len()-1 {
		t.Fatalf("insert after last must append, got %d", at)
	}
	if at := s.InsertAfter(-1, &domain.SlideElement{ID: "head"}); at != 0 {
		t.Fatalf("InsertAfter(-1) = %d", at)
	}
}

func TestMarkResetRestoresStore(t *testing.T) {
	s := New(nil)
	_ = s.AddStyle(&domain.Style{Name: "keep"})
	s.AddSlideElement(&domain.SlideElement{ID: "keep"})
	first := s.NextInstanceID()
	m := s.Mark()

	_ = s.AddStyle(&domain.Style{Name: "drop"})
	_ = s.AddEffect(&domain.Effect{Name: "drop"})
	_ = s.AddMacro("X", "1")
	_ = s.ClaimInstanceID("intro")
	s.AddSlideElement(&domain.SlideElement{ID: "drop"})
	_, _ = s.Resources().Add("img", "img.png")
	s.NextInstanceID()

	s.Reset(m)
	if s.Len() != 1 || len(s.StyleNames()) != 1 || len(s.EffectNames()) != 0 || s.Resources().Len() != 0 {
		t.Fatalf("reset incomplete: len=%d styles=%v", s.Len(), s.StyleNames())
	}
	if _, ok := s.MacroValue("X"); ok {
		t.Fatalf("macro survived reset")
	}
	if err := s.ClaimInstanceID("intro"); err != nil {
		t.Fatalf("instance id survived reset: %v", err)
	}
	if next := s.NextInstanceID(); next == first {
		t.Fatalf("instance id reused: %s", next)
	}
}

func TestInstanceIDsSkipClaimedNames(t *testing.T) {
	s := New(nil)
	if err := s.ClaimInstanceID("1"); err != nil {
		t.Fatalf("ClaimInstanceID: %v", err)
	}
	if id := s.NextInstanceID(); id != "2" {
		t.Fatalf("NextInstanceID = %q, want 2", id)
	}
	if err := s.ClaimInstanceID("2"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("claimed id accepted twice")
	}
}
