/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"slidescript/internal/domain"
)

func indexedStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil)
	for _, st := range []*domain.Style{{Name: "title", FontSize: 32}, {Name: "body"}} {
		if err := s.AddStyle(st); err != nil {
			t.Fatal(err)
		}
	}
	_ = s.AddEffect(&domain.Effect{Name: "fly", Timer: 300})
	if _, err := s.Resources().Add("logo", "logo.png"); err != nil {
		t.Fatal(err)
	}
	s.AddSlideElement(&domain.SlideElement{ID: "t1", Style: "Title", Line: 1, Drawable: true, Payload: &domain.TextData{Text: "Welcome to the conference"}})
	s.AddSlideElement(&domain.SlideElement{ID: "pic", Effect: "fly", Line: 2, Drawable: true, Payload: &domain.ImageData{Resource: "logo", Size: domain.Size{W: 10, H: 10}}})
	s.AddSlideElement(&domain.SlideElement{Line: 3, Payload: &domain.NewSlideData{}})
	s.AddSlideElement(&domain.SlideElement{ID: "T1", Style: "body", Line: 4, Drawable: true, Payload: &domain.TextData{Text: "Closing remarks"}})
	s.AddSlideElement(&domain.SlideElement{ID: "t1", Effect: "FLY", Line: 5, Payload: &domain.PlayEffectData{}})
	return s
}

func TestWriteIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", IndexFileName)
	if n := indexedStore(t).SlideCount(); n != 2 {
		t.Fatalf("SlideCount = %d, want 2", n)
	}
	if err := WriteIndex(ctx, path, indexedStore(t)); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	// a second export replaces the content instead of appending
	if err := WriteIndex(ctx, path, indexedStore(t)); err != nil {
		t.Fatalf("WriteIndex again: %v", err)
	}
	db, err := OpenIndex(ctx, path)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil || (mode != "wal" && mode != "WAL") {
		t.Fatalf("journal mode = %q, %v", mode, err)
	}
	if v, ok, _ := IndexMeta(ctx, db, "elements"); !ok || v != "5" {
		t.Fatalf("meta elements = %q", v)
	}
	if v, _, _ := IndexMeta(ctx, db, "slides"); v != "2" {
		t.Fatalf("meta slides = %q", v)
	}
	var defs int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM definitions").Scan(&defs); err != nil || defs != 3 {
		t.Fatalf("definitions = %d, %v", defs, err)
	}

	el, err := LookupElement(ctx, db, "T1")
	if err != nil {
		t.Fatalf("LookupElement: %v", err)
	}
	// the last element with that id wins, drawable or not
	if el.Pos != 4 || el.Kind != "PLAY_EFFECT" || el.Slide != 1 {
		t.Fatalf("lookup = %+v", el)
	}
	var decoded struct {
		Effect string `json:"effect"`
	}
	if err := json.Unmarshal(el.Payload, &decoded); err != nil || decoded.Effect != "FLY" {
		t.Fatalf("payload = %s", el.Payload)
	}
	if _, err := LookupElement(ctx, db, "ghost"); !errors.Is(err, ErrNoElement) {
		t.Fatalf("missing id error = %v", err)
	}
}

func TestSearchAndWhereUsed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), IndexFileName)
	if err := WriteIndex(ctx, path, indexedStore(t)); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	db, err := OpenIndex(ctx, path)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer db.Close()

	hits, err := Search(ctx, db, SearchQuery{Text: "conference"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "t1" || hits[0].Snippet == "" {
		t.Fatalf("hits = %+v", hits)
	}
	texts, err := Search(ctx, db, SearchQuery{Kinds: []string{"text"}, Slide: 2})
	if err != nil || len(texts) != 1 || texts[0].Text != "Closing remarks" {
		t.Fatalf("slide 2 texts = %+v, %v", texts, err)
	}
	page, _ := Search(ctx, db, SearchQuery{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].Pos != 1 {
		t.Fatalf("page = %+v", page)
	}

	used, err := WhereUsed(ctx, db, "effect", "fly")
	if err != nil {
		t.Fatalf("WhereUsed: %v", err)
	}
	if len(used) != 2 || used[0].Pos != 1 || used[1].Pos != 4 {
		t.Fatalf("fly used by %+v", used)
	}
	if used, _ := WhereUsed(ctx, db, "resource", "LOGO"); len(used) != 1 || used[0].ID != "pic" {
		t.Fatalf("logo used by %+v", used)
	}
	if used, _ := WhereUsed(ctx, db, "style", "title"); len(used) != 1 {
		t.Fatalf("title used by %+v", used)
	}
}

func TestOpenIndexRequiresPath(t *testing.T) {
	if _, err := OpenIndex(context.Background(), " "); err == nil {
		t.Fatalf("blank path accepted")
	}
}
