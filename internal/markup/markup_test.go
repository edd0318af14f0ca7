/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markup

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"slidescript/internal/domain"
	"slidescript/internal/expr"
)

type styleMap map[string]*domain.Style

var defaultStyle = &domain.Style{Name: "default", FontFamily: "sans", FontSize: 20}

func (m styleMap) StyleOrDefault(name string) (*domain.Style, bool) {
	if name == "" {
		return defaultStyle, true
	}
	if s, ok := m[strings.ToLower(name)]; ok {
		return s, true
	}
	return defaultStyle, false
}

// fontTable hands out ids per spec; specs listed in missing are not built.
type fontTable struct {
	ids     map[domain.FontSpec]int
	missing map[string]bool
}

func (f *fontTable) FontID(spec domain.FontSpec) (int, bool) {
	if f.missing[spec.Family] {
		return 0, false
	}
	if f.ids == nil {
		f.ids = map[domain.FontSpec]int{}
	}
	id, ok := f.ids[spec]
	if !ok {
		id = len(f.ids) + 1
		f.ids[spec] = id
	}
	return id, true
}

func TestBuildToggles(t *testing.T) {
	fonts := &fontTable{}
	res, err := Build("plain {B}bold {I}both{/B} italic{/I}", "", styleMap{}, fonts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []struct {
		text string
		feat Feature
	}{
		{"plain ", 0},
		{"bold ", Bold},
		{"both", Bold | Italic},
		{" italic", Italic},
	}
	if len(res.Runs) != len(want) {
		t.Fatalf("got %d runs: %+v", len(res.Runs), res.Runs)
	}
	for i, w := range want {
		if res.Runs[i].Text != w.text || res.Runs[i].Features != w.feat {
			t.Fatalf("run %d = %q/%b, want %q/%b", i, res.Runs[i].Text, res.Runs[i].Features, w.text, w.feat)
		}
	}
	if res.Runs[0].FontID == res.Runs[1].FontID {
		t.Fatalf("bold run should use a different font handle")
	}
}

func TestBuildStyleSwitch(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	styles := styleMap{"alert": {Name: "alert", FontFamily: "serif", FontSize: 30, Color: &red}}
	res, err := Build("a{S:alert}b{/S}c", "", styles, &fontTable{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Runs) != 3 || res.Stale {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Runs[1].Color == nil || *res.Runs[1].Color != red {
		t.Fatalf("styled run should carry the style color")
	}
	if res.Runs[0].Color != nil || res.Runs[2].Color != nil {
		t.Fatalf("default style runs carry no color")
	}
	if res.Runs[0].FontID != res.Runs[2].FontID {
		t.Fatalf("{/S} should restore the base font")
	}

	res, _ = Build("x{S:nope}y", "", styles, &fontTable{})
	if !res.Stale || len(res.Runs) != 2 {
		t.Fatalf("unknown style should fall back and mark stale: %+v", res)
	}
}

func TestBuildDefersUnbuiltFont(t *testing.T) {
	styles := styleMap{"fancy": {Name: "fancy", FontFamily: "fancy", FontSize: 12}}
	res, err := Build("ok {S:fancy}later", "", styles, &fontTable{missing: map[string]bool{"fancy": true}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !res.Deferred || len(res.Runs) != 0 {
		t.Fatalf("expected deferred empty result, got %+v", res)
	}
}

func TestExpressionsAndCharCodes(t *testing.T) {
	res, err := Build("x={$box.x * 2}{%33}", "", styleMap{}, &fontTable{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Runs) != 3 {
		t.Fatalf("got %d runs: %+v", len(res.Runs), res.Runs)
	}
	if _, ok := res.Exprs[1]; !ok || res.Runs[1].Expr == nil {
		t.Fatalf("expression should be registered at run index 1: %+v", res.Exprs)
	}
	x := 4.0
	r := expr.ResolverFunc(func(id, attr string) (float64, bool) { return x, id == "box" })
	if got := Plain(res, r); got != "x=8!" {
		t.Fatalf("Plain = %q", got)
	}
	x = 5
	if got := Plain(res, r); got != "x=10!" {
		t.Fatalf("expression runs must re-evaluate, got %q", got)
	}
	if got := Plain(res, nil); got != "x=?!" {
		t.Fatalf("unresolvable expression renders ?, got %q", got)
	}
}

func TestCheck(t *testing.T) {
	for _, ok := range []string{"", "plain", "{unknown} braces", "{B}x{/B}", "unterminated {B", "{S:title}t{/S}"} {
		if err := Check(ok); err != nil {
			t.Fatalf("Check(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"{$1 +}", "{%abc}", "{S:}"} {
		if err := Check(bad); !errors.Is(err, ErrMarkup) {
			t.Fatalf("Check(%q) = %v, want ErrMarkup", bad, err)
		}
	}
	if refs := StyleRefs("a{S:one}b{S:two}"); len(refs) != 2 || refs[1] != "two" {
		t.Fatalf("StyleRefs = %v", refs)
	}
}
