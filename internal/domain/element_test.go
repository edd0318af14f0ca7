/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"image/color"
	"strings"
	"testing"

	"slidescript/internal/vector"
)

func TestCloneIsDeep(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	orig := &SlideElement{ID: "bg", Payload: &BackgroundData{Color: &red, Gradients: []Gradient{{Edge: GradientTop, Size: 10}}}}
	c := orig.Clone()
	c.ID = "other"
	c.Background().Color.G = 99
	c.Background().Gradients[0].Size = 20
	if orig.ID != "bg" || orig.Background().Color.G != 0 || orig.Background().Gradients[0].Size != 10 {
		t.Fatalf("clone shares state with prototype: %+v", orig.Background())
	}

	ctr := vector.V(1, 2)
	ce := &SlideElement{Payload: &CanvasEffectData{Type: CanvasRotate, Center: &ctr}}
	cc := ce.Clone()
	cc.Canvas().Center.X = 50
	if ce.Canvas().Center.X != 1 {
		t.Fatalf("canvas centre shared")
	}
}

func TestKindAndAccessors(t *testing.T) {
	e := &SlideElement{Payload: &TextData{Text: "Hello"}}
	if e.Kind() != KindText || e.Text() == nil || e.Image() != nil {
		t.Fatalf("accessors disagree with kind %v", e.Kind())
	}
	if (&SlideElement{}).Kind() != 0 {
		t.Fatalf("element without payload must have kind 0")
	}
	if KindCanvasEffect.String() != "CANVAS_EFFECT" || ElementKind(99).String() != "UNKNOWN" {
		t.Fatalf("kind names off")
	}
}

func TestCoordResolve(t *testing.T) {
	cases := []struct {
		c    Coord
		want int
	}{
		{At(AnchorCenter), 640}, {At(AnchorLeft), 0}, {At(AnchorRight), 1280}, {Px(-20), -20},
	}
	for _, tc := range cases {
		if got := tc.c.Resolve(1280); got != tc.want {
			t.Fatalf("%v.Resolve = %d, want %d", tc.c, got, tc.want)
		}
	}
	if p := (Position{X: At(AnchorCenter), Y: Px(100)}); p.String() != "CENTER,100" {
		t.Fatalf("Position.String = %q", p.String())
	}
}

func TestKeyCode(t *testing.T) {
	cases := map[string]int{"enter": 13, "A": 65, "7": 55, "f5": 116, "Space": 32}
	for in, want := range cases {
		if got, ok := KeyCode(in); !ok || got != want {
			t.Fatalf("KeyCode(%q) = %d,%v want %d", in, got, ok, want)
		}
	}
	if _, ok := KeyCode("HYPER"); ok {
		t.Fatalf("unknown key resolved")
	}
}

func TestElementJSONCarriesPayload(t *testing.T) {
	e := &SlideElement{ID: "t1", Payload: &TextData{Text: "Hello"}}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"text":"Hello"`) {
		t.Fatalf("payload missing in %s", b)
	}
}

func TestTemplateElementID(t *testing.T) {
	if got := TemplateElementID("title", "2"); got != "title@2" {
		t.Fatalf("TemplateElementID = %q", got)
	}
}
