/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"slidescript/internal/domain"
	"slidescript/internal/storage"
	"slidescript/internal/vector"
)

func parseSlides(t *testing.T, st *storage.Store, src string) (Result, error) {
	t.Helper()
	return ParseSlides(strings.NewReader(src), "test.slides", st, Options{})
}

func mustSlides(t *testing.T, st *storage.Store, src string) Result {
	t.Helper()
	res, err := parseSlides(t, st, src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res
}

func pngBytes(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)))
	return buf.Bytes()
}

func TestTextElement(t *testing.T) {
	st := storage.New(nil)
	mustSlides(t, st, `\TEXT{ID:t1,P:CENTER,100,D:2} Hello`)
	if st.Len() != 1 {
		t.Fatalf("elements = %d", st.Len())
	}
	e, _ := st.GetSlideElement(0)
	want := domain.Position{X: domain.At(domain.AnchorCenter), Y: domain.Px(100)}
	if e.ID != "t1" || e.Position != want || !e.Drawable {
		t.Fatalf("element = %+v", e)
	}
	if td := e.Text(); td == nil || td.Text != "Hello" || td.Depth != 2 {
		t.Fatalf("payload = %+v", e.Payload)
	}
}

func TestTextMarkupAfterBlock(t *testing.T) {
	st := storage.New(nil)
	mustSlides(t, st, "\\TEXT {ID:t} {B}Title{/B}\n\\TEXT{ID:u}{S:big}Hi")
	els := st.Elements()
	if len(els) != 2 {
		t.Fatalf("elements = %d", len(els))
	}
	cases := []struct{ id, style, text string }{
		{"t", "", "{B}Title{/B}"},
		{"u", "", "{S:big}Hi"},
	}
	for i, c := range cases {
		e := els[i]
		if e.ID != c.id || e.Style != c.style {
			t.Fatalf("element %d: id=%q style=%q", i, e.ID, e.Style)
		}
		if td := e.Text(); td == nil || td.Text != c.text {
			t.Fatalf("element %d payload = %+v", i, e.Payload)
		}
	}
}

func TestCanvasDirectives(t *testing.T) {
	st := storage.New(nil)
	res := mustSlides(t, st, strings.Join([]string{
		`\CANVAS_MOVE 50,10 1000 sinus hard`,
		`\CANVAS_COLORIZE red 500 50`,
		`\CANVAS_ROTATE 90 200 100,100`,
		`\CANVAS_SCALE 150 300 40,40`,
		`\CANVAS_RESET`,
	}, "\n"))
	els := st.Elements()
	if len(els) != 5 {
		t.Fatalf("elements = %d", len(els))
	}
	mv := els[0].Canvas()
	if mv.Type != domain.CanvasMove || mv.Move != vector.V(50, 10) || mv.Timer != 1000 ||
		mv.Progress != domain.CurveSinus || !mv.Hard || els[0].Drawable {
		t.Fatalf("move = %+v drawable=%v", mv, els[0].Drawable)
	}
	if c := els[1].Canvas(); c.Color != (color.RGBA{R: 0xFF, A: 127}) || !els[1].Drawable {
		t.Fatalf("colorize = %+v", c)
	}
	if c := els[2].Canvas(); c.Center == nil || *c.Center != vector.V(100, 100) || c.Angle != 90 {
		t.Fatalf("rotate = %+v", c)
	}
	if c := els[3].Canvas(); c.Center != nil || c.Scale != 150 {
		t.Fatalf("scale = %+v", c)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Line != 4 {
		t.Fatalf("expected one warning for the scale centre, got %v", res.Diagnostics)
	}
	if _, err := parseSlides(t, st, `\CANVAS_MOVE 50,10`); err == nil {
		t.Fatalf("missing timer should be critical")
	}
}

func TestCriticalErrorLeavesStoreUnchanged(t *testing.T) {
	st := storage.New(nil)
	mustSlides(t, st, `\TEXT{ID:keep} kept`)
	before := st.Mark()
	_, err := parseSlides(t, st, "\\DEFINE X 1\n\\TEXT one\n\\BACKGROUND COLOR=notacolor\n\\TEXT two")
	var perr *Error
	if !errors.As(err, &perr) || !perr.Critical() || perr.Line != 3 || perr.Keyword != `\BACKGROUND` {
		t.Fatalf("expected critical error on line 3, got %v", err)
	}
	if st.Mark() != before || st.Len() != 1 {
		t.Fatalf("store changed by a rejected file")
	}
	if _, ok := st.MacroValue("X"); ok {
		t.Fatalf("macro of a rejected file survived")
	}
}

func TestReparseIsDeterministic(t *testing.T) {
	src := strings.Join([]string{
		`\LOAD_IMAGE logo, img/logo.png`,
		`\BACKGROUND COLOR=#102030,POS=TOPLEFT,GRADIENT-TOP=20 white`,
		`\TEXT{ID:a,S:title,E:fly} Title`,
		`\DRAW_IMAGE{ID:l,P:RIGHT,BOTTOM} logo`,
		`\MOUSE_LEFT{PLU:0,0,PRL:100,100}`,
		`\KEY_PRESS space`,
		`\PLAY_EFFECT{ID:a,E:fly}`,
		`\NEW_SLIDE FADE black 800 quadratic`,
		`\BLOCK 200`,
	}, "\n")
	fsys := fstest.MapFS{"img/logo.png": {Data: pngBytes(64, 32)}}
	a, b := storage.New(fsys), storage.New(fsys)
	mustSlides(t, a, src)
	mustSlides(t, b, src)
	if diff := cmp.Diff(a.Elements(), b.Elements()); diff != "" {
		t.Fatalf("re-parse differs (-a +b):\n%s", diff)
	}
	img := a.Elements()[2].Image()
	if img == nil || img.Size != (domain.Size{W: 64, H: 32}) {
		t.Fatalf("image size from resource = %+v", img)
	}
}

func TestNewSlideVariants(t *testing.T) {
	st := storage.New(nil)
	mustSlides(t, st, "\\NEW_SLIDE\n\\NEW_SLIDE MOVE\n\\NEW_SLIDE DISPERSE 250\n\\NEW_SLIDE FADE navy 800 quadratic")
	els := st.Elements()
	if len(els) != 6 {
		t.Fatalf("elements = %d", len(els))
	}
	if ns := els[1].NewSlide(); ns.Transition != domain.TransitionMove || ns.Millis != NewSlideDefaultMillis {
		t.Fatalf("move = %+v", ns)
	}
	if ns := els[2].NewSlide(); ns.Millis != 250 {
		t.Fatalf("disperse = %+v", ns)
	}
	in, pause, out := els[3].Canvas(), els[4].Block(), els[5].Canvas()
	if in == nil || !in.Hard || in.Color.A != 0xFF || in.Progress != domain.CurveQuadratic {
		t.Fatalf("fade cover = %+v", in)
	}
	if pause == nil || !pause.Passthrough || pause.Millis != 800 {
		t.Fatalf("fade pause = %+v", pause)
	}
	if out == nil || !out.ClearsSlide || out.Hard || out.Timer != 800 {
		t.Fatalf("fade out = %+v", out)
	}
	if want := (color.RGBA{R: in.Color.R, G: in.Color.G, B: in.Color.B}); out.Color != want {
		t.Fatalf("fade out color = %v, want %v", out.Color, want)
	}
	if _, err := parseSlides(t, st, `\NEW_SLIDE SWIRL`); err == nil {
		t.Fatalf("unknown transition should be critical")
	}
}

func TestBackgroundDirective(t *testing.T) {
	st := storage.New(nil)
	res := mustSlides(t, st, `\BACKGROUND COLOR=blue,POS=LEFT,WIDTH=FULL,HEIGHT=FULL,GRADIENT-TOP=20 red,GRADIENT=BODY,FOO=1`)
	bg := st.Elements()[0].Background()
	if bg.Color == nil || *bg.Color != (color.RGBA{B: 0xFF, A: 0xFF}) {
		t.Fatalf("color = %v", bg.Color)
	}
	if bg.PosX != domain.At(domain.AnchorLeft) || bg.PosY != domain.At(domain.AnchorCenter) {
		t.Fatalf("pos = %v,%v", bg.PosX, bg.PosY)
	}
	if bg.Spread != domain.SpreadBoth {
		t.Fatalf("spread = %v", bg.Spread)
	}
	if len(bg.Gradients) != 1 || bg.Gradients[0].Edge != domain.GradientTop || bg.Gradients[0].Size != 20 {
		t.Fatalf("gradients = %+v", bg.Gradients)
	}
	if len(res.Diagnostics) != 2 {
		t.Fatalf("expected warnings for the bad gradient and FOO, got %v", res.Diagnostics)
	}
	for _, bad := range []string{`\BACKGROUND`, `\BACKGROUND COLOR`, `\BACKGROUND SPREAD=wide`, `\BACKGROUND RESOURCE=none`} {
		if _, err := parseSlides(t, st, bad); err == nil {
			t.Fatalf("%s should be critical", bad)
		}
	}
}

func TestEventsAndBlocks(t *testing.T) {
	st := storage.New(nil)
	mustSlides(t, st, "\\BLOCK 500 passthrough\n\\BLOCK\n\\MOUSE_RIGHT{PLU:10,10,PRL:20,20}\n\\KEY_RELEASE F5\n\\KEY_PRESS")
	els := st.Elements()
	if b := els[0].Block(); b.Millis != 500 || !b.Passthrough {
		t.Fatalf("block = %+v", b)
	}
	if m := els[2].Mouse(); m.Button != domain.MouseRight || m.Unconditional() || !m.Area().Contains(vector.V(15, 15)) {
		t.Fatalf("mouse = %+v", m)
	}
	if k := els[3].Keyboard(); !k.Release || k.Key != 116 {
		t.Fatalf("key = %+v", k)
	}
	if k := els[4].Keyboard(); k.Key != 0 {
		t.Fatalf("any key = %+v", k)
	}
	_, err := parseSlides(t, st, `\KEY_PRESS ENTRE`)
	var perr *Error
	if !errors.As(err, &perr) || perr.Suggestion != "ENTER" {
		t.Fatalf("expected suggestion ENTER, got %v", err)
	}
	if _, err := parseSlides(t, st, `\BLOCK soon`); err == nil {
		t.Fatalf("invalid block parameter should be critical")
	}
}

func TestUnknownDirectiveSuggests(t *testing.T) {
	st := storage.New(nil)
	res := mustSlides(t, st, "\\TXT hello\n\\TEXT ok")
	if st.Len() != 1 || len(res.Diagnostics) != 1 {
		t.Fatalf("len=%d diagnostics=%v", st.Len(), res.Diagnostics)
	}
	if d := res.Diagnostics[0]; d.Suggestion != `\TEXT` || d.Critical() || d.File != "test.slides" {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func TestMacrosAndEnd(t *testing.T) {
	st := storage.New(nil)
	res := mustSlides(t, st, strings.Join([]string{
		`// comment`,
		`\DEFINE WHO World`,
		`\DEFINE GREETING Hello %WHO%`,
		`\TEXT %GREETING%! %UNKNOWN%`,
		`\END`,
		`\TEXT ignored`,
	}, "\n"))
	if !res.Ended || st.Len() != 1 {
		t.Fatalf("ended=%v len=%d", res.Ended, st.Len())
	}
	if got := st.Elements()[0].Text().Text; got != "Hello World! %UNKNOWN%" {
		t.Fatalf("expanded text = %q", got)
	}
}

func TestPlayEffectAndImages(t *testing.T) {
	st := storage.New(nil)
	for _, bad := range []string{`\PLAY_EFFECT{E:fly}`, `\PLAY_EFFECT{ID:a}`, `\DRAW_IMAGE missing`, `\LOAD_IMAGE x, a.png`, `\LOAD_IMAGE xy`} {
		if _, err := parseSlides(t, st, bad); err == nil {
			t.Fatalf("%s should be critical", bad)
		}
	}
	res := mustSlides(t, st, "\\LOAD_IMAGE pic, a.png\n\\LOAD_IMAGE PIC, b.png\n\\DRAW_IMAGE{V:10,20} pic\n\\PLAY_EFFECT{ID:a,E:fly}")
	if len(res.Diagnostics) != 1 {
		t.Fatalf("duplicate resource should warn, got %v", res.Diagnostics)
	}
	if img := st.Elements()[0].Image(); img.Size != (domain.Size{W: 10, H: 20}) {
		t.Fatalf("explicit size = %+v", img.Size)
	}
	if pe := st.Elements()[1]; pe.Kind() != domain.KindPlayEffect || pe.ID != "a" || pe.Effect != "fly" {
		t.Fatalf("play effect = %+v", pe)
	}
}
