/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"slidescript/internal/domain"
	"slidescript/internal/storage"
	"slidescript/internal/vector"
)

func img(id string, x, y, w, h int) *domain.SlideElement {
	return &domain.SlideElement{
		ID:       id,
		Drawable: true,
		Position: domain.Position{X: domain.Px(x), Y: domain.Px(y)},
		Payload:  &domain.ImageData{Resource: "pic", Size: domain.Size{W: w, H: h}},
	}
}

func el(p domain.Payload) *domain.SlideElement { return &domain.SlideElement{Payload: p} }

func newTestDriver(t *testing.T, effects []*domain.Effect, els ...*domain.SlideElement) (*Driver, *ManualClock) {
	t.Helper()
	st := storage.New(nil)
	for _, e := range effects {
		if err := st.AddEffect(e); err != nil {
			t.Fatalf("AddEffect: %v", err)
		}
	}
	for _, e := range els {
		st.AddSlideElement(e)
	}
	clk := &ManualClock{}
	return NewDriver(st, Options{Clock: clk}), clk
}

func ids(d *Driver) []string {
	var out []string
	for _, a := range d.Active() {
		out = append(out, a.Element.ID)
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestKeyboardGate(t *testing.T) {
	d, _ := newTestDriver(t, nil, img("a", 0, 0, 10, 10), el(&domain.KeyboardEventData{Key: 65}), img("b", 0, 0, 10, 10))
	if n := d.Tick(); n != 2 {
		t.Fatalf("activated %d, want 2", n)
	}
	if !d.Blocking() || d.Gate() == nil || len(d.Active()) != 1 {
		t.Fatalf("expected to wait on the key gate, active=%v", ids(d))
	}
	if d.InterfaceEvent(Event{Type: EventKeyPress, P1: 66}) {
		t.Fatalf("wrong key released the gate")
	}
	if d.InterfaceEvent(Event{Type: EventKeyRelease, P1: 65}) {
		t.Fatalf("key release released a press gate")
	}
	if !d.InterfaceEvent(Event{Type: EventKeyPress, P1: 65}) {
		t.Fatalf("matching key did not release the gate")
	}
	d.Tick()
	if !d.Done() || len(d.Active()) != 2 {
		t.Fatalf("done=%v active=%v", d.Done(), ids(d))
	}
}

func TestAnyKeyReleaseGate(t *testing.T) {
	d, _ := newTestDriver(t, nil, el(&domain.KeyboardEventData{Release: true}))
	d.Tick()
	if d.InterfaceEvent(Event{Type: EventKeyPress, P1: 13}) {
		t.Fatalf("press released a release gate")
	}
	if !d.InterfaceEvent(Event{Type: EventKeyRelease, P1: 13}) {
		t.Fatalf("any-key release gate not released")
	}
}

func TestMouseGate(t *testing.T) {
	area := &domain.MouseEventData{Button: domain.MouseLeft, UpperLeft: image.Pt(10, 10), LowerRight: image.Pt(20, 20)}
	d, _ := newTestDriver(t, nil, el(area), el(&domain.MouseEventData{Button: domain.MouseRight}))
	d.Tick()
	if d.InterfaceEvent(Event{Type: EventMouseRightDown, P1: 15, P2: 15}) {
		t.Fatalf("wrong button released the gate")
	}
	if d.InterfaceEvent(Event{Type: EventMouseLeftDown, P1: 5, P2: 5}) {
		t.Fatalf("click outside the area released the gate")
	}
	if !d.InterfaceEvent(Event{Type: EventMouseLeftDown, P1: 20, P2: 15}) {
		t.Fatalf("click on the area edge did not release the gate")
	}
	d.Tick()
	if !d.InterfaceEvent(Event{Type: EventMouseRightDown, P1: 700, P2: 500}) {
		t.Fatalf("unconditional gate not released")
	}
	d.Tick()
	if !d.Done() {
		t.Fatalf("not done at %d", d.Position())
	}
}

func TestTimedBlocks(t *testing.T) {
	d, clk := newTestDriver(t, nil,
		el(&domain.BlockData{Millis: 100}),
		img("a", 0, 0, 1, 1),
		el(&domain.BlockData{Millis: 1000, Passthrough: true}),
		img("b", 0, 0, 1, 1),
		el(&domain.BlockData{}),
	)
	d.Tick()
	if d.InterfaceEvent(Event{Type: EventKeyPress, P1: 32}) {
		t.Fatalf("input released a timed block")
	}
	clk.Advance(99 * time.Millisecond)
	if n := d.Tick(); n != 0 {
		t.Fatalf("block released early")
	}
	clk.Advance(time.Millisecond)
	if n := d.Tick(); n != 2 {
		t.Fatalf("activated %d after the block, want 2", n)
	}
	if !d.InterfaceEvent(Event{Type: EventMouseLeftDown}) {
		t.Fatalf("passthrough block ignored input")
	}
	d.Tick()
	if d.Done() {
		t.Fatalf("untimed block should wait for input")
	}
	clk.Advance(time.Hour)
	d.Tick()
	if d.Done() {
		t.Fatalf("untimed block elapsed on its own")
	}
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1})
	if !d.Done() {
		t.Fatalf("untimed block not released by input")
	}
}

func TestBlockingEffectHoldsTimeline(t *testing.T) {
	slide := &domain.Effect{Name: "slide", Timer: 100, Blocking: true, Move: &domain.MoveSpec{End: vector.V(100, 0), Relative: true}}
	a := img("a", 0, 0, 10, 10)
	a.Effect = "slide"
	d, clk := newTestDriver(t, []*domain.Effect{slide}, a, img("b", 0, 0, 10, 10))
	if n := d.Tick(); n != 1 {
		t.Fatalf("activated %d, want 1", n)
	}
	clk.Advance(50 * time.Millisecond)
	if n := d.Tick(); n != 0 {
		t.Fatalf("timeline advanced during a blocking effect")
	}
	if x := d.Active()[0].State.Pos.X; !near(x, 50) {
		t.Fatalf("x = %v, want 50", x)
	}
	clk.Advance(50 * time.Millisecond)
	if n := d.Tick(); n != 1 {
		t.Fatalf("activated %d after the effect, want 1", n)
	}
	if x := d.Active()[0].State.Pos.X; !near(x, 100) {
		t.Fatalf("end x = %v", x)
	}
}

func TestEffectEndWaivesBlocking(t *testing.T) {
	slow := &domain.Effect{Name: "slow", Timer: 10000, Blocking: true, Fade: &domain.FadeSpec{Direction: domain.FadeIn}}
	a := img("a", 0, 0, 10, 10)
	a.Effect = "slow"
	d, _ := newTestDriver(t, []*domain.Effect{slow}, a, img("b", 0, 0, 10, 10))
	d.Tick()
	if op := d.Active()[0].State.Opacity; op != 0 {
		t.Fatalf("fade-in starts at %v", op)
	}
	if d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1}) {
		t.Fatalf("key press released a blocking effect")
	}
	if !d.InterfaceEvent(Event{Type: EventEffectEnd}) {
		t.Fatalf("effect end not accepted")
	}
	if n := d.Tick(); n != 1 {
		t.Fatalf("activated %d, want 1", n)
	}
	if h := d.Active()[0].Handler(); h == nil || h.Expired() {
		t.Fatalf("waived effect should keep animating")
	}
}

func TestPlayEffectQueues(t *testing.T) {
	fade := &domain.Effect{Name: "fade", Timer: 100, Fade: &domain.FadeSpec{Direction: domain.FadeOut}}
	play := func() *domain.SlideElement {
		return &domain.SlideElement{ID: "A", Effect: "fade", Payload: &domain.PlayEffectData{}}
	}
	ghost := &domain.SlideElement{ID: "ghost", Effect: "fade", Payload: &domain.PlayEffectData{}}
	d, clk := newTestDriver(t, []*domain.Effect{fade}, img("a", 0, 0, 1, 1), play(), play(), ghost)
	if n := d.Tick(); n != 4 {
		t.Fatalf("activated %d, want 4", n)
	}
	h := d.Active()[0].Handler()
	if h == nil || h.Pending() != 1 {
		t.Fatalf("second effect not queued: %+v", h)
	}
	clk.Advance(100 * time.Millisecond)
	d.Tick()
	if h.Links() != 2 || h.Pending() != 0 {
		t.Fatalf("links=%d pending=%d", h.Links(), h.Pending())
	}
	clk.Advance(100 * time.Millisecond)
	d.Tick()
	if !h.Expired() || d.Active()[0].State.Opacity != 0 {
		t.Fatalf("expired=%v opacity=%v", h.Expired(), d.Active()[0].State.Opacity)
	}
}

func TestNewSlideClearsAndRollsBack(t *testing.T) {
	fade := &domain.Effect{Name: "fade", Timer: 100, Fade: &domain.FadeSpec{Direction: domain.FadeIn}}
	a := img("a", 0, 0, 1, 1)
	a.Effect = "fade"
	d, clk := newTestDriver(t, []*domain.Effect{fade}, a, el(&domain.KeyboardEventData{}), el(&domain.NewSlideData{}), img("b", 0, 0, 1, 1))
	d.Tick()
	clk.Advance(40 * time.Millisecond)
	d.Tick()
	h := d.Active()[0].Handler()
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 9})
	d.Tick()
	if !h.Expired() {
		t.Fatalf("running effect survived the slide change")
	}
	if got := ids(d); len(got) != 1 || got[0] != "b" {
		t.Fatalf("active = %v", got)
	}
	if d.Slide() != 1 || d.history.Len() != 2 {
		t.Fatalf("slide=%d history=%d", d.Slide(), d.history.Len())
	}
}

func TestMoveTransition(t *testing.T) {
	d, clk := newTestDriver(t, nil,
		img("a", 100, 50, 50, 50),
		el(&domain.NewSlideData{Transition: domain.TransitionMove, Millis: 200}),
		img("b", 0, 0, 1, 1),
	)
	if n := d.Tick(); n != 2 {
		t.Fatalf("activated %d, want 2", n)
	}
	if !d.Blocking() {
		t.Fatalf("transition does not block")
	}
	clk.Advance(100 * time.Millisecond)
	d.Tick()
	if x := d.Active()[0].State.Pos.X; !near(x, 25) {
		t.Fatalf("halfway x = %v, want 25", x)
	}
	clk.Advance(100 * time.Millisecond)
	if n := d.Tick(); n != 1 {
		t.Fatalf("activated %d after the transition", n)
	}
	if got := ids(d); len(got) != 1 || got[0] != "b" || d.Slide() != 1 {
		t.Fatalf("active = %v slide=%d", got, d.Slide())
	}
}

func TestDisperseMovesAwayFromCentre(t *testing.T) {
	d, clk := newTestDriver(t, nil,
		img("left", 0, 290, 20, 20),
		img("mid", 390, 290, 20, 20),
		el(&domain.NewSlideData{Transition: domain.TransitionDisperse, Millis: 100}),
	)
	d.Tick()
	clk.Advance(50 * time.Millisecond)
	d.Tick()
	act := d.Active()
	if x := act[0].State.Pos.X; x >= 0 {
		t.Fatalf("left element moved right: %v", x)
	}
	if act[1].State.Pos.Eq(vector.V(390, 290), 1) {
		t.Fatalf("centred element did not move")
	}
	clk.Advance(50 * time.Millisecond)
	d.Tick()
	if len(d.Active()) != 0 || !d.Done() {
		t.Fatalf("slide not cleared: %v", ids(d))
	}
}

func TestCanvasEffects(t *testing.T) {
	d, clk := newTestDriver(t, nil,
		img("a", 0, 0, 1, 1),
		el(&domain.CanvasEffectData{Type: domain.CanvasColorize, Color: color.RGBA{A: 255}, Timer: 100}),
		el(&domain.KeyboardEventData{}),
		el(&domain.CanvasEffectData{Type: domain.CanvasMove, Move: vector.V(10, 0), Hard: true}),
		el(&domain.KeyboardEventData{}),
		el(&domain.CanvasEffectData{Type: domain.CanvasReset, Hard: true, ClearsSlide: true}),
	)
	d.Tick()
	clk.Advance(50 * time.Millisecond)
	d.Tick()
	if a := d.Canvas().Tint.A; a < 127 || a > 128 {
		t.Fatalf("halfway alpha = %d", a)
	}
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1})
	d.Tick()
	c := d.Canvas()
	if c.Tint.A != 255 || c.Offset != vector.V(10, 0) {
		t.Fatalf("hard move did not finish the fade first: %+v", c)
	}
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1})
	d.Tick()
	if c := d.Canvas(); c.Offset != (vector.Vec2{}) || c.Scale != 100 || c.Tint.A != 0 {
		t.Fatalf("reset canvas = %+v", c)
	}
	if len(d.Active()) != 0 || d.Slide() != 1 {
		t.Fatalf("clearing canvas effect left %v", ids(d))
	}
}

func TestBackgroundPersists(t *testing.T) {
	bg := &domain.BackgroundData{Color: &color.RGBA{R: 255, A: 255}}
	d, _ := newTestDriver(t, nil, el(bg), el(&domain.NewSlideData{}))
	d.Tick()
	if got := d.Background(); got == nil || got.Color == nil || got.Color.R != 255 {
		t.Fatalf("background = %+v", got)
	}
}

func TestAttributeAndExpressions(t *testing.T) {
	text := &domain.SlideElement{ID: "label", Drawable: true, Payload: &domain.TextData{Text: "x={$box.x * 2}", Depth: 1}}
	d, clk := newTestDriver(t, nil, img("box", 40, 10, 30, 20), text)
	clk.Advance(1500 * time.Millisecond)
	d.Tick()
	label := d.Active()[1]
	if got := d.Text(label); got != "x=80" {
		t.Fatalf("text = %q", got)
	}
	if x := label.State.Pos.X; x != DepthIndent {
		t.Fatalf("indent = %v", x)
	}
	if len(label.Lines) == 0 || label.Size.X <= 0 {
		t.Fatalf("text not laid out: %+v", label.Lines)
	}
	cases := []struct {
		id, attr string
		want     float64
		ok       bool
	}{
		{"BOX", "", 40, true},
		{"box", "y", 10, true},
		{"box", "width", 30, true},
		{"box", "h", 20, true},
		{"box", "opacity", 255, true},
		{"box", "depth", 0, false},
		{"nope", "x", 0, false},
		{"#time", "", 1500, true},
		{"#slide", "", 0, true},
	}
	for _, c := range cases {
		got, ok := d.Attribute(c.id, c.attr)
		if ok != c.ok || got != c.want {
			t.Fatalf("Attribute(%q,%q) = %v,%v want %v,%v", c.id, c.attr, got, ok, c.want, c.ok)
		}
	}
}

func TestCenteredPlacement(t *testing.T) {
	e := img("c", 0, 0, 100, 50)
	e.Position = domain.Position{X: domain.At(domain.AnchorCenter), Y: domain.At(domain.AnchorBottom)}
	d, _ := newTestDriver(t, nil, e)
	d.Tick()
	if p := d.Active()[0].State.Pos; p != vector.V(350, 550) {
		t.Fatalf("pos = %v", p)
	}
}

func TestRewind(t *testing.T) {
	d, _ := newTestDriver(t, nil,
		img("a", 0, 0, 1, 1),
		el(&domain.NewSlideData{}),
		img("b", 0, 0, 1, 1),
		el(&domain.KeyboardEventData{}),
		el(&domain.NewSlideData{}),
		img("c", 0, 0, 1, 1),
	)
	d.Tick()
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1})
	d.Tick()
	if d.Slide() != 2 || !d.Done() {
		t.Fatalf("slide=%d done=%v", d.Slide(), d.Done())
	}
	if !d.Rewind() || d.Slide() != 1 || d.Position() != 2 {
		t.Fatalf("rewind: slide=%d pos=%d", d.Slide(), d.Position())
	}
	d.Tick()
	if got := ids(d); len(got) != 1 || got[0] != "b" || d.Gate() == nil {
		t.Fatalf("replayed slide = %v", got)
	}
	d.Rewind()
	d.Rewind()
	if d.Slide() != 0 || d.Position() != 0 {
		t.Fatalf("rewind past start: slide=%d pos=%d", d.Slide(), d.Position())
	}
}

func TestRewindAfterFade(t *testing.T) {
	black := color.RGBA{A: 255}
	d, clk := newTestDriver(t, nil,
		img("a", 0, 0, 1, 1),
		el(&domain.CanvasEffectData{Type: domain.CanvasColorize, Color: black, Timer: 100, Hard: true}),
		el(&domain.BlockData{Millis: 100, Passthrough: true}),
		&domain.SlideElement{Drawable: true, Payload: &domain.CanvasEffectData{Type: domain.CanvasColorize, Timer: 100, ClearsSlide: true}},
		img("b", 0, 0, 1, 1),
		el(&domain.KeyboardEventData{}),
		el(&domain.NewSlideData{}),
		img("c", 0, 0, 1, 1),
	)
	d.Tick()
	clk.Advance(100 * time.Millisecond)
	d.Tick()
	clk.Advance(100 * time.Millisecond)
	d.Tick()
	if c := d.Canvas(); c.Tint.A != 0 || d.Slide() != 1 {
		t.Fatalf("fade did not settle: slide=%d tint=%v", d.Slide(), c.Tint)
	}
	d.InterfaceEvent(Event{Type: EventKeyPress, P1: 1})
	d.Tick()
	if d.Slide() != 2 {
		t.Fatalf("slide = %d", d.Slide())
	}
	if !d.Rewind() || d.Slide() != 1 {
		t.Fatalf("rewind: slide=%d", d.Slide())
	}
	for i := 0; i < 10; i++ {
		clk.Advance(100 * time.Millisecond)
		d.Tick()
	}
	if got := ids(d); len(got) != 1 || got[0] != "b" {
		t.Fatalf("replayed slide = %v", got)
	}
	if c := d.Canvas(); c.Tint.A != 0 {
		t.Fatalf("rewound slide still covered: %v", c.Tint)
	}
}

func TestRewindRollsBackEffects(t *testing.T) {
	moving := img("a", 0, 0, 1, 1)
	moving.Effect = "m"
	d, clk := newTestDriver(t, []*domain.Effect{{Name: "m", Timer: 100, Move: &domain.MoveSpec{End: vector.V(100, 0)}}},
		moving, el(&domain.KeyboardEventData{}))
	d.Tick()
	clk.Advance(50 * time.Millisecond)
	d.Tick()
	a := d.Active()[0]
	if a.State.Pos.X <= 0 {
		t.Fatalf("effect did not run: %v", a.State.Pos)
	}
	d.Rewind()
	if a.State.Pos != vector.V(0, 0) || !a.handler.Expired() {
		t.Fatalf("rolled back element = %+v", a.State)
	}
}

func TestPauseFreezesAnimation(t *testing.T) {
	src := &ManualClock{}
	st := storage.New(nil)
	_ = st.AddEffect(&domain.Effect{Name: "m", Timer: 100, Move: &domain.MoveSpec{End: vector.V(100, 0)}})
	a := img("a", 0, 0, 1, 1)
	a.Effect = "m"
	st.AddSlideElement(a)
	d := NewDriver(st, Options{Clock: NewPausableClock(src)})
	d.Tick()
	if !d.Pause() {
		t.Fatalf("pausable clock not detected")
	}
	src.Advance(80 * time.Millisecond)
	d.Tick()
	if x := d.Active()[0].State.Pos.X; x != 0 {
		t.Fatalf("moved while paused: %v", x)
	}
	d.Resume()
	src.Advance(50 * time.Millisecond)
	d.Tick()
	if x := d.Active()[0].State.Pos.X; !near(x, 50) {
		t.Fatalf("x = %v, want 50", x)
	}

	plain, _ := newTestDriver(t, nil)
	if plain.Pause() {
		t.Fatalf("manual clock reported pausing")
	}
}
