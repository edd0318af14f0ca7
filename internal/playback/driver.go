/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package playback runs a compiled content store. The Driver walks the
// timeline one element at a time on every Tick, animates the live elements
// and stops advancing while a gate (input, timed block, blocking effect or
// slide transition) is pending. Hosts feed input through InterfaceEvent and
// draw from Active, Canvas and Background after each Tick.
//
// The driver is single-threaded: Tick and InterfaceEvent must be called from
// the same goroutine.
package playback

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"slidescript/internal/domain"
	"slidescript/internal/effect"
	"slidescript/internal/fonts"
	applog "slidescript/internal/log"
	"slidescript/internal/markup"
	"slidescript/internal/storage"
	"slidescript/internal/vector"
)

// EventType classifies host input.
type EventType int

const (
	EventKeyPress EventType = iota + 1
	EventKeyRelease
	EventMouseLeftDown
	EventMouseLeftUp
	EventMouseRightDown
	EventMouseRightUp
	// EventEffectEnd releases blocking effects that are still running.
	EventEffectEnd
)

// Event is one host input. For keys P1 is the key code; for mouse events P1
// and P2 are the click coordinates.
type Event struct {
	Type   EventType
	P1, P2 int
}

// DefaultScreen is used when Options.Screen is zero.
var DefaultScreen = vector.V(800, 600)

// Options configures a Driver.
type Options struct {
	Screen  vector.Vec2  // width, height in pixels
	Clock   effect.Clock // defaults to a pausable system clock
	Fonts   *fonts.Registry
	History int // slide checkpoints kept for Rewind; 0 uses DefaultHistoryDepth
	Logger  *slog.Logger
}

// gate is the element playback is waiting on.
type gate struct {
	el    *domain.SlideElement
	timed bool
	until time.Duration
}

// Driver plays a content store.
type Driver struct {
	store  *storage.Store
	screen vector.Vec2
	clock  effect.Clock
	fonts  *fonts.Registry
	log    *slog.Logger

	pos        int
	slide      int
	active     []*Active
	gate       *gate
	transition []*effect.Handler
	canvas     effect.Canvas
	animators  []*effect.CanvasAnimator
	background *domain.BackgroundData
	history    History
}

// NewDriver prepares playback of st from its first element.
func NewDriver(st *storage.Store, opts Options) *Driver {
	d := &Driver{store: st, screen: opts.Screen, clock: opts.Clock, fonts: opts.Fonts, log: opts.Logger}
	if d.screen.X <= 0 || d.screen.Y <= 0 {
		d.screen = DefaultScreen
	}
	if d.clock == nil {
		d.clock = NewPausableClock(NewSystemClock())
	}
	if d.fonts == nil {
		d.fonts = fonts.NewRegistry(nil)
	}
	if d.log == nil {
		d.log = applog.WithComponent("playback")
	}
	d.history.MaxDepth = opts.History
	if d.history.MaxDepth == 0 {
		d.history.MaxDepth = DefaultHistoryDepth
	}
	d.canvas = effect.IdentityCanvas(d.center())
	d.checkpoint()
	return d
}

func (d *Driver) center() vector.Vec2 { return d.screen.Mul(0.5) }

// Tick animates everything live and then activates timeline elements until
// something blocks. It returns the number of elements activated.
func (d *Driver) Tick() int {
	d.animate()
	if len(d.transition) > 0 {
		for _, h := range d.transition {
			if !h.Expired() {
				return 0
			}
		}
		d.transition = nil
		d.clearSlide()
	}
	n := 0
	for d.ready() {
		el, ok := d.store.GetSlideElement(d.pos)
		if !ok {
			break
		}
		d.pos++
		n++
		d.activate(el)
	}
	return n
}

func (d *Driver) animate() {
	for _, a := range d.active {
		if a.handler != nil {
			a.handler.Animate()
		}
	}
	live := d.animators[:0]
	for _, an := range d.animators {
		if an.Animate() {
			live = append(live, an)
		}
	}
	clear(d.animators[len(live):])
	d.animators = live
}

// ready releases an elapsed timed block and reports whether the timeline
// may advance.
func (d *Driver) ready() bool {
	if g := d.gate; g != nil && g.timed && d.clock.Now() >= g.until {
		d.log.Debug("block elapsed", slog.Int("line", g.el.Line))
		d.gate = nil
	}
	return d.gate == nil && len(d.transition) == 0 && !d.effectBlocking()
}

func (d *Driver) effectBlocking() bool {
	for _, a := range d.active {
		if a.blocking() {
			return true
		}
	}
	return false
}

func (d *Driver) activate(proto *domain.SlideElement) {
	d.log.Debug("activate", slog.Int("pos", d.pos-1), slog.String("kind", proto.Kind().String()), slog.String("id", proto.ID), slog.Int("line", proto.Line))
	switch p := proto.Payload.(type) {
	case *domain.TextData, *domain.ImageData:
		d.show(proto)
	case *domain.BackgroundData:
		d.background = proto.Clone().Background()
	case *domain.BlockData:
		g := &gate{el: proto}
		if p.Millis > 0 {
			g.timed, g.until = true, d.clock.Now()+time.Duration(p.Millis)*time.Millisecond
		}
		d.gate = g
	case *domain.MouseEventData, *domain.KeyboardEventData:
		d.gate = &gate{el: proto}
	case *domain.NewSlideData:
		d.newSlide(p)
	case *domain.PlayEffectData:
		a := d.find(proto.ID)
		if a == nil {
			d.log.Warn("effect target not on screen", slog.String("id", proto.ID), slog.String("effect", proto.Effect), slog.Int("line", proto.Line))
			return
		}
		d.startEffect(a, proto.Effect)
	case *domain.CanvasEffectData:
		d.canvasEffect(p)
	}
}

// show activates a drawable element: lays it out, resolves its position
// against the screen and starts its effect.
func (d *Driver) show(proto *domain.SlideElement) {
	a := newActive(proto)
	d.layout(a)
	pos := a.Element.Position
	x := axis(pos.X, d.screen.X, a.Size.X)
	y := axis(pos.Y, d.screen.Y, a.Size.Y)
	if td := a.Element.Text(); td != nil {
		x += float64(td.Depth * DepthIndent)
	}
	a.State.Pos = vector.V(x, y)
	d.active = append(d.active, a)
	if a.Element.Effect != "" {
		d.startEffect(a, a.Element.Effect)
	}
}

func (d *Driver) layout(a *Active) {
	if img := a.Element.Image(); img != nil {
		a.Size = vector.V(float64(img.Size.W), float64(img.Size.H))
		return
	}
	td := a.Element.Text()
	if td == nil {
		return
	}
	res, err := markup.Build(td.Text, a.Element.Style, d.store, d.fonts)
	if err == nil && res.Deferred {
		// headless: act as the renderer and build the queued fonts now
		d.fonts.Build()
		res, err = markup.Build(td.Text, a.Element.Style, d.store, d.fonts)
	}
	if err != nil {
		d.log.Warn("markup", slog.String("id", a.Element.ID), slog.Int("line", a.Element.Line), slog.Any("err", err))
		res = markup.Result{Runs: []markup.Run{{Text: td.Text}}}
	}
	if res.Stale {
		d.log.Debug("unknown style, using default", slog.String("id", a.Element.ID), slog.String("style", a.Element.Style))
	}
	a.Markup = res
	texts := markup.Render(res, d)
	spans := make([]fonts.Span, len(texts))
	for i, t := range texts {
		spans[i] = fonts.Span{FontID: res.Runs[i].FontID, Text: t}
	}
	maxW := d.screen.X - float64(td.Depth*DepthIndent)
	if td.NoWrap {
		maxW = 0
	}
	a.Lines = d.fonts.Wrap(spans, maxW)
	w, h := fonts.Size(a.Lines)
	a.Size = vector.V(w, h)
}

// startEffect runs the named effect on a, queueing it behind a running one.
func (d *Driver) startEffect(a *Active, name string) {
	proto, ok := d.store.GetEffect(name)
	if !ok {
		d.log.Warn("unknown effect", slog.String("effect", name), slog.String("id", a.Element.ID))
		return
	}
	a.waived = false
	if a.handler != nil {
		a.handler.QueueEffect(proto)
		return
	}
	a.handler = effect.NewHandler(&a.State, proto, d.effectOptions())
	// first frame already shows the start state (fade-ins start invisible)
	a.handler.Animate()
}

func (d *Driver) effectOptions() effect.Options {
	return effect.Options{
		Clock:  d.clock,
		Lookup: d.store.GetEffect,
		OnExpire: func(h *effect.Handler) {
			d.log.Debug("effect done", slog.String("effect", h.Proto().Name))
		},
	}
}

// rollBack discards in-flight effect links so nothing keeps animating into
// the next slide.
func (d *Driver) rollBack() {
	for _, a := range d.active {
		if a.running() {
			a.handler.RollBackLastQueued()
		}
	}
}

func (d *Driver) newSlide(p *domain.NewSlideData) {
	d.rollBack()
	if p.Transition == domain.TransitionMove || p.Transition == domain.TransitionDisperse {
		opts := d.effectOptions()
		for i, a := range d.active {
			a.handler = effect.NewHandler(&a.State, d.exitEffect(p, a, i), opts)
			a.waived = false
			d.transition = append(d.transition, a.handler)
		}
		if len(d.transition) > 0 {
			d.log.Debug("slide transition", slog.String("type", p.Transition.String()), slog.Int("elements", len(d.transition)))
			return
		}
	}
	d.clearSlide()
}

// goldenAngle spreads elements sitting exactly at the screen centre.
const goldenAngle = 2.399963229728653

// exitEffect builds the effect that moves a off screen: MOVE slides the
// whole slide out to the left, DISPERSE pushes every element away from the
// screen centre.
func (d *Driver) exitEffect(p *domain.NewSlideData, a *Active, i int) *domain.Effect {
	e := &domain.Effect{Name: "slide-" + strings.ToLower(p.Transition.String()), Timer: p.Millis, Blocking: true}
	b := a.Bounds()
	var off vector.Vec2
	if p.Transition == domain.TransitionMove {
		off = vector.V(-b.Max.X, 0)
	} else {
		mid := vector.LerpVec(b.Min, b.Max, 0.5)
		dir := mid.Sub(d.center())
		if dir.Len() < 1 {
			ang := float64(i) * goldenAngle
			dir = vector.V(math.Cos(ang), math.Sin(ang))
		}
		off = dir.Mul(d.screen.Len() / dir.Len())
	}
	e.Move = &domain.MoveSpec{End: off, Relative: true}
	return e
}

// clearSlide drops the drawable elements and records the start of the next slide.
func (d *Driver) clearSlide() {
	clear(d.active)
	d.active = d.active[:0]
	d.slide++
	d.log.Info("new slide", slog.Int("slide", d.slide), slog.Int("pos", d.pos))
	d.checkpoint()
}

func (d *Driver) checkpoint() {
	d.history.Push(Checkpoint{Pos: d.pos, Background: d.background, Canvas: d.canvas, At: d.clock.Now()})
}

func (d *Driver) canvasEffect(p *domain.CanvasEffectData) {
	if p.ClearsSlide {
		d.rollBack()
		d.clearSlide()
	}
	for _, an := range d.animators {
		an.Finish()
	}
	d.animators = d.animators[:0]
	if p.Hard {
		effect.ApplyHard(&d.canvas, p, d.center())
		return
	}
	an := effect.NewCanvasAnimator(&d.canvas, p, d.clock, d.center())
	d.animators = append(d.animators, an)
	if p.ClearsSlide {
		// rewinding to this slide lands on the settled canvas
		cp, _ := d.history.Current()
		cp.Canvas = an.Target()
		d.history.Push(cp)
	}
}

// InterfaceEvent delivers host input. It reports whether the event released
// the pending gate (or, for EventEffectEnd, any blocking effect).
func (d *Driver) InterfaceEvent(ev Event) bool {
	if ev.Type == EventEffectEnd {
		released := false
		for _, a := range d.active {
			if a.blocking() {
				a.waived, released = true, true
			}
		}
		return released
	}
	if d.gate == nil || !matches(d.gate.el, ev) {
		return false
	}
	d.log.Debug("gate released", slog.String("kind", d.gate.el.Kind().String()), slog.Int("line", d.gate.el.Line))
	d.gate = nil
	return true
}

// matches applies the gate predicate of el to ev.
func matches(el *domain.SlideElement, ev Event) bool {
	switch p := el.Payload.(type) {
	case *domain.KeyboardEventData:
		want := EventKeyPress
		if p.Release {
			want = EventKeyRelease
		}
		return ev.Type == want && (p.Key == 0 || p.Key == ev.P1)
	case *domain.MouseEventData:
		want := EventMouseLeftDown
		if p.Button == domain.MouseRight {
			want = EventMouseRightDown
		}
		return ev.Type == want && (p.Unconditional() || p.Area().Contains(vector.V(float64(ev.P1), float64(ev.P2))))
	case *domain.BlockData:
		// untimed blocks wait for any input; passthrough blocks may be cut short
		if p.Millis > 0 && !p.Passthrough {
			return false
		}
		return ev.Type == EventKeyPress || ev.Type == EventMouseLeftDown || ev.Type == EventMouseRightDown
	}
	return false
}

// Blocking reports whether the timeline is currently held.
func (d *Driver) Blocking() bool {
	return d.gate != nil || len(d.transition) > 0 || d.effectBlocking()
}

// Done reports whether every element was activated and nothing blocks.
// Effects may still be animating.
func (d *Driver) Done() bool { return d.pos >= d.store.Len() && !d.Blocking() }

// Gate returns the element playback waits on, nil if none.
func (d *Driver) Gate() *domain.SlideElement {
	if d.gate == nil {
		return nil
	}
	return d.gate.el
}

// Position returns the timeline index of the next element.
func (d *Driver) Position() int { return d.pos }

// Slide returns the zero-based number of the current slide.
func (d *Driver) Slide() int { return d.slide }

// Active returns the live elements in drawing order.
func (d *Driver) Active() []*Active { return append([]*Active(nil), d.active...) }

func (d *Driver) Canvas() effect.Canvas { return d.canvas }

// Background returns the active background, nil before the first one.
func (d *Driver) Background() *domain.BackgroundData { return d.background }

// Text renders the current display text of a text element, re-evaluating
// its expressions.
func (d *Driver) Text(a *Active) string { return markup.Plain(a.Markup, d) }

// find returns the most recently activated live element with id.
func (d *Driver) find(id string) *Active {
	for i := len(d.active) - 1; i >= 0; i-- {
		if strings.EqualFold(d.active[i].Element.ID, id) {
			return d.active[i]
		}
	}
	return nil
}

// Attribute resolves expression references against live elements. Besides
// element ids it knows #time (presentation clock in ms) and #slide.
func (d *Driver) Attribute(id, attr string) (float64, bool) {
	switch strings.ToLower(id) {
	case "#time":
		return float64(d.clock.Now().Milliseconds()), true
	case "#slide":
		return float64(d.slide), true
	}
	a := d.find(id)
	if a == nil {
		return 0, false
	}
	switch attr {
	case "", "x":
		return a.State.Pos.X, true
	case "y":
		return a.State.Pos.Y, true
	case "w", "width":
		return a.Size.X * a.State.Scale, true
	case "h", "height":
		return a.Size.Y * a.State.Scale, true
	case "opacity", "alpha":
		return a.State.Opacity, true
	case "scale":
		return a.State.Scale, true
	}
	return 0, false
}

// Pause freezes the presentation clock when it supports pausing.
func (d *Driver) Pause() bool {
	if p, ok := d.clock.(interface{ Pause() }); ok {
		p.Pause()
		return true
	}
	return false
}

// Resume continues a paused presentation clock.
func (d *Driver) Resume() bool {
	if p, ok := d.clock.(interface{ Resume() }); ok {
		p.Resume()
		return true
	}
	return false
}

// Rewind restarts the previous slide (or the current one on the first
// slide). Live elements are rolled back to their pre-effect state and
// dropped; gates and running canvas animations are dropped too.
func (d *Driver) Rewind() bool {
	cp, ok := d.history.Back()
	if !ok {
		return false
	}
	for _, a := range d.active {
		if a.handler != nil {
			a.handler.RollBack()
		}
	}
	clear(d.active)
	d.active = d.active[:0]
	d.gate, d.transition = nil, nil
	d.animators = nil
	d.pos, d.background, d.canvas = cp.Pos, cp.Background, cp.Canvas
	d.slide = max(d.slide-1, 0)
	if d.history.Len() == 1 {
		d.slide = 0
	}
	d.log.Info("rewind", slog.Int("slide", d.slide), slog.Int("pos", d.pos))
	return true
}
