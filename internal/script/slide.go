/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"image/color"
	"io"
	"strings"

	"slidescript/internal/domain"
	"slidescript/internal/markup"
	"slidescript/internal/resource"
	"slidescript/internal/storage"
)

// NewSlideDefaultMillis is the duration of MOVE and DISPERSE slide changes
// when the script gives none.
const NewSlideDefaultMillis = 500

// canvasDefaultAlpha is the colorize opacity when no percentage is given.
const canvasDefaultAlpha = 0x40

// slideKeywords lists every directive a slide script understands; it feeds
// the "did you mean" suggestions.
var slideKeywords = []string{
	`\BACKGROUND`, `\TEXT`, `\DRAW_IMAGE`, `\LOAD_IMAGE`, `\BLOCK`,
	`\MOUSE_LEFT`, `\MOUSE_RIGHT`, `\KEY_PRESS`, `\KEY_RELEASE`, `\NEW_SLIDE`,
	`\PLAY_EFFECT`, `\CANVAS_MOVE`, `\CANVAS_ROTATE`, `\CANVAS_SCALE`,
	`\CANVAS_COLORIZE`, `\CANVAS_RESET`, `\TEMPLATE_CALL`, `\TEMPLATE_END`,
	`\VERSION`, `\END`,
}

// elementBuilder turns element directives into slide elements. It is shared
// by the slide parser and the template parser.
type elementBuilder struct {
	store      *storage.Store
	warn       func(*Error)
	inTemplate bool
}

type buildFunc func(b *elementBuilder, d Directive) ([]*domain.SlideElement, *Error)

var builders = map[string]buildFunc{
	`\TEXT`:            (*elementBuilder).text,
	`\DRAW_IMAGE`:      (*elementBuilder).drawImage,
	`\LOAD_IMAGE`:      (*elementBuilder).loadImage,
	`\BACKGROUND`:      (*elementBuilder).background,
	`\BLOCK`:           (*elementBuilder).block,
	`\MOUSE_LEFT`:      (*elementBuilder).mouse,
	`\MOUSE_RIGHT`:     (*elementBuilder).mouse,
	`\KEY_PRESS`:       (*elementBuilder).keyboard,
	`\KEY_RELEASE`:     (*elementBuilder).keyboard,
	`\NEW_SLIDE`:       (*elementBuilder).newSlide,
	`\PLAY_EFFECT`:     (*elementBuilder).playEffect,
	`\CANVAS_MOVE`:     (*elementBuilder).canvas,
	`\CANVAS_ROTATE`:   (*elementBuilder).canvas,
	`\CANVAS_SCALE`:    (*elementBuilder).canvas,
	`\CANVAS_COLORIZE`: (*elementBuilder).canvas,
	`\CANVAS_RESET`:    (*elementBuilder).canvas,
}

// build dispatches d. ok is false when the keyword is not an element directive.
func (b *elementBuilder) build(d Directive) (els []*domain.SlideElement, ok bool, err *Error) {
	fn, ok := builders[d.Keyword]
	if !ok {
		return nil, false, nil
	}
	els, err = fn(b, d)
	return els, true, err
}

// common reads the optional ID, S, E and P values shared by most elements.
func (b *elementBuilder) common(d Directive, e *domain.SlideElement) {
	e.Line = d.Line
	e.ID, _ = d.Defs.Get("ID")
	e.Style, _ = d.Defs.Get("S")
	e.Effect, _ = d.Defs.Get("E")
	if p, ok := d.Defs.Get("P"); ok {
		pos, valid := ParsePosition(p)
		if !valid {
			b.warn(recoverable(d, "invalid position %q ignored", p))
			return
		}
		e.Position = pos
	}
}

func one(e *domain.SlideElement) []*domain.SlideElement { return []*domain.SlideElement{e} }

func (b *elementBuilder) text(d Directive) ([]*domain.SlideElement, *Error) {
	e := &domain.SlideElement{Drawable: true}
	b.common(d, e)
	td := &domain.TextData{Text: d.Tail}
	if v, ok := d.Defs.Get("D"); ok {
		if n, valid := parseInt(v); valid {
			td.Depth = n
		} else {
			b.warn(recoverable(d, "non-numeric depth %q ignored", v))
		}
	}
	if v, ok := d.Defs.Get("W"); ok && strings.EqualFold(v, "NONE") {
		td.NoWrap = true
	}
	if err := markup.Check(td.Text); err != nil {
		b.warn(recoverable(d, "markup: %v", err))
	}
	e.Payload = td
	return one(e), nil
}

func (b *elementBuilder) drawImage(d Directive) ([]*domain.SlideElement, *Error) {
	e := &domain.SlideElement{Drawable: true}
	b.common(d, e)
	name := strings.TrimSpace(d.Tail)
	if name == "" {
		return nil, critical(d, "image resource name missing")
	}
	res, ok := b.store.GetResource(name)
	if !ok {
		return nil, critical(d, "unknown image resource %q", name)
	}
	img := &domain.ImageData{Resource: res.Name}
	if v, ok := d.Defs.Get("V"); ok {
		if sz, valid := parsePoint(v); valid {
			img.Size = domain.Size{W: sz.X, H: sz.Y}
		} else {
			b.warn(recoverable(d, "invalid image size %q ignored", v))
		}
	}
	if img.Size.W == 0 || img.Size.H == 0 {
		if res.HasSize() {
			img.Size = domain.Size{W: res.Width, H: res.Height}
		} else {
			b.warn(recoverable(d, "no valid dimensions for resource %q", name))
		}
	}
	e.Payload = img
	return one(e), nil
}

func (b *elementBuilder) loadImage(d Directive) ([]*domain.SlideElement, *Error) {
	if b.inTemplate {
		return nil, critical(d, "images cannot be loaded inside a template")
	}
	name, path, _ := strings.Cut(d.Tail, ",")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if len(name) < 2 {
		return nil, critical(d, "invalid resource name %q: at least 2 characters required", name)
	}
	if path == "" {
		return nil, critical(d, "resource path missing")
	}
	if _, err := b.store.Resources().Add(name, path); err != nil {
		if errors.Is(err, resource.ErrDuplicate) {
			return nil, recoverable(d, "resource %s already loaded, keeping the first", name)
		}
		return nil, critical(d, "load image: %v", err)
	}
	return nil, nil
}

func (b *elementBuilder) block(d Directive) ([]*domain.SlideElement, *Error) {
	bd := &domain.BlockData{}
	for _, tok := range strings.Fields(d.Tail) {
		switch {
		case IsNumeric(tok):
			bd.Millis, _ = parseInt(tok)
		case strings.EqualFold(tok, "passthrough"):
			bd.Passthrough = true
		default:
			return nil, critical(d, "invalid block parameter %q", tok)
		}
	}
	if bd.Millis < 0 {
		return nil, critical(d, "negative block time")
	}
	return one(&domain.SlideElement{Line: d.Line, Payload: bd}), nil
}

func (b *elementBuilder) mouse(d Directive) ([]*domain.SlideElement, *Error) {
	md := &domain.MouseEventData{Button: domain.MouseLeft}
	if d.Keyword == `\MOUSE_RIGHT` {
		md.Button = domain.MouseRight
	}
	for _, k := range []string{"PLU", "PRL"} {
		v, ok := d.Defs.Get(k)
		if !ok {
			continue
		}
		pt, valid := parsePoint(v)
		if !valid {
			b.warn(recoverable(d, "invalid click area corner %s=%q ignored", k, v))
			continue
		}
		if k == "PLU" {
			md.UpperLeft = pt
		} else {
			md.LowerRight = pt
		}
	}
	return one(&domain.SlideElement{Line: d.Line, Payload: md}), nil
}

func (b *elementBuilder) keyboard(d Directive) ([]*domain.SlideElement, *Error) {
	kd := &domain.KeyboardEventData{Release: d.Keyword == `\KEY_RELEASE`}
	if name := strings.TrimSpace(d.Tail); name != "" {
		if n, ok := parseInt(name); ok {
			kd.Key = n
		} else if code, ok := domain.KeyCode(name); ok {
			kd.Key = code
		} else {
			e := critical(d, "unknown key %q", name)
			e.Suggestion = Suggest(name, domain.KeyNames())
			return nil, e
		}
	}
	return one(&domain.SlideElement{Line: d.Line, Payload: kd}), nil
}

func (b *elementBuilder) newSlide(d Directive) ([]*domain.SlideElement, *Error) {
	args := strings.Fields(d.Tail)
	ns := &domain.NewSlideData{}
	if len(args) == 0 {
		return one(&domain.SlideElement{Line: d.Line, Payload: ns}), nil
	}
	switch strings.ToUpper(args[0]) {
	case "FADE":
		if b.inTemplate {
			return nil, critical(d, "fading slide changes cannot be part of a template")
		}
		return b.fadeSlide(d, args[1:])
	case "MOVE":
		ns.Transition = domain.TransitionMove
	case "DISPERSE":
		ns.Transition = domain.TransitionDisperse
	case "NONE":
	default:
		return nil, critical(d, "unknown slide transition %q", args[0])
	}
	ns.Millis = NewSlideDefaultMillis
	if ns.Transition == domain.TransitionNone {
		ns.Millis = 0
	}
	for _, a := range args[1:] {
		n, ok := parseInt(a)
		if !ok || n < 0 {
			return nil, critical(d, "invalid transition time %q", a)
		}
		ns.Millis = n
	}
	return one(&domain.SlideElement{Line: d.Line, Payload: ns}), nil
}

// fadeSlide expands \NEW_SLIDE FADE <color> <ms> [curve] into a hard cover
// with the fade color, a passthrough pause and a colorize to the same color
// at zero alpha that also clears the slide.
func (b *elementBuilder) fadeSlide(d Directive, args []string) ([]*domain.SlideElement, *Error) {
	cover := color.RGBA{A: 0xFF}
	millis := 0
	curve := domain.CurveLinear
	for _, a := range args {
		if c, ok := domain.CurveByName(a); ok {
			curve = c
			continue
		}
		if n, ok := parseInt(a); ok && n >= 0 {
			millis = n
			continue
		}
		c, ok := ParseColor(a)
		if !ok {
			return nil, critical(d, "invalid input %q in slide fade", a)
		}
		cover = c
		cover.A = 0xFF
	}
	in := &domain.SlideElement{Line: d.Line, Payload: &domain.CanvasEffectData{
		Type: domain.CanvasColorize, Color: cover, Timer: millis, Progress: curve, Hard: true,
	}}
	pause := &domain.SlideElement{Line: d.Line, Payload: &domain.BlockData{Millis: millis, Passthrough: true}}
	out := &domain.SlideElement{Line: d.Line, Drawable: true, Payload: &domain.CanvasEffectData{
		Type: domain.CanvasColorize, Color: color.RGBA{R: cover.R, G: cover.G, B: cover.B}, Timer: millis, Progress: curve, ClearsSlide: true,
	}}
	return []*domain.SlideElement{in, pause, out}, nil
}

func (b *elementBuilder) playEffect(d Directive) ([]*domain.SlideElement, *Error) {
	id, _ := d.Defs.Get("ID")
	eff, _ := d.Defs.Get("E")
	if id == "" {
		return nil, critical(d, "target element ID missing")
	}
	if eff == "" {
		return nil, critical(d, "effect name missing")
	}
	return one(&domain.SlideElement{ID: id, Effect: eff, Line: d.Line, Payload: &domain.PlayEffectData{}}), nil
}

// canvas parses \CANVAS_<TYPE> <arg> <ms> [hard] [curve] [percent] [center].
func (b *elementBuilder) canvas(d Directive) ([]*domain.SlideElement, *Error) {
	args := strings.Fields(d.Tail)
	ce := &domain.CanvasEffectData{Progress: domain.CurveLinear}
	var first string
	if d.Keyword != `\CANVAS_RESET` {
		if len(args) == 0 {
			return nil, critical(d, "canvas effect argument missing")
		}
		first, args = args[0], args[1:]
	}
	switch d.Keyword {
	case `\CANVAS_MOVE`:
		ce.Type = domain.CanvasMove
		v, ok := ParseVector(first)
		if !ok {
			return nil, critical(d, "invalid movement vector %q", first)
		}
		ce.Move = v
	case `\CANVAS_ROTATE`:
		ce.Type = domain.CanvasRotate
		f, ok := parseNumber(first)
		if !ok {
			return nil, critical(d, "invalid angle %q", first)
		}
		ce.Angle = f
	case `\CANVAS_SCALE`:
		ce.Type = domain.CanvasScale
		f, ok := parseNumber(first)
		if !ok {
			return nil, critical(d, "invalid scale %q", first)
		}
		ce.Scale = f
	case `\CANVAS_COLORIZE`:
		ce.Type = domain.CanvasColorize
		c, ok := ParseColor(first)
		if !ok {
			return nil, critical(d, "invalid color %q", first)
		}
		c.A = canvasDefaultAlpha
		ce.Color = c
	case `\CANVAS_RESET`:
		ce.Type = domain.CanvasReset
	}

	if len(args) == 0 {
		if ce.Type != domain.CanvasReset {
			return nil, critical(d, "effect timer missing")
		}
	} else {
		n, ok := parseInt(args[0])
		switch {
		case ok && n >= 0:
			ce.Timer = n
			args = args[1:]
		case ce.Type != domain.CanvasReset:
			return nil, critical(d, "invalid effect timer %q", args[0])
		}
	}

	for _, a := range args {
		if strings.EqualFold(a, "hard") {
			ce.Hard = true
			continue
		}
		if c, ok := domain.CurveByName(a); ok {
			ce.Progress = c
			continue
		}
		if n, ok := parseInt(a); ok {
			if ce.Type != domain.CanvasColorize {
				b.warn(recoverable(d, "opacity %q only applies to colorize", a))
				continue
			}
			n = min(max(n, 0), 100)
			ce.Color.A = uint8(n * 0xFF / 100)
			continue
		}
		if v, ok := ParseVector(a); ok {
			if ce.Type != domain.CanvasRotate {
				b.warn(recoverable(d, "center %q only applies to rotation", a))
				continue
			}
			ce.Center = &v
			continue
		}
		b.warn(recoverable(d, "unknown canvas parameter %q ignored", a))
	}
	return one(&domain.SlideElement{Line: d.Line, Drawable: !ce.Hard, Payload: ce}), nil
}

// ParseSlides parses a slide script into st. On a critical error st is left
// as it was and the error is returned.
func ParseSlides(r io.Reader, file string, st *storage.Store, opts Options) (Result, error) {
	p := &slideParser{base: newBase(st, file, opts, "parse_slides")}
	p.build = &elementBuilder{store: st, warn: p.report}
	return p.run(r, p.line, p.finish)
}

// templateCall tracks an open \TEMPLATE_CALL.
type templateCall struct {
	name     string
	instance string
	last     int // timeline position of the last touched element
}

type slideParser struct {
	base
	build *elementBuilder
	call  *templateCall
}

func (p *slideParser) line(d Directive) *Error {
	if p.call != nil {
		return p.callLine(d)
	}
	switch d.Keyword {
	case `\END`:
		p.res.Ended = true
		return nil
	case `\VERSION`:
		return nil
	case `\TEMPLATE_CALL`:
		return p.beginCall(d)
	case `\TEMPLATE_END`:
		return recoverable(d, "\\TEMPLATE_END outside a template call")
	case `\`:
		return recoverable(d, "template overwrite line outside a template call")
	}
	els, ok, err := p.build.build(d)
	if !ok {
		return p.unknown(d, slideKeywords)
	}
	if err != nil {
		return err
	}
	for _, e := range els {
		p.store.AddSlideElement(e)
	}
	return nil
}

// beginCall clones the template's elements into the timeline, namespacing
// their ids with a per-call instance id.
func (p *slideParser) beginCall(d Directive) *Error {
	args := strings.Fields(d.Tail)
	if len(args) == 0 {
		return critical(d, "template name missing")
	}
	t, ok := p.store.GetTemplate(args[0])
	if !ok {
		return critical(d, "unknown template %q", args[0])
	}
	var inst string
	if len(args) > 1 {
		inst = args[1]
		if err := p.store.ClaimInstanceID(inst); err != nil {
			return critical(d, "template instance id %q already used", inst)
		}
	} else {
		inst = p.store.NextInstanceID()
	}
	call := &templateCall{name: t.Name, instance: inst, last: p.store.Len() - 1}
	for _, proto := range t.Elements {
		c := proto.Clone()
		c.ID = domain.TemplateElementID(proto.ID, inst)
		call.last = p.store.AddSlideElement(c)
	}
	p.call = call
	p.log.Debug("template call", "template", t.Name, "instance", inst, "elements", len(t.Elements))
	return nil
}

func (p *slideParser) callLine(d Directive) *Error {
	switch d.Keyword {
	case `\TEMPLATE_END`:
		p.call = nil
		return nil
	case `\TEMPLATE_CALL`:
		return recoverable(d, "nested template call inside %q skipped", p.call.name)
	case `\END`:
		p.res.Ended = true
		return nil
	case `\VERSION`:
		return nil
	case `\`:
		return p.overwrite(d)
	}
	els, ok, err := p.build.build(d)
	if !ok {
		return p.unknown(d, slideKeywords)
	}
	if err != nil {
		return err
	}
	for _, e := range els {
		p.call.last = p.store.InsertAfter(p.call.last, e)
	}
	return nil
}

// overwrite applies \{ID:x,E:..,S:..,P:..} tail to the cloned element x of
// the current call.
func (p *slideParser) overwrite(d Directive) *Error {
	id, _ := d.Defs.Get("ID")
	if id == "" {
		return critical(d, "template overwrite without ID")
	}
	full := domain.TemplateElementID(id, p.call.instance)
	e, pos, ok := p.store.GetTemplateSlideElementByID(full)
	if !ok {
		return critical(d, "element %q not found in template %q", id, p.call.name)
	}
	if v, ok := d.Defs.Get("E"); ok {
		e.Effect = v
	}
	if v, ok := d.Defs.Get("S"); ok {
		e.Style = v
	}
	if v, ok := d.Defs.Get("P"); ok {
		if np, valid := ParsePosition(v); valid {
			e.Position = np
		} else {
			p.report(recoverable(d, "invalid position %q ignored", v))
		}
	}
	if tail := d.Tail; tail != "" {
		switch pl := e.Payload.(type) {
		case *domain.TextData:
			pl.Text = tail
			if err := markup.Check(tail); err != nil {
				p.report(recoverable(d, "markup: %v", err))
			}
		case *domain.ImageData:
			res, ok := p.store.GetResource(tail)
			if !ok {
				return critical(d, "unknown image resource %q", tail)
			}
			pl.Resource = res.Name
			if res.HasSize() {
				pl.Size = domain.Size{W: res.Width, H: res.Height}
			}
		default:
			p.report(recoverable(d, "text ignored for %s element %q", e.Kind(), id))
		}
	}
	p.call.last = pos
	return nil
}

func (p *slideParser) finish(last Directive) *Error {
	if p.call == nil {
		return nil
	}
	name := p.call.name
	p.call = nil
	return recoverable(last, "template call %q not closed, ended at end of file", name)
}
