/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the timeline model: one SlideElement per script item,
// carrying a kind-specific payload. Elements stored in the content store are
// prototypes; the playback driver activates private copies.

import (
	"image"
	"image/color"
	"slices"

	"slidescript/internal/vector"
)

// ElementKind tags the payload variant of a SlideElement.
type ElementKind int

const (
	KindText ElementKind = iota + 1
	KindImage
	KindBackground
	KindBlock
	KindMouseEvent
	KindKeyboardEvent
	KindNewSlide
	KindPlayEffect
	KindCanvasEffect
)

var kindNames = map[ElementKind]string{
	KindText:          "TEXT",
	KindImage:         "IMAGE",
	KindBackground:    "BACKGROUND",
	KindBlock:         "BLOCK",
	KindMouseEvent:    "MOUSE_EVENT",
	KindKeyboardEvent: "KEYBOARD_EVENT",
	KindNewSlide:      "NEW_SLIDE",
	KindPlayEffect:    "PLAY_EFFECT",
	KindCanvasEffect:  "CANVAS_EFFECT",
}

func (k ElementKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Payload is implemented by the kind-specific element data.
type Payload interface {
	Kind() ElementKind
	clone() Payload
}

// SlideElement is one item of the playback timeline.
type SlideElement struct {
	ID       string   `json:"id,omitempty"`
	Style    string   `json:"style,omitempty"`
	Effect   string   `json:"effect,omitempty"`
	Position Position `json:"position"`
	Drawable bool     `json:"drawable"`
	Line     int      `json:"line,omitempty"` // source line, for diagnostics
	Payload  Payload  `json:"payload"`
}

// Kind returns the payload kind, 0 when no payload is attached.
func (e *SlideElement) Kind() ElementKind {
	if e == nil || e.Payload == nil {
		return 0
	}
	return e.Payload.Kind()
}

// Clone deep-copies the element including its payload.
func (e *SlideElement) Clone() *SlideElement {
	if e == nil {
		return nil
	}
	c := *e
	if e.Payload != nil {
		c.Payload = e.Payload.clone()
	}
	return &c
}

// Text returns the text payload, nil for other kinds. The same pattern is
// used by the other typed accessors below.
func (e *SlideElement) Text() *TextData { p, _ := e.Payload.(*TextData); return p }

func (e *SlideElement) Image() *ImageData           { p, _ := e.Payload.(*ImageData); return p }
func (e *SlideElement) Background() *BackgroundData { p, _ := e.Payload.(*BackgroundData); return p }
func (e *SlideElement) Block() *BlockData           { p, _ := e.Payload.(*BlockData); return p }
func (e *SlideElement) Mouse() *MouseEventData      { p, _ := e.Payload.(*MouseEventData); return p }
func (e *SlideElement) Keyboard() *KeyboardEventData {
	p, _ := e.Payload.(*KeyboardEventData)
	return p
}
func (e *SlideElement) NewSlide() *NewSlideData { p, _ := e.Payload.(*NewSlideData); return p }
func (e *SlideElement) Canvas() *CanvasEffectData {
	p, _ := e.Payload.(*CanvasEffectData)
	return p
}

// TextData is a markup text line.
type TextData struct {
	Text   string `json:"text"`
	Depth  int    `json:"depth,omitempty"`
	NoWrap bool   `json:"noWrap,omitempty"`
}

func (*TextData) Kind() ElementKind { return KindText }
func (d *TextData) clone() Payload  { c := *d; return &c }

// Size is a pixel extent.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// ImageData draws a registered image resource.
type ImageData struct {
	Resource string `json:"resource"`
	Size     Size   `json:"size"`
}

func (*ImageData) Kind() ElementKind { return KindImage }
func (d *ImageData) clone() Payload  { c := *d; return &c }

// GradientEdge is the screen edge a background gradient starts from.
type GradientEdge int

const (
	GradientAll GradientEdge = iota
	GradientTop
	GradientLeft
	GradientRight
	GradientBottom
)

// GradientExtent says how far a gradient reaches into the screen.
type GradientExtent int

const (
	ExtentPixels GradientExtent = iota
	ExtentBody                  // up to the slide body
	ExtentEdge                  // only the border strip
)

type Gradient struct {
	Edge   GradientEdge   `json:"edge"`
	Extent GradientExtent `json:"extent"`
	Size   int            `json:"size,omitempty"`
	Color  color.RGBA     `json:"color"`
}

// Spread stretches a background image along one or both screen axes.
type Spread int

const (
	SpreadNone Spread = iota
	SpreadWidth
	SpreadHeight
	SpreadBoth
)

// BackgroundData replaces the slide background.
type BackgroundData struct {
	Color     *color.RGBA `json:"color,omitempty"`
	Resource  string      `json:"resource,omitempty"`
	PosX      Coord       `json:"posX"`
	PosY      Coord       `json:"posY"`
	Spread    Spread      `json:"spread,omitempty"`
	Width     int         `json:"width,omitempty"`
	Height    int         `json:"height,omitempty"`
	Gradients []Gradient  `json:"gradients,omitempty"`
}

func (*BackgroundData) Kind() ElementKind { return KindBackground }
func (d *BackgroundData) clone() Payload {
	c := *d
	if d.Color != nil {
		col := *d.Color
		c.Color = &col
	}
	c.Gradients = slices.Clone(d.Gradients)
	return &c
}

// BlockData pauses the timeline. Millis == 0 waits for any input.
type BlockData struct {
	Millis      int  `json:"millis"`
	Passthrough bool `json:"passthrough,omitempty"`
}

func (*BlockData) Kind() ElementKind { return KindBlock }
func (d *BlockData) clone() Payload  { c := *d; return &c }

type MouseButton int

const (
	MouseLeft MouseButton = iota + 1
	MouseRight
)

// MouseEventData gates the timeline until a click; UpperLeft/LowerRight with
// both X values zero accept a click anywhere.
type MouseEventData struct {
	Button     MouseButton `json:"button"`
	UpperLeft  image.Point `json:"plu"`
	LowerRight image.Point `json:"prl"`
}

func (*MouseEventData) Kind() ElementKind { return KindMouseEvent }
func (d *MouseEventData) clone() Payload  { c := *d; return &c }

// Unconditional reports whether any click releases the gate.
func (d *MouseEventData) Unconditional() bool { return d.UpperLeft.X == 0 && d.LowerRight.X == 0 }

// Area returns the click rectangle.
func (d *MouseEventData) Area() vector.Rect {
	return vector.R(float64(d.UpperLeft.X), float64(d.UpperLeft.Y), float64(d.LowerRight.X), float64(d.LowerRight.Y))
}

// KeyboardEventData gates the timeline until a key event; Key 0 means any key.
type KeyboardEventData struct {
	Release bool `json:"release,omitempty"`
	Key     int  `json:"key"`
}

func (*KeyboardEventData) Kind() ElementKind { return KindKeyboardEvent }
func (d *KeyboardEventData) clone() Payload  { c := *d; return &c }

type Transition int

const (
	TransitionNone Transition = iota
	TransitionFade
	TransitionMove
	TransitionDisperse
)

func (t Transition) String() string {
	switch t {
	case TransitionFade:
		return "FADE"
	case TransitionMove:
		return "MOVE"
	case TransitionDisperse:
		return "DISPERSE"
	}
	return "NONE"
}

// NewSlideData clears the drawable elements of the current slide.
type NewSlideData struct {
	Transition Transition `json:"transition"`
	Millis     int        `json:"millis,omitempty"`
}

func (*NewSlideData) Kind() ElementKind { return KindNewSlide }
func (d *NewSlideData) clone() Payload  { c := *d; return &c }

// PlayEffectData starts the element's Effect on the active element with the same ID.
type PlayEffectData struct{}

func (*PlayEffectData) Kind() ElementKind { return KindPlayEffect }
func (d *PlayEffectData) clone() Payload  { return &PlayEffectData{} }

type CanvasEffectType int

const (
	CanvasMove CanvasEffectType = iota + 1
	CanvasRotate
	CanvasScale
	CanvasColorize
	CanvasReset
)

func (t CanvasEffectType) String() string {
	switch t {
	case CanvasMove:
		return "MOVE"
	case CanvasRotate:
		return "ROTATE"
	case CanvasScale:
		return "SCALE"
	case CanvasColorize:
		return "COLORIZE"
	case CanvasReset:
		return "RESET"
	}
	return "UNKNOWN"
}

// CanvasEffectData transforms the whole drawing surface.
type CanvasEffectData struct {
	Type     CanvasEffectType `json:"type"`
	Move     vector.Vec2      `json:"move,omitempty"`
	Angle    float64          `json:"angle,omitempty"`  // degrees
	Scale    float64          `json:"scale,omitempty"`  // percent
	Color    color.RGBA       `json:"color,omitempty"`  // colorize target incl. alpha
	Center   *vector.Vec2     `json:"center,omitempty"` // rotation centre, nil = screen centre
	Timer    int              `json:"timer"`
	Progress Curve            `json:"progress"`
	Hard     bool             `json:"hard,omitempty"`
	// ClearsSlide marks the last element of a fading slide change; the
	// current slide is cleared when it activates.
	ClearsSlide bool `json:"clearsSlide,omitempty"`
}

func (*CanvasEffectData) Kind() ElementKind { return KindCanvasEffect }
func (d *CanvasEffectData) clone() Payload {
	c := *d
	if d.Center != nil {
		v := *d.Center
		c.Center = &v
	}
	return &c
}
