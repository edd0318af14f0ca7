/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"image/color"
	"strings"

	"slidescript/internal/vector"
)

// Curve shapes the normalized progress of an animation.
type Curve int

const (
	CurveLinear Curve = iota
	CurveSinus
	CurveQuadratic
)

func (c Curve) String() string {
	switch c {
	case CurveSinus:
		return "SINUS"
	case CurveQuadratic:
		return "QUADRATIC"
	}
	return "LINEAR"
}

// CurveByName matches linear|sinus|quadratic, case-insensitively.
func CurveByName(s string) (Curve, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LINEAR":
		return CurveLinear, true
	case "SINUS", "SINE":
		return CurveSinus, true
	case "QUADRATIC":
		return CurveQuadratic, true
	}
	return CurveLinear, false
}

// Style is a named font/appearance profile. Styles are immutable once stored.
type Style struct {
	Name       string      `json:"name"`
	FontFamily string      `json:"fontFamily"`
	FontSize   int         `json:"fontSize"`
	Bold       bool        `json:"bold,omitempty"`
	Italic     bool        `json:"italic,omitempty"`
	Underline  bool        `json:"underline,omitempty"`
	Strikeout  bool        `json:"strikeout,omitempty"`
	Color      *color.RGBA `json:"color,omitempty"`
}

// Font returns the renderer-facing part of the style.
func (s *Style) Font() FontSpec {
	return FontSpec{Family: s.FontFamily, Size: s.FontSize, Bold: s.Bold, Italic: s.Italic}
}

// FontSpec identifies one renderer font handle.
type FontSpec struct {
	Family string
	Size   int
	Bold   bool
	Italic bool
}

type MoveType int

const (
	MoveLinear MoveType = iota
	MoveCircular
	MoveBezier
)

func (m MoveType) String() string {
	switch m {
	case MoveCircular:
		return "CIRCULAR"
	case MoveBezier:
		return "BEZIER"
	}
	return "LINEAR"
}

// MoveSpec describes a positional animation. A nil Start means "from where
// the element currently is". Relative makes End an offset from the start.
type MoveSpec struct {
	Type     MoveType       `json:"type"`
	Start    *vector.Vec2   `json:"start,omitempty"`
	End      vector.Vec2    `json:"end"`
	Relative bool           `json:"relative,omitempty"`
	CCW      bool           `json:"ccw,omitempty"`
	Controls [2]vector.Vec2 `json:"controls,omitempty"` // bezier, relative to start and end
}

type FadeDirection int

const (
	FadeIn FadeDirection = iota
	FadeOut
)

// FadeSpec animates opacity (0..255). Nil bounds default per direction.
type FadeSpec struct {
	Direction FadeDirection `json:"direction"`
	From      *uint8        `json:"from,omitempty"`
	To        *uint8        `json:"to,omitempty"`
}

// ScaleSpec animates the element scale factor (1 = natural size).
type ScaleSpec struct {
	From *float64 `json:"from,omitempty"`
	To   float64  `json:"to"`
}

// Effect is a named, shared, read-only animation prototype.
type Effect struct {
	Name     string     `json:"name"`
	Timer    int        `json:"timer"` // ms
	Blocking bool       `json:"blocking,omitempty"`
	Progress Curve      `json:"progress"`
	Move     *MoveSpec  `json:"move,omitempty"`
	Fade     *FadeSpec  `json:"fade,omitempty"`
	Scale    *ScaleSpec `json:"scale,omitempty"`
	Chain    []string   `json:"chain,omitempty"`
}

// Template is a named list of prototype elements cloned by \TEMPLATE_CALL.
type Template struct {
	Name     string          `json:"name"`
	Elements []*SlideElement `json:"elements"`
}

// TemplateIDDelimiter joins an element id and a template instance id.
const TemplateIDDelimiter = "@"

// TemplateElementID builds the namespaced id of a cloned template element.
func TemplateElementID(orig, instance string) string {
	return orig + TemplateIDDelimiter + instance
}
