/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"slidescript/internal/domain"
	"slidescript/internal/effect"
	"slidescript/internal/fonts"
	"slidescript/internal/markup"
	"slidescript/internal/vector"
)

// DepthIndent is the horizontal indent per text depth level, in pixels.
const DepthIndent = 40

// Active is a live element on the current slide: a private copy of the
// stored prototype plus the runtime state effects animate.
type Active struct {
	Element *domain.SlideElement
	State   effect.State
	Size    vector.Vec2 // natural size, before scaling

	Markup markup.Result // text elements only
	Lines  []fonts.Line

	handler *effect.Handler
	waived  bool // an effect-end event released its blocking
}

// newActive copies proto; runtime state starts fully visible at natural size.
func newActive(proto *domain.SlideElement) *Active {
	return &Active{Element: proto.Clone(), State: effect.State{Opacity: 255, Scale: 1}}
}

// Handler returns the element's effect handler, nil if none ever ran.
func (a *Active) Handler() *effect.Handler { return a.handler }

// Bounds returns the scaled screen rectangle of the element.
func (a *Active) Bounds() vector.Rect {
	p, s := a.State.Pos, a.Size.Mul(a.State.Scale)
	return vector.R(p.X, p.Y, p.X+s.X, p.Y+s.Y)
}

func (a *Active) running() bool { return a.handler != nil && !a.handler.Expired() }

func (a *Active) blocking() bool { return !a.waived && a.handler != nil && a.handler.Blocking() }

// axis resolves one position coordinate so anchored elements sit inside
// the screen: CENTER centres the element, RIGHT/BOTTOM align its far edge.
func axis(c domain.Coord, screen, size float64) float64 {
	switch c.Anchor {
	case domain.AnchorCenter:
		return (screen - size) / 2
	case domain.AnchorLeft, domain.AnchorTop:
		return 0
	case domain.AnchorRight, domain.AnchorBottom:
		return screen - size
	}
	return float64(c.Value)
}
