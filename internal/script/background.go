/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"

	"slidescript/internal/domain"
)

var gradientEdges = map[string]domain.GradientEdge{
	"GRADIENT":        domain.GradientAll,
	"GRADIENT-TOP":    domain.GradientTop,
	"GRADIENT-LEFT":   domain.GradientLeft,
	"GRADIENT-RIGHT":  domain.GradientRight,
	"GRADIENT-BOTTOM": domain.GradientBottom,
}

var spreadModes = map[string]domain.Spread{
	"NONE":   domain.SpreadNone,
	"WIDTH":  domain.SpreadWidth,
	"HEIGHT": domain.SpreadHeight,
	"BOTH":   domain.SpreadBoth,
}

// background parses \BACKGROUND KEY=VALUE[,KEY=VALUE...].
func (b *elementBuilder) background(d Directive) ([]*domain.SlideElement, *Error) {
	tail := strings.TrimSpace(d.Tail)
	if tail == "" {
		return nil, critical(d, "background definition missing")
	}
	assigns, bad := splitAssignments(tail)
	if bad != "" {
		return nil, critical(d, "invalid background definition chunk %q", bad)
	}
	center := domain.At(domain.AnchorCenter)
	bg := &domain.BackgroundData{PosX: center, PosY: center}

	for _, a := range assigns {
		switch a.Key {
		case "COLOR":
			c, ok := ParseColor(a.Value)
			if !ok {
				return nil, critical(d, "invalid background color %q", a.Value)
			}
			bg.Color = &c
		case "RESOURCE", "IMAGE":
			res, ok := b.store.GetResource(a.Value)
			if !ok {
				return nil, critical(d, "resource %q not found", a.Value)
			}
			bg.Resource = res.Name
			if bg.Width == 0 {
				bg.Width = res.Width
			}
			if bg.Height == 0 {
				bg.Height = res.Height
			}
		case "POS-X", "POS-Y":
			c, ok := ParseCoord(a.Value, a.Key == "POS-Y")
			if !ok {
				return nil, critical(d, "invalid %s value %q", a.Key, a.Value)
			}
			if a.Key == "POS-X" {
				bg.PosX = c
			} else {
				bg.PosY = c
			}
		case "POS":
			if !setBackgroundPos(bg, strings.ToUpper(a.Value)) {
				return nil, critical(d, "invalid background position %q", a.Value)
			}
		case "SPREAD":
			s, ok := spreadModes[strings.ToUpper(a.Value)]
			if !ok {
				return nil, critical(d, "invalid background spread %q", a.Value)
			}
			bg.Spread = s
		case "WIDTH", "HEIGHT":
			if strings.EqualFold(a.Value, "FULL") {
				if a.Key == "WIDTH" {
					bg.Spread = addSpread(bg.Spread, domain.SpreadWidth)
				} else {
					bg.Spread = addSpread(bg.Spread, domain.SpreadHeight)
				}
				continue
			}
			n, ok := parseInt(a.Value)
			if !ok || n < 0 {
				return nil, critical(d, "invalid background %s %q", strings.ToLower(a.Key), a.Value)
			}
			if a.Key == "WIDTH" {
				bg.Width = n
			} else {
				bg.Height = n
			}
		default:
			edge, ok := gradientEdges[a.Key]
			if !ok {
				b.warn(recoverable(d, "unknown background key %q ignored", a.Key))
				continue
			}
			g, msg := parseGradient(edge, a.Value)
			if msg != "" {
				b.warn(recoverable(d, "%s gradient ignored: %s", strings.ToLower(a.Key), msg))
				continue
			}
			bg.Gradients = append(bg.Gradients, g)
		}
	}
	return one(&domain.SlideElement{Line: d.Line, Payload: bg}), nil
}

// setBackgroundPos applies a single POS anchor. LEFT/RIGHT only move the X
// axis and TOP/BOTTOM only the Y axis.
func setBackgroundPos(bg *domain.BackgroundData, v string) bool {
	switch v {
	case "LEFT", "RIGHT":
		a, _ := domain.AnchorByName(v)
		bg.PosX = domain.At(a)
		return true
	case "TOP", "BOTTOM":
		a, _ := domain.AnchorByName(v)
		bg.PosY = domain.At(a)
		return true
	}
	pos, ok := parseCompoundAnchor(v)
	if ok {
		bg.PosX, bg.PosY = pos.X, pos.Y
	}
	return ok
}

func addSpread(cur, axis domain.Spread) domain.Spread {
	if cur == domain.SpreadNone || cur == axis {
		return axis
	}
	return domain.SpreadBoth
}

// parseGradient reads "<size|BODY|EDGE> <color>".
func parseGradient(edge domain.GradientEdge, v string) (domain.Gradient, string) {
	g := domain.Gradient{Edge: edge}
	ext, col, ok := strings.Cut(strings.TrimSpace(v), " ")
	if !ok || strings.TrimSpace(col) == "" {
		return g, "color argument missing"
	}
	switch {
	case strings.EqualFold(ext, "BODY"):
		g.Extent = domain.ExtentBody
	case strings.EqualFold(ext, "EDGE"):
		g.Extent = domain.ExtentEdge
	default:
		n, ok := parseInt(ext)
		if !ok || n <= 0 {
			return g, "invalid size " + ext
		}
		g.Extent, g.Size = domain.ExtentPixels, n
	}
	c, ok := ParseColor(col)
	if !ok {
		return g, "invalid color " + strings.TrimSpace(col)
	}
	g.Color = c
	return g, ""
}
