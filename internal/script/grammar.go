/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"slidescript/internal/domain"
	"slidescript/internal/vector"
)

// ParseColor accepts a CSS color name (case-insensitive) or six hex digits
// with an optional leading '#'. Parsed colors are opaque.
func ParseColor(s string) (color.RGBA, bool) {
	t := strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(t)]; ok {
		return c, true
	}
	t = strings.TrimPrefix(t, "#")
	if len(t) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, true
}

// IsNumeric reports whether s is an integer: digits with an optional leading minus.
func IsNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// parseInt is IsNumeric followed by Atoi.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if !IsNumeric(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// parseNumber accepts integers and plain decimals ("1.5", "-0.25").
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	ip, frac, hasFrac := strings.Cut(s, ".")
	if !IsNumeric(ip) || hasFrac && (frac == "" || !IsNumeric(frac) || strings.HasPrefix(frac, "-")) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// ParseVector parses "x,y"; both components must be numeric.
func ParseVector(s string) (vector.Vec2, bool) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return vector.Vec2{}, false
	}
	x, okX := parseNumber(xs)
	y, okY := parseNumber(ys)
	if !okX || !okY {
		return vector.Vec2{}, false
	}
	return vector.V(x, y), true
}

// parsePoint is ParseVector restricted to integers.
func parsePoint(s string) (image.Point, bool) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, false
	}
	x, okX := parseInt(xs)
	y, okY := parseInt(ys)
	if !okX || !okY {
		return image.Point{}, false
	}
	return image.Pt(x, y), true
}

// ParseCoord parses one axis: a signed pixel offset or an anchor valid for
// that axis (CENTER, LEFT, RIGHT horizontally; CENTER, TOP, BOTTOM vertically).
func ParseCoord(s string, vertical bool) (domain.Coord, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, ok := parseInt(s); ok {
		return domain.Px(n), true
	}
	a, ok := domain.AnchorByName(s)
	if !ok {
		return domain.Coord{}, false
	}
	switch a {
	case domain.AnchorLeft, domain.AnchorRight:
		ok = !vertical
	case domain.AnchorTop, domain.AnchorBottom:
		ok = vertical
	}
	return domain.At(a), ok
}

// ParsePosition parses "x,y" or a single (possibly compound) anchor such as
// CENTER, TOPLEFT or BOTTOMRIGHT. A lone LEFT/RIGHT centres vertically and a
// lone TOP/BOTTOM centres horizontally.
func ParsePosition(s string) (domain.Position, bool) {
	s = strings.TrimSpace(s)
	if xs, ys, ok := strings.Cut(s, ","); ok {
		x, okX := ParseCoord(xs, false)
		y, okY := ParseCoord(ys, true)
		return domain.Position{X: x, Y: y}, okX && okY
	}
	return parseCompoundAnchor(strings.ToUpper(s))
}

func parseCompoundAnchor(s string) (domain.Position, bool) {
	center := domain.At(domain.AnchorCenter)
	pos := domain.Position{X: center, Y: center}
	if s == "" {
		return pos, false
	}
	if s == "CENTER" {
		return pos, true
	}
	var gotX, gotY bool
	for s != "" {
		matched := false
		for _, name := range []string{"LEFT", "RIGHT", "TOP", "BOTTOM", "CENTER"} {
			if !strings.HasPrefix(s, name) {
				continue
			}
			a, _ := domain.AnchorByName(name)
			switch a {
			case domain.AnchorLeft, domain.AnchorRight:
				if gotX {
					return pos, false
				}
				pos.X, gotX = domain.At(a), true
			case domain.AnchorTop, domain.AnchorBottom:
				if gotY {
					return pos, false
				}
				pos.Y, gotY = domain.At(a), true
			}
			s, matched = s[len(name):], true
			break
		}
		if !matched {
			return pos, false
		}
	}
	return pos, true
}
