/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strconv"

// Anchor is a named screen placement; AnchorNone means Coord.Value is a pixel offset.
type Anchor int

const (
	AnchorNone Anchor = iota
	AnchorCenter
	AnchorLeft
	AnchorRight
	AnchorTop
	AnchorBottom
)

var anchorNames = [...]string{"", "CENTER", "LEFT", "RIGHT", "TOP", "BOTTOM"}

func (a Anchor) String() string {
	if int(a) < len(anchorNames) {
		return anchorNames[a]
	}
	return "?"
}

// AnchorByName matches an upper-case anchor name.
func AnchorByName(s string) (Anchor, bool) {
	for i, n := range anchorNames {
		if i > 0 && n == s {
			return Anchor(i), true
		}
	}
	return AnchorNone, false
}

// Coord is one axis of a Position.
type Coord struct {
	Anchor Anchor `json:"anchor,omitempty"`
	Value  int    `json:"value,omitempty"`
}

func Px(v int) Coord         { return Coord{Value: v} }
func At(a Anchor) Coord      { return Coord{Anchor: a} }
func (c Coord) IsZero() bool { return c == Coord{} }

func (c Coord) String() string {
	if c.Anchor != AnchorNone {
		return c.Anchor.String()
	}
	return strconv.Itoa(c.Value)
}

// Resolve maps the coordinate onto a screen axis of the given extent.
func (c Coord) Resolve(extent int) int {
	switch c.Anchor {
	case AnchorCenter:
		return extent / 2
	case AnchorLeft, AnchorTop:
		return 0
	case AnchorRight, AnchorBottom:
		return extent
	}
	return c.Value
}

// Position is a screen placement.
type Position struct {
	X Coord `json:"x"`
	Y Coord `json:"y"`
}

func (p Position) String() string { return p.X.String() + "," + p.Y.String() }
