/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// 2D geometry used by the animation engine and the playback driver.
// Screen coordinates: origin top-left, y grows downwards.

import "math"

// Vec2 is a point or a displacement on screen.
type Vec2 struct{ X, Y float64 }

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Mul(f float64) Vec2     { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64           { return math.Hypot(v.X, v.Y) }
func (v Vec2) Angle() float64         { return math.Atan2(v.Y, v.X) }
func (v Vec2) Round(places int) Vec2  { return Vec2{FloatRound(v.X, places), FloatRound(v.Y, places)} }
func (v Vec2) Eq(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Rect is an axis-aligned rectangle given by two corners; the corners may
// arrive in any order (script authors write upper-left then lower-right, but
// nothing enforces it).
type Rect struct{ Min, Max Vec2 }

func R(x0, y0, x1, y1 float64) Rect {
	return Rect{Min: Vec2{math.Min(x0, x1), math.Min(y0, y1)}, Max: Vec2{math.Max(x0, x1), math.Max(y0, y1)}}
}

func (r Rect) Empty() bool { return r.Min == r.Max }

// Contains is inclusive on all edges.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.Y >= r.Min.Y && p.X <= r.Max.X && p.Y <= r.Max.Y
}

// Lerp interpolates scalars; t is not clamped.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// LerpVec interpolates points component-wise.
func LerpVec(a, b Vec2, t float64) Vec2 { return Vec2{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)} }

// Circle is a circular arc described by centre, radius and start phase (radians).
type Circle struct {
	Center Vec2
	Radius float64
	Phase  float64
}

// CircleThrough returns the circle whose diameter is the segment a-b; the
// phase points at a.
func CircleThrough(a, b Vec2) Circle {
	c := LerpVec(a, b, 0.5)
	d := a.Sub(c)
	return Circle{Center: c, Radius: d.Len(), Phase: d.Angle()}
}

// At returns the point reached after sweeping t half-turns from the phase.
// ccw selects the winding: true decreases the angle, which on a y-down screen
// turns counter-clockwise.
func (c Circle) At(t float64, ccw bool) Vec2 {
	a := c.Phase + math.Pi*t
	if ccw {
		a = c.Phase - math.Pi*t
	}
	return Vec2{c.Center.X + c.Radius*math.Cos(a), c.Center.Y + c.Radius*math.Sin(a)}
}

// Bezier evaluates the curve with end points p0, p3 and control points c1, c2.
func Bezier(p0, c1, c2, p3 Vec2, t float64) Vec2 {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Vec2{
		X: b0*p0.X + b1*c1.X + b2*c2.X + b3*p3.X,
		Y: b0*p0.Y + b1*c1.Y + b2*c2.Y + b3*p3.Y,
	}
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Vec2) Vec2 {
	return Vec2{X: m.A*p.X + m.C*p.Y + m.E, Y: m.B*p.X + m.D*p.Y + m.F}
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }
func Rotate(rad float64) Affine2D {
	c, s := math.Cos(rad), math.Sin(rad)
	return Affine2D{A: c, B: s, C: -s, D: c}
}

// RotateAround rotates by rad around p.
func RotateAround(rad float64, p Vec2) Affine2D {
	return Translate(p.X, p.Y).Mul(Rotate(rad)).Mul(Translate(-p.X, -p.Y))
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
