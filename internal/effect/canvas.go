/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package effect

import (
	"image/color"
	"math"
	"time"

	"slidescript/internal/domain"
	"slidescript/internal/vector"
)

// Canvas is the global transform of the drawing surface.
type Canvas struct {
	Offset vector.Vec2
	Angle  float64 // degrees
	Center vector.Vec2
	Scale  float64 // percent
	Tint   color.RGBA
}

// IdentityCanvas returns an untransformed canvas rotating around center.
func IdentityCanvas(center vector.Vec2) Canvas { return Canvas{Center: center, Scale: 100} }

// Transform returns the matrix mapping slide coordinates to the screen:
// scale and rotation around Center, then the offset.
func (c Canvas) Transform() vector.Affine2D {
	s := c.Scale / 100
	m := vector.Translate(c.Offset.X, c.Offset.Y)
	m = m.Mul(vector.RotateAround(c.Angle*math.Pi/180, c.Center))
	return m.Mul(vector.Translate(c.Center.X, c.Center.Y)).
		Mul(vector.Scale(s, s)).
		Mul(vector.Translate(-c.Center.X, -c.Center.Y))
}

// target computes the canvas a canvas effect ends in. screenCenter is the
// default rotation centre.
func target(from Canvas, d *domain.CanvasEffectData, screenCenter vector.Vec2) Canvas {
	to := from
	switch d.Type {
	case domain.CanvasMove:
		to.Offset = from.Offset.Add(d.Move)
	case domain.CanvasRotate:
		to.Angle = from.Angle + d.Angle
		to.Center = screenCenter
		if d.Center != nil {
			to.Center = *d.Center
		}
	case domain.CanvasScale:
		to.Scale = d.Scale
	case domain.CanvasColorize:
		to.Tint = d.Color
	case domain.CanvasReset:
		to = IdentityCanvas(screenCenter)
	}
	return to
}

// ApplyHard sets the end state of d on c at once.
func ApplyHard(c *Canvas, d *domain.CanvasEffectData, screenCenter vector.Vec2) {
	*c = target(*c, d, screenCenter)
}

// CanvasAnimator interpolates the canvas toward the end state of a non-hard
// canvas effect.
type CanvasAnimator struct {
	canvas   *Canvas
	data     *domain.CanvasEffectData
	clock    Clock
	started  time.Duration
	from, to Canvas
	coef     float64
	done     bool
}

// NewCanvasAnimator starts animating c toward the end state of d.
func NewCanvasAnimator(c *Canvas, d *domain.CanvasEffectData, clock Clock, screenCenter vector.Vec2) *CanvasAnimator {
	a := &CanvasAnimator{canvas: c, data: d, clock: clock, started: clock.Now(), from: *c, to: target(*c, d, screenCenter)}
	// the rotation centre does not animate
	a.from.Center = a.to.Center
	return a
}

// Animate updates the canvas and reports whether the animation still runs.
func (a *CanvasAnimator) Animate() bool {
	if a.done {
		return false
	}
	raw := max(progress(a.clock.Now()-a.started, a.data.Timer), a.coef)
	a.coef = raw
	y := Shape(a.data.Progress, raw)
	c := Canvas{
		Offset: vector.LerpVec(a.from.Offset, a.to.Offset, y),
		Angle:  vector.Lerp(a.from.Angle, a.to.Angle, y),
		Center: a.to.Center,
		Scale:  vector.Lerp(a.from.Scale, a.to.Scale, y),
		Tint:   lerpColor(a.from.Tint, a.to.Tint, y),
	}
	if raw >= 1 {
		c = a.to
		a.done = true
	}
	*a.canvas = c
	return !a.done
}

// Finish jumps to the end state.
func (a *CanvasAnimator) Finish() {
	if !a.done {
		*a.canvas = a.to
		a.coef, a.done = 1, true
	}
}

// Target returns the canvas the animation ends in.
func (a *CanvasAnimator) Target() Canvas { return a.to }

// Data returns the effect being animated.
func (a *CanvasAnimator) Data() *domain.CanvasEffectData { return a.data }

// Done reports whether the end state was reached.
func (a *CanvasAnimator) Done() bool { return a.done }

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	ch := func(x, y uint8) uint8 { return uint8(math.Round(vector.Lerp(float64(x), float64(y), t))) }
	return color.RGBA{R: ch(a.R, b.R), G: ch(a.G, b.G), B: ch(a.B, b.B), A: ch(a.A, b.A)}
}
