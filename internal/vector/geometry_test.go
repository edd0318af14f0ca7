/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAnyCornerOrder(t *testing.T) {
	r := R(100, 80, 10, 20)
	if !r.Contains(V(10, 20)) || !r.Contains(V(100, 80)) || !r.Contains(V(50, 50)) {
		t.Fatalf("expected inclusive containment for %+v", r)
	}
	if r.Contains(V(101, 50)) || r.Contains(V(50, 19)) {
		t.Fatalf("point outside reported inside")
	}
	if !R(0, 0, 0, 0).Empty() {
		t.Fatalf("zero rect should be empty")
	}
}

func TestCircleThroughEndsAtOppositePoint(t *testing.T) {
	a, b := V(0, 0), V(100, 0)
	c := CircleThrough(a, b)
	if c.Radius != 50 || c.Center != V(50, 0) {
		t.Fatalf("unexpected circle %+v", c)
	}
	for _, ccw := range []bool{false, true} {
		if got := c.At(0, ccw); !got.Eq(a, 1e-9) {
			t.Fatalf("At(0) = %+v, want %+v", got, a)
		}
		if got := c.At(1, ccw); !got.Eq(b, 1e-9) {
			t.Fatalf("At(1) = %+v, want %+v", got, b)
		}
	}
	// halfway the two windings sit on opposite sides of the diameter
	cw, ccw := c.At(0.5, false), c.At(0.5, true)
	if math.Abs(cw.Y+ccw.Y) > 1e-9 || math.Abs(cw.Y) != 50 {
		t.Fatalf("windings not mirrored: %+v %+v", cw, ccw)
	}
}

func TestBezierEndpoints(t *testing.T) {
	p0, c1, c2, p3 := V(0, 0), V(0, 100), V(100, 100), V(100, 0)
	if got := Bezier(p0, c1, c2, p3, 0); got != p0 {
		t.Fatalf("Bezier(0) = %+v", got)
	}
	if got := Bezier(p0, c1, c2, p3, 1); got != p3 {
		t.Fatalf("Bezier(1) = %+v", got)
	}
	if got := Bezier(p0, c1, c2, p3, 0.5); !got.Eq(V(50, 75), 1e-9) {
		t.Fatalf("Bezier(0.5) = %+v", got)
	}
}

func TestAffineRotateAround(t *testing.T) {
	m := RotateAround(math.Pi/2, V(10, 10))
	if got := m.Apply(V(20, 10)).Round(6); got != V(10, 20) {
		t.Fatalf("rotate around = %+v", got)
	}
	if got := Translate(5, -5).Mul(Scale(2, 2)).Apply(V(1, 1)); got != V(7, -3) {
		t.Fatalf("translate*scale = %+v", got)
	}
}

func TestFloatRound(t *testing.T) {
	if FloatRound(1.23456, 2) != 1.23 {
		t.Fatalf("FloatRound mismatch")
	}
	if FloatRound(1.5, -1) != 1.5 {
		t.Fatalf("negative places must be a no-op")
	}
}
