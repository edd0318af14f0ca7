/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package effect

import (
	"math"
	"time"

	"slidescript/internal/domain"
)

// Shape maps normalized progress x in [0,1] through a progress curve.
func Shape(c domain.Curve, x float64) float64 {
	switch c {
	case domain.CurveSinus:
		return math.Sin(x * math.Pi / 2)
	case domain.CurveQuadratic:
		return x * x
	}
	return x
}

// progress returns elapsed/duration clamped to [0,1]. A zero duration is
// complete immediately.
func progress(elapsed time.Duration, ms int) float64 {
	if ms <= 0 {
		return 1
	}
	c := float64(elapsed) / float64(time.Duration(ms)*time.Millisecond)
	return min(max(c, 0), 1)
}

// Clock is the time source of animations. Now must be monotonic.
type Clock interface {
	Now() time.Duration
}
