/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"time"

	"slidescript/internal/effect"
)

// SystemClock reads the monotonic wall clock relative to its creation.
type SystemClock struct{ start time.Time }

func NewSystemClock() *SystemClock { return &SystemClock{start: time.Now()} }

func (c *SystemClock) Now() time.Duration { return time.Since(c.start) }

// ManualClock only moves when told to. Tests and the headless player use it
// to step animations deterministically.
type ManualClock struct{ now time.Duration }

func (c *ManualClock) Now() time.Duration { return c.now }

// Advance moves the clock forward; negative steps are ignored.
func (c *ManualClock) Advance(d time.Duration) {
	if d > 0 {
		c.now += d
	}
}

// PausableClock freezes another clock while paused. Every effect timer reads
// the presentation clock, so pausing it pauses all running animations and
// timed blocks together.
type PausableClock struct {
	src      effect.Clock
	paused   bool
	pausedAt time.Duration
	offset   time.Duration
}

func NewPausableClock(src effect.Clock) *PausableClock { return &PausableClock{src: src} }

func (c *PausableClock) Now() time.Duration {
	if c.paused {
		return c.pausedAt - c.offset
	}
	return c.src.Now() - c.offset
}

func (c *PausableClock) Pause() {
	if !c.paused {
		c.paused, c.pausedAt = true, c.src.Now()
	}
}

func (c *PausableClock) Resume() {
	if c.paused {
		c.offset += c.src.Now() - c.pausedAt
		c.paused = false
	}
}

func (c *PausableClock) Paused() bool { return c.paused }
