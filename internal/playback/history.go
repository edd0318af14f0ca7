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

	"slidescript/internal/domain"
	"slidescript/internal/effect"
)

// Checkpoint is the driver state at the start of a slide: the timeline
// position of its first element plus the global state that outlives slide
// changes.
type Checkpoint struct {
	Pos        int
	Background *domain.BackgroundData
	Canvas     effect.Canvas
	At         time.Duration // presentation clock when the slide started
}

// History keeps slide checkpoints for rewinding. It is bounded: the oldest
// checkpoints are dropped once MaxDepth is exceeded.
type History struct {
	MaxDepth int // 0 means unlimited
	stack    []Checkpoint
}

// DefaultHistoryDepth bounds how many slides a presenter can step back.
const DefaultHistoryDepth = 64

// Push records a checkpoint. A checkpoint at the same timeline position as
// the last one replaces it, so re-entering a slide does not grow the stack.
func (h *History) Push(c Checkpoint) {
	if n := len(h.stack); n > 0 && h.stack[n-1].Pos == c.Pos {
		h.stack[n-1] = c
		return
	}
	h.stack = append(h.stack, c)
	if h.MaxDepth > 0 && len(h.stack) > h.MaxDepth {
		drop := len(h.stack) - h.MaxDepth
		clear(h.stack[:drop])
		h.stack = h.stack[drop:]
	}
}

// Back drops the current slide's checkpoint and returns the previous one.
// With a single checkpoint it returns that one again (the slide restarts).
func (h *History) Back() (Checkpoint, bool) {
	switch len(h.stack) {
	case 0:
		return Checkpoint{}, false
	case 1:
		return h.stack[0], true
	}
	h.stack = h.stack[:len(h.stack)-1]
	return h.stack[len(h.stack)-1], true
}

// Current returns the checkpoint of the running slide.
func (h *History) Current() (Checkpoint, bool) {
	if len(h.stack) == 0 {
		return Checkpoint{}, false
	}
	return h.stack[len(h.stack)-1], true
}

// Len reports how many checkpoints are kept.
func (h *History) Len() int { return len(h.stack) }
