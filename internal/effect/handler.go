/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package effect runs effect prototypes on live elements. A Handler binds
// one element state to an effect, advances it from a clock on every Animate
// call and works through the effect chain and any effects queued later.
package effect

import (
	"log/slog"
	"time"

	"slidescript/internal/domain"
	applog "slidescript/internal/log"
	"slidescript/internal/vector"
)

// maxChainDepth bounds the expansion of chains that name other chains.
const maxChainDepth = 8

// State is the animatable part of a live element.
type State struct {
	Pos     vector.Vec2
	Opacity float64 // 0..255
	Scale   float64 // 1 = natural size
}

// Options wires a handler to its surroundings. Clock is required.
type Options struct {
	Clock  Clock
	Lookup func(name string) (*domain.Effect, bool) // resolves chain links
	// OnActivate runs whenever a link starts, including the first one.
	OnActivate func(h *Handler, link *domain.Effect)
	// OnExpire runs once when the last link finishes.
	OnExpire func(h *Handler)
	Logger   *slog.Logger
}

// link is the runtime state of one effect run: cached start values and the
// constants derived from them.
type link struct {
	proto   *domain.Effect
	started time.Duration
	from    State
	coef    float64

	moveFrom, moveTo vector.Vec2
	circle           vector.Circle
	ctrl1, ctrl2     vector.Vec2
	fadeFrom, fadeTo float64
	scaleFrom        float64
	scaleTo          float64
}

// Handler is one active animation bound to one element.
type Handler struct {
	owner  *State
	root   *domain.Effect
	opts   Options
	log    *slog.Logger
	origin State // owner state before the first link

	cur     *link
	queue   []*domain.Effect
	links   int
	expired bool
}

// NewHandler snapshots owner and activates proto. An effect with a chain runs
// its own animation (if it has one) and then each chained effect in order.
func NewHandler(owner *State, proto *domain.Effect, opts Options) *Handler {
	h := &Handler{owner: owner, root: proto, opts: opts, origin: *owner}
	h.log = opts.Logger
	if h.log == nil {
		h.log = applog.WithComponent("effect")
	}
	h.queue = h.expand(proto, 0)
	h.advance()
	return h
}

// hasAnimation reports whether e animates anything by itself.
func hasAnimation(e *domain.Effect) bool { return e.Move != nil || e.Fade != nil || e.Scale != nil }

// expand flattens e and its chain into the links to run. A chain-only
// effect contributes just its chain.
func (h *Handler) expand(e *domain.Effect, depth int) []*domain.Effect {
	var out []*domain.Effect
	if hasAnimation(e) || len(e.Chain) == 0 {
		out = append(out, e)
	}
	for _, name := range e.Chain {
		next, ok := h.lookup(name)
		if !ok {
			h.log.Warn("unknown effect in chain", "effect", e.Name, "link", name)
			continue
		}
		if depth >= maxChainDepth {
			h.log.Warn("effect chain too deep", "effect", e.Name, "link", name)
			continue
		}
		out = append(out, h.expand(next, depth+1)...)
	}
	return out
}

func (h *Handler) lookup(name string) (*domain.Effect, bool) {
	if h.opts.Lookup == nil {
		return nil, false
	}
	return h.opts.Lookup(name)
}

// advance starts the next queued link or expires the handler.
func (h *Handler) advance() {
	if len(h.queue) == 0 {
		h.cur = nil
		if !h.expired {
			h.expired = true
			if h.opts.OnExpire != nil {
				h.opts.OnExpire(h)
			}
		}
		return
	}
	proto := h.queue[0]
	h.queue = h.queue[1:]
	h.cur = h.activate(proto)
	h.links++
	if h.opts.OnActivate != nil {
		h.opts.OnActivate(h, proto)
	}
}

// activate caches start values and derived constants for proto.
func (h *Handler) activate(proto *domain.Effect) *link {
	l := &link{proto: proto, started: h.opts.Clock.Now(), from: *h.owner}
	if m := proto.Move; m != nil {
		l.moveFrom = h.owner.Pos
		if m.Start != nil {
			l.moveFrom = *m.Start
		}
		l.moveTo = m.End
		if m.Relative {
			l.moveTo = l.moveFrom.Add(m.End)
		}
		switch m.Type {
		case domain.MoveCircular:
			l.circle = vector.CircleThrough(l.moveFrom, l.moveTo)
		case domain.MoveBezier:
			l.ctrl1 = l.moveFrom.Add(m.Controls[0])
			l.ctrl2 = l.moveTo.Add(m.Controls[1])
		}
	}
	if f := proto.Fade; f != nil {
		if f.Direction == domain.FadeIn {
			l.fadeFrom, l.fadeTo = 0, 255
		} else {
			l.fadeFrom, l.fadeTo = h.owner.Opacity, 0
		}
		if f.From != nil {
			l.fadeFrom = float64(*f.From)
		}
		if f.To != nil {
			l.fadeTo = float64(*f.To)
		}
	}
	if s := proto.Scale; s != nil {
		l.scaleFrom, l.scaleTo = h.owner.Scale, s.To
		if s.From != nil {
			l.scaleFrom = *s.From
		}
	}
	return l
}

// Animate advances the running link to the current clock reading and
// reports whether the handler is still running. When a link completes the
// next one starts on the same call, so chains run without a gap.
func (h *Handler) Animate() bool {
	if h.expired || h.cur == nil {
		return false
	}
	l := h.cur
	raw := progress(h.opts.Clock.Now()-l.started, l.proto.Timer)
	if raw < l.coef {
		raw = l.coef
	}
	l.coef = raw
	h.apply(l, Shape(l.proto.Progress, raw))
	if raw >= 1 {
		h.advance()
	}
	return !h.expired
}

func (h *Handler) apply(l *link, y float64) {
	p := l.proto
	if m := p.Move; m != nil {
		switch m.Type {
		case domain.MoveCircular:
			h.owner.Pos = l.circle.At(y, m.CCW)
		case domain.MoveBezier:
			h.owner.Pos = vector.Bezier(l.moveFrom, l.ctrl1, l.ctrl2, l.moveTo, y)
		default:
			h.owner.Pos = vector.LerpVec(l.moveFrom, l.moveTo, y)
		}
		if y >= 1 {
			h.owner.Pos = l.moveTo
		}
	}
	if p.Fade != nil {
		h.owner.Opacity = vector.Lerp(l.fadeFrom, l.fadeTo, y)
	}
	if p.Scale != nil {
		h.owner.Scale = vector.Lerp(l.scaleFrom, l.scaleTo, y)
	}
}

// QueueEffect appends e (and its chain) after the current run. Queuing on an
// expired handler starts e right away.
func (h *Handler) QueueEffect(e *domain.Effect) {
	h.queue = append(h.queue, h.expand(e, 0)...)
	if h.expired {
		h.expired = false
		h.advance()
	}
}

// RollBack restores the element to its state before the first link and
// stops the handler. No callbacks run.
func (h *Handler) RollBack() {
	*h.owner = h.origin
	h.stop()
}

// RollBackLastQueued restores the element to the start of the running link,
// keeping what earlier links did, and stops the handler.
func (h *Handler) RollBackLastQueued() {
	if h.cur != nil {
		*h.owner = h.cur.from
	}
	h.stop()
}

func (h *Handler) stop() {
	h.cur = nil
	h.queue = nil
	h.expired = true
}

// Expired reports whether the handler is done.
func (h *Handler) Expired() bool { return h.expired }

// Coef returns the unshaped progress of the running link (1 once expired).
func (h *Handler) Coef() float64 {
	if h.cur == nil {
		return 1
	}
	return h.cur.coef
}

// Proto returns the effect the handler was created with.
func (h *Handler) Proto() *domain.Effect { return h.root }

// Current returns the running link's effect, nil once expired.
func (h *Handler) Current() *domain.Effect {
	if h.cur == nil {
		return nil
	}
	return h.cur.proto
}

// Links counts the links activated so far.
func (h *Handler) Links() int { return h.links }

// Pending counts queued links that have not started.
func (h *Handler) Pending() int { return len(h.queue) }

// Blocking reports whether playback must wait for this handler.
func (h *Handler) Blocking() bool {
	if h.expired {
		return false
	}
	return h.root.Blocking || h.cur != nil && h.cur.proto.Blocking
}
