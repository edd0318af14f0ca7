/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"io"
	"strings"

	"slidescript/internal/domain"
	"slidescript/internal/storage"
)

var effectKeywords = []string{
	`\DEF_BEGIN`, `\DEF_END`, `\TIMER`, `\BLOCKING`, `\NONBLOCKING`, `\PROGRESS`,
	`\MOVE`, `\START_POS`, `\END_POS`, `\RELATIVE`, `\ABSOLUTE`, `\CIRCLE`,
	`\BEZIER_VECTOR`, `\FADE`, `\FADE_FROM`, `\FADE_TO`, `\SCALE_FROM`,
	`\SCALE_TO`, `\CHAIN`,
}

// effectDraft is an effect under construction plus what validation needs.
type effectDraft struct {
	eff      *domain.Effect
	hasEnd   bool
	hasScale bool
}

func (e *effectDraft) move() *domain.MoveSpec {
	if e.eff.Move == nil {
		e.eff.Move = &domain.MoveSpec{}
	}
	return e.eff.Move
}

func (e *effectDraft) fade() *domain.FadeSpec {
	if e.eff.Fade == nil {
		e.eff.Fade = &domain.FadeSpec{}
	}
	return e.eff.Fade
}

func (e *effectDraft) scale() *domain.ScaleSpec {
	if e.eff.Scale == nil {
		e.eff.Scale = &domain.ScaleSpec{}
	}
	return e.eff.Scale
}

// ParseEffects parses an effect script of \DEF_BEGIN name ... \DEF_END blocks.
func ParseEffects(r io.Reader, file string, st *storage.Store, opts Options) (Result, error) {
	var cur *effectDraft
	p := &blockParser{base: newBase(st, file, opts, "parse_effects"), kind: "effect", known: effectKeywords}
	p.begin = func(d Directive, name string) *Error {
		cur = &effectDraft{eff: &domain.Effect{Name: name}}
		return nil
	}
	p.end = func(d Directive) *Error {
		e := cur
		cur = nil
		if e.eff.Move != nil && !e.hasEnd {
			return critical(d, "effect %s moves without \\END_POS", e.eff.Name)
		}
		if e.eff.Scale != nil && !e.hasScale {
			return critical(d, "effect %s scales without \\SCALE_TO", e.eff.Name)
		}
		if err := st.AddEffect(e.eff); err != nil {
			return recoverable(d, "effect %s already defined, keeping the first", e.eff.Name)
		}
		return nil
	}
	p.key = func(d Directive) (bool, *Error) { return effectKey(cur, d) }
	return p.run(r, p.line, p.finish)
}

func effectKey(e *effectDraft, d Directive) (bool, *Error) {
	arg := strings.TrimSpace(d.Tail)
	switch d.Keyword {
	case `\TIMER`:
		n, ok := parseInt(arg)
		if !ok || n < 0 {
			return true, critical(d, "invalid timer %q", arg)
		}
		e.eff.Timer = n
	case `\BLOCKING`, `\NONBLOCKING`:
		e.eff.Blocking = d.Keyword == `\BLOCKING`
	case `\PROGRESS`:
		c, ok := domain.CurveByName(arg)
		if !ok {
			return true, critical(d, "unknown progress curve %q", arg)
		}
		e.eff.Progress = c
	case `\MOVE`:
		switch strings.ToUpper(arg) {
		case "LINEAR":
			e.move().Type = domain.MoveLinear
		case "CIRCULAR":
			e.move().Type = domain.MoveCircular
		case "BEZIER":
			e.move().Type = domain.MoveBezier
		default:
			return true, critical(d, "unknown movement type %q", arg)
		}
	case `\START_POS`, `\END_POS`:
		v, ok := ParseVector(arg)
		if !ok {
			return true, critical(d, "invalid position vector %q", arg)
		}
		if d.Keyword == `\START_POS` {
			e.move().Start = &v
		} else {
			e.move().End = v
			e.hasEnd = true
		}
	case `\RELATIVE`, `\ABSOLUTE`:
		e.move().Relative = d.Keyword == `\RELATIVE`
	case `\CIRCLE`:
		switch strings.ToUpper(arg) {
		case "PLUS":
			e.move().CCW = false
		case "MINUS":
			e.move().CCW = true
		default:
			return true, critical(d, "circle direction must be plus or minus, got %q", arg)
		}
	case `\BEZIER_VECTOR`:
		parts := strings.Fields(arg)
		if len(parts) != 2 {
			return true, critical(d, "two control vectors required")
		}
		for i, s := range parts {
			v, ok := ParseVector(s)
			if !ok {
				return true, critical(d, "invalid control vector %q", s)
			}
			e.move().Controls[i] = v
		}
	case `\FADE`:
		switch strings.ToUpper(arg) {
		case "IN":
			e.fade().Direction = domain.FadeIn
		case "OUT":
			e.fade().Direction = domain.FadeOut
		default:
			return true, critical(d, "fade direction must be in or out, got %q", arg)
		}
	case `\FADE_FROM`, `\FADE_TO`:
		n, ok := parseInt(arg)
		if !ok || n < 0 || n > 255 {
			return true, critical(d, "opacity %q out of range 0..255", arg)
		}
		v := uint8(n)
		if d.Keyword == `\FADE_FROM` {
			e.fade().From = &v
		} else {
			e.fade().To = &v
		}
	case `\SCALE_FROM`, `\SCALE_TO`:
		f, ok := parseNumber(arg)
		if !ok || f < 0 {
			return true, critical(d, "invalid scale %q", arg)
		}
		if d.Keyword == `\SCALE_FROM` {
			e.scale().From = &f
		} else {
			e.scale().To = f
			e.hasScale = true
		}
	case `\CHAIN`:
		for _, name := range strings.Split(arg, ",") {
			if name = strings.TrimSpace(name); name != "" {
				e.eff.Chain = append(e.eff.Chain, name)
			}
		}
		if len(e.eff.Chain) == 0 {
			return true, recoverable(d, "empty effect chain")
		}
	default:
		return false, nil
	}
	return true, nil
}
