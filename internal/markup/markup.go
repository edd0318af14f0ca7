/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markup splits text element values into styled runs.
//
// Recognized tags:
//
//	{B} {I} {U} {X}      bold, italic, underline, strikeout on
//	{/B} {/I} {/U} {/X}  back to the value of the active style
//	{S:name} {/S}        switch to a named style and back
//	{$expr}              live expression (see package expr)
//	{%NNN}               literal character by decimal code
//
// Anything else in braces is kept as literal text.
package markup

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"slidescript/internal/domain"
	"slidescript/internal/expr"
)

// Feature is a bit set of text decorations.
type Feature uint8

const (
	Bold Feature = 1 << iota
	Italic
	Underline
	Strikeout
)

var featureTags = map[byte]Feature{'B': Bold, 'I': Italic, 'U': Underline, 'X': Strikeout}

// ErrMarkup wraps tag errors reported by Check and Build.
var ErrMarkup = errors.New("markup")

// Run is one styled piece of text. Font, features and color are snapshots
// taken when the run was closed. Expression runs keep their tree in Expr and
// their source in Text.
type Run struct {
	FontID   int
	Features Feature
	Color    *color.RGBA
	Text     string
	Expr     *expr.Node
}

// Result is a built run list. Exprs maps run indexes to expression trees.
// Deferred means a font was not resolvable yet and Runs is empty; build
// again later. Stale means an unknown style was replaced by the default one.
type Result struct {
	Runs     []Run
	Exprs    map[int]*expr.Node
	Deferred bool
	Stale    bool
}

// Styles resolves style names; the content store implements it.
type Styles interface {
	StyleOrDefault(name string) (*domain.Style, bool)
}

// Fonts maps a font spec to a renderer handle. ok is false while the font
// is not built yet.
type Fonts interface {
	FontID(spec domain.FontSpec) (id int, ok bool)
}

type itemKind int

const (
	itemText itemKind = iota
	itemExpr
	itemOn
	itemOff
	itemStyle
	itemStylePop
)

type item struct {
	kind itemKind
	text string
	feat Feature
	node *expr.Node
}

// scanState is the tokenizer state.
type scanState int

const (
	stText scanState = iota
	stTag
)

// scan tokenizes text into items. It fails on malformed expressions and
// character codes; other unknown tags stay literal.
func scan(text string) ([]item, error) {
	var items []item
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			items = append(items, item{kind: itemText, text: buf.String()})
			buf.Reset()
		}
	}
	state, i := stText, 0
	for i < len(text) {
		switch state {
		case stText:
			if text[i] == '{' {
				state = stTag
				continue
			}
			buf.WriteByte(text[i])
			i++
		case stTag:
			state = stText
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				buf.WriteString(text[i:])
				i = len(text)
				continue
			}
			body := text[i+1 : i+end]
			it, literal, err := parseTag(body)
			if err != nil {
				return nil, fmt.Errorf("%w: {%s}: %v", ErrMarkup, body, err)
			}
			switch {
			case literal != "":
				buf.WriteString(literal)
			case it == nil:
				buf.WriteString(text[i : i+end+1])
			default:
				flush()
				items = append(items, *it)
			}
			i += end + 1
		}
	}
	flush()
	return items, nil
}

// parseTag interprets the inside of {...}. It returns an item, a literal
// replacement, or neither when the braces are plain text.
func parseTag(body string) (*item, string, error) {
	switch {
	case strings.HasPrefix(body, "$"):
		src := strings.TrimSpace(body[1:])
		n, err := expr.Parse(src)
		if err != nil {
			return nil, "", err
		}
		return &item{kind: itemExpr, text: src, node: n}, "", nil
	case strings.HasPrefix(body, "%"):
		code, err := strconv.Atoi(body[1:])
		if err != nil || code <= 0 || code > 0x10FFFF {
			return nil, "", fmt.Errorf("invalid character code %q", body[1:])
		}
		return nil, string(rune(code)), nil
	case len(body) == 1:
		if f, ok := featureTags[body[0]]; ok {
			return &item{kind: itemOn, feat: f}, "", nil
		}
	case len(body) == 2 && body[0] == '/':
		if f, ok := featureTags[body[1]]; ok {
			return &item{kind: itemOff, feat: f}, "", nil
		}
		if body[1] == 'S' {
			return &item{kind: itemStylePop}, "", nil
		}
	case strings.HasPrefix(body, "S:"):
		name := strings.TrimSpace(body[2:])
		if name == "" {
			return nil, "", errors.New("style name missing")
		}
		return &item{kind: itemStyle, text: name}, "", nil
	}
	return nil, "", nil
}

// Check validates the tags of text without resolving styles or fonts.
func Check(text string) error {
	_, err := scan(text)
	return err
}

// StyleRefs returns the style names referenced by {S:name} tags.
func StyleRefs(text string) []string {
	items, err := scan(text)
	if err != nil {
		return nil
	}
	var out []string
	for _, it := range items {
		if it.kind == itemStyle {
			out = append(out, it.text)
		}
	}
	return out
}

// working is the style state while building: the active style plus
// per-feature overrides set by {B}/{/B} and friends.
type working struct {
	style *domain.Style
	on    Feature // forced on
}

func (w working) features() Feature {
	f := w.on
	if w.style.Bold {
		f |= Bold
	}
	if w.style.Italic {
		f |= Italic
	}
	if w.style.Underline {
		f |= Underline
	}
	if w.style.Strikeout {
		f |= Strikeout
	}
	return f
}

func (w working) font() domain.FontSpec {
	spec := w.style.Font()
	f := w.features()
	spec.Bold = f&Bold != 0
	spec.Italic = f&Italic != 0
	return spec
}

// Build turns text into runs using style as the base style.
func Build(text, style string, styles Styles, fonts Fonts) (Result, error) {
	items, err := scan(text)
	if err != nil {
		return Result{}, err
	}
	var res Result
	base, ok := styles.StyleOrDefault(style)
	if !ok {
		res.Stale = true
	}
	cur := working{style: base}
	var stack []working

	emit := func(r Run) bool {
		id, ok := fonts.FontID(cur.font())
		if !ok {
			return false
		}
		r.FontID = id
		r.Features = cur.features()
		if cur.style.Color != nil {
			c := *cur.style.Color
			r.Color = &c
		}
		res.Runs = append(res.Runs, r)
		return true
	}

	for _, it := range items {
		switch it.kind {
		case itemText:
			if !emit(Run{Text: it.text}) {
				return Result{Deferred: true, Stale: res.Stale}, nil
			}
		case itemExpr:
			if !emit(Run{Text: it.text, Expr: it.node}) {
				return Result{Deferred: true, Stale: res.Stale}, nil
			}
			if res.Exprs == nil {
				res.Exprs = make(map[int]*expr.Node)
			}
			res.Exprs[len(res.Runs)-1] = it.node
		case itemOn:
			cur.on |= it.feat
		case itemOff:
			cur.on &^= it.feat
		case itemStyle:
			st, ok := styles.StyleOrDefault(it.text)
			if !ok {
				res.Stale = true
			}
			stack = append(stack, cur)
			cur = working{style: st, on: cur.on}
		case itemStylePop:
			if n := len(stack); n > 0 {
				cur, stack = stack[n-1], stack[:n-1]
			} else {
				cur = working{style: base, on: cur.on}
			}
		}
	}
	return res, nil
}

// Render returns the display text of every run, evaluating expression runs
// against r on each call. Failing expressions render as "?".
func Render(res Result, r expr.Resolver) []string {
	out := make([]string, len(res.Runs))
	for i, run := range res.Runs {
		if run.Expr == nil {
			out[i] = run.Text
			continue
		}
		v, err := expr.Eval(run.Expr, r)
		if err != nil {
			out[i] = "?"
			continue
		}
		out[i] = expr.Format(v)
	}
	return out
}

// Plain joins the rendered runs.
func Plain(res Result, r expr.Resolver) string { return strings.Join(Render(res, r), "") }
