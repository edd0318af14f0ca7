/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Span is a piece of rendered text in one font.
type Span struct {
	FontID int
	Text   string
}

// Line is one laid out line.
type Line struct {
	Spans  []Span
	Width  float64
	Height float64
}

func (r *Registry) faceOrBasic(id int) font.Face {
	if f, ok := r.Face(id); ok {
		return f
	}
	return basicfont.Face7x13
}

func lineHeight(f font.Face) float64 {
	m := f.Metrics()
	return float64(m.Height.Round())
}

func advance(f font.Face, s string) float64 {
	return float64(font.MeasureString(f, s).Round())
}

// Measure returns the width and height of spans laid out on one line.
func (r *Registry) Measure(spans []Span) (w, h float64) {
	for _, sp := range spans {
		f := r.faceOrBasic(sp.FontID)
		w += advance(f, sp.Text)
		h = max(h, lineHeight(f))
	}
	return w, h
}

// Wrap breaks spans at spaces and newlines so no line exceeds maxWidth
// (maxWidth <= 0 only breaks at newlines). A word wider than maxWidth gets
// a line of its own.
func (r *Registry) Wrap(spans []Span, maxWidth float64) []Line {
	var lines []Line
	var cur Line
	flush := func() {
		lines = append(lines, cur)
		cur = Line{}
	}
	for _, sp := range spans {
		f := r.faceOrBasic(sp.FontID)
		lh := lineHeight(f)
		start := 0
		for i := 0; i <= len(sp.Text); i++ {
			if i < len(sp.Text) && sp.Text[i] != ' ' && sp.Text[i] != '\n' {
				continue
			}
			word := sp.Text[start:i]
			w := advance(f, word)
			if maxWidth > 0 && cur.Width > 0 && cur.Width+w > maxWidth {
				flush()
			}
			if word != "" {
				cur.Spans = append(cur.Spans, Span{FontID: sp.FontID, Text: word})
				cur.Width += w
				cur.Height = max(cur.Height, lh)
			}
			if i < len(sp.Text) {
				if sp.Text[i] == '\n' {
					cur.Height = max(cur.Height, lh)
					flush()
				} else {
					cur.Spans = append(cur.Spans, Span{FontID: sp.FontID, Text: " "})
					cur.Width += advance(f, " ")
				}
			}
			start = i + 1
		}
	}
	if len(cur.Spans) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// Size returns the bounding box of wrapped lines.
func Size(lines []Line) (w, h float64) {
	for _, l := range lines {
		w = max(w, l.Width)
		h += l.Height
	}
	return w, h
}
