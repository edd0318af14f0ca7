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

var styleKeywords = []string{
	`\DEF_BEGIN`, `\DEF_END`, `\FONT_FAMILY`, `\FONT_SIZE`, `\FONT_COLOR`,
	`\BOLD`, `\NOBOLD`, `\ITALIC`, `\NOITALIC`, `\UNDERLINE`, `\NOUNDERLINE`,
	`\STRIKE`, `\NOSTRIKE`,
}

// ParseStyles parses a style script of \DEF_BEGIN name ... \DEF_END blocks.
func ParseStyles(r io.Reader, file string, st *storage.Store, opts Options) (Result, error) {
	var cur *domain.Style
	p := &blockParser{base: newBase(st, file, opts, "parse_styles"), kind: "style", known: styleKeywords}
	p.begin = func(d Directive, name string) *Error {
		cur = &domain.Style{Name: name}
		return nil
	}
	p.end = func(d Directive) *Error {
		s := cur
		cur = nil
		if err := st.AddStyle(s); err != nil {
			return recoverable(d, "style %s already defined, keeping the first", s.Name)
		}
		return nil
	}
	p.key = func(d Directive) (bool, *Error) { return styleKey(cur, d) }
	return p.run(r, p.line, p.finish)
}

func styleKey(s *domain.Style, d Directive) (bool, *Error) {
	arg := strings.TrimSpace(d.Tail)
	switch d.Keyword {
	case `\FONT_FAMILY`:
		if arg == "" {
			return true, critical(d, "font family missing")
		}
		s.FontFamily = arg
	case `\FONT_SIZE`:
		n, ok := parseInt(arg)
		if !ok || n <= 0 {
			return true, critical(d, "invalid font size %q", arg)
		}
		s.FontSize = n
	case `\FONT_COLOR`:
		c, ok := ParseColor(arg)
		if !ok {
			return true, critical(d, "invalid font color %q", arg)
		}
		s.Color = &c
	case `\BOLD`, `\NOBOLD`:
		s.Bold = d.Keyword == `\BOLD`
	case `\ITALIC`, `\NOITALIC`:
		s.Italic = d.Keyword == `\ITALIC`
	case `\UNDERLINE`, `\NOUNDERLINE`:
		s.Underline = d.Keyword == `\UNDERLINE`
	case `\STRIKE`, `\NOSTRIKE`:
		s.Strikeout = d.Keyword == `\STRIKE`
	default:
		return false, nil
	}
	return true, nil
}
