/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// MacroTable is the part of the content store the preprocessor needs.
type MacroTable interface {
	AddMacro(key, value string) error
	MacroValue(key string) (string, bool)
}

// Line is one normalized script line with its 1-based source line number.
type Line struct {
	No   int
	Text string
}

var (
	reMacroRef  = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)
	reMacroName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Preprocessor normalizes raw script lines: it trims whitespace, drops blank
// lines and full-line comments ("//" or ";"), consumes \DEFINE lines into the
// macro table and expands %NAME% references to defined macros.
type Preprocessor struct {
	sc     *bufio.Scanner
	macros MacroTable
	report func(*Error)
	no     int
}

// NewPreprocessor reads from r. report receives recoverable problems
// (macro redefinitions); it may be nil.
func NewPreprocessor(r io.Reader, macros MacroTable, report func(*Error)) *Preprocessor {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if report == nil {
		report = func(*Error) {}
	}
	return &Preprocessor{sc: sc, macros: macros, report: report}
}

// Next returns the next meaningful line; false at end of input.
func (p *Preprocessor) Next() (Line, bool) {
	for p.sc.Scan() {
		p.no++
		text := p.sc.Text()
		if p.no == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "//") || strings.HasPrefix(text, ";") {
			continue
		}
		if p.define(text) {
			continue
		}
		return Line{No: p.no, Text: p.Expand(text)}, true
	}
	return Line{}, false
}

// Err reports a read error of the underlying reader.
func (p *Preprocessor) Err() error { return p.sc.Err() }

// Expand replaces %NAME% with the macro value; unknown names stay as written.
func (p *Preprocessor) Expand(text string) string {
	if p.macros == nil || !strings.Contains(text, "%") {
		return text
	}
	return reMacroRef.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := p.macros.MacroValue(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
}

func (p *Preprocessor) define(text string) bool {
	kw, rest, _ := strings.Cut(text, " ")
	if !strings.EqualFold(kw, `\DEFINE`) {
		return false
	}
	d := Directive{Keyword: `\DEFINE`, Raw: text, Line: p.no}
	name, value, _ := strings.Cut(strings.TrimSpace(rest), " ")
	switch {
	case name == "":
		p.report(recoverable(d, "macro definition without a name"))
	case !reMacroName.MatchString(name):
		p.report(recoverable(d, "invalid macro name %q", name))
	case p.macros == nil:
		p.report(recoverable(d, "macros are not available here"))
	default:
		// values may reference earlier macros
		if err := p.macros.AddMacro(name, p.Expand(strings.TrimSpace(value))); err != nil {
			p.report(recoverable(d, "macro %s already defined, keeping the first value", name))
		}
	}
	return true
}
