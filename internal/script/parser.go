/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script parses the presentation script languages: slide scripts,
// style scripts, effect scripts and template scripts. All four share the
// same line format (\KEYWORD{defs} tail), the same preprocessor and the same
// two-level error policy: recoverable errors are logged and skipped, a
// critical error rejects the whole file and leaves the content store as it
// was before the file.
package script

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	applog "slidescript/internal/log"
	"slidescript/internal/storage"
)

// Options tunes a parse run.
type Options struct {
	// Logger receives diagnostics; defaults to the "script" component logger.
	Logger *slog.Logger
}

// Result summarizes a parse run. Diagnostics holds every reported error in
// order; after a failed run the last one is the critical error.
type Result struct {
	File        string
	Lines       int // directive lines handled
	Ended       bool
	Diagnostics []*Error
}

// base carries what every parser needs: the store, the file name for
// diagnostics and the logger.
type base struct {
	store *storage.Store
	log   *slog.Logger
	res   Result
}

func newBase(st *storage.Store, file string, opts Options, op string) base {
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("script")
	}
	l = applog.WithFile(applog.WithOperation(l, op), file)
	return base{store: st, log: l, res: Result{File: file}}
}

// report records and logs a recoverable error.
func (b *base) report(e *Error) {
	e.File = b.res.File
	b.res.Diagnostics = append(b.res.Diagnostics, e)
	b.log.Warn(e.Message, e.attrs()...)
}

// unknown builds the error for an unrecognized keyword.
func (b *base) unknown(d Directive, known []string) *Error {
	e := recoverable(d, "unknown directive")
	e.Suggestion = Suggest(d.Keyword, known)
	return e
}

// run feeds preprocessed directives to handle until the input ends, \END is
// seen or a critical error occurs. finish runs at end of input (it checks
// for unterminated blocks).
func (b *base) run(r io.Reader, handle func(Directive) *Error, finish func(last Directive) *Error) (Result, error) {
	mark := b.store.Mark()
	fail := func(e *Error) (Result, error) {
		e.File = b.res.File
		b.res.Diagnostics = append(b.res.Diagnostics, e)
		b.log.Error(e.Message, e.attrs()...)
		b.store.Reset(mark)
		return b.res, e
	}

	pp := NewPreprocessor(r, b.store, b.report)
	var last Directive
	for !b.res.Ended {
		ln, ok := pp.Next()
		if !ok {
			break
		}
		d, perr := SplitDirective(ln)
		if perr != nil {
			return fail(perr)
		}
		last = d
		b.res.Lines++
		if e := handle(d); e != nil {
			if e.Critical() {
				return fail(e)
			}
			b.report(e)
		}
	}
	if err := pp.Err(); err != nil {
		b.store.Reset(mark)
		return b.res, fmt.Errorf("read %s: %w", b.res.File, err)
	}
	if finish != nil {
		if e := finish(last); e != nil {
			if e.Critical() {
				return fail(e)
			}
			b.report(e)
		}
	}
	b.log.Debug("parsed", slog.Int("lines", b.res.Lines), slog.Int("diagnostics", len(b.res.Diagnostics)))
	return b.res, nil
}

// blockParser drives the \DEF_BEGIN name ... \DEF_END format shared by style
// and effect scripts.
type blockParser struct {
	base
	kind  string // "style" or "effect", for messages
	open  string // name of the open block, "" outside
	begin func(d Directive, name string) *Error
	end   func(d Directive) *Error
	key   func(d Directive) (handled bool, err *Error)
	known []string
}

func (p *blockParser) line(d Directive) *Error {
	switch d.Keyword {
	case `\DEF_BEGIN`:
		if p.open != "" {
			return critical(d, "%s %q is still open", p.kind, p.open)
		}
		name := strings.TrimSpace(d.Tail)
		if name == "" {
			return critical(d, "%s definition without a name", p.kind)
		}
		p.open = name
		return p.begin(d, name)
	case `\DEF_END`:
		if p.open == "" {
			return critical(d, "\\DEF_END without \\DEF_BEGIN")
		}
		p.open = ""
		return p.end(d)
	case `\END`:
		p.res.Ended = true
		return nil
	case `\VERSION`:
		return nil
	}
	if p.open == "" {
		if contains(p.known, d.Keyword) {
			return recoverable(d, "%s key outside a \\DEF_BEGIN block", p.kind)
		}
		return p.unknown(d, p.known)
	}
	if handled, err := p.key(d); handled || err != nil {
		return err
	}
	e := recoverable(d, "unknown %s key ignored", p.kind)
	e.Suggestion = Suggest(d.Keyword, p.known)
	return e
}

func (p *blockParser) finish(last Directive) *Error {
	if p.open != "" {
		return critical(last, "%s %q is not closed with \\DEF_END", p.kind, p.open)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
