/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"log/slog"
)

// Severity decides whether a parse error rejects the whole file.
type Severity int

const (
	// Recoverable errors are logged; the offending line (or key) is skipped.
	Recoverable Severity = iota
	// Critical errors abort the file; nothing it produced is kept.
	Critical
)

func (s Severity) String() string {
	if s == Critical {
		return "critical"
	}
	return "recoverable"
}

// Error represents a parse error with position context.
type Error struct {
	File       string
	Line       int
	Keyword    string
	Raw        string
	Message    string
	Severity   Severity
	Suggestion string // closest known keyword, for unknown directives
}

func (e *Error) Error() string {
	loc := e.File
	if loc == "" {
		loc = "<script>"
	}
	msg := fmt.Sprintf("%s:%d: %s", loc, e.Line, e.Message)
	if e.Keyword != "" {
		msg += " (" + e.Keyword + ")"
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %s?", e.Suggestion)
	}
	return msg
}

// Critical reports whether the error aborts the file.
func (e *Error) Critical() bool { return e.Severity == Critical }

// attrs renders the error as slog attributes.
func (e *Error) attrs() []any {
	a := []any{
		slog.Int("line", e.Line),
		slog.String("keyword", e.Keyword),
		slog.String("raw", e.Raw),
		slog.String("severity", e.Severity.String()),
	}
	if e.Suggestion != "" {
		a = append(a, slog.String("suggest", e.Suggestion))
	}
	return a
}

func critical(d Directive, format string, args ...any) *Error {
	return &Error{Line: d.Line, Keyword: d.Keyword, Raw: d.Raw, Message: fmt.Sprintf(format, args...), Severity: Critical}
}

func recoverable(d Directive, format string, args ...any) *Error {
	return &Error{Line: d.Line, Keyword: d.Keyword, Raw: d.Raw, Message: fmt.Sprintf(format, args...), Severity: Recoverable}
}
