/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
)

// Def is one key/value pair of a definition block.
type Def struct {
	Key   string // upper-case
	Value string
}

// Defs is an ordered definition block. Duplicate keys are kept; Get returns
// the first occurrence.
type Defs []Def

// Get looks up key case-insensitively.
func (d Defs) Get(key string) (string, bool) {
	for _, kv := range d {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (d Defs) Has(key string) bool { _, ok := d.Get(key); return ok }

// Directive is one split script line: \KEYWORD{defs} tail.
type Directive struct {
	Keyword string // upper-case, with the leading backslash; `\` alone for overwrite lines
	Defs    Defs
	Tail    string
	Raw     string
	Line    int
}

// SplitDirective splits a normalized line into keyword, definition block and
// tail. The block may be attached to the keyword (\TEXT{ID:a} Hi) or start
// the remainder (\TEXT {ID:a} Hi). Only the first {..} group is a block;
// anything after its closing brace, markup included, is tail. Pairs are
// separated by ',' and written KEY:VALUE or KEY=VALUE; a chunk without a
// separator continues the previous value, so P:CENTER,100 keeps
// "CENTER,100" together.
func SplitDirective(ln Line) (Directive, *Error) {
	d := Directive{Raw: ln.Text, Line: ln.No}
	head, rest := splitHead(ln.Text)
	kw, block := head, ""
	if i := strings.IndexByte(head, '{'); i >= 0 {
		kw, block = head[:i], head[i:]
	}
	d.Keyword = strings.ToUpper(kw)
	rest = strings.TrimSpace(rest)
	if block == "" && strings.HasPrefix(rest, "{") {
		block, rest = rest, ""
	}
	if block != "" {
		end := strings.IndexByte(block, '}')
		if end < 0 {
			return d, critical(d, "unterminated definition block")
		}
		d.Defs = parseDefs(block[1:end])
		after := strings.TrimSpace(block[end+1:])
		switch {
		case after == "":
		case rest == "":
			rest = after
		default:
			rest = after + " " + rest
		}
	}
	d.Tail = rest
	return d, nil
}

// splitHead cuts at the first space outside braces.
func splitHead(s string) (head, rest string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func parseDefs(block string) Defs {
	var defs Defs
	for _, chunk := range strings.Split(block, ",") {
		c := strings.TrimSpace(chunk)
		if c == "" {
			continue
		}
		i := strings.IndexAny(c, ":=")
		if i < 0 {
			if n := len(defs); n > 0 {
				defs[n-1].Value += "," + c
			} else {
				defs = append(defs, Def{Key: strings.ToUpper(c)})
			}
			continue
		}
		defs = append(defs, Def{Key: strings.ToUpper(strings.TrimSpace(c[:i])), Value: strings.TrimSpace(c[i+1:])})
	}
	return defs
}

// Assignment is one key=value chunk of a \BACKGROUND tail.
type Assignment struct {
	Key   string
	Value string
}

// splitAssignments splits "K=V,K=V" tails. It returns the first chunk
// without '=' as bad.
func splitAssignments(s string) (out []Assignment, bad string) {
	for _, chunk := range strings.Split(s, ",") {
		c := strings.TrimSpace(chunk)
		if c == "" {
			continue
		}
		k, v, ok := strings.Cut(c, "=")
		if !ok {
			return out, c
		}
		out = append(out, Assignment{Key: strings.ToUpper(strings.TrimSpace(k)), Value: strings.TrimSpace(v)})
	}
	return out, ""
}
