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

var templateKeywords = append([]string{`\TEMPLATE_BEGIN`}, slideKeywords...)

// ParseTemplates parses a template script:
//
//	\TEMPLATE_BEGIN name
//	\TEXT{ID:title,P:CENTER,40} placeholder
//	\TEMPLATE_END
//
// Template bodies accept the element directives of slide scripts, except
// \LOAD_IMAGE, nested template calls and fading slide changes.
func ParseTemplates(r io.Reader, file string, st *storage.Store, opts Options) (Result, error) {
	p := &templateParser{base: newBase(st, file, opts, "parse_templates")}
	p.build = &elementBuilder{store: st, warn: p.report, inTemplate: true}
	return p.run(r, p.line, p.finish)
}

type templateParser struct {
	base
	build *elementBuilder
	open  *domain.Template
}

func (p *templateParser) line(d Directive) *Error {
	switch d.Keyword {
	case `\TEMPLATE_BEGIN`:
		if p.open != nil {
			return critical(d, "template %q is still open", p.open.Name)
		}
		name := strings.TrimSpace(d.Tail)
		if name == "" {
			return critical(d, "template without a name")
		}
		p.open = &domain.Template{Name: name}
		return nil
	case `\TEMPLATE_END`:
		if p.open == nil {
			return critical(d, "\\TEMPLATE_END without \\TEMPLATE_BEGIN")
		}
		t := p.open
		p.open = nil
		if err := p.store.AddTemplate(t); err != nil {
			return recoverable(d, "template %s already defined, keeping the first", t.Name)
		}
		return nil
	case `\TEMPLATE_CALL`:
		return critical(d, "templates cannot call other templates")
	case `\END`:
		p.res.Ended = true
		return nil
	case `\VERSION`:
		return nil
	}
	if _, known := builders[d.Keyword]; !known {
		return p.unknown(d, templateKeywords)
	}
	if p.open == nil {
		return recoverable(d, "element outside a \\TEMPLATE_BEGIN block")
	}
	els, _, err := p.build.build(d)
	if err != nil {
		return err
	}
	p.open.Elements = append(p.open.Elements, els...)
	return nil
}

func (p *templateParser) finish(last Directive) *Error {
	if p.open != nil {
		return critical(last, "template %q is not closed with \\TEMPLATE_END", p.open.Name)
	}
	return nil
}
