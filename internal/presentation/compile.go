/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package presentation

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"slidescript/internal/domain"
	applog "slidescript/internal/log"
	"slidescript/internal/markup"
	"slidescript/internal/script"
	"slidescript/internal/storage"
	"slidescript/internal/vector"
)

// CompileOptions tunes Compile.
type CompileOptions struct {
	// FS overrides the filesystem the manifest paths resolve against;
	// nil uses the project root on disk.
	FS     fs.FS
	Logger *slog.Logger
}

// Compiled is the outcome of a successful compile.
type Compiled struct {
	Project     *Project
	Store       *storage.Store
	Screen      vector.Vec2 // zero when the manifest leaves it to the config
	Files       []script.Result
	Diagnostics []*script.Error
	Took        time.Duration
}

type parseFunc func(r io.Reader, file string, st *storage.Store, opts script.Options) (script.Result, error)

// slideRange maps timeline positions back to the slide file that produced them.
type slideRange struct {
	file       string
	start, end int
}

// Compile parses every file of p into a fresh store: resources first, then
// styles, effects, templates and slides. The first critical error aborts
// the compile and is returned. Afterwards cross references are checked and
// reported as recoverable diagnostics.
func Compile(ctx context.Context, p *Project, opts CompileOptions) (*Compiled, error) {
	start := time.Now()
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("presentation")
	}
	l = applog.WithFile(applog.WithOperation(l, "compile"), p.ManifestPath)
	fsys := opts.FS
	if fsys == nil {
		fsys = os.DirFS(p.Root)
	}
	m := &p.Manifest
	st := storage.New(fsys)
	out := &Compiled{Project: p, Store: st}
	if m.Screen != nil {
		out.Screen = vector.V(float64(m.Screen.Width), float64(m.Screen.Height))
	}

	for _, r := range m.Resources {
		if _, err := st.Resources().Add(r.Name, r.Path); err != nil {
			return nil, fmt.Errorf("resource %s: %w", r.Name, err)
		}
	}

	if m.DefaultStyle != "" {
		st.SetDefaultStyle(m.DefaultStyle)
	}
	sopts := script.Options{Logger: applog.WithComponent("script")}
	var slides []slideRange
	stages := []struct {
		files []string
		parse parseFunc
	}{
		{m.Styles, script.ParseStyles},
		{m.Effects, script.ParseEffects},
		{m.Templates, script.ParseTemplates},
		{m.Slides, script.ParseSlides},
	}
	for i, stage := range stages {
		isSlides := i == len(stages)-1
		for _, file := range stage.files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			from := st.Len()
			res, err := parseFile(fsys, file, st, stage.parse, sopts)
			out.Files = append(out.Files, res)
			out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
			if err != nil {
				l.Error("compile failed", slog.String("script", file), slog.Any("err", err))
				return nil, err
			}
			if isSlides {
				slides = append(slides, slideRange{file: file, start: from, end: st.Len()})
			}
		}
	}

	for _, is := range validate(st, m.DefaultStyle) {
		d := is.err
		d.File = p.ManifestPath
		if is.pos >= 0 {
			d.File = fileOf(slides, is.pos)
		}
		l.Warn("reference", slog.String("script", d.File), slog.Int("line", d.Line), slog.String("keyword", d.Keyword), slog.String("msg", d.Message))
		out.Diagnostics = append(out.Diagnostics, d)
	}
	out.Took = time.Since(start)
	l.Info("compiled",
		slog.Int("elements", st.Len()),
		slog.Int("styles", len(st.StyleNames())),
		slog.Int("effects", len(st.EffectNames())),
		slog.Int("resources", st.Resources().Len()),
		slog.Int("diagnostics", len(out.Diagnostics)),
		slog.Duration("took", out.Took))
	return out, nil
}

func parseFile(fsys fs.FS, file string, st *storage.Store, parse parseFunc, opts script.Options) (script.Result, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return script.Result{File: file}, fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()
	return parse(f, file, st, opts)
}

// fileOf returns the slide file that produced timeline position pos.
func fileOf(slides []slideRange, pos int) string {
	for _, r := range slides {
		if pos >= r.start && pos < r.end {
			return r.file
		}
	}
	return ""
}

// issue is a validation finding; pos is the timeline position of the
// offending element, -1 for store-level findings.
type issue struct {
	pos int
	err *script.Error
}

// Validate cross-checks the references of a compiled store: styles and
// effects named by elements and markup, effect chain links and PLAY_EFFECT
// targets. Problems are recoverable; playback falls back to the default
// style and skips unknown effects.
func Validate(st *storage.Store, defaultStyle string) []*script.Error {
	issues := validate(st, defaultStyle)
	out := make([]*script.Error, len(issues))
	for i, is := range issues {
		out[i] = is.err
	}
	return out
}

func validate(st *storage.Store, defaultStyle string) []issue {
	var out []issue
	styles, effects := st.StyleNames(), st.EffectNames()
	add := func(pos int, e *script.Error) { out = append(out, issue{pos: pos, err: e}) }
	if defaultStyle != "" {
		if _, ok := st.GetStyle(defaultStyle); !ok {
			add(-1, &script.Error{Keyword: "default_style", Raw: defaultStyle,
				Message: fmt.Sprintf("unknown default style %q", defaultStyle), Suggestion: script.Suggest(defaultStyle, styles)})
		}
	}
	for _, e := range st.Effects() {
		for _, link := range e.Chain {
			if _, ok := st.GetEffect(link); !ok {
				add(-1, &script.Error{Keyword: e.Name, Raw: link,
					Message: fmt.Sprintf("effect %s chains unknown effect %q", e.Name, link), Suggestion: script.Suggest(link, effects)})
			}
		}
	}
	for pos, el := range st.Elements() {
		kw := el.Kind().String()
		if el.Style != "" {
			if _, ok := st.GetStyle(el.Style); !ok {
				add(pos, &script.Error{Line: el.Line, Keyword: kw, Raw: el.Style,
					Message: fmt.Sprintf("unknown style %q", el.Style), Suggestion: script.Suggest(el.Style, styles)})
			}
		}
		if el.Effect != "" {
			if _, ok := st.GetEffect(el.Effect); !ok {
				add(pos, &script.Error{Line: el.Line, Keyword: kw, Raw: el.Effect,
					Message: fmt.Sprintf("unknown effect %q", el.Effect), Suggestion: script.Suggest(el.Effect, effects)})
			}
		}
		if td := el.Text(); td != nil {
			for _, name := range markup.StyleRefs(td.Text) {
				if _, ok := st.GetStyle(name); !ok {
					add(pos, &script.Error{Line: el.Line, Keyword: kw, Raw: td.Text,
						Message: fmt.Sprintf("markup references unknown style %q", name), Suggestion: script.Suggest(name, styles)})
				}
			}
		}
		if el.Kind() == domain.KindPlayEffect && !hasTarget(st, pos, el.ID) {
			add(pos, &script.Error{Line: el.Line, Keyword: kw, Raw: el.ID,
				Message: fmt.Sprintf("no earlier element with id %q", el.ID)})
		}
	}
	return out
}

// hasTarget reports whether a drawable element with id precedes pos.
func hasTarget(st *storage.Store, pos int, id string) bool {
	for i := pos - 1; i >= 0; i-- {
		el, _ := st.GetSlideElement(i)
		if el.Drawable && strings.EqualFold(el.ID, id) {
			return true
		}
	}
	return false
}
