/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Library stores parsed OpenType fonts by family and variant. Family names
// are case-insensitive.
type Library struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

// NewLibrary returns an empty library.
func NewLibrary() *Library { return &Library{fonts: make(map[fontKey]*opentype.Font)} }

// DefaultLibrary registers the Go fonts as family "sans".
func DefaultLibrary() *Library {
	l := NewLibrary()
	for _, v := range []struct {
		data         []byte
		bold, italic bool
	}{
		{goregular.TTF, false, false},
		{gobold.TTF, true, false},
		{goitalic.TTF, false, true},
		{gobolditalic.TTF, true, true},
	} {
		// bundled fonts always parse
		_ = l.Add("sans", v.bold, v.italic, v.data)
	}
	return l
}

// Add parses font data and stores it under family/bold/italic.
func (l *Library) Add(family string, bold, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	if l.fonts == nil {
		l.fonts = make(map[fontKey]*opentype.Font)
	}
	l.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

// LoadFile reads a TTF/OTF file from fsys.
func (l *Library) LoadFile(fsys fs.FS, family string, bold, italic bool, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return l.Add(family, bold, italic, data)
}

// find returns the exact variant, else the regular variant of the family.
func (l *Library) find(family string, bold, italic bool) *opentype.Font {
	if l == nil || l.fonts == nil {
		return nil
	}
	fam := strings.ToLower(family)
	if f, ok := l.fonts[fontKey{fam, bold, italic}]; ok {
		return f
	}
	return l.fonts[fontKey{family: fam}]
}
