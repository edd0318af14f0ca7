/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package presentation ties script files together. A YAML manifest lists
// the style, effect, template and slide files of one presentation plus its
// image resources; Compile parses them in dependency order into a single
// content store and cross-checks the references between them.
package presentation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is the manifest format this build reads and writes.
const ManifestVersion = 1

// ErrInvalidManifest wraps every manifest decoding or schema failure.
var ErrInvalidManifest = errors.New("invalid manifest")

//go:embed manifest.schema.json
var schemaJSON []byte

var schema = gojsonschema.NewBytesLoader(schemaJSON)

type Screen struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ResourceEntry registers an image file under a script-visible name.
type ResourceEntry struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Manifest describes one presentation. File paths are relative to the
// manifest's directory and use forward slashes.
type Manifest struct {
	Version      int             `yaml:"version"`
	Title        string          `yaml:"title,omitempty"`
	Screen       *Screen         `yaml:"screen,omitempty"`
	DefaultStyle string          `yaml:"default_style,omitempty"`
	Styles       []string        `yaml:"styles,omitempty"`
	Effects      []string        `yaml:"effects,omitempty"`
	Resources    []ResourceEntry `yaml:"resources,omitempty"`
	Templates    []string        `yaml:"templates,omitempty"`
	Slides       []string        `yaml:"slides"`
}

// Files lists every script file in compile order.
func (m *Manifest) Files() []string {
	var out []string
	for _, group := range [][]string{m.Styles, m.Effects, m.Templates, m.Slides} {
		out = append(out, group...)
	}
	return out
}

// ParseManifest validates data against the manifest schema and decodes it.
func ParseManifest(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidManifest)
	}
	res, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidManifest, strings.Join(msgs, "; "))
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// Marshal renders m as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	return yaml.Marshal(m)
}
