/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Key codes follow the virtual-key numbering hosts commonly deliver;
// letters and digits use their ASCII code.
var namedKeys = map[string]int{
	"BACKSPACE": 8,
	"TAB":       9,
	"ENTER":     13,
	"RETURN":    13,
	"ESC":       27,
	"ESCAPE":    27,
	"SPACE":     32,
	"PAGEUP":    33,
	"PAGEDOWN":  34,
	"END":       35,
	"HOME":      36,
	"LEFT":      37,
	"UP":        38,
	"RIGHT":     39,
	"DOWN":      40,
	"INSERT":    45,
	"DELETE":    46,
}

// KeyCode resolves a key name (ENTER, A, 7, F5, ...) case-insensitively.
func KeyCode(name string) (int, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if c, ok := namedKeys[n]; ok {
		return c, true
	}
	if len(n) == 1 && (n[0] >= 'A' && n[0] <= 'Z' || n[0] >= '0' && n[0] <= '9') {
		return int(n[0]), true
	}
	if len(n) > 1 && n[0] == 'F' {
		if f, err := strconv.Atoi(n[1:]); err == nil && f >= 1 && f <= 12 {
			return 111 + f, true
		}
	}
	return 0, false
}

// KeyNames lists the multi-letter key names, for suggestions.
func KeyNames() []string {
	out := make([]string, 0, len(namedKeys))
	for k := range namedKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
