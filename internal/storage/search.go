/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SearchQuery filters the indexed timeline.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Kinds restricts to element kinds like TEXT or IMAGE. Slide is 1-based;
// 0 means every slide. Limit/Offset paginate; Limit 0 means 100.
type SearchQuery struct {
	Text   string
	Kinds  []string
	Slide  int
	Limit  int
	Offset int
}

// Search runs q against an index opened with OpenIndex. Without Text it
// scans the elements table with the filters applied.
func Search(ctx context.Context, db *sql.DB, q SearchQuery) ([]IndexedElement, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT " + elementColumns + ", snippet(fts_elements, 0, '[', ']', '...', 10)\n")
		sb.WriteString("FROM fts_elements JOIN elements e ON fts_elements.rowid = e.pos\n")
		sb.WriteString("WHERE fts_elements MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT " + elementColumns + ", ''\n")
		sb.WriteString("FROM elements e\nWHERE 1=1\n")
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND e.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, strings.ToUpper(k))
		}
	}
	if q.Slide > 0 {
		// slides are numbered from 0 in the table
		sb.WriteString(" AND e.slide = ?\n")
		args = append(args, q.Slide-1)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	sb.WriteString("ORDER BY e.pos\nLIMIT ? OFFSET ?")
	args = append(args, limit, max(q.Offset, 0))

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []IndexedElement
	for rows.Next() {
		var sn sql.NullString
		r, err := scanElement(rows, &sn)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Snippet = sn.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// WhereUsed returns the elements referencing a style, effect or resource.
// kind is "style", "effect" or "resource"; name matches case-insensitively.
func WhereUsed(ctx context.Context, db *sql.DB, kind, name string) ([]IndexedElement, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+elementColumns+`
		FROM refs x JOIN elements e ON e.pos = x.pos
		WHERE x.kind = ? AND x.target = ?
		ORDER BY e.pos`, strings.ToLower(kind), strings.ToUpper(name))
	if err != nil {
		return nil, fmt.Errorf("where-used query: %w", err)
	}
	defer rows.Close()
	var out []IndexedElement
	for rows.Next() {
		r, err := scanElement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
