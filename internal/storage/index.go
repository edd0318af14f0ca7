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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"slidescript/internal/domain"
	applog "slidescript/internal/log"
	"slidescript/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the SQLite schema of the exported index.
	schemaVersion = 1
)

// ErrNoElement is returned by LookupElement for unknown ids.
var ErrNoElement = errors.New("element not in index")

// OpenIndex opens (creating if needed) the SQLite index at path, enables WAL
// mode and ensures the meta, version and content tables exist.
func OpenIndex(ctx context.Context, path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("index schema %d is newer than supported %d", cur, schemaVersion)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the content tables and the FTS index over
// element text.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// timeline in store order; payload is the element's JSON form
		`CREATE TABLE IF NOT EXISTS elements (
			pos      INTEGER PRIMARY KEY,
			id       TEXT,
			kind     TEXT    NOT NULL,
			style    TEXT,
			effect   TEXT,
			line     INTEGER,
			slide    INTEGER NOT NULL,
			drawable INTEGER NOT NULL,
			text     TEXT,
			payload  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_elements_id ON elements(lower(id));`,
		`CREATE INDEX IF NOT EXISTS idx_elements_slide ON elements(slide);`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_elements USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// named definitions: kind is style, effect or template
		`CREATE TABLE IF NOT EXISTS definitions (
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			seq  INTEGER NOT NULL,
			body TEXT NOT NULL,
			PRIMARY KEY(kind, name)
		);`,

		`CREATE TABLE IF NOT EXISTS resources (
			id     INTEGER PRIMARY KEY,
			name   TEXT NOT NULL,
			path   TEXT NOT NULL,
			format TEXT,
			width  INTEGER,
			height INTEGER
		);`,

		// element -> definition references (style, effect, resource)
		`CREATE TABLE IF NOT EXISTS refs (
			pos    INTEGER NOT NULL,
			kind   TEXT    NOT NULL,
			target TEXT    NOT NULL,
			PRIMARY KEY(pos, kind, target),
			FOREIGN KEY(pos) REFERENCES elements(pos) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_refs_target ON refs(kind, target);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS elements_ai AFTER INSERT ON elements BEGIN
			INSERT INTO fts_elements(rowid, text) VALUES (new.pos, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS elements_ad AFTER DELETE ON elements BEGIN
			INSERT INTO fts_elements(fts_elements, rowid, text) VALUES ('delete', old.pos, old.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// indexText returns the searchable text of an element.
func indexText(e *domain.SlideElement) string {
	switch p := e.Payload.(type) {
	case *domain.TextData:
		return p.Text
	case *domain.ImageData:
		return p.Resource
	case *domain.BackgroundData:
		return p.Resource
	}
	return ""
}

func elementRefs(e *domain.SlideElement) [][2]string {
	var out [][2]string
	if e.Style != "" {
		out = append(out, [2]string{"style", strings.ToUpper(e.Style)})
	}
	if e.Effect != "" {
		out = append(out, [2]string{"effect", strings.ToUpper(e.Effect)})
	}
	switch p := e.Payload.(type) {
	case *domain.ImageData:
		out = append(out, [2]string{"resource", strings.ToUpper(p.Resource)})
	case *domain.BackgroundData:
		if p.Resource != "" {
			out = append(out, [2]string{"resource", strings.ToUpper(p.Resource)})
		}
	}
	return out
}

// startsSlide reports whether e clears the slide when activated.
func startsSlide(e *domain.SlideElement) bool {
	if e.Kind() == domain.KindNewSlide {
		return true
	}
	c := e.Canvas()
	return c != nil && c.ClearsSlide
}

// SlideCount returns the number of slides on the timeline.
func (s *Store) SlideCount() int {
	n := 1
	for _, e := range s.elements {
		if startsSlide(e) {
			n++
		}
	}
	return n
}

// WriteIndex replaces the index at path with the content of s in one
// transaction.
func WriteIndex(ctx context.Context, path string, s *Store) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_write").With(slog.String("path", path))
	db, err := OpenIndex(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := writeTx(ctx, tx, s); err != nil {
		_ = tx.Rollback()
		l.Error("index write failed", slog.Any("err", err))
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.Info("index written", slog.Int("elements", s.Len()))
	return nil
}

func writeTx(ctx context.Context, tx *sql.Tx, s *Store) error {
	for _, q := range []string{"DELETE FROM refs;", "DELETE FROM elements;", "DELETE FROM definitions;", "DELETE FROM resources;"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}

	insEl, err := tx.PrepareContext(ctx, `INSERT INTO elements(pos, id, kind, style, effect, line, slide, drawable, text, payload) VALUES(?,?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		return fmt.Errorf("prepare element insert: %w", err)
	}
	defer insEl.Close()
	insRef, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO refs(pos, kind, target) VALUES(?,?,?);`)
	if err != nil {
		return fmt.Errorf("prepare ref insert: %w", err)
	}
	defer insRef.Close()

	slide := 0
	for pos, e := range s.Elements() {
		if startsSlide(e) {
			slide++
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal element %d: %w", pos, err)
		}
		if _, err := insEl.ExecContext(ctx, pos, nullable(e.ID), e.Kind().String(), nullable(e.Style), nullable(e.Effect),
			e.Line, slide, e.Drawable, indexText(e), string(payload)); err != nil {
			return fmt.Errorf("insert element %d: %w", pos, err)
		}
		for _, r := range elementRefs(e) {
			if _, err := insRef.ExecContext(ctx, pos, r[0], r[1]); err != nil {
				return fmt.Errorf("insert ref: %w", err)
			}
		}
	}

	insDef, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO definitions(kind, name, seq, body) VALUES(?,?,?,?);`)
	if err != nil {
		return fmt.Errorf("prepare definition insert: %w", err)
	}
	defer insDef.Close()
	def := func(kind, name string, seq int, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", kind, name, err)
		}
		if _, err := insDef.ExecContext(ctx, kind, strings.ToUpper(name), seq, string(b)); err != nil {
			return fmt.Errorf("insert %s %s: %w", kind, name, err)
		}
		return nil
	}
	for i, st := range s.Styles() {
		if err := def("style", st.Name, i, st); err != nil {
			return err
		}
	}
	for i, ef := range s.Effects() {
		if err := def("effect", ef.Name, i, ef); err != nil {
			return err
		}
	}
	for i, tp := range s.Templates() {
		if err := def("template", tp.Name, i, tp); err != nil {
			return err
		}
	}

	for _, r := range s.Resources().All() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO resources(id, name, path, format, width, height) VALUES(?,?,?,?,?,?);`,
			r.ID, r.Name, r.Path, r.Format, r.Width, r.Height); err != nil {
			return fmt.Errorf("insert resource %s: %w", r.Name, err)
		}
	}

	meta := map[string]string{
		"elements":   strconv.Itoa(s.Len()),
		"slides":     strconv.Itoa(slide + 1),
		"written_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	return nil
}

func nullable(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

// IndexedElement is one timeline row of the index.
type IndexedElement struct {
	Pos      int
	ID       string
	Kind     string
	Style    string
	Effect   string
	Line     int
	Slide    int
	Drawable bool
	Text     string
	Payload  json.RawMessage
	Snippet  string // search only
}

const elementColumns = `e.pos, COALESCE(e.id,''), e.kind, COALESCE(e.style,''), COALESCE(e.effect,''), COALESCE(e.line,0), e.slide, e.drawable, COALESCE(e.text,''), e.payload`

func scanElement(sc interface{ Scan(...any) error }, extra ...any) (IndexedElement, error) {
	var r IndexedElement
	var payload string
	dest := append([]any{&r.Pos, &r.ID, &r.Kind, &r.Style, &r.Effect, &r.Line, &r.Slide, &r.Drawable, &r.Text, &payload}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	r.Payload = json.RawMessage(payload)
	return r, nil
}

// LookupElement returns the last element with id (case-insensitive), the
// same element the player's PLAY_EFFECT lookup finds.
func LookupElement(ctx context.Context, db *sql.DB, id string) (IndexedElement, error) {
	row := db.QueryRowContext(ctx, `SELECT `+elementColumns+` FROM elements e WHERE lower(e.id) = lower(?) ORDER BY e.pos DESC LIMIT 1`, id)
	r, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	if err != nil {
		return r, fmt.Errorf("lookup element: %w", err)
	}
	return r, nil
}

// IndexMeta reads a meta value written by WriteIndex.
func IndexMeta(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta: %w", err)
	}
	return v, true, nil
}
