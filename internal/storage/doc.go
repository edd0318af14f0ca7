/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements the content store and its SQLite export.
// The Store holds everything the parsers produce: case-insensitive registries
// of styles, effects, templates and macros, the image resources and the
// ordered slide element timeline. It is not safe for concurrent use.
// WriteIndex dumps a compiled store to an SQLite file (pure-Go driver, WAL
// mode) for lookups and full-text search; the index is derived from the
// scripts and can be rebuilt at any time.
package storage
