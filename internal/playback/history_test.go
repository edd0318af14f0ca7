/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import "testing"

func TestHistoryBack(t *testing.T) {
	var h History
	if _, ok := h.Back(); ok {
		t.Fatalf("empty history returned a checkpoint")
	}
	h.Push(Checkpoint{Pos: 0})
	h.Push(Checkpoint{Pos: 4})
	h.Push(Checkpoint{Pos: 9})
	cp, ok := h.Back()
	if !ok || cp.Pos != 4 || h.Len() != 2 {
		t.Fatalf("back = %+v ok=%v len=%d", cp, ok, h.Len())
	}
	h.Back()
	cp, _ = h.Back()
	if cp.Pos != 0 || h.Len() != 1 {
		t.Fatalf("first slide should restart, got %+v len=%d", cp, h.Len())
	}
}

func TestHistoryReplacesSamePosition(t *testing.T) {
	var h History
	h.Push(Checkpoint{Pos: 3, At: 1})
	h.Push(Checkpoint{Pos: 3, At: 2})
	if h.Len() != 1 {
		t.Fatalf("len = %d", h.Len())
	}
	if cp, _ := h.Current(); cp.At != 2 {
		t.Fatalf("current = %+v", cp)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	h := History{MaxDepth: 3}
	for i := 0; i < 10; i++ {
		h.Push(Checkpoint{Pos: i})
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d", h.Len())
	}
	h.Back()
	h.Back()
	if cp, _ := h.Current(); cp.Pos != 7 {
		t.Fatalf("oldest kept = %d, want 7", cp.Pos)
	}
}
