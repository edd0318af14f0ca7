/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package expr

import (
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("title@2.y + 10 >= 3.5")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []Token{
		{TokIdent, "title@2.y", 0},
		{TokOperator, "+", 10},
		{TokNumber, "10", 12},
		{TokOperator, ">=", 15},
		{TokNumber, "3.5", 18},
		{TokEOF, "", 21},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Fatalf("token %d: got %+v want %+v", i, toks[i], want[i])
		}
	}
}

func TestPrecedence(t *testing.T) {
	cases := map[string]float64{
		"1 + 2 * 3":          7,
		"(1 + 2) * 3":        9,
		"10 - 4 - 3":         3,
		"-2 * 3":             -6,
		"7 % 4":              3,
		"1 + 1 == 2":         1,
		"2 < 1 || 3 > 2":     1,
		"1 && 0":             0,
		"!0":                 1,
		"8 / 2 / 2":          2,
		"1 + 2 < 4 && 5 > 4": 1,
	}
	for src, want := range cases {
		n, err := Parse(src)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		got, err := Eval(n, nil)
		if err != nil || got != want {
			t.Fatalf("%q = %v, %v; want %v", src, got, err, want)
		}
	}
}

func TestSimplifyFoldsLiterals(t *testing.T) {
	n := MustParse("2 * 3 + 4")
	if n.Kind != Literal || n.Value != 10 {
		t.Fatalf("expected folded literal 10, got %s", n)
	}
	n = MustParse("logo.x + 2 * 3")
	if n.Kind != Binary || n.Right.Kind != Literal || n.Right.Value != 6 {
		t.Fatalf("expected right side folded to 6, got %s", n)
	}
	// division by zero stays unfolded and fails on evaluation
	n = MustParse("1 / 0")
	if n.Kind != Binary {
		t.Fatalf("1/0 should not fold, got %s", n)
	}
	if _, err := Eval(n, nil); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("want ErrDivideByZero, got %v", err)
	}
}

func TestEvalIsPullBased(t *testing.T) {
	x := 10.0
	calls := 0
	r := ResolverFunc(func(id, attr string) (float64, bool) {
		calls++
		if id == "box" && attr == "x" {
			return x, true
		}
		return 0, false
	})
	n := MustParse("box + 1")
	if v, _ := Eval(n, r); v != 11 {
		t.Fatalf("first eval = %v", v)
	}
	x = 20
	if v, _ := Eval(n, r); v != 21 {
		t.Fatalf("second eval = %v, want live value", v)
	}
	if calls != 2 {
		t.Fatalf("resolver called %d times, want 2", calls)
	}
	if _, err := Eval(MustParse("ghost.y"), r); !errors.Is(err, ErrUnknownRef) {
		t.Fatalf("want ErrUnknownRef, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "1 +", "(1 + 2", "1 2", "3 $ 4", ")"} {
		if _, err := Parse(src); !errors.Is(err, ErrSyntax) {
			t.Fatalf("%q: want ErrSyntax, got %v", src, err)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := map[float64]string{3: "3", -2: "-2", 0.5: "0.5", 1.0 / 3: "0.333333"}
	for v, want := range cases {
		if got := Format(v); got != want {
			t.Fatalf("Format(%v) = %q want %q", v, got, want)
		}
	}
}
