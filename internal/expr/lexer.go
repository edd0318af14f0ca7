/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package expr

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNumber
	TokIdent
	TokOperator
)

// Token is one lexed unit with its byte offset in the source.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

// Identifiers may carry template instance suffixes (title@2) and an
// attribute selector (title@2.y).
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(?:\.\d+)?|\.\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_#][A-Za-z0-9_@#]*(?:\.[A-Za-z]+)?`},
	{Name: "Operator", Pattern: `==|!=|<=|>=|&&|\|\||[-+*/%<>!()]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var (
	symNumber     = exprLexer.Symbols()["Number"]
	symIdent      = exprLexer.Symbols()["Ident"]
	symOperator   = exprLexer.Symbols()["Operator"]
	symWhitespace = exprLexer.Symbols()["Whitespace"]
)

// Tokenize splits src into a flat token sequence terminated by TokEOF.
func Tokenize(src string) ([]Token, error) {
	lex, err := exprLexer.LexString("", src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	var out []Token
	for {
		t, err := lex.Next()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		if t.EOF() {
			out = append(out, Token{Kind: TokEOF, Pos: len(src)})
			return out, nil
		}
		var kind TokenKind
		switch t.Type {
		case symWhitespace:
			continue
		case symNumber:
			kind = TokNumber
		case symIdent:
			kind = TokIdent
		case symOperator:
			kind = TokOperator
		}
		out = append(out, Token{Kind: kind, Text: t.Value, Pos: t.Pos.Offset})
	}
}
