/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package expr implements the small arithmetic language embedded in text
// markup ({$expr}). Expressions combine numbers and live element attributes
// (title.x, logo@2.opacity) with arithmetic, comparison and logic operators.
// Trees are built once and evaluated on every read, so they always reflect
// the current element state.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"slidescript/internal/vector"
)

var (
	ErrSyntax       = errors.New("syntax error")
	ErrUnknownRef   = errors.New("unknown reference")
	ErrDivideByZero = errors.New("division by zero")
)

// NodeKind tags an expression tree node.
type NodeKind int

const (
	Literal NodeKind = iota
	Ref
	Unary
	Binary
)

// Node is one expression tree node.
type Node struct {
	Kind  NodeKind
	Value float64 // Literal
	ID    string  // Ref: element id
	Attr  string  // Ref: attribute, "x" when omitted
	Op    string  // Unary, Binary
	Left  *Node   // Binary left operand, Unary operand
	Right *Node
}

func (n *Node) String() string {
	switch n.Kind {
	case Literal:
		return Format(n.Value)
	case Ref:
		return n.ID + "." + n.Attr
	case Unary:
		return n.Op + n.Left.String()
	}
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

// Resolver supplies live attribute values of elements.
type Resolver interface {
	Attribute(id, attr string) (float64, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id, attr string) (float64, bool)

func (f ResolverFunc) Attribute(id, attr string) (float64, bool) { return f(id, attr) }

// Parse tokenizes src, builds the tree by precedence climbing and folds
// literal-only subtrees.
func Parse(src string) (*Node, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().Kind == TokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	n, err := p.expr(1)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != TokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.Text, t.Pos)
	}
	return Simplify(n), nil
}

// MustParse is Parse for expressions known to be valid.
func MustParse(src string) *Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// binary operator precedence; higher binds tighter.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr(minPrec int) (*Node, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		prec, ok := precedence[t.Text]
		if t.Kind != TokOperator || !ok || prec < minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.expr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &Node{Kind: Binary, Op: t.Text, Left: lhs, Right: rhs}
	}
}

func (p *parser) unary() (*Node, error) {
	if t := p.peek(); t.Kind == TokOperator && (t.Text == "-" || t.Text == "!") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: Unary, Op: t.Text, Left: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (*Node, error) {
	t := p.next()
	switch t.Kind {
	case TokNumber:
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, t.Text)
		}
		return &Node{Kind: Literal, Value: v}, nil
	case TokIdent:
		id, attr, ok := strings.Cut(t.Text, ".")
		if !ok {
			attr = "x"
		}
		return &Node{Kind: Ref, ID: id, Attr: strings.ToLower(attr)}, nil
	case TokOperator:
		if t.Text == "(" {
			n, err := p.expr(1)
			if err != nil {
				return nil, err
			}
			if c := p.next(); c.Text != ")" {
				return nil, fmt.Errorf("%w: missing ) at %d", ErrSyntax, c.Pos)
			}
			return n, nil
		}
	case TokEOF:
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.Text, t.Pos)
}

// Simplify folds every subtree whose operands are all literals. Subtrees
// that fail to evaluate (division by zero) are kept so the error surfaces
// at evaluation time.
func Simplify(n *Node) *Node {
	switch n.Kind {
	case Unary:
		n.Left = Simplify(n.Left)
		if n.Left.Kind == Literal {
			if v, err := Eval(n, nil); err == nil {
				return &Node{Kind: Literal, Value: v}
			}
		}
	case Binary:
		n.Left, n.Right = Simplify(n.Left), Simplify(n.Right)
		if n.Left.Kind == Literal && n.Right.Kind == Literal {
			if v, err := Eval(n, nil); err == nil {
				return &Node{Kind: Literal, Value: v}
			}
		}
	}
	return n
}

// Eval computes the value of n. It is re-run on every call; nothing is cached.
func Eval(n *Node, r Resolver) (float64, error) {
	switch n.Kind {
	case Literal:
		return n.Value, nil
	case Ref:
		if r != nil {
			if v, ok := r.Attribute(n.ID, n.Attr); ok {
				return v, nil
			}
		}
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownRef, n.ID, n.Attr)
	case Unary:
		v, err := Eval(n.Left, r)
		if err != nil {
			return 0, err
		}
		if n.Op == "!" {
			return boolean(v == 0), nil
		}
		return -v, nil
	}

	l, err := Eval(n.Left, r)
	if err != nil {
		return 0, err
	}
	// logic operators short-circuit
	switch n.Op {
	case "&&":
		if l == 0 {
			return 0, nil
		}
	case "||":
		if l != 0 {
			return 1, nil
		}
	}
	rv, err := Eval(n.Right, r)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "+":
		return l + rv, nil
	case "-":
		return l - rv, nil
	case "*":
		return l * rv, nil
	case "/":
		if rv == 0 {
			return 0, ErrDivideByZero
		}
		return l / rv, nil
	case "%":
		if rv == 0 {
			return 0, ErrDivideByZero
		}
		return math.Mod(l, rv), nil
	case "==":
		return boolean(l == rv), nil
	case "!=":
		return boolean(l != rv), nil
	case "<":
		return boolean(l < rv), nil
	case "<=":
		return boolean(l <= rv), nil
	case ">":
		return boolean(l > rv), nil
	case ">=":
		return boolean(l >= rv), nil
	case "&&", "||":
		return boolean(rv != 0), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.Op)
}

func boolean(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Format renders a value for display: integers without a fraction, other
// values rounded to six decimals.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(vector.FloatRound(v, 6), 'f', -1, 64)
}
