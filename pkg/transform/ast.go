// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package transform implements dolex's derived-column engine: a safe
// expression language (lexer, parser, evaluator), physical column writes,
// dependency-aware transform records, and the on-disk manifest that replays
// derived columns when a source is reopened.
package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a parsed expression node.
type Node interface {
	// String renders the node back to expression syntax.
	String() string
}

// ColumnRef references a column by name. Quoted marks backtick-quoted names,
// which may contain spaces.
type ColumnRef struct {
	Name   string
	Quoted bool
}

func (c *ColumnRef) String() string {
	if c.Quoted {
		return "`" + c.Name + "`"
	}
	return c.Name
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

func (n *NumberLit) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

func (s *StringLit) String() string {
	return "'" + s.Value + "'"
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

func (b *BoolLit) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// NullLit is the null literal.
type NullLit struct{}

func (*NullLit) String() string { return "null" }

// ArrayLit is a bracketed list of expressions, e.g. [0, 10, 20].
type ArrayLit struct {
	Elements []Node
}

func (a *ArrayLit) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnaryExpr applies a prefix operator ("-" or "not").
type UnaryExpr struct {
	Op      string
	Operand Node
}

func (u *UnaryExpr) String() string {
	if u.Op == "not" {
		return fmt.Sprintf("not %s", u.Operand)
	}
	return fmt.Sprintf("%s%s", u.Op, u.Operand)
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    string
	Left  Node
	Right Node
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// CallExpr is a function call.
type CallExpr struct {
	Name string
	Args []Node
}

func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ColumnRefs returns the distinct column names an expression references, in
// first-appearance order. Backtick-quoted names are preserved verbatim.
func ColumnRefs(node Node) []string {
	var out []string
	seen := make(map[string]bool)

	var walk func(n Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *ColumnRef:
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v.Name)
			}
		case *ArrayLit:
			for _, e := range v.Elements {
				walk(e)
			}
		case *UnaryExpr:
			walk(v.Operand)
		case *BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *CallExpr:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(node)
	return out
}
