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
package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator precedence, loosest to tightest. Power is right-associative; the
// unary minus sits below it so -2 ** 2 parses as -(2 ** 2).
const (
	precLowest = iota
	precOr
	precAnd
	precNot
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precPower
)

func binaryPrec(t TokenType) (int, bool) {
	switch t {
	case TokenOr:
		return precOr, true
	case TokenAnd:
		return precAnd, true
	case TokenEq, TokenNotEq, TokenLt, TokenLte, TokenGt, TokenGte:
		return precComparison, true
	case TokenPlus, TokenMinus:
		return precAdditive, true
	case TokenStar, TokenSlash, TokenPercent:
		return precMultiplicative, true
	case TokenPower:
		return precPower, true
	default:
		return 0, false
	}
}

// Parser builds an AST from expression text by precedence climbing.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
}

// NewParser creates a Parser over the given input.
func NewParser(input string) *Parser {
	p := &Parser{lex: NewLexer(input)}
	p.next()
	p.next()
	return p
}

// Parse parses input as a single complete expression.
func Parse(input string) (Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Position: 0, Message: "empty expression"}
	}
	p := NewParser(input)
	expr, err := p.parseExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, p.errorf(p.cur, "unexpected %q", p.cur.Literal)
	}
	return expr, nil
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return &ParseError{Position: tok.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) parseExpression(minPrec int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := binaryPrec(p.cur.Type)
		if !ok || prec < minPrec {
			return left, nil
		}
		op := p.cur
		p.next()
		nextMin := prec + 1
		if op.Type == TokenPower {
			nextMin = prec // right-associative
		}
		right, err := p.parseExpression(nextMin)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Literal, Left: left, Right: right}
	}
}

func (p *Parser) parsePrefix() (Node, error) {
	tok := p.cur
	switch tok.Type {
	case TokenNumber:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q", tok.Literal)
		}
		p.next()
		return &NumberLit{Value: v}, nil

	case TokenString:
		p.next()
		return &StringLit{Value: tok.Literal}, nil

	case TokenTrue:
		p.next()
		return &BoolLit{Value: true}, nil

	case TokenFalse:
		p.next()
		return &BoolLit{Value: false}, nil

	case TokenNull:
		p.next()
		return &NullLit{}, nil

	case TokenMinus:
		p.next()
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "-", Operand: operand}, nil

	case TokenNot:
		p.next()
		operand, err := p.parseExpression(precNot)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", Operand: operand}, nil

	case TokenLParen:
		p.next()
		inner, err := p.parseExpression(precLowest)
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			return nil, p.errorf(p.cur, "expected ')'")
		}
		p.next()
		return inner, nil

	case TokenLBracket:
		return p.parseArray()

	case TokenIdent:
		// A bare identifier is a column reference unless followed by '(',
		// which makes it a function call. Backtick-quoted names are always
		// column references.
		if !tok.Quoted && p.peek.Type == TokenLParen {
			return p.parseCall()
		}
		p.next()
		return &ColumnRef{Name: tok.Literal, Quoted: tok.Quoted}, nil

	case TokenIllegal:
		if strings.HasPrefix(tok.Literal, "unterminated") {
			return nil, p.errorf(tok, "%s", tok.Literal)
		}
		return nil, p.errorf(tok, "unexpected character %q", tok.Literal)

	case TokenEOF:
		return nil, p.errorf(tok, "unexpected end of expression")

	default:
		return nil, p.errorf(tok, "unexpected %q", tok.Literal)
	}
}

func (p *Parser) parseCall() (Node, error) {
	name := strings.ToLower(p.cur.Literal)
	p.next() // consume name
	p.next() // consume '('

	var args []Node
	if p.cur.Type != TokenRParen {
		for {
			arg, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type != TokenComma {
				break
			}
			p.next()
		}
	}
	if p.cur.Type != TokenRParen {
		return nil, p.errorf(p.cur, "expected ')' after arguments to %s", name)
	}
	p.next()
	return &CallExpr{Name: name, Args: args}, nil
}

func (p *Parser) parseArray() (Node, error) {
	p.next() // consume '['
	var elems []Node
	if p.cur.Type != TokenRBracket {
		for {
			el, err := p.parseExpression(precLowest)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if p.cur.Type != TokenComma {
				break
			}
			p.next()
		}
	}
	if p.cur.Type != TokenRBracket {
		return nil, p.errorf(p.cur, "expected ']'")
	}
	p.next()
	return &ArrayLit{Elements: elems}, nil
}
