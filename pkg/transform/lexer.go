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
	"strings"
)

// TokenType identifies a lexical token class.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent  // column name or function name
	TokenNumber // 42, 3.14, .5
	TokenString // 'abc' or "abc"

	TokenTrue
	TokenFalse
	TokenNull
	TokenAnd
	TokenOr
	TokenNot

	TokenPlus     // +
	TokenMinus    // -
	TokenStar     // *
	TokenSlash    // /
	TokenPercent  // %
	TokenPower    // **
	TokenEq       // =
	TokenNotEq    // !=
	TokenLt       // <
	TokenLte      // <=
	TokenGt       // >
	TokenGte      // >=
	TokenComma    // ,
	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
)

// Token is one lexical token with its byte offset in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
	Quoted  bool // identifier was backtick-quoted
}

var keywords = map[string]TokenType{
	"true":  TokenTrue,
	"false": TokenFalse,
	"null":  TokenNull,
	"and":   TokenAnd,
	"or":    TokenOr,
	"not":   TokenNot,
}

// Lexer tokenizes expression input byte by byte.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.pos
	var tok Token
	tok.Pos = pos

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
	case '+':
		tok = Token{Type: TokenPlus, Literal: "+", Pos: pos}
	case '-':
		tok = Token{Type: TokenMinus, Literal: "-", Pos: pos}
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			tok = Token{Type: TokenPower, Literal: "**", Pos: pos}
		} else {
			tok = Token{Type: TokenStar, Literal: "*", Pos: pos}
		}
	case '/':
		tok = Token{Type: TokenSlash, Literal: "/", Pos: pos}
	case '%':
		tok = Token{Type: TokenPercent, Literal: "%", Pos: pos}
	case '=':
		tok = Token{Type: TokenEq, Literal: "=", Pos: pos}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenNotEq, Literal: "!=", Pos: pos}
		} else {
			tok = Token{Type: TokenIllegal, Literal: "!", Pos: pos}
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenLte, Literal: "<=", Pos: pos}
		} else {
			tok = Token{Type: TokenLt, Literal: "<", Pos: pos}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TokenGte, Literal: ">=", Pos: pos}
		} else {
			tok = Token{Type: TokenGt, Literal: ">", Pos: pos}
		}
	case ',':
		tok = Token{Type: TokenComma, Literal: ",", Pos: pos}
	case '(':
		tok = Token{Type: TokenLParen, Literal: "(", Pos: pos}
	case ')':
		tok = Token{Type: TokenRParen, Literal: ")", Pos: pos}
	case '[':
		tok = Token{Type: TokenLBracket, Literal: "[", Pos: pos}
	case ']':
		tok = Token{Type: TokenRBracket, Literal: "]", Pos: pos}
	case '\'', '"':
		return l.readString(l.ch, pos)
	case '`':
		return l.readQuotedIdent(pos)
	default:
		switch {
		case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
			return l.readNumber(pos)
		case isIdentStart(l.ch):
			return l.readIdent(pos)
		default:
			tok = Token{Type: TokenIllegal, Literal: string(l.ch), Pos: pos}
		}
	}

	l.readChar()
	return tok
}

// readString reads a quoted string literal. Doubling the quote char escapes
// it, e.g. 'it''s'.
func (l *Lexer) readString(quote byte, pos int) Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{Type: TokenIllegal, Literal: "unterminated string", Pos: pos}
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				sb.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // consume closing quote
			break
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readQuotedIdent reads a backtick-quoted identifier, which may contain
// spaces.
func (l *Lexer) readQuotedIdent(pos int) Token {
	l.readChar() // consume opening backtick
	start := l.pos
	for l.ch != '`' {
		if l.ch == 0 {
			return Token{Type: TokenIllegal, Literal: "unterminated identifier", Pos: pos}
		}
		l.readChar()
	}
	name := l.input[start:l.pos]
	l.readChar() // consume closing backtick
	return Token{Type: TokenIdent, Literal: name, Pos: pos, Quoted: true}
}

func (l *Lexer) readNumber(pos int) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' && l.pos == start {
		// leading-dot form like .5
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// exponent
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *Lexer) readIdent(pos int) Token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	literal := l.input[start:l.pos]
	if kw, ok := keywords[strings.ToLower(literal)]; ok {
		return Token{Type: kw, Literal: strings.ToLower(literal), Pos: pos}
	}
	return Token{Type: TokenIdent, Literal: literal, Pos: pos}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
