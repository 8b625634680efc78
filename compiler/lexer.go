// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"unicode"
	"unicode/utf8"

	"github.com/open2b/rusthtml/ast"
)

const BOM rune = 0xfeff
const bomErrorMsg = "invalid BOM in the middle of the file"

// lexer splits a template source into token trees.
type lexer struct {
	src    []byte // source
	p      int    // index of the next byte to read
	line   int    // current line
	column int    // current column
}

// Lex splits src into token trees. It returns the tokens and the white space
// that follows the last token.
func Lex(src []byte) ([]ast.Token, string, error) {
	lex := &lexer{src: src, line: 1, column: 1}
	if r, size := utf8.DecodeRune(src); r == BOM {
		lex.p = size
	}
	tokens, trailing, err := lex.group(nil)
	if err != nil {
		return nil, "", err
	}
	return tokens, trailing, nil
}

// group scans the tokens up to the closing delimiter of open, or up to the
// end of the source if open is nil. It returns the tokens and the white space
// before the closing delimiter.
func (lex *lexer) group(open *ast.Group) ([]ast.Token, string, error) {
	var tokens []ast.Token
	for {
		space := lex.space()
		if lex.p == len(lex.src) {
			if open != nil {
				return nil, "", syntaxError(open.Position, "unclosed %s, expecting %s", open.Delimiter.Open(), open.Delimiter.Close())
			}
			return tokens, space, nil
		}
		c := lex.src[lex.p]
		switch c {
		case ')', ']', '}':
			pos := lex.position(1)
			if open == nil || open.Delimiter.Close()[0] != c {
				return nil, "", syntaxError(pos, "unexpected %c", c)
			}
			lex.advance(1)
			return tokens, space, nil
		case '(', '[', '{':
			g := &ast.Group{Position: lex.position(1), Space: space, Delimiter: delimiterOf(c)}
			lex.advance(1)
			children, closeSpace, err := lex.group(g)
			if err != nil {
				return nil, "", err
			}
			g.Tokens = children
			g.CloseSpace = closeSpace
			g.End = lex.p - 1
			tokens = append(tokens, g)
			continue
		}
		tok, err := lex.token(space)
		if err != nil {
			return nil, "", err
		}
		tokens = append(tokens, tok)
	}
}

func delimiterOf(c byte) ast.Delimiter {
	switch c {
	case '(':
		return ast.Parenthesis
	case '[':
		return ast.Bracket
	}
	return ast.Brace
}

// token scans an identifier, a literal or a punctuation character.
func (lex *lexer) token(space string) (ast.Token, error) {
	c := lex.src[lex.p]
	switch {
	case c == '"':
		n, err := lex.quoted('"')
		if err != nil {
			return nil, err
		}
		return lex.literal(space, ast.StringLiteral, n), nil
	case c == '`':
		n, err := lex.quoted('`')
		if err != nil {
			return nil, err
		}
		return lex.literal(space, ast.RawStringLiteral, n), nil
	case c == '\'':
		if n := lex.runeLiteral(); n > 0 {
			return lex.literal(space, ast.RuneLiteral, n), nil
		}
	case '0' <= c && c <= '9':
		n, float := lex.number()
		kind := ast.IntLiteral
		if float {
			kind = ast.FloatLiteral
		}
		return lex.literal(space, kind, n), nil
	}
	r, size := utf8.DecodeRune(lex.src[lex.p:])
	if r == utf8.RuneError && size == 1 {
		return nil, syntaxError(lex.position(1), "invalid UTF-8 encoding")
	}
	if r == BOM {
		return nil, syntaxError(lex.position(size), bomErrorMsg)
	}
	if r == '_' || unicode.IsLetter(r) {
		n := lex.identifier()
		pos := lex.position(n)
		name := string(lex.src[lex.p : lex.p+n])
		lex.advance(n)
		return &ast.Identifier{Position: pos, Space: space, Name: name}, nil
	}
	pos := lex.position(size)
	lex.advance(size)
	return &ast.Punct{Position: pos, Space: space, Char: r}, nil
}

func (lex *lexer) literal(space string, kind ast.LiteralKind, n int) *ast.Literal {
	pos := lex.position(n)
	raw := string(lex.src[lex.p : lex.p+n])
	lex.advance(n)
	return &ast.Literal{Position: pos, Space: space, Kind: kind, Raw: raw}
}

// space consumes the white space and returns it.
func (lex *lexer) space() string {
	start := lex.p
	for lex.p < len(lex.src) {
		switch lex.src[lex.p] {
		case ' ', '\t', '\r':
			lex.column++
		case '\n':
			lex.line++
			lex.column = 1
		default:
			return string(lex.src[start:lex.p])
		}
		lex.p++
	}
	return string(lex.src[start:lex.p])
}

// quoted returns the length of the string literal, quotes included, that
// starts at the current position and is delimited by q.
func (lex *lexer) quoted(q byte) (int, error) {
	for i := lex.p + 1; i < len(lex.src); i++ {
		switch lex.src[i] {
		case '\\':
			if q == '"' {
				i++
			}
		case q:
			return i - lex.p + 1, nil
		}
	}
	if q == '`' {
		return 0, syntaxError(lex.position(1), "raw string literal not terminated")
	}
	return 0, syntaxError(lex.position(1), "string literal not terminated")
}

// runeLiteral returns the length of the rune literal that starts at the
// current position, or 0 if the quote does not start a rune literal.
func (lex *lexer) runeLiteral() int {
	src := lex.src[lex.p+1:]
	if len(src) == 0 {
		return 0
	}
	if src[0] == '\\' {
		for i := 1; i < len(src) && i <= 10; i++ {
			switch src[i] {
			case '\'':
				if i > 1 {
					return i + 2
				}
			case '\n':
				return 0
			}
		}
		return 0
	}
	r, size := utf8.DecodeRune(src)
	if r == '\'' || r == '\n' || size >= len(src) || src[size] != '\'' {
		return 0
	}
	return size + 2
}

// number returns the length of the number literal that starts at the current
// position and reports whether it is a float.
func (lex *lexer) number() (int, bool) {
	src := lex.src[lex.p:]
	n := 0
	float := false
	word := func() {
		for n < len(src) {
			c := src[n]
			if c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' {
				if (c == 'e' || c == 'E') && n+1 < len(src) && (src[n+1] == '+' || src[n+1] == '-') && !isHex(src) {
					float = true
					n++
				}
				n++
				continue
			}
			break
		}
	}
	word()
	if n+1 < len(src) && src[n] == '.' && '0' <= src[n+1] && src[n+1] <= '9' {
		float = true
		n++
		word()
	}
	return n, float
}

func isHex(src []byte) bool {
	return len(src) > 1 && src[0] == '0' && (src[1] == 'x' || src[1] == 'X')
}

// identifier returns the length of the identifier that starts at the current
// position.
func (lex *lexer) identifier() int {
	n := 0
	for lex.p+n < len(lex.src) {
		r, size := utf8.DecodeRune(lex.src[lex.p+n:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		n += size
	}
	return n
}

// position returns the position of the n bytes that start at the current
// position.
func (lex *lexer) position(n int) *ast.Position {
	return &ast.Position{Line: lex.line, Column: lex.column, Start: lex.p, End: lex.p + n - 1}
}

// advance advances the current position of n bytes.
func (lex *lexer) advance(n int) {
	for _, c := range string(lex.src[lex.p : lex.p+n]) {
		if c == '\n' {
			lex.line++
			lex.column = 1
		} else {
			lex.column++
		}
	}
	lex.p += n
}
