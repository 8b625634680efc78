// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/rusthtml/ast"
)

// IdentifierExpression parses an identifier expression: an identifier,
// optionally preceded by '&', followed by selectors, path separators "::",
// calls and indexes, with no white space between them. The postfix
// operators '?' and '!' before a selector, a call or an index are errors.
// The expression ends
// at the first token that cannot continue it, so a second identifier ends
// the expression.
func (p *Parser) IdentifierExpression(s *Stream) ([]IToken, error) {
	tok, ok := s.Peek()
	if !ok {
		return nil, syntaxError(s.endPos(), "unexpected end, expecting identifier")
	}
	var tokens []IToken
	if amp, ok := tok.(*ast.Punct); ok && amp.Char == '&' {
		next, ok := s.PeekNth(1)
		if !ok || !ast.IsIdentifier(next, "") || next.Leading() != "" {
			s.Next()
			return []IToken{&Punct{Tok: amp}}, nil
		}
		s.Next()
		tokens = append(tokens, &Punct{Tok: amp})
		tok = next
	}
	id, ok := tok.(*ast.Identifier)
	if !ok {
		return nil, unexpected(tok, "expecting identifier")
	}
	s.Next()
	chain, err := p.identifierExpressionFrom(id, s)
	if err != nil {
		return nil, err
	}
	return append(tokens, chain...), nil
}

// identifierExpressionFrom parses an identifier expression whose first
// identifier, id, has already been consumed.
func (p *Parser) identifierExpressionFrom(id *ast.Identifier, s *Stream) ([]IToken, error) {
	tokens := []IToken{&Identifier{Tok: id}}
	for {
		if err := p.checkCancelled(); err != nil {
			return nil, err
		}
		tok, ok := s.Peek()
		if !ok || tok.Leading() != "" {
			return tokens, nil
		}
		p.lastPos = tok.Pos()
		switch t := tok.(type) {
		case *ast.Punct:
			switch t.Char {
			case '.':
				next, ok := s.PeekNth(1)
				if !ok || !ast.IsIdentifier(next, "") || next.Leading() != "" {
					return tokens, nil
				}
				s.Skip(2)
				tokens = append(tokens, &Punct{Tok: t}, &Identifier{Tok: next.(*ast.Identifier)})
			case ':':
				if colons(s) != 2 {
					return tokens, nil
				}
				next, ok := s.PeekNth(2)
				if !ok || !ast.IsIdentifier(next, "") || next.Leading() != "" {
					return tokens, nil
				}
				s.Skip(3)
				dot := &ast.Punct{Position: t.Position, Char: '.'}
				tokens = append(tokens, &Punct{Tok: dot}, &Identifier{Tok: next.(*ast.Identifier)})
			case '?', '!':
				// Followed by a selector, a call or an index it is a postfix
				// operator, which Go does not have; otherwise it is text.
				next, ok := s.PeekNth(1)
				if !ok || next.Leading() != "" || !(ast.IsPunct(next, '.') || ast.IsGroup(next, ast.Parenthesis) || ast.IsGroup(next, ast.Bracket)) {
					return tokens, nil
				}
				return nil, syntaxError(t.Position, "postfix operator '%c' not supported, use @(...) with a Go expression", t.Char)
			default:
				return tokens, nil
			}
		case *ast.Group:
			if t.Delimiter == ast.Brace {
				return tokens, nil
			}
			s.Next()
			children, err := p.parseRegion(t, false)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, &Group{Tok: t, Delimiter: t.Delimiter, Tokens: children})
		default:
			return tokens, nil
		}
	}
}

// colons returns the number of adjacent ':' at the current position of s.
func colons(s *Stream) int {
	n := 0
	for {
		tok, ok := s.PeekNth(n)
		if !ok || !ast.IsPunct(tok, ':') || n > 0 && tok.Leading() != "" {
			return n
		}
		n++
	}
}

// TypeIdentifier parses a type identifier: an identifier followed by path
// segments "::identifier" and optionally by generic arguments between '<'
// and '>'. As in Go, '.' can separate segments and "*" or "[]" can precede
// the type. It returns the type as Go tokens, with "::" replaced by '.' and
// the generic arguments enclosed in brackets.
func (p *Parser) TypeIdentifier(s *Stream) ([]ast.Token, error) {
	if err := p.checkCancelled(); err != nil {
		return nil, err
	}
	tok, ok := s.Peek()
	if !ok {
		return nil, syntaxError(s.endPos(), "unexpected end, expecting type")
	}
	var tokens []ast.Token
	for ast.IsPunct(tok, '*') || ast.IsGroup(tok, ast.Bracket) && len(tok.(*ast.Group).Tokens) == 0 {
		// Pointer and slice types.
		s.Next()
		if ast.IsPunct(tok, '*') {
			tokens = append(tokens, ast.NewPunct(tok.Pos(), '*'))
		} else {
			tokens = append(tokens, ast.NewGroup(tok.Pos(), ast.Bracket, nil))
		}
		next, ok := s.Peek()
		if !ok || next.Leading() != "" {
			return nil, syntaxError(tok.Pos(), "expected type after %s", tok)
		}
		tok = next
	}
	id, ok := tok.(*ast.Identifier)
	if !ok {
		return nil, unexpected(tok, "expecting type")
	}
	s.Next()
	tokens = append(tokens, ast.NewIdentifier(id.Position, id.Name))
	for {
		tok, ok := s.Peek()
		if !ok || tok.Leading() != "" {
			return tokens, nil
		}
		p.lastPos = tok.Pos()
		switch {
		case ast.IsPunct(tok, ':'):
			n := colons(s)
			if n != 2 {
				return nil, syntaxError(tok.Pos(), "unexpected %d colons in type path, expecting ::", n)
			}
			next, ok := s.PeekNth(2)
			if !ok || !ast.IsIdentifier(next, "") || next.Leading() != "" {
				return nil, syntaxError(tok.Pos(), "expected identifier after ::")
			}
			s.Skip(3)
			tokens = append(tokens, ast.NewPunct(tok.Pos(), '.'), ast.NewIdentifier(next.Pos(), next.(*ast.Identifier).Name))
		case ast.IsPunct(tok, '.'):
			next, ok := s.PeekNth(1)
			if !ok || !ast.IsIdentifier(next, "") || next.Leading() != "" {
				return tokens, nil
			}
			s.Skip(2)
			tokens = append(tokens, ast.NewPunct(tok.Pos(), '.'), ast.NewIdentifier(next.Pos(), next.(*ast.Identifier).Name))
		case ast.IsPunct(tok, '<'):
			s.Next()
			args, err := p.typeArguments(s, tok.Pos())
			if err != nil {
				return nil, err
			}
			return append(tokens, ast.NewGroup(tok.Pos(), ast.Bracket, args)), nil
		default:
			return tokens, nil
		}
	}
}

// typeArguments parses the generic arguments of a type, after '<', up to
// the closing '>'.
func (p *Parser) typeArguments(s *Stream, pos *ast.Position) ([]ast.Token, error) {
	var args []ast.Token
	for {
		arg, err := p.TypeIdentifier(s)
		if err != nil {
			return nil, err
		}
		args = append(args, arg...)
		tok, ok := s.Next()
		if !ok {
			return nil, syntaxError(pos, "unclosed generic arguments, expecting >")
		}
		switch {
		case ast.IsPunct(tok, '>'):
			return args, nil
		case ast.IsPunct(tok, ','):
			args = append(args, ast.NewPunct(tok.Pos(), ','))
		default:
			return nil, unexpected(tok, "in generic arguments, expecting , or >")
		}
	}
}
