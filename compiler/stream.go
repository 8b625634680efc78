// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/rusthtml/ast"
)

// Stream is a cursor over a sequence of tokens. The end of the stream is
// reported returning false, never with an error.
type Stream struct {
	tokens []ast.Token
	i      int
	group  *ast.Group // group of the tokens, nil at the top level
}

// NewStream returns a stream that reads tokens.
func NewStream(tokens []ast.Token) *Stream {
	return &Stream{tokens: tokens}
}

// groupStream returns a stream that reads the tokens of g.
func groupStream(g *ast.Group) *Stream {
	return &Stream{tokens: g.Tokens, group: g}
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (ast.Token, bool) {
	return s.PeekNth(0)
}

// PeekNth returns the n-th next token without consuming it. PeekNth(0) is
// the same as Peek.
func (s *Stream) PeekNth(n int) (ast.Token, bool) {
	if n < 0 || s.i+n >= len(s.tokens) {
		return nil, false
	}
	return s.tokens[s.i+n], true
}

// Next consumes the next token and returns it.
func (s *Stream) Next() (ast.Token, bool) {
	if s.i >= len(s.tokens) {
		return nil, false
	}
	tok := s.tokens[s.i]
	s.i++
	return tok, true
}

// PeekGroup returns the next token if it is a group with the given delimiter.
func (s *Stream) PeekGroup(delim ast.Delimiter) (*ast.Group, bool) {
	tok, ok := s.Peek()
	if !ok {
		return nil, false
	}
	g, ok := tok.(*ast.Group)
	if !ok || g.Delimiter != delim {
		return nil, false
	}
	return g, true
}

// PeekPunct reports whether the next tokens are the punctuation characters
// of chars, with no white space between them.
func (s *Stream) PeekPunct(chars string) bool {
	n := 0
	for _, c := range chars {
		tok, ok := s.PeekNth(n)
		if !ok || !ast.IsPunct(tok, c) || n > 0 && tok.Leading() != "" {
			return false
		}
		n++
	}
	return true
}

// PeekIdentifier returns the next token if it is an identifier.
func (s *Stream) PeekIdentifier() (*ast.Identifier, bool) {
	tok, ok := s.Peek()
	if !ok {
		return nil, false
	}
	id, ok := tok.(*ast.Identifier)
	return id, ok
}

// Skip consumes n tokens.
func (s *Stream) Skip(n int) {
	s.i += n
	if s.i > len(s.tokens) {
		s.i = len(s.tokens)
	}
}

// Done reports whether all the tokens have been consumed.
func (s *Stream) Done() bool {
	return s.i >= len(s.tokens)
}

// Offset returns the number of consumed tokens.
func (s *Stream) Offset() int {
	return s.i
}

// endPos returns the position at the end of the stream, used for errors
// reported when the stream ends unexpectedly.
func (s *Stream) endPos() *ast.Position {
	if s.group != nil {
		return s.group.Position.WithEnd(s.group.End)
	}
	if len(s.tokens) > 0 {
		return s.tokens[len(s.tokens)-1].Pos()
	}
	return &ast.Position{Line: 1, Column: 1}
}
