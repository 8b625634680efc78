// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast declares the token trees read from a template source and
// written as generated Go code.
//
// A template such as
//
//	<li>@item.Name</li>
//
// is represented as the token sequence
//
//	Punct('<') Identifier(li) Punct('>') Punct('@') Identifier(item)
//	Punct('.') Identifier(Name) Punct('<') Punct('/') Identifier(li) Punct('>')
//
// Parentheses, brackets and braces are never returned as punctuation: the
// tokens between them are nested in a Group.
package ast

import (
	"strconv"
	"strings"
)

// Position is a position of a token in a source.
type Position struct {
	Line   int // line starting from 1
	Column int // column in characters starting from 1
	Start  int // index of the first byte
	End    int // index of the last byte
}

// Pos returns the position p.
func (p *Position) Pos() *Position {
	return p
}

// String returns the line and column separated by a colon, for example "37:18".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// WithEnd returns a copy of the position but with the given end index.
func (p *Position) WithEnd(end int) *Position {
	pp := *p
	pp.End = end
	return &pp
}

// Token is a token of a token tree.
//
// Leading returns the white space that precedes the token in the source. It
// is empty for tokens that are adjacent to the previous one and for
// generated tokens.
type Token interface {
	Pos() *Position
	Leading() string
	String() string
}

// LiteralKind represents the kind of literal.
type LiteralKind int

const (
	StringLiteral    LiteralKind = iota // "abc"
	RawStringLiteral                    // `abc`
	RuneLiteral                         // 'a'
	IntLiteral                          // 42
	FloatLiteral                        // 4.2
)

var literalKindNames = [...]string{"string", "raw string", "rune", "int", "float"}

func (k LiteralKind) String() string {
	return literalKindNames[k]
}

// Delimiter represents the delimiter of a group.
type Delimiter int

const (
	Parenthesis Delimiter = iota // ( )
	Brace                        // { }
	Bracket                      // [ ]
	NoDelimiter
)

// Open returns the opening delimiter, for example "(".
func (d Delimiter) Open() string {
	switch d {
	case Parenthesis:
		return "("
	case Brace:
		return "{"
	case Bracket:
		return "["
	}
	return ""
}

// Close returns the closing delimiter, for example ")".
func (d Delimiter) Close() string {
	switch d {
	case Parenthesis:
		return ")"
	case Brace:
		return "}"
	case Bracket:
		return "]"
	}
	return ""
}

func (d Delimiter) String() string {
	switch d {
	case Parenthesis:
		return "parenthesis"
	case Brace:
		return "brace"
	case Bracket:
		return "bracket"
	}
	return "none"
}

// Identifier represents an identifier.
type Identifier struct {
	*Position        // position in the source.
	Space     string // leading white space.
	Name      string // name.
}

// NewIdentifier returns a new Identifier node.
func NewIdentifier(pos *Position, name string) *Identifier {
	return &Identifier{Position: pos, Name: name}
}

func (n *Identifier) Leading() string { return n.Space }

func (n *Identifier) String() string {
	return n.Name
}

// Literal represents a string, rune or number literal.
type Literal struct {
	*Position             // position in the source.
	Space     string      // leading white space.
	Kind      LiteralKind // kind.
	Raw       string      // source text, quotes included.
}

// NewLiteral returns a new Literal node.
func NewLiteral(pos *Position, kind LiteralKind, raw string) *Literal {
	return &Literal{Position: pos, Kind: kind, Raw: raw}
}

// NewStringLiteral returns a new string literal with value s.
func NewStringLiteral(pos *Position, s string) *Literal {
	return &Literal{Position: pos, Kind: StringLiteral, Raw: strconv.Quote(s)}
}

func (n *Literal) Leading() string { return n.Space }

func (n *Literal) String() string {
	return n.Raw
}

// IsString reports whether the literal is a string or a raw string.
func (n *Literal) IsString() bool {
	return n.Kind == StringLiteral || n.Kind == RawStringLiteral
}

// Content returns the text between the quotes of a string, raw string or
// rune literal, as written in the source. For numbers it returns Raw.
func (n *Literal) Content() string {
	switch n.Kind {
	case StringLiteral, RawStringLiteral, RuneLiteral:
		return n.Raw[1 : len(n.Raw)-1]
	}
	return n.Raw
}

// Value returns the value of a string literal with the escape sequences
// interpreted.
func (n *Literal) Value() (string, error) {
	switch n.Kind {
	case StringLiteral, RawStringLiteral:
		return strconv.Unquote(n.Raw)
	}
	return n.Raw, nil
}

// Punct represents a punctuation character.
type Punct struct {
	*Position        // position in the source.
	Space     string // leading white space.
	Char      rune   // character.
}

// NewPunct returns a new Punct node.
func NewPunct(pos *Position, char rune) *Punct {
	return &Punct{Position: pos, Char: char}
}

func (n *Punct) Leading() string { return n.Space }

func (n *Punct) String() string {
	return string(n.Char)
}

// Group represents a sequence of tokens enclosed in delimiters.
type Group struct {
	*Position            // position of the opening delimiter.
	Space      string    // leading white space.
	Delimiter  Delimiter // delimiter.
	Tokens     []Token   // tokens between the delimiters.
	CloseSpace string    // white space before the closing delimiter.
}

// NewGroup returns a new Group node.
func NewGroup(pos *Position, delim Delimiter, tokens []Token) *Group {
	return &Group{Position: pos, Delimiter: delim, Tokens: tokens}
}

func (n *Group) Leading() string { return n.Space }

func (n *Group) String() string {
	var b strings.Builder
	b.WriteString(n.Delimiter.Open())
	for i, tok := range n.Tokens {
		if i > 0 {
			b.WriteString(tok.Leading())
		}
		b.WriteString(tok.String())
	}
	b.WriteString(n.Delimiter.Close())
	return b.String()
}

// IsPunct reports whether tok is the punctuation character c.
func IsPunct(tok Token, c rune) bool {
	p, ok := tok.(*Punct)
	return ok && p.Char == c
}

// IsIdentifier reports whether tok is an identifier with the given name. If
// name is empty, it reports whether tok is an identifier.
func IsIdentifier(tok Token, name string) bool {
	id, ok := tok.(*Identifier)
	return ok && (name == "" || id.Name == name)
}

// IsGroup reports whether tok is a group with the given delimiter.
func IsGroup(tok Token, delim Delimiter) bool {
	g, ok := tok.(*Group)
	return ok && g.Delimiter == delim
}

// Source returns the source text of tokens, leading white space included.
// The leading white space of the first token is omitted.
func Source(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(tok.Leading())
		}
		writeSource(&b, tok)
	}
	return b.String()
}

// SourceWithSpace is like Source but it includes the leading white space of
// the first token.
func SourceWithSpace(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0].Leading() + Source(tokens)
}

func writeSource(b *strings.Builder, tok Token) {
	g, ok := tok.(*Group)
	if !ok {
		b.WriteString(tok.String())
		return
	}
	b.WriteString(g.Delimiter.Open())
	b.WriteString(SourceWithSpace(g.Tokens))
	b.WriteString(g.CloseSpace)
	b.WriteString(g.Delimiter.Close())
}
