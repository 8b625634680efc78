// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// IToken is an intermediate token: the representation of a parsed template
// that does not depend on markup or expression mode. Parsing produces
// intermediate tokens and Lower turns them into Go tokens.
type IToken interface {
	Pos() *ast.Position
}

// Identifier is a Go identifier.
type Identifier struct {
	Tok *ast.Identifier
}

// Literal is a Go literal.
type Literal struct {
	Tok *ast.Literal
}

// Punct is a Go punctuation character.
type Punct struct {
	Tok *ast.Punct
}

// Group is a group of Go code. Its tokens can contain markup.
type Group struct {
	Tok       *ast.Group // source group, used for the delimiter and the white space.
	Delimiter ast.Delimiter
	Tokens    []IToken

	// ifChain reports whether the group is the body of an if or else
	// branch, so an else can follow it.
	ifChain bool
}

func (t *Identifier) Pos() *ast.Position { return t.Tok.Pos() }
func (t *Literal) Pos() *ast.Position    { return t.Tok.Pos() }
func (t *Punct) Pos() *ast.Position      { return t.Tok.Pos() }
func (t *Group) Pos() *ast.Position      { return t.Tok.Pos() }

// HtmlTagStart is the start of an opening tag, "<name".
type HtmlTagStart struct {
	Name       string
	NameTokens []ast.Token
}

// HtmlTagVoid is the start of a void element tag, "<name".
type HtmlTagVoid struct {
	Name       string
	NameTokens []ast.Token
}

// HtmlTagEnd is a closing tag, "</name>".
type HtmlTagEnd struct {
	Name       string
	NameTokens []ast.Token
	Position   *ast.Position
}

func (t *HtmlTagStart) Pos() *ast.Position { return t.NameTokens[0].Pos() }
func (t *HtmlTagVoid) Pos() *ast.Position  { return t.NameTokens[0].Pos() }
func (t *HtmlTagEnd) Pos() *ast.Position   { return t.Position }

// HtmlTagCloseStartChildren is the ">" that ends an opening tag whose
// children follow.
type HtmlTagCloseStartChildren struct {
	Space    string
	Position *ast.Position
}

// HtmlTagCloseSelfContained is the "/>" that ends a self-contained tag.
type HtmlTagCloseSelfContained struct {
	Space    string
	Position *ast.Position
}

// HtmlTagCloseVoid is the ">" or "/>" that ends a void element tag. Slash is
// nil if the tag is closed with ">".
type HtmlTagCloseVoid struct {
	Slash    *ast.Punct
	Space    string
	Position *ast.Position
}

func (t *HtmlTagCloseStartChildren) Pos() *ast.Position { return t.Position }
func (t *HtmlTagCloseSelfContained) Pos() *ast.Position { return t.Position }
func (t *HtmlTagCloseVoid) Pos() *ast.Position          { return t.Position }

// HtmlTagAttributeName is the name of an attribute. Literal is not nil if
// the name is written as a quoted string. Space is the white space before the
// name; if empty, a single space is written.
type HtmlTagAttributeName struct {
	Name     string
	Literal  *ast.Literal
	Space    string
	Position *ast.Position
}

// HtmlTagAttributeEquals is the "=" between an attribute name and its value.
type HtmlTagAttributeEquals struct {
	Position *ast.Position
}

// HtmlTagAttributeValue is the value of an attribute. Only one of its forms
// is populated; when more are, Lower uses the first non empty of Idents,
// Expr, Literal and String.
type HtmlTagAttributeValue struct {
	String   *string       // quoted string content
	Quote    byte          // quote of String in the source, if any
	Literal  *ast.Literal  // unquoted number or rune literal
	Idents   []ast.Token   // unquoted identifier and punctuation run
	Expr     []IToken      // expression introduced by '@'
	Position *ast.Position // position of the first token of the value
}

func (t *HtmlTagAttributeName) Pos() *ast.Position   { return t.Position }
func (t *HtmlTagAttributeEquals) Pos() *ast.Position { return t.Position }
func (t *HtmlTagAttributeValue) Pos() *ast.Position  { return t.Position }

// Static returns the value of an attribute when it is known at compile time.
// It returns false if the value is an expression.
func (t *HtmlTagAttributeValue) Static() (string, bool) {
	switch {
	case len(t.Idents) > 0:
		return ast.Source(t.Idents), true
	case len(t.Expr) > 0:
		return "", false
	case t.Literal != nil:
		return t.Literal.Content(), true
	case t.String != nil:
		return *t.String, true
	}
	return "", true
}

// HtmlTextNode is a run of markup text, written as is.
type HtmlTextNode struct {
	Text string
	Span *ast.Position
}

func (t *HtmlTextNode) Pos() *ast.Position { return t.Span }

// AppendToHtml is an expression whose value is written to the output buffer.
type AppendToHtml struct {
	Tokens   []IToken
	Position *ast.Position
}

func (t *AppendToHtml) Pos() *ast.Position { return t.Position }

// ExternalHtml is a file whose content is written as is, or rendered as
// Markdown if Markdown is true. It is read by Lower, so it is never cached.
type ExternalHtml struct {
	Path     string // path as written in the template
	From     string // path of the template
	Markdown bool
	Position *ast.Position
}

func (t *ExternalHtml) Pos() *ast.Position { return t.Position }

// HtmlClosureBody is the body of a function literal that returns the markup
// written in Tokens, converted to the type Type.
type HtmlClosureBody struct {
	Type   *ast.Identifier
	Body   *ast.Group
	Tokens []IToken
}

func (t *HtmlClosureBody) Pos() *ast.Position { return t.Type.Pos() }

// DefineSection defines a named section rendered by a layout.
type DefineSection struct {
	Name     string
	Tokens   []IToken
	Position *ast.Position
}

func (t *DefineSection) Pos() *ast.Position { return t.Position }

// tagName returns the name of a tag given the tokens of the name.
func tagName(tokens []ast.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.String())
	}
	return b.String()
}
