// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"log/slog"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// Attribute is an attribute of a parsed tag. Value is nil for an attribute
// with no value, as "disabled" in <input disabled>.
type Attribute struct {
	Name  string
	Value *HtmlTagAttributeValue
}

// tagEntry parses what follows a '<'. It parses a tag, a closing tag or a
// comment. If '<' does not start any of them it is emitted as text in markup
// mode and as an operator in expression mode.
func (p *Parser) tagEntry(s *Stream) (*closingTag, error) {
	lt, _ := s.Peek()
	next, ok := s.PeekNth(1)
	switch {
	case ok && next.Leading() == "" && ast.IsPunct(next, '/'):
		if name, ok := s.PeekNth(2); ok && name.Leading() == "" && isTagNameStart(name) {
			if p.Markup() {
				p.EmitText(lt.Leading(), lt.Pos())
			}
			return p.closingTag(s)
		}
	case ok && next.Leading() == "" && s.PeekPunct("<!--"):
		return nil, p.comment(s)
	case ok && next.Leading() == "" && isTagNameStart(next):
		if p.Markup() {
			p.EmitText(lt.Leading(), lt.Pos())
		}
		return nil, p.element(s)
	}
	s.Next()
	if p.Markup() {
		p.EmitText(lt.Leading()+"<", lt.Pos())
		return nil, nil
	}
	p.Emit(&Punct{Tok: lt.(*ast.Punct)})
	return nil, nil
}

// isTagNameStart reports whether tok can start a tag name.
func isTagNameStart(tok ast.Token) bool {
	switch t := tok.(type) {
	case *ast.Identifier:
		return true
	case *ast.Punct:
		return t.Char == '!' || t.Char == '-' || t.Char == '_'
	}
	return false
}

// isTagNamePart reports whether tok can continue a tag name.
func isTagNamePart(tok ast.Token) bool {
	if l, ok := tok.(*ast.Literal); ok {
		return l.Kind == ast.IntLiteral
	}
	return isTagNameStart(tok)
}

// tagNameTokens consumes the tokens of a tag name.
func tagNameTokens(s *Stream) []ast.Token {
	var tokens []ast.Token
	for {
		tok, ok := s.Peek()
		if !ok || len(tokens) > 0 && tok.Leading() != "" || !isTagNamePart(tok) {
			return tokens
		}
		s.Next()
		tokens = append(tokens, tok)
	}
}

// comment parses an HTML comment and emits it as text.
func (p *Parser) comment(s *Stream) error {
	lt, _ := s.Peek()
	var b strings.Builder
	if p.Markup() {
		b.WriteString(lt.Leading())
	}
	b.WriteString("<!--")
	s.Skip(4)
	for {
		if err := p.checkCancelled(); err != nil {
			return err
		}
		if s.PeekPunct("-->") {
			first, _ := s.Peek()
			b.WriteString(first.Leading())
			b.WriteString("-->")
			s.Skip(3)
			p.EmitText(b.String(), lt.Pos())
			return nil
		}
		tok, ok := s.Next()
		if !ok {
			return syntaxError(lt.Pos(), "comment not terminated, expecting -->")
		}
		b.WriteString(ast.SourceWithSpace([]ast.Token{tok}))
	}
}

// closingTag parses a closing tag and returns it.
func (p *Parser) closingTag(s *Stream) (*closingTag, error) {
	lt, _ := s.Next()
	s.Next()
	nameTokens := tagNameTokens(s)
	gt, ok := s.Next()
	if !ok {
		return nil, syntaxError(lt.Pos(), "unexpected end in closing tag </%s>, expecting >", tagName(nameTokens))
	}
	if !ast.IsPunct(gt, '>') {
		return nil, unexpected(gt, "in closing tag </"+tagName(nameTokens)+">, expecting >")
	}
	return &closingTag{name: tagName(nameTokens), tokens: nameTokens, pos: lt.Pos()}, nil
}

// tagParse is the state of the parsing of a tag. It is discarded once the
// tag is parsed.
type tagParse struct {
	p  *Parser
	lt *ast.Punct

	name       string
	nameTokens []ast.Token

	// Attribute key being parsed.
	keyString  string
	keyTokens  []ast.Token
	keyLiteral *ast.Literal
	keySpace   string
	keyPos     *ast.Position
	equals     *ast.Punct

	// Attribute value being parsed.
	valueString  *string
	valueQuote   byte
	valueLiteral *ast.Literal
	valueIdents  []ast.Token
	valueExpr    []IToken
	valuePos     *ast.Position

	isOpeningTag            bool
	isSelfContainedTag      bool
	isParsingAttributes     bool
	isParsingAttributeValue bool

	tokens     []IToken // start marker and attributes
	attributes []Attribute
	slash      *ast.Punct
	closeSpace string
	closePos   *ast.Position
}

// isKeyDefined reports whether an attribute key has been read.
func (t *tagParse) isKeyDefined() bool {
	return t.keyTokens != nil || t.keyLiteral != nil
}

// startKey starts a new attribute key with tok.
func (t *tagParse) startKey(tok ast.Token) error {
	if t.isKeyDefined() {
		return syntaxError(tok.Pos(), "attribute %s already defined in tag <%s>, expecting =", t.keyString, t.name)
	}
	t.keySpace = tok.Leading()
	t.keyPos = tok.Pos()
	if l, ok := tok.(*ast.Literal); ok {
		t.keyLiteral = l
		t.keyString = l.Content()
		return nil
	}
	t.keyTokens = []ast.Token{tok}
	t.keyString = tok.String()
	return nil
}

// defineBoolean materializes an attribute with no value.
func (t *tagParse) defineBoolean() {
	t.tokens = append(t.tokens, &HtmlTagAttributeName{Name: t.keyString, Literal: t.keyLiteral, Space: t.keySpace, Position: t.keyPos})
	t.attributes = append(t.attributes, Attribute{Name: t.keyString})
	t.reset()
}

// defineKeyValue materializes an attribute with its value. It is called as
// soon as the value is complete, so what follows is a new attribute.
func (t *tagParse) defineKeyValue() {
	value := &HtmlTagAttributeValue{
		String:   t.valueString,
		Quote:    t.valueQuote,
		Literal:  t.valueLiteral,
		Idents:   t.valueIdents,
		Expr:     t.valueExpr,
		Position: t.valuePos,
	}
	t.tokens = append(t.tokens,
		&HtmlTagAttributeName{Name: t.keyString, Literal: t.keyLiteral, Space: t.keySpace, Position: t.keyPos},
		&HtmlTagAttributeEquals{Position: t.equals.Position},
		value)
	t.attributes = append(t.attributes, Attribute{Name: t.keyString, Value: value})
	t.reset()
}

// reset resets the key and value state, expecting a new attribute.
func (t *tagParse) reset() {
	t.keyString = ""
	t.keyTokens = nil
	t.keyLiteral = nil
	t.keySpace = ""
	t.keyPos = nil
	t.equals = nil
	t.valueString = nil
	t.valueQuote = 0
	t.valueLiteral = nil
	t.valueIdents = nil
	t.valueExpr = nil
	t.valuePos = nil
	t.isParsingAttributeValue = false
}

// element parses an element: its tag and, if the element has children, its
// children and its closing tag.
func (p *Parser) element(s *Stream) error {
	lt, _ := s.Next()
	t := &tagParse{p: p, lt: lt.(*ast.Punct), isOpeningTag: true}
	t.nameTokens = tagNameTokens(s)
	t.name = tagName(t.nameTokens)
	if err := t.parseAttributes(s); err != nil {
		return err
	}

	isVoid := p.reg.IsVoid(t.name)
	var start []IToken
	var closeMarker IToken
	switch {
	case isVoid:
		start = append([]IToken{&HtmlTagVoid{Name: t.name, NameTokens: t.nameTokens}}, t.tokens...)
		closeMarker = &HtmlTagCloseVoid{Slash: t.slash, Space: t.closeSpace, Position: t.closePos}
	case t.isSelfContainedTag:
		start = append([]IToken{&HtmlTagStart{Name: t.name, NameTokens: t.nameTokens}}, t.tokens...)
		closeMarker = &HtmlTagCloseSelfContained{Space: t.closeSpace, Position: t.closePos}
	default:
		start = append([]IToken{&HtmlTagStart{Name: t.name, NameTokens: t.nameTokens}}, t.tokens...)
		closeMarker = &HtmlTagCloseStartChildren{Space: t.closeSpace, Position: t.closePos}
	}
	opening, err := p.onTagParsed(&TagContext{
		Name:            t.name,
		IsOpening:       true,
		IsVoid:          isVoid,
		IsSelfContained: t.isSelfContainedTag,
		Attributes:      t.attributes,
		Tokens:          start,
		Close:           closeMarker,
		Position:        t.lt.Position,
	})
	if err != nil {
		return err
	}
	if isVoid || t.isSelfContainedTag {
		p.Emit(opening...)
		return nil
	}

	// Children.
	p.scopes = append(p.scopes, t.name)
	p.pushSink(p.atStatementStart())
	p.pushMode(true)
	var closing *closingTag
	if p.reg.IsRawText(t.name) {
		closing, err = p.rawText(s, t.name)
	} else {
		closing, err = p.parse(s)
	}
	p.popMode()
	children := p.popSink()
	p.scopes = p.scopes[:len(p.scopes)-1]
	if err != nil {
		return err
	}
	if closing == nil {
		return syntaxError(t.lt.Position, "element <%s> not closed, expecting </%s>", t.name, t.name)
	}
	if !strings.EqualFold(closing.name, t.name) {
		return syntaxError(closing.pos, "mismatched closing tag </%s>, expecting </%s>", closing.name, t.name)
	}
	end := []IToken{&HtmlTagEnd{Name: closing.name, NameTokens: closing.tokens, Position: closing.pos}}
	end, err = p.onTagParsed(&TagContext{
		Name:     t.name,
		Tokens:   end,
		Position: closing.pos,
	})
	if err != nil {
		return err
	}
	tokens, err := p.onNodeParsed(&NodeContext{
		Name:        t.name,
		Attributes:  t.attributes,
		Start:       opening,
		Children:    children,
		End:         end,
		Position:    t.lt.Position,
		environment: p.opts.Environment,
	})
	if err != nil {
		return err
	}
	p.Emit(tokens...)
	return nil
}

// rawText parses the children of an element whose content is raw text, as
// script and style. Only '@' and the closing tag are recognized.
func (p *Parser) rawText(s *Stream, name string) (*closingTag, error) {
	prev := p.stream
	p.stream = s
	defer func() { p.stream = prev }()
	for {
		if err := p.checkCancelled(); err != nil {
			return nil, err
		}
		tok, ok := s.Peek()
		if !ok {
			return nil, nil
		}
		p.lastPos = tok.Pos()
		if ast.IsPunct(tok, '<') && s.PeekPunct("</") {
			if id, ok := s.PeekNth(2); ok && id.Leading() == "" && strings.EqualFold(id.String(), name) {
				p.EmitText(tok.Leading(), tok.Pos())
				return p.closingTag(s)
			}
		}
		if ast.IsPunct(tok, '@') {
			if next, ok := s.PeekNth(1); ok && next.Leading() == "" {
				if err := p.at(s); err != nil {
					return nil, err
				}
				continue
			}
		}
		s.Next()
		p.EmitText(ast.SourceWithSpace([]ast.Token{tok}), tok.Pos())
	}
}

// parseAttributes parses the attributes of a tag up to the closing '>' or
// "/>".
func (t *tagParse) parseAttributes(s *Stream) error {
	p := t.p
	t.isParsingAttributes = true
	for {
		if err := p.checkCancelled(); err != nil {
			return err
		}
		tok, ok := s.Peek()
		if !ok {
			return syntaxError(t.lt.Position, "tag <%s> not closed, expecting >", t.name)
		}
		p.lastPos = tok.Pos()
		if t.isParsingAttributeValue {
			if err := t.parseValue(s); err != nil {
				return err
			}
			continue
		}
		switch tk := tok.(type) {
		case *ast.Punct:
			switch tk.Char {
			case '>':
				s.Next()
				if t.isKeyDefined() {
					t.defineBoolean()
				}
				t.closeSpace = tk.Space
				t.closePos = tk.Position
				t.isParsingAttributes = false
				return nil
			case '/':
				s.Next()
				gt, ok := s.Next()
				if !ok || !ast.IsPunct(gt, '>') || gt.Leading() != "" {
					return syntaxError(tk.Position, "expected > after / in tag <%s>", t.name)
				}
				if t.isKeyDefined() {
					t.defineBoolean()
				}
				t.isSelfContainedTag = true
				t.slash = tk
				t.closeSpace = tk.Space
				t.closePos = tk.Position
				t.isParsingAttributes = false
				return nil
			case '=':
				if !t.isKeyDefined() {
					return syntaxError(tk.Position, "unexpected = before attribute name in tag <%s>", t.name)
				}
				s.Next()
				t.equals = tk
				t.isParsingAttributeValue = true
				continue
			case '-', '_', ':':
				if err := t.key(s, tok); err != nil {
					return err
				}
				continue
			}
		case *ast.Identifier:
			if err := t.key(s, tok); err != nil {
				return err
			}
			continue
		case *ast.Literal:
			if tk.IsString() {
				s.Next()
				if t.isKeyDefined() {
					t.defineBoolean()
				}
				if err := t.startKey(tk); err != nil {
					return err
				}
				continue
			}
		}
		return unexpected(tok, "in tag <"+t.name+">")
	}
}

// key parses a token of an attribute key. A token adjacent to the key being
// parsed continues it, otherwise a new key starts.
func (t *tagParse) key(s *Stream, tok ast.Token) error {
	s.Next()
	if t.isKeyDefined() {
		if tok.Leading() == "" && t.keyLiteral == nil {
			t.keyTokens = append(t.keyTokens, tok)
			t.keyString += tok.String()
			return nil
		}
		t.defineBoolean()
	}
	return t.startKey(tok)
}

// parseValue parses the value of an attribute, after '='.
func (t *tagParse) parseValue(s *Stream) error {
	p := t.p
	tok, _ := s.Peek()
	t.valuePos = tok.Pos()
	switch tk := tok.(type) {
	case *ast.Literal:
		s.Next()
		switch tk.Kind {
		case ast.StringLiteral, ast.RawStringLiteral, ast.RuneLiteral:
			content := tk.Content()
			t.valueString = &content
			if q := tk.Raw[0]; q == '"' || q == '\'' {
				t.valueQuote = q
			}
		default:
			t.valueLiteral = tk
		}
		t.defineKeyValue()
		return nil
	case *ast.Identifier:
		t.valueIdents = t.unquoted(s)
		t.defineKeyValue()
		return nil
	case *ast.Punct:
		switch tk.Char {
		case '\'':
			s.Next()
			var tokens []ast.Token
			var closeSpace string
			for {
				next, ok := s.Next()
				if !ok {
					return syntaxError(tk.Position, "attribute value not terminated, expecting '")
				}
				if ast.IsPunct(next, '\'') {
					closeSpace = next.Leading()
					break
				}
				tokens = append(tokens, next)
			}
			value := ast.SourceWithSpace(tokens) + closeSpace
			t.valueString = &value
			t.valueQuote = '\''
			t.defineKeyValue()
			return nil
		case '-', '_':
			t.valueIdents = t.unquoted(s)
			t.defineKeyValue()
			return nil
		case '@':
			s.Next()
			next, ok := s.Peek()
			if !ok || next.Leading() != "" {
				return syntaxError(tk.Position, "expected expression after '@' in value of attribute %s", t.keyString)
			}
			switch n := next.(type) {
			case *ast.Identifier:
				expr, err := p.IdentifierExpression(s)
				if err != nil {
					return err
				}
				t.valueExpr = expr
			case *ast.Literal:
				s.Next()
				t.valueExpr = []IToken{&Literal{Tok: n}}
			case *ast.Group:
				if n.Delimiter != ast.Parenthesis {
					return unexpected(n, "after '@' in value of attribute "+t.keyString)
				}
				s.Next()
				expr, err := p.parseRegion(n, false)
				if err != nil {
					return err
				}
				if len(expr) == 0 {
					return syntaxError(n.Position, "empty expression in value of attribute %s", t.keyString)
				}
				t.valueExpr = expr
			default:
				if ast.IsPunct(next, '&') {
					expr, err := p.IdentifierExpression(s)
					if err != nil {
						return err
					}
					t.valueExpr = expr
					break
				}
				return unexpected(next, "after '@' in value of attribute "+t.keyString)
			}
			p.log.Debug("attribute expression", slog.String("tag", t.name), slog.String("attribute", t.keyString))
			t.defineKeyValue()
			return nil
		case '>', '/':
			return syntaxError(tk.Position, "missing value of attribute %s in tag <%s>", t.keyString, t.name)
		}
	}
	return unexpected(tok, "in value of attribute "+t.keyString)
}

// unquoted consumes an unquoted attribute value: identifiers, '-', '_' and
// numbers with no white space between them.
func (t *tagParse) unquoted(s *Stream) []ast.Token {
	first, _ := s.Next()
	tokens := []ast.Token{first}
	for {
		tok, ok := s.Peek()
		if !ok || tok.Leading() != "" {
			return tokens
		}
		switch tk := tok.(type) {
		case *ast.Identifier:
		case *ast.Literal:
			if tk.Kind != ast.IntLiteral && tk.Kind != ast.FloatLiteral {
				return tokens
			}
		case *ast.Punct:
			if tk.Char != '-' && tk.Char != '_' {
				return tokens
			}
		default:
			return tokens
		}
		s.Next()
		tokens = append(tokens, tok)
	}
}
