// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// Names used in the generated code.
const (
	contextName  = "ctx"
	servicesName = "services"
	modelName    = "model"
	runtimeName  = "runtime"
)

// Lower lowers the intermediate tokens into Go statements that write the
// markup, with WriteLiteral, and the values of the expressions, with
// WriteValue, to the output buffer. Go code in the tokens is copied as is.
//
// Adjacent text nodes are written with a single WriteLiteral call. The
// external contents read at lowering are written as text.
func Lower(tokens []IToken, opts *Options) ([]ast.Token, error) {
	if opts == nil {
		opts = &Options{}
	}
	l := &lowerer{
		opts: opts,
		log:  opts.logger().With(slog.String("component", "lower")),
		buf:  opts.bufferName(),
	}
	return l.sequence(tokens)
}

type lowerer struct {
	opts *Options
	log  *slog.Logger
	buf  string // name of the output buffer
}

// sequence lowers a sequence of tokens.
func (l *lowerer) sequence(tokens []IToken) ([]ast.Token, error) {
	var out []ast.Token
	var text strings.Builder
	var textPos *ast.Position
	flush := func() {
		if text.Len() > 0 {
			out = l.statement(out, l.writeLiteral(text.String(), textPos))
			text.Reset()
		}
	}
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *HtmlTextNode:
			if text.Len() == 0 {
				textPos = t.Span
			}
			text.WriteString(t.Text)
			continue
		case *ExternalHtml:
			s, err := l.external(t)
			if err != nil {
				return nil, err
			}
			if text.Len() == 0 {
				textPos = t.Position
			}
			text.WriteString(s)
			continue
		}
		flush()
		switch t := tok.(type) {
		case *Identifier:
			out = append(out, t.Tok)
		case *Literal:
			out = append(out, t.Tok)
		case *Punct:
			out = append(out, t.Tok)
		case *Group:
			g, err := l.group(t.Tok, t.Delimiter, t.Tokens)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		case *HtmlTagStart:
			out = l.statement(out, l.writeLiteral("<"+t.Name, t.Pos()))
		case *HtmlTagVoid:
			out = l.statement(out, l.writeLiteral("<"+t.Name, t.Pos()))
		case *HtmlTagEnd:
			out = l.statement(out, l.writeLiteral("</"+t.Name+">", t.Position))
		case *HtmlTagCloseStartChildren:
			out = l.statement(out, l.writeLiteral(t.Space+">", t.Position))
		case *HtmlTagCloseSelfContained:
			out = l.statement(out, l.writeLiteral(t.Space+"/>", t.Position))
		case *HtmlTagCloseVoid:
			if t.Slash != nil {
				out = l.statement(out, l.writeLiteral(t.Space+"/>", t.Position))
			} else {
				out = l.statement(out, l.writeLiteral(t.Space+">", t.Position))
			}
		case *HtmlTagAttributeName:
			space := t.Space
			if space == "" {
				space = " "
			}
			name := t.Name
			if t.Literal != nil {
				name = t.Literal.Raw
			}
			out = l.statement(out, l.writeLiteral(space+name, t.Position))
		case *HtmlTagAttributeEquals:
			out = l.statement(out, l.writeLiteral("=", t.Position))
		case *HtmlTagAttributeValue:
			var err error
			out, err = l.attributeValue(out, t)
			if err != nil {
				return nil, err
			}
		case *AppendToHtml:
			expr, err := l.sequence(t.Tokens)
			if err != nil {
				return nil, err
			}
			out = l.statement(out, l.writeValue(expr, t.Position))
		case *DefineSection:
			stmt, err := l.defineSection(t)
			if err != nil {
				return nil, err
			}
			out = l.statement(out, stmt)
		case *HtmlClosureBody:
			closure, err := l.closure(t)
			if err != nil {
				return nil, err
			}
			out = append(out, closure...)
		}
	}
	flush()
	return out, nil
}

// statement appends the statement stmt to out, separated by a semicolon
// from the Go code that precedes it.
func (l *lowerer) statement(out, stmt []ast.Token) []ast.Token {
	if n := len(out); n > 0 && !ast.IsPunct(out[n-1], ';') {
		out = append(out, ast.NewPunct(stmt[0].Pos(), ';'))
	}
	return append(out, stmt...)
}

// group lowers a group with the given delimiter and tokens. src is the
// group of the source.
func (l *lowerer) group(src *ast.Group, delim ast.Delimiter, tokens []IToken) (*ast.Group, error) {
	children, err := l.sequence(tokens)
	if err != nil {
		return nil, err
	}
	g := ast.NewGroup(src.Position, delim, children)
	g.Space = src.Space
	g.CloseSpace = src.CloseSpace
	return g, nil
}

// attributeValue appends to out the statements that write an attribute
// value between quotes. When more than one form of the value is populated,
// the first of identifiers, expression, literal and string is used.
func (l *lowerer) attributeValue(out []ast.Token, v *HtmlTagAttributeValue) ([]ast.Token, error) {
	pos := v.Position
	switch {
	case len(v.Idents) > 0:
		return l.statement(out, l.writeLiteral(quoteAttribute(ast.Source(v.Idents)), pos)), nil
	case len(v.Expr) > 0:
		expr, err := l.sequence(v.Expr)
		if err != nil {
			return nil, err
		}
		out = l.statement(out, l.writeLiteral(`"`, pos))
		out = l.statement(out, l.writeValue(expr, pos))
		return l.statement(out, l.writeLiteral(`"`, pos)), nil
	case v.Literal != nil:
		return l.statement(out, l.writeLiteral(quoteAttribute(v.Literal.Content()), pos)), nil
	case v.String != nil:
		if v.Quote != 0 && strings.IndexByte(*v.String, v.Quote) == -1 {
			q := string(v.Quote)
			return l.statement(out, l.writeLiteral(q+*v.String+q, pos)), nil
		}
		return l.statement(out, l.writeLiteral(quoteAttribute(*v.String), pos)), nil
	}
	return l.statement(out, l.writeLiteral(`""`, pos)), nil
}

// quoteAttribute quotes an attribute value with double quotes or, if it
// contains double quotes, with single quotes.
func quoteAttribute(s string) string {
	if strings.Contains(s, `"`) && !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// external reads an external content.
func (l *lowerer) external(e *ExternalHtml) (string, error) {
	data, file, err := readContent(l.opts.FS, l.log, e.From, e.Path, e.Position)
	if err != nil {
		return "", withPath(err, e.From)
	}
	l.log.Debug("external content", slog.String("file", file), slog.Bool("markdown", e.Markdown))
	if !e.Markdown {
		return string(data), nil
	}
	html, err := l.opts.renderMarkdown(data, e.Position)
	if err != nil {
		return "", withPath(err, e.From)
	}
	return html, nil
}

// defineSection returns the statement that defines a section:
//
//	ctx.DefineSection("name", func(html *runtime.Buffer) { ... })
func (l *lowerer) defineSection(s *DefineSection) ([]ast.Token, error) {
	body, err := l.sequence(s.Tokens)
	if err != nil {
		return nil, err
	}
	pos := s.Position
	params := ast.NewGroup(pos, ast.Parenthesis, []ast.Token{
		ast.NewIdentifier(pos, l.buf),
		&ast.Punct{Position: pos, Space: " ", Char: '*'},
		ast.NewIdentifier(pos, runtimeName),
		ast.NewPunct(pos, '.'),
		ast.NewIdentifier(pos, "Buffer"),
	})
	fn := &ast.Group{Position: pos, Space: " ", Delimiter: ast.Brace, Tokens: body}
	args := ast.NewGroup(pos, ast.Parenthesis, []ast.Token{
		ast.NewStringLiteral(pos, s.Name),
		ast.NewPunct(pos, ','),
		&ast.Identifier{Position: pos, Space: " ", Name: "func"},
		params,
		fn,
	})
	return []ast.Token{
		ast.NewIdentifier(pos, contextName),
		ast.NewPunct(pos, '.'),
		ast.NewIdentifier(pos, "DefineSection"),
		args,
		ast.NewPunct(pos, ';'),
	}, nil
}

// closure lowers the body of a function literal that returns the markup it
// writes:
//
//	T { html := runtime.NewBuffer(); ...; return T(html.String()) }
func (l *lowerer) closure(c *HtmlClosureBody) ([]ast.Token, error) {
	body, err := l.sequence(c.Tokens)
	if err != nil {
		return nil, err
	}
	pos := c.Type.Position
	tokens := []ast.Token{
		ast.NewIdentifier(pos, l.buf),
		&ast.Punct{Position: pos, Space: " ", Char: ':'},
		ast.NewPunct(pos, '='),
		&ast.Identifier{Position: pos, Space: " ", Name: runtimeName},
		ast.NewPunct(pos, '.'),
		ast.NewIdentifier(pos, "NewBuffer"),
		ast.NewGroup(pos, ast.Parenthesis, nil),
		ast.NewPunct(pos, ';'),
	}
	tokens = append(tokens, body...)
	if n := len(tokens); !ast.IsPunct(tokens[n-1], ';') {
		tokens = append(tokens, ast.NewPunct(pos, ';'))
	}
	tokens = append(tokens,
		ast.NewIdentifier(pos, "return"),
		ast.NewIdentifier(pos, c.Type.Name),
		ast.NewGroup(pos, ast.Parenthesis, []ast.Token{
			ast.NewIdentifier(pos, l.buf),
			ast.NewPunct(pos, '.'),
			ast.NewIdentifier(pos, "String"),
			ast.NewGroup(pos, ast.Parenthesis, nil),
		}),
	)
	typ := &ast.Identifier{Position: pos, Space: " ", Name: c.Type.Name}
	g := &ast.Group{Position: c.Body.Position, Space: " ", Delimiter: ast.Brace, Tokens: tokens}
	return []ast.Token{typ, g}, nil
}

// writeLiteral returns the statement that writes the text s.
func (l *lowerer) writeLiteral(s string, pos *ast.Position) []ast.Token {
	return l.call("WriteLiteral", []ast.Token{ast.NewStringLiteral(pos, s)}, pos)
}

// writeValue returns the statement that writes the value of expr.
func (l *lowerer) writeValue(expr []ast.Token, pos *ast.Position) []ast.Token {
	if len(expr) > 0 && expr[0].Leading() != "" {
		expr = append([]ast.Token{withSpace(expr[0], "")}, expr[1:]...)
	}
	return l.call("WriteValue", expr, pos)
}

func (l *lowerer) call(method string, args []ast.Token, pos *ast.Position) []ast.Token {
	if pos == nil {
		pos = &ast.Position{Line: 1, Column: 1}
	}
	return []ast.Token{
		ast.NewIdentifier(pos, l.buf),
		ast.NewPunct(pos, '.'),
		ast.NewIdentifier(pos, method),
		ast.NewGroup(pos, ast.Parenthesis, args),
		ast.NewPunct(pos, ';'),
	}
}

// literalText returns the text written by a WriteLiteral call on buf
// starting at tokens[i], and the number of tokens of the call.
func literalText(tokens []ast.Token, i int, buf string) (string, int, bool) {
	if i+4 >= len(tokens) {
		return "", 0, false
	}
	if !ast.IsIdentifier(tokens[i], buf) || !ast.IsPunct(tokens[i+1], '.') ||
		!ast.IsIdentifier(tokens[i+2], "WriteLiteral") || !ast.IsPunct(tokens[i+4], ';') {
		return "", 0, false
	}
	g, ok := tokens[i+3].(*ast.Group)
	if !ok || g.Delimiter != ast.Parenthesis || len(g.Tokens) != 1 {
		return "", 0, false
	}
	lit, ok := g.Tokens[0].(*ast.Literal)
	if !ok || !lit.IsString() {
		return "", 0, false
	}
	s, err := strconv.Unquote(lit.Raw)
	if err != nil {
		return "", 0, false
	}
	return s, 5, true
}
