// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/rusthtml/ast"

	"golang.org/x/mod/module"
)

// builtinDirectives returns the built-in directives.
func builtinDirectives() []Directive {
	return []Directive{
		NewDirective("model", modelDirective),
		NewDirective("name", nameDirective),
		NewDirective("viewstart", parameterDirective),
		NewDirective("lang", parameterDirective),
		NewDirective("use", useDirective),
		NewDirective("inject", injectDirective),
		NewDirective("functions", declarationsDirective),
		NewDirective("struct", declarationsDirective),
		NewDirective("impl", declarationsDirective),
		NewDirective("for", forDirective),
		NewDirective("while", whileDirective),
		NewDirective("if", ifDirective),
		NewDirective("else", elseDirective),
		NewDirective("section", sectionDirective),
		NewDirective("rendersection", renderSectionDirective),
		NewDirective("renderbody", renderBodyDirective),
		NewDirective("htmlfile", htmlFileDirective(true)),
		NewDirective("htmlfile_nocache", htmlFileDirective(false)),
		NewDirective("rusthtmlfile", templateFileDirective(true)),
		NewDirective("rusthtmlfile_nocache", templateFileDirective(false)),
		NewDirective("markdown", markdownDirective),
		NewDirective("markdownfile", markdownFileDirective(true)),
		NewDirective("markdownfile_nocache", markdownFileDirective(false)),
	}
}

// declaration checks that the declaration directive id can be used in the
// file being parsed.
func (p *Parser) declaration(id *ast.Identifier) error {
	if p.unit.included {
		return syntaxError(id.Position, "%s cannot be declared in an included template", id.Name)
	}
	return nil
}

// argument returns the next token of the stream, that must be separated by
// white space from the directive id.
func (p *Parser) argument(id *ast.Identifier, expecting string) (ast.Token, error) {
	tok, ok := p.stream.Peek()
	if !ok {
		return nil, syntaxError(id.Position, "unexpected end after %s, expecting %s", id.Name, expecting)
	}
	if tok.Leading() == "" {
		return nil, unexpected(tok, "after "+id.Name+", expecting "+expecting)
	}
	p.lastPos = tok.Pos()
	return tok, nil
}

// stringArgument returns the value of the string literal that follows the
// directive id.
func (p *Parser) stringArgument(id *ast.Identifier) (string, error) {
	tok, err := p.argument(id, "string")
	if err != nil {
		return "", err
	}
	lit, ok := tok.(*ast.Literal)
	if !ok || !lit.IsString() {
		return "", unexpected(tok, "after "+id.Name+", expecting string")
	}
	p.stream.Next()
	s, err := lit.Value()
	if err != nil {
		return "", syntaxError(lit.Position, "invalid string %s", lit.Raw)
	}
	return s, nil
}

// modelDirective declares the type of the model.
//
//	@model Vec<Product>
//
// The type must be on the same line. Not followed by a type, as in @model
// and @model.Title, it is the model parameter and its value is written.
func modelDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	s := p.stream
	if tok, ok := s.Peek(); !ok || tok.Leading() == "" || hasNewLine(tok.Leading()) {
		return OkBreakAppendHtml, nil
	}
	if err := p.declaration(id); err != nil {
		return 0, err
	}
	if p.unit.model != nil {
		return 0, syntaxError(id.Position, "model already declared at %s, use @(model) to write its value", p.unit.modelPos)
	}
	if _, err := p.argument(id, "type"); err != nil {
		return 0, err
	}
	typ, err := p.TypeIdentifier(s)
	if err != nil {
		return 0, err
	}
	p.unit.model = typ
	p.unit.modelPos = id.Position
	p.TrimLine()
	return OkContinue, nil
}

// nameDirective declares the name of the view.
//
//	@name "product list"
func nameDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	if err := p.declaration(id); err != nil {
		return 0, err
	}
	if p.unit.namePos != nil {
		return 0, syntaxError(id.Position, "name already declared at %s", p.unit.namePos)
	}
	name, err := p.stringArgument(id)
	if err != nil {
		return 0, err
	}
	if typeName(name) == "" {
		return 0, syntaxError(id.Position, "invalid view name %q", name)
	}
	p.unit.name = name
	p.unit.namePos = id.Position
	p.TrimLine()
	return OkContinue, nil
}

// parameterDirective declares a parameter of the view, named as the
// directive.
//
//	@viewstart "_viewstart.rhtml"
//	@lang "en"
func parameterDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	if err := p.declaration(id); err != nil {
		return 0, err
	}
	if pos, ok := p.unit.paramPos[id.Name]; ok {
		return 0, syntaxError(id.Position, "%s already declared at %s", id.Name, pos)
	}
	value, err := p.stringArgument(id)
	if err != nil {
		return 0, err
	}
	p.unit.params[id.Name] = value
	p.unit.paramPos[id.Name] = id.Position
	p.TrimLine()
	return OkContinue, nil
}

// useDirective adds an import declaration to the generated file.
//
//	@use "strings"
//	@use humanize "github.com/dustin/go-humanize"
func useDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	s := p.stream
	tok, err := p.argument(id, "import path")
	if err != nil {
		return 0, err
	}
	var name string
	switch t := tok.(type) {
	case *ast.Identifier:
		name = t.Name
		s.Next()
	case *ast.Punct:
		if t.Char == '.' {
			name = "."
			s.Next()
		}
	}
	tok, ok := s.Next()
	if !ok {
		return 0, syntaxError(id.Position, "unexpected end after use, expecting import path")
	}
	lit, ok := tok.(*ast.Literal)
	if !ok || !lit.IsString() {
		return 0, unexpected(tok, "in use, expecting import path")
	}
	path, err := lit.Value()
	if err != nil {
		return 0, syntaxError(lit.Position, "invalid import path %s", lit.Raw)
	}
	if err := module.CheckImportPath(path); err != nil {
		return 0, syntaxError(lit.Position, "invalid import path %q: %s", path, err)
	}
	if next, ok := s.Peek(); ok && ast.IsPunct(next, ';') && !hasNewLine(next.Leading()) {
		s.Next()
	}
	p.unit.addImport(Import{Name: name, Path: path})
	p.TrimLine()
	return OkContinue, nil
}

// injectDirective adds a statement executed at the beginning of the
// rendering. The statement ends with ';' or at the end of the line.
//
//	@inject logger := services.Get("logger").(*slog.Logger)
func injectDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	s := p.stream
	if _, err := p.argument(id, "statement"); err != nil {
		return 0, err
	}
	var stmt []ast.Token
	for {
		tok, ok := s.Peek()
		if !ok || len(stmt) > 0 && hasNewLine(tok.Leading()) {
			break
		}
		s.Next()
		if ast.IsPunct(tok, ';') {
			break
		}
		stmt = append(stmt, tok)
	}
	if !isDeclaration(stmt) {
		return 0, syntaxError(id.Position, "inject requires a variable declaration, as in \"name := expression\"")
	}
	p.unit.addInject(stmt)
	p.TrimLine()
	return OkContinue, nil
}

// isDeclaration reports whether stmt is a short variable declaration or a
// var declaration.
func isDeclaration(stmt []ast.Token) bool {
	if len(stmt) == 0 {
		return false
	}
	if ast.IsIdentifier(stmt[0], "var") {
		return len(stmt) > 1
	}
	for i := 1; i+1 < len(stmt); i++ {
		if ast.IsPunct(stmt[i], ':') && ast.IsPunct(stmt[i+1], '=') && stmt[i+1].Leading() == "" {
			return i+2 < len(stmt)
		}
	}
	return false
}

// declarationsDirective adds Go declarations to the generated file. The
// functions section is written at the top level, the struct section in the
// view type and the impl section after the view type.
//
//	@functions {
//		func price(p Product) string { ... }
//	}
func declarationsDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	if err := p.declaration(id); err != nil {
		return 0, err
	}
	tok, err := p.argument(id, "{")
	if err != nil {
		return 0, err
	}
	g, ok := p.stream.PeekGroup(ast.Brace)
	if !ok {
		return 0, unexpected(tok, "after "+id.Name+", expecting {")
	}
	p.stream.Next()
	section := p.unit.sections[id.Name]
	if len(section) > 0 && len(g.Tokens) > 0 {
		section = append(section, &ast.Punct{Position: g.Position, Space: "\n", Char: ';'})
	}
	p.unit.sections[id.Name] = append(section, g.Tokens...)
	p.TrimLine()
	return OkContinue, nil
}

// keyword returns an identifier with the given name, at the position of
// tok and with leading white space space.
func keyword(tok ast.Token, name, space string) *Identifier {
	return &Identifier{Tok: &ast.Identifier{Position: tok.Pos(), Space: space, Name: name}}
}

// punct returns a punctuation character at position pos.
func punct(pos *ast.Position, c rune, space string) *Punct {
	return &Punct{Tok: &ast.Punct{Position: pos, Space: space, Char: c}}
}

// block parses the brace group body of a control flow statement. The body
// is parsed in expression mode, markup starts with a tag.
func (p *Parser) block(body *ast.Group, ifChain bool) (*Group, error) {
	tokens, err := p.parseRegion(body, false)
	if err != nil {
		return nil, err
	}
	// The block must start on the line of its header.
	g := *body
	g.Space = " "
	return &Group{Tok: &g, Delimiter: ast.Brace, Tokens: tokens, ifChain: ifChain}, nil
}

// forDirective is a loop. Besides the Go for clauses, it accepts a pattern
// and an expression separated by "in": a range of integers written as
// "a..b" or "a..=b", or any expression accepted by a Go range clause.
//
//	@for i in 0..len(items) { <li>@i</li> }
//	@for item in items { <li>@item.Name</li> }
//	@for (i, item) in items { <li>@i: @item.Name</li> }
func forDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	header, body, err := p.tokensUntilBrace(p.stream, id.Position, "for")
	if err != nil {
		return 0, err
	}
	clause, err := forClause(header)
	if err != nil {
		return 0, err
	}
	block, err := p.block(body, false)
	if err != nil {
		return 0, err
	}
	p.Emit(keyword(id, "for", ""))
	p.Emit(clause...)
	p.Emit(block)
	return OkContinue, nil
}

// forClause returns the Go clause of a for statement given its header.
func forClause(header []ast.Token) ([]IToken, error) {
	in := -1
	for i, tok := range header {
		if ast.IsIdentifier(tok, "in") {
			in = i
			break
		}
	}
	if in == -1 {
		return rawTokens(header), nil
	}
	vars, err := forPattern(header[:in], header[in])
	if err != nil {
		return nil, err
	}
	expr := header[in+1:]
	if len(expr) == 0 {
		return nil, syntaxError(header[in].Pos(), "expected expression after in")
	}
	for i := 0; i+1 < len(expr); i++ {
		if !ast.IsPunct(expr[i], '.') || !ast.IsPunct(expr[i+1], '.') || expr[i+1].Leading() != "" {
			continue
		}
		from, to := expr[:i], expr[i+2:]
		inclusive := len(to) > 0 && ast.IsPunct(to[0], '=') && to[0].Leading() == ""
		if inclusive {
			to = to[1:]
		}
		if len(from) == 0 || len(to) == 0 {
			return nil, syntaxError(expr[i].Pos(), "invalid range, expecting start..end")
		}
		if len(vars) != 1 {
			return nil, syntaxError(expr[i].Pos(), "range of integers requires a single variable")
		}
		v, pos := vars[0].Name, expr[i].Pos()
		// v := from; v < to; v++
		clause := []IToken{keyword(vars[0], v, " "), punct(pos, ':', " "), punct(pos, '=', "")}
		clause = append(clause, rawTokens(spaced(from))...)
		clause = append(clause, punct(pos, ';', ""), keyword(vars[0], v, " "), punct(pos, '<', " "))
		if inclusive {
			clause = append(clause, punct(pos, '=', ""))
		}
		clause = append(clause, rawTokens(spaced(to))...)
		clause = append(clause, punct(pos, ';', ""), keyword(vars[0], v, " "), punct(pos, '+', ""), punct(pos, '+', ""))
		return clause, nil
	}
	// k, v := range expr
	pos := header[in].Pos()
	var clause []IToken
	if len(vars) == 1 {
		clause = append(clause, keyword(vars[0], "_", " "), punct(pos, ',', ""), keyword(vars[0], vars[0].Name, " "))
	} else {
		clause = append(clause, keyword(vars[0], vars[0].Name, " "), punct(pos, ',', ""), keyword(vars[1], vars[1].Name, " "))
	}
	clause = append(clause, punct(pos, ':', " "), punct(pos, '=', ""), keyword(header[in], "range", " "))
	return append(clause, rawTokens(spaced(expr))...), nil
}

// forPattern returns the variables of the pattern of a for statement: an
// identifier or two identifiers in parentheses.
func forPattern(pattern []ast.Token, in ast.Token) ([]*ast.Identifier, error) {
	if len(pattern) != 1 {
		return nil, syntaxError(in.Pos(), "invalid for pattern, expecting identifier or (identifier, identifier)")
	}
	switch t := pattern[0].(type) {
	case *ast.Identifier:
		return []*ast.Identifier{t}, nil
	case *ast.Group:
		if t.Delimiter == ast.Parenthesis && len(t.Tokens) == 3 &&
			ast.IsIdentifier(t.Tokens[0], "") && ast.IsPunct(t.Tokens[1], ',') && ast.IsIdentifier(t.Tokens[2], "") {
			return []*ast.Identifier{t.Tokens[0].(*ast.Identifier), t.Tokens[2].(*ast.Identifier)}, nil
		}
	}
	return nil, unexpected(pattern[0], "in for pattern, expecting identifier or (identifier, identifier)")
}

// spaced returns tokens with a leading space on the first token.
func spaced(tokens []ast.Token) []ast.Token {
	if len(tokens) == 0 || tokens[0].Leading() == " " {
		return tokens
	}
	first := withSpace(tokens[0], " ")
	return append([]ast.Token{first}, tokens[1:]...)
}

// withSpace returns a copy of tok with leading white space space.
func withSpace(tok ast.Token, space string) ast.Token {
	switch t := tok.(type) {
	case *ast.Identifier:
		c := *t
		c.Space = space
		return &c
	case *ast.Literal:
		c := *t
		c.Space = space
		return &c
	case *ast.Punct:
		c := *t
		c.Space = space
		return &c
	case *ast.Group:
		c := *t
		c.Space = space
		return &c
	}
	return tok
}

// whileDirective is a loop with a condition.
//
//	@while n > 0 { <li>@n</li> n-- }
func whileDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	header, body, err := p.tokensUntilBrace(p.stream, id.Position, "while")
	if err != nil {
		return 0, err
	}
	if len(header) == 0 {
		return 0, syntaxError(id.Position, "missing condition in while")
	}
	block, err := p.block(body, false)
	if err != nil {
		return 0, err
	}
	p.Emit(keyword(id, "for", ""))
	p.Emit(rawTokens(spaced(header))...)
	p.Emit(block)
	return OkContinue, nil
}

// ifDirective is a conditional statement. Branches "else if" and "else",
// with or without '@', can follow.
//
//	@if user != nil { <b>@user.Name</b> } else { <i>guest</i> }
func ifDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	p.Emit(keyword(id, "if", ""))
	if err := p.ifBranch(id); err != nil {
		return 0, err
	}
	return OkContinue, p.elseBranches()
}

// ifBranch parses the condition and the body of an if branch.
func (p *Parser) ifBranch(id *ast.Identifier) error {
	header, body, err := p.tokensUntilBrace(p.stream, id.Position, "if")
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return syntaxError(id.Position, "missing condition in if")
	}
	block, err := p.block(body, true)
	if err != nil {
		return err
	}
	p.Emit(rawTokens(spaced(header))...)
	p.Emit(block)
	return nil
}

// elseBranches parses the else branches that follow an if branch.
func (p *Parser) elseBranches() error {
	s := p.stream
	for {
		n := 0
		if tok, ok := s.Peek(); ok && ast.IsPunct(tok, '@') {
			n = 1
		}
		tok, ok := s.PeekNth(n)
		if !ok || !ast.IsIdentifier(tok, "else") || n == 1 && tok.Leading() != "" {
			return nil
		}
		next, ok := s.PeekNth(n + 1)
		if !ok {
			return nil
		}
		switch {
		case ast.IsIdentifier(next, "if"):
			s.Skip(n + 2)
			p.Emit(keyword(tok, "else", " "), keyword(next, "if", " "))
			if err := p.ifBranch(next.(*ast.Identifier)); err != nil {
				return err
			}
		case ast.IsGroup(next, ast.Brace):
			s.Skip(n + 2)
			block, err := p.block(next.(*ast.Group), false)
			if err != nil {
				return err
			}
			p.Emit(keyword(tok, "else", " "), block)
			return nil
		default:
			return nil
		}
	}
}

// elseDirective is an else not preceded by an if branch.
func elseDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	return 0, syntaxError(id.Position, "else without if")
}

// sectionDirective defines a section that the layout renders with
// rendersection.
//
//	@section scripts { <script src="/app.js"></script> }
func sectionDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	s := p.stream
	tok, err := p.argument(id, "section name")
	if err != nil {
		return 0, err
	}
	var name string
	switch t := tok.(type) {
	case *ast.Identifier:
		name = t.Name
	case *ast.Literal:
		if t.IsString() {
			name, _ = t.Value()
		}
	}
	if name == "" {
		return 0, unexpected(tok, "after section, expecting section name")
	}
	s.Next()
	body, ok := s.PeekGroup(ast.Brace)
	if !ok {
		return 0, syntaxError(tok.Pos(), "expected { after section %s", name)
	}
	s.Next()
	tokens, err := p.parseRegion(body, true)
	if err != nil {
		return 0, err
	}
	p.Emit(&DefineSection{Name: name, Tokens: tokens, Position: id.Position})
	p.TrimLine()
	return OkContinue, nil
}

// renderSectionDirective writes a section defined by the view. The
// arguments are the name of the section and, optionally, whether it is
// required.
//
//	@rendersection("scripts", false)
func renderSectionDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	g, ok := p.stream.PeekGroup(ast.Parenthesis)
	if !ok || g.Space != "" {
		return 0, syntaxError(id.Position, "expected ( after rendersection")
	}
	p.stream.Next()
	args, err := p.parseRegion(g, false)
	if err != nil {
		return 0, err
	}
	if len(args) == 0 {
		return 0, syntaxError(g.Position, "missing section name in rendersection")
	}
	p.Emit(&AppendToHtml{Tokens: contextCall(id, "RenderSection", g, args), Position: id.Position})
	return OkContinue, nil
}

// renderBodyDirective writes the body of the view rendered in a layout.
//
//	@renderbody()
func renderBodyDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	g, ok := p.stream.PeekGroup(ast.Parenthesis)
	if ok && g.Space == "" {
		p.stream.Next()
		if len(g.Tokens) > 0 {
			return 0, syntaxError(g.Position, "renderbody has no arguments")
		}
	} else {
		g = ast.NewGroup(id.Position, ast.Parenthesis, nil)
	}
	p.Emit(&AppendToHtml{Tokens: contextCall(id, "RenderBody", g, nil), Position: id.Position})
	return OkContinue, nil
}

// contextCall returns the tokens of a call to the method of the rendering
// context.
func contextCall(id *ast.Identifier, method string, g *ast.Group, args []IToken) []IToken {
	return []IToken{
		keyword(id, contextName, ""),
		punct(id.Position, '.', ""),
		keyword(id, method, ""),
		&Group{Tok: g, Delimiter: ast.Parenthesis, Tokens: args},
	}
}
