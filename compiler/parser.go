// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// Import is an import declaration added by the use directive.
type Import struct {
	Name string // package name, "_" or "."; empty if not given.
	Path string
}

// unit holds the state shared by all the files of a compilation: the
// declarations made by the directives.
type unit struct {
	model       []ast.Token
	modelPos    *ast.Position
	name        string
	namePos     *ast.Position
	sections    map[string][]ast.Token
	params      map[string]string
	paramPos    map[string]*ast.Position
	imports     []Import
	injects     [][]ast.Token
	included    bool     // the unit is of an included file
	includePath []string // paths of the including files
}

func newUnit() *unit {
	return &unit{
		sections: map[string][]ast.Token{},
		params:   map[string]string{},
		paramPos: map[string]*ast.Position{},
	}
}

// addImport adds an import if not already present.
func (u *unit) addImport(imp Import) {
	for _, i := range u.imports {
		if i == imp {
			return
		}
	}
	u.imports = append(u.imports, imp)
}

// addInject adds an inject statement if not already present.
func (u *unit) addInject(stmt []ast.Token) {
	src := ast.Source(stmt)
	for _, i := range u.injects {
		if ast.Source(i) == src {
			return
		}
	}
	u.injects = append(u.injects, stmt)
}

// sink is an output buffer where the parser emits the intermediate tokens.
type sink struct {
	tokens []IToken
	// statement reports whether the sink is the body of a brace group or of
	// the file, where a statement can start.
	statement bool
}

// Parser parses the tokens of a template. A Parser is used for a single
// file and is not safe for concurrent use. Directives receive the parser
// to read the tokens that follow them and to emit intermediate tokens.
type Parser struct {
	ctx  context.Context
	opts *Options
	reg  *Registry
	log  *slog.Logger
	path string // path of the file
	unit *unit

	// Open tags, from the outermost to the innermost.
	scopes []string

	// Modes, true for markup and false for expression.
	modes []bool

	// Output buffers. The last one is the current.
	sinks []*sink

	// Stream being parsed.
	stream *Stream

	// Position of the last read token, used for errors on cancellation.
	lastPos *ast.Position

	// brk is set when a directive returns OkBreak.
	brk bool

	// trimLine is set by a declaration directive. The white space that
	// follows it, up to and including the first new line, is not emitted.
	trimLine bool
}

func newParser(ctx context.Context, path string, u *unit, opts *Options) *Parser {
	return &Parser{
		ctx:     ctx,
		opts:    opts,
		reg:     opts.registry(),
		log:     opts.logger().With(slog.String("component", "parser"), slog.String("path", path)),
		path:    path,
		unit:    u,
		modes:   []bool{true},
		sinks:   []*sink{{statement: true}},
		lastPos: &ast.Position{Line: 1, Column: 1},
	}
}

// Stream returns the stream being parsed. A directive reads its arguments
// from it.
func (p *Parser) Stream() *Stream {
	return p.stream
}

// Registry returns the registry of the directives and hooks.
func (p *Parser) Registry() *Registry {
	return p.reg
}

// Environment returns the name of the environment.
func (p *Parser) Environment() string {
	return p.opts.Environment
}

// Logger returns the logger of the parser.
func (p *Parser) Logger() *slog.Logger {
	return p.log
}

// Path returns the path of the file being parsed.
func (p *Parser) Path() string {
	return p.path
}

// Markup reports whether the parser is in markup mode.
func (p *Parser) Markup() bool {
	return p.modes[len(p.modes)-1]
}

func (p *Parser) pushMode(markup bool) {
	p.modes = append(p.modes, markup)
}

func (p *Parser) popMode() {
	p.modes = p.modes[:len(p.modes)-1]
}

func (p *Parser) pushSink(statement bool) {
	p.sinks = append(p.sinks, &sink{statement: statement})
}

func (p *Parser) popSink() []IToken {
	s := p.sinks[len(p.sinks)-1]
	p.sinks = p.sinks[:len(p.sinks)-1]
	return s.tokens
}

// Emit appends tokens to the current output buffer. Adjacent text nodes are
// merged.
func (p *Parser) Emit(tokens ...IToken) {
	s := p.sinks[len(p.sinks)-1]
	for _, tok := range tokens {
		if text, ok := tok.(*HtmlTextNode); ok {
			if p.trimLine {
				text = p.trimText(text)
			}
			if text.Text == "" {
				continue
			}
			if n := len(s.tokens); n > 0 {
				if last, ok := s.tokens[n-1].(*HtmlTextNode); ok {
					s.tokens[n-1] = &HtmlTextNode{Text: last.Text + text.Text, Span: last.Span.WithEnd(text.Span.End)}
					continue
				}
			}
		}
		p.trimLine = false
		s.tokens = append(s.tokens, tok)
	}
}

// trimText removes from text the spaces and tabs up to and including the
// first new line. trimLine is cleared unless text has only spaces and tabs.
func (p *Parser) trimText(text *HtmlTextNode) *HtmlTextNode {
	t := strings.TrimLeft(text.Text, " \t")
	switch {
	case t == "":
	case strings.HasPrefix(t, "\r\n"):
		t = t[2:]
		p.trimLine = false
	case t[0] == '\n':
		t = t[1:]
		p.trimLine = false
	default:
		p.trimLine = false
		return text
	}
	return &HtmlTextNode{Text: t, Span: text.Span}
}

// TrimLine reports that the rest of the current line, if it contains only
// white space, is not emitted. Directives that only declare something call
// it so that they leave no empty line in the output.
func (p *Parser) TrimLine() {
	p.trimLine = true
}

// EmitText appends a text node to the current output buffer.
func (p *Parser) EmitText(text string, pos *ast.Position) {
	p.Emit(&HtmlTextNode{Text: text, Span: pos})
}

// last returns the last token of the current output buffer.
func (p *Parser) last() IToken {
	s := p.sinks[len(p.sinks)-1]
	if len(s.tokens) == 0 {
		return nil
	}
	return s.tokens[len(s.tokens)-1]
}

// atStatementStart reports whether a statement can start at the current
// output position: nothing has been emitted yet in a brace group or in the
// file, or the last emitted token ends a statement.
func (p *Parser) atStatementStart() bool {
	switch t := p.last().(type) {
	case nil:
		return p.sinks[len(p.sinks)-1].statement
	case *Punct:
		return t.Tok.Char == ';'
	case *Group, *HtmlClosureBody:
		return true
	case *HtmlTagEnd, *HtmlTagCloseSelfContained, *HtmlTagCloseVoid:
		return true
	case *AppendToHtml, *HtmlTextNode, *DefineSection, *ExternalHtml:
		return true
	}
	return false
}

// checkCancelled returns a CancelledError if the context is done.
func (p *Parser) checkCancelled() error {
	select {
	case <-p.ctx.Done():
		return &CancelledError{pos: *p.lastPos, err: p.ctx.Err()}
	default:
	}
	return nil
}

// closingTag is a closing tag read by parse when no element is open in the
// parsed stream.
type closingTag struct {
	name   string
	tokens []ast.Token
	pos    *ast.Position
}

// parse parses the tokens of s. It returns when s is consumed, when a
// directive returns OkBreak or when a closing tag is read; in the last case
// the closing tag is returned.
func (p *Parser) parse(s *Stream) (*closingTag, error) {
	if err := p.checkCancelled(); err != nil {
		return nil, err
	}
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
		var err error
		switch classify(tok, p.Markup(), p.atStatementStart()) {
		case actionText:
			s.Next()
			p.EmitText(tok.Leading()+tok.String(), tok.Pos())
		case actionGroup:
			s.Next()
			err = p.group(tok.(*ast.Group))
		case actionExpressionEntry:
			err = p.at(s)
		case actionTagEntry:
			var closing *closingTag
			closing, err = p.tagEntry(s)
			if err == nil && closing != nil {
				return closing, nil
			}
		case actionIdentifierExpression:
			var tokens []IToken
			tokens, err = p.IdentifierExpression(s)
			p.Emit(tokens...)
		case actionLiteral:
			s.Next()
			p.Emit(&Literal{Tok: tok.(*ast.Literal)})
		case actionPassthrough:
			err = p.passthrough(s)
		case actionStop:
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if p.brk {
			p.brk = false
			return nil, nil
		}
	}
}

// parseRegion parses the tokens of g in a new output buffer, in markup or
// expression mode, and returns the emitted tokens. It is an error if a
// closing tag has no opening tag in g.
func (p *Parser) parseRegion(g *ast.Group, markup bool) ([]IToken, error) {
	p.pushSink(g.Delimiter == ast.Brace || g.Delimiter == ast.NoDelimiter)
	p.pushMode(markup)
	closing, err := p.parse(groupStream(g))
	p.popMode()
	tokens := p.popSink()
	if err != nil {
		return nil, err
	}
	if closing != nil {
		return nil, syntaxError(closing.pos, "unexpected closing tag </%s>, no open element", closing.name)
	}
	return tokens, nil
}

// ParseBlock parses the tokens of the brace group g as a nested region and
// returns the emitted tokens. If markup is true the region starts in markup
// mode, otherwise it starts in expression mode where markup starts with a
// tag at the beginning of a statement.
func (p *Parser) ParseBlock(g *ast.Group, markup bool) ([]IToken, error) {
	return p.parseRegion(g, markup)
}

// group parses a group found in the current stream.
func (p *Parser) group(g *ast.Group) error {
	if p.Markup() {
		p.EmitText(g.Space+g.Delimiter.Open(), g.Position)
		p.pushMode(true)
		closing, err := p.parse(groupStream(g))
		p.popMode()
		if err != nil {
			return err
		}
		if closing != nil {
			return syntaxError(closing.pos, "unexpected closing tag </%s>, no open element", closing.name)
		}
		end := g.Position.WithEnd(g.End)
		p.EmitText(g.CloseSpace+g.Delimiter.Close(), end)
		return nil
	}
	tokens, err := p.parseRegion(g, false)
	if err != nil {
		return err
	}
	p.Emit(&Group{Tok: g, Delimiter: g.Delimiter, Tokens: tokens})
	return nil
}

// passthrough emits a punctuation character in expression mode. The
// sequence "|-> T { ... }" starts the body of a function literal that
// returns the markup written in the body.
func (p *Parser) passthrough(s *Stream) error {
	tok, _ := s.Next()
	punct := tok.(*ast.Punct)
	if dash, ok := s.Peek(); ok && punct.Char == '|' && dash.Leading() == "" && s.PeekPunct("->") {
		typ, ok1 := s.PeekNth(2)
		body, ok2 := s.PeekNth(3)
		if ok1 && ok2 && ast.IsIdentifier(typ, "") && ast.IsGroup(body, ast.Brace) {
			s.Skip(4)
			tokens, err := p.parseRegion(body.(*ast.Group), false)
			if err != nil {
				return err
			}
			p.Emit(&HtmlClosureBody{Type: typ.(*ast.Identifier), Body: body.(*ast.Group), Tokens: tokens})
			return nil
		}
	}
	p.Emit(&Punct{Tok: punct})
	return nil
}

// at parses the tokens after the expression entry marker '@'.
func (p *Parser) at(s *Stream) error {
	tok, _ := s.Next()
	if p.Markup() {
		if tok.Leading() == "" && endsWithWord(p.last()) {
			// An '@' in the middle of a word, as in an email address.
			p.EmitText("@", tok.Pos())
			return nil
		}
		p.EmitText(tok.Leading(), tok.Pos())
	}
	next, ok := s.Peek()
	if !ok || next.Leading() != "" {
		return syntaxError(tok.Pos(), "expected expression after '@'")
	}
	p.lastPos = next.Pos()
	switch n := next.(type) {
	case *ast.Punct:
		switch n.Char {
		case '@':
			s.Next()
			p.EmitText("@", n.Position)
			return nil
		case '&':
			tokens, err := p.IdentifierExpression(s)
			if err != nil {
				return err
			}
			p.Emit(&AppendToHtml{Tokens: tokens, Position: tok.Pos()})
			return nil
		}
	case *ast.Identifier:
		if d, ok := p.reg.Directive(n.Name); ok {
			s.Next()
			p.log.Debug("directive", slog.String("name", n.Name), slog.String("pos", n.Position.String()))
			res, err := d.Execute(p, n)
			if err != nil {
				return err
			}
			switch res {
			case OkContinue:
				return nil
			case OkBreak:
				p.brk = true
				return nil
			}
			tokens, err := p.identifierExpressionFrom(n, s)
			if err != nil {
				return err
			}
			p.Emit(&AppendToHtml{Tokens: tokens, Position: tok.Pos()})
			return nil
		}
		tokens, err := p.IdentifierExpression(s)
		if err != nil {
			return err
		}
		p.Emit(&AppendToHtml{Tokens: tokens, Position: tok.Pos()})
		return nil
	case *ast.Literal:
		s.Next()
		p.Emit(&AppendToHtml{Tokens: []IToken{&Literal{Tok: n}}, Position: tok.Pos()})
		return nil
	case *ast.Group:
		switch n.Delimiter {
		case ast.Parenthesis:
			s.Next()
			tokens, err := p.parseRegion(n, false)
			if err != nil {
				return err
			}
			if len(tokens) == 0 {
				return syntaxError(n.Position, "empty expression after '@'")
			}
			p.Emit(&AppendToHtml{Tokens: tokens, Position: tok.Pos()})
			return nil
		case ast.Brace:
			s.Next()
			tokens, err := p.parseRegion(n, false)
			if err != nil {
				return err
			}
			p.Emit(tokens...)
			if len(tokens) > 0 {
				// Terminate the code block, so markup can follow.
				p.Emit(&Punct{Tok: ast.NewPunct(n.Position.WithEnd(n.End), ';')})
			}
			return nil
		}
	}
	return unexpected(next, "after '@'")
}

// endsWithWord reports whether tok is a text node that ends with a letter
// or a digit.
func endsWithWord(tok IToken) bool {
	text, ok := tok.(*HtmlTextNode)
	if !ok || text.Text == "" {
		return false
	}
	c := text.Text[len(text.Text)-1]
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

// rawTokens returns tokens as intermediate tokens, with no markup parsing.
// The path separator "::" followed by an identifier is replaced with '.'.
func rawTokens(tokens []ast.Token) []IToken {
	var its []IToken
	for i := 0; i < len(tokens); i++ {
		switch t := tokens[i].(type) {
		case *ast.Identifier:
			its = append(its, &Identifier{Tok: t})
		case *ast.Literal:
			its = append(its, &Literal{Tok: t})
		case *ast.Punct:
			if t.Char == ':' && i+2 < len(tokens) && ast.IsPunct(tokens[i+1], ':') && tokens[i+1].Leading() == "" &&
				ast.IsIdentifier(tokens[i+2], "") && tokens[i+2].Leading() == "" {
				its = append(its, &Punct{Tok: &ast.Punct{Position: t.Position, Space: t.Space, Char: '.'}})
				i++
				continue
			}
			its = append(its, &Punct{Tok: t})
		case *ast.Group:
			its = append(its, &Group{Tok: t, Delimiter: t.Delimiter, Tokens: rawTokens(t.Tokens)})
		}
	}
	return its
}

// tokensUntilBrace consumes and returns the tokens of s up to the next brace
// group, which is consumed and returned too. what describes the construct
// for error messages.
func (p *Parser) tokensUntilBrace(s *Stream, pos *ast.Position, what string) ([]ast.Token, *ast.Group, error) {
	var tokens []ast.Token
	for {
		if err := p.checkCancelled(); err != nil {
			return nil, nil, err
		}
		tok, ok := s.Next()
		if !ok {
			return nil, nil, syntaxError(pos, "expected { after %s", what)
		}
		p.lastPos = tok.Pos()
		if g, ok := tok.(*ast.Group); ok && g.Delimiter == ast.Brace {
			return tokens, g, nil
		}
		tokens = append(tokens, tok)
	}
}

// hasNewLine reports whether s contains a new line.
func hasNewLine(s string) bool {
	return strings.ContainsAny(s, "\n\r")
}
