// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"log/slog"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// pathArgument returns the path argument of a directive that includes an
// external content: a string literal, or a sequence of adjacent tokens as
// in "@htmlfile partials/footer.html".
func (p *Parser) pathArgument(id *ast.Identifier) (string, *ast.Position, error) {
	s := p.stream
	tok, err := p.argument(id, "path")
	if err != nil {
		return "", nil, err
	}
	if lit, ok := tok.(*ast.Literal); ok && lit.IsString() {
		s.Next()
		name, err := lit.Value()
		if err != nil {
			return "", nil, syntaxError(lit.Position, "invalid path %s", lit.Raw)
		}
		return name, lit.Position, nil
	}
	var tokens []ast.Token
	for {
		tok, ok := s.Peek()
		if !ok || len(tokens) > 0 && tok.Leading() != "" {
			break
		}
		if _, ok := tok.(*ast.Group); ok || ast.IsPunct(tok, '<') || ast.IsPunct(tok, '@') {
			break
		}
		s.Next()
		tokens = append(tokens, tok)
	}
	if len(tokens) == 0 {
		return "", nil, unexpected(tok, "after "+id.Name+", expecting path")
	}
	return ast.Source(tokens), tokens[0].Pos(), nil
}

// content returns the fragment of the content of the given kind, read from
// name and converted by convert. If cached is true and the options have a
// cache, the fragment is read from the cache and stored in it.
func (p *Parser) content(kind, name string, pos *ast.Position, cached bool, convert func(data []byte, file string) (*Fragment, error)) (*Fragment, error) {
	var key string
	if c := p.opts.Cache; cached && c != nil && ValidPath(name) {
		if resolved, _, err := resolvePath(p.path, name); err == nil {
			key = cacheKey(kind, resolved)
			if f, ok := c.Get(key); ok {
				p.log.Debug("cache hit", slog.String("key", key))
				return f, nil
			}
			p.log.Debug("cache miss", slog.String("key", key))
		}
	}
	data, file, err := p.readContent(name, pos)
	if err != nil {
		return nil, err
	}
	f, err := convert(data, file)
	if err != nil {
		return nil, err
	}
	if key != "" {
		p.opts.Cache.Put(key, f)
	}
	return f, nil
}

// textFragment returns a fragment with the text text.
func textFragment(text string, pos *ast.Position) *Fragment {
	return &Fragment{Tokens: []IToken{&HtmlTextNode{Text: text, Span: pos}}}
}

// htmlFileDirective writes the content of a file as is. The file is read
// at parsing, and cached if cached is true, or read by Lower.
//
//	@htmlfile "partials/footer.html"
func htmlFileDirective(cached bool) DirectiveFunc {
	return func(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
		name, pos, err := p.pathArgument(id)
		if err != nil {
			return 0, err
		}
		if !cached {
			if err := p.checkPath(name, pos); err != nil {
				return 0, err
			}
			p.Emit(&ExternalHtml{Path: name, From: p.path, Position: pos})
			return OkContinue, nil
		}
		f, err := p.content(htmlContent, name, pos, true, func(data []byte, _ string) (*Fragment, error) {
			return textFragment(string(data), pos), nil
		})
		if err != nil {
			return 0, err
		}
		p.Emit(f.Tokens...)
		return OkContinue, nil
	}
}

// markdownFileDirective writes the content of a Markdown file rendered as
// HTML.
//
//	@markdownfile "docs/intro.md"
func markdownFileDirective(cached bool) DirectiveFunc {
	return func(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
		name, pos, err := p.pathArgument(id)
		if err != nil {
			return 0, err
		}
		if !cached {
			if err := p.checkPath(name, pos); err != nil {
				return 0, err
			}
			p.Emit(&ExternalHtml{Path: name, From: p.path, Markdown: true, Position: pos})
			return OkContinue, nil
		}
		f, err := p.content(markdownContent, name, pos, true, func(data []byte, _ string) (*Fragment, error) {
			html, err := p.opts.renderMarkdown(data, pos)
			if err != nil {
				return nil, err
			}
			return textFragment(html, pos), nil
		})
		if err != nil {
			return 0, err
		}
		p.Emit(f.Tokens...)
		return OkContinue, nil
	}
}

// markdownDirective writes Markdown, given as a string or in braces,
// rendered as HTML.
//
//	@markdown `# Title`
//	@markdown {
//		# Title
//	}
func markdownDirective(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	tok, err := p.argument(id, "string or {")
	if err != nil {
		return 0, err
	}
	var src string
	switch t := tok.(type) {
	case *ast.Literal:
		if !t.IsString() {
			return 0, unexpected(tok, "after markdown, expecting string or {")
		}
		src, err = t.Value()
		if err != nil {
			return 0, syntaxError(t.Position, "invalid string %s", t.Raw)
		}
	case *ast.Group:
		if t.Delimiter != ast.Brace {
			return 0, unexpected(tok, "after markdown, expecting string or {")
		}
		src = dedent(ast.SourceWithSpace(t.Tokens) + t.CloseSpace)
	default:
		return 0, unexpected(tok, "after markdown, expecting string or {")
	}
	p.stream.Next()
	html, err := p.opts.renderMarkdown([]byte(src), tok.Pos())
	if err != nil {
		return 0, err
	}
	p.EmitText(html, tok.Pos())
	return OkContinue, nil
}

// dedent removes from the lines of s the white space they all start with.
// Lines with only white space are ignored.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// templateFileDirective parses a template file and writes its markup in
// place of the directive. The imports and the inject statements of the
// included template are added to those of the including template.
//
//	@rusthtmlfile "partials/nav.rhtml"
func templateFileDirective(cached bool) DirectiveFunc {
	return func(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
		name, pos, err := p.pathArgument(id)
		if err != nil {
			return 0, err
		}
		f, err := p.content(templateContent, name, pos, cached, func(data []byte, file string) (*Fragment, error) {
			return p.include(file, data, pos)
		})
		if err != nil {
			return 0, err
		}
		for _, imp := range f.Imports {
			p.unit.addImport(imp)
		}
		for _, stmt := range f.Injects {
			p.unit.addInject(stmt)
		}
		p.Emit(f.Tokens...)
		return OkContinue, nil
	}
}

// include parses the template file with source src, included at position
// pos.
func (p *Parser) include(file string, src []byte, pos *ast.Position) (*Fragment, error) {
	chain := append(append([]string{}, p.unit.includePath...), p.path)
	for i, path := range chain {
		if path == file {
			cycle := strings.Join(append(chain[i:], file), "\n\tincludes ")
			return nil, syntaxError(pos, "%s", cycleError(cycle))
		}
	}
	u := newUnit()
	u.included = true
	u.includePath = chain
	p.log.Debug("include", slog.String("file", file))
	tokens, err := parseSource(p.ctx, file, src, u, p.opts)
	if err != nil {
		return nil, err
	}
	return &Fragment{Tokens: tokens, Imports: u.imports, Injects: u.injects}, nil
}

// checkPath checks the path of an external content read by Lower.
func (p *Parser) checkPath(name string, pos *ast.Position) error {
	if !ValidPath(name) {
		return syntaxError(pos, "invalid path %q", name)
	}
	if _, _, err := resolvePath(p.path, name); err != nil {
		return syntaxError(pos, "invalid path %q: outside the root", name)
	}
	return nil
}
