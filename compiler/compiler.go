// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler implements the compilation of RustHtml templates into Go
// source code.
//
// A template is markup with embedded Go expressions, introduced by '@':
//
//	@model []Product
//	<ul>
//	@for p in model {
//		<li class=@p.Class>@p.Name</li>
//	}
//	</ul>
//
// The compilation has three phases. The source is split into token trees
// by Lex, the token trees are parsed into intermediate tokens by a Parser
// and the intermediate tokens are lowered by Lower into Go tokens that write
// the markup and the values of the expressions to an output buffer.
// Generate assembles the Go file of a view.
package compiler

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/open2b/rusthtml/ast"
)

// Options represents a set of options used during the compilation.
type Options struct {

	// Environment is the name of the environment, as "Development" or
	// "Production", matched by the environment element.
	Environment string

	// Registry holds the directives and the hooks. If nil, the registry
	// returned by DefaultRegistry is used.
	Registry *Registry

	// FS is the file system of the templates and of the external contents.
	FS fs.FS

	// Markdown renders the Markdown directives. If nil, a renderer of GitHub
	// Flavored Markdown is used.
	Markdown MarkdownRenderer

	// Cache, if not nil, stores the external contents read by the cached
	// variants of the directives.
	Cache Cache

	// Logger, if not nil, receives debug records of the compilation.
	Logger *slog.Logger

	// BufferName is the name of the output buffer in the generated code.
	// If empty, it is "html".
	BufferName string

	// Package is the package name of the generated files. If empty, it is
	// "views".
	Package string

	// DisableCoalescing disables the merge of consecutive literal writes.
	DisableCoalescing bool

	// FixImports adds missing imports to the generated files and removes
	// unused ones.
	FixImports bool
}

// The default registry is built on first use, as the built-in directives
// refer to Options.registry.
var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

func (opts *Options) registry() *Registry {
	if opts.Registry == nil {
		defaultRegistryOnce.Do(func() { defaultRegistry = DefaultRegistry() })
		return defaultRegistry
	}
	return opts.Registry
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (opts *Options) logger() *slog.Logger {
	if opts.Logger == nil {
		return discardLogger
	}
	return opts.Logger
}

func (opts *Options) bufferName() string {
	if opts.BufferName == "" {
		return "html"
	}
	return opts.BufferName
}

func (opts *Options) packageName() string {
	if opts.Package == "" {
		return "views"
	}
	return opts.Package
}

// Template is a parsed template.
type Template struct {
	Path       string                 // path of the template file
	Name       string                 // name declared with the name directive
	Model      []ast.Token            // model type, nil if not declared
	Imports    []Import               // imports declared with use
	Injects    [][]ast.Token          // inject statements
	Sections   map[string][]ast.Token // functions, struct and impl sections
	Parameters map[string]string      // viewstart, lang and other parameters
	Tokens     []IToken               // body
}

// ParseTemplateSource parses the template source src with path path.
func ParseTemplateSource(ctx context.Context, path string, src []byte, opts *Options) (*Template, error) {
	if opts == nil {
		opts = &Options{}
	}
	u := newUnit()
	tokens, err := parseSource(ctx, path, src, u, opts)
	if err != nil {
		return nil, err
	}
	return &Template{
		Path:       path,
		Name:       u.name,
		Model:      u.model,
		Imports:    u.imports,
		Injects:    u.injects,
		Sections:   u.sections,
		Parameters: u.params,
		Tokens:     tokens,
	}, nil
}

// ParseTemplate reads the template at path from the file system of the
// options and parses it.
//
// If path is not valid, it returns ErrInvalidPath. If the file does not
// exist, it returns ErrNotExist.
func ParseTemplate(ctx context.Context, path string, opts *Options) (*Template, error) {
	if opts == nil || opts.FS == nil {
		return nil, errors.New("rusthtml: no file system")
	}
	if !fs.ValidPath(path) {
		return nil, ErrInvalidPath
	}
	src, err := fs.ReadFile(opts.FS, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return ParseTemplateSource(ctx, path, src, opts)
}

// CompileTemplateSource compiles the template source src with path path and
// returns the generated Go file.
func CompileTemplateSource(ctx context.Context, path string, src []byte, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &Options{}
	}
	t, err := ParseTemplateSource(ctx, path, src, opts)
	if err != nil {
		return nil, err
	}
	return Generate(t, opts)
}

// CompileTemplate compiles the template at path, read from the file system
// of the options, and returns the generated Go file.
func CompileTemplate(ctx context.Context, path string, opts *Options) ([]byte, error) {
	t, err := ParseTemplate(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return Generate(t, opts)
}

// parseSource parses the source src of the file with path path, declaring
// in u, and returns its intermediate tokens.
func parseSource(ctx context.Context, path string, src []byte, u *unit, opts *Options) ([]IToken, error) {
	tokens, trailing, err := Lex(src)
	if err != nil {
		return nil, withPath(err, path)
	}
	p := newParser(ctx, path, u, opts)
	s := NewStream(tokens)
	closing, err := p.parse(s)
	if err != nil {
		return nil, withPath(err, path)
	}
	if closing != nil {
		err := syntaxError(closing.pos, "unexpected closing tag </%s>, no open element", closing.name)
		return nil, withPath(err, path)
	}
	p.EmitText(trailing, s.endPos())
	return p.sinks[0].tokens, nil
}
