// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rusthtml

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/open2b/rusthtml/ast"
	"github.com/open2b/rusthtml/compiler"

	"golang.org/x/sync/errgroup"
)

// CompilerError represents an error returned by the compiler.
type CompilerError interface {
	error
	Position() ast.Position
	Path() string
	Message() string
}

var (
	// ErrInvalidPath is returned when a template path is not valid.
	ErrInvalidPath = compiler.ErrInvalidPath

	// ErrNotExist is returned when a template does not exist.
	ErrNotExist = compiler.ErrNotExist

	// ErrCancelled is wrapped by the errors returned when a compilation is
	// cancelled.
	ErrCancelled = compiler.ErrCancelled
)

// Compiler compiles the templates of a file system into Go files. A
// Compiler is safe for concurrent use.
type Compiler struct {
	fsys   fs.FS
	config *Config
	log    *slog.Logger
	opts   compiler.Options
}

// New returns a compiler for the templates in fsys. If config is nil, the
// default configuration is used. If logger is nil, nothing is logged. If
// cache is nil, the external contents are cached in memory for the life of
// the compiler.
func New(fsys fs.FS, config *Config, logger *slog.Logger, cache compiler.Cache) *Compiler {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	if cache == nil {
		cache = &compiler.MemoryCache{}
	}
	return &Compiler{
		fsys:   fsys,
		config: config,
		log:    logger,
		opts: compiler.Options{
			Environment:       config.Environment,
			Registry:          config.Registry(),
			FS:                fsys,
			Cache:             cache,
			Logger:            logger,
			BufferName:        config.Buffer,
			Package:           config.Package,
			DisableCoalescing: !config.Coalesce,
			FixImports:        config.FixImports,
		},
	}
}

// Config returns the configuration of the compiler.
func (c *Compiler) Config() *Config {
	return c.config
}

// Compile compiles the template at path and returns the Go file.
func (c *Compiler) Compile(ctx context.Context, path string) ([]byte, error) {
	opts := c.opts
	return compiler.CompileTemplate(ctx, path, &opts)
}

// CompileSource compiles the template source src, with path path, and
// returns the Go file. External contents are read from the file system of
// the compiler relative to path.
func (c *Compiler) CompileSource(ctx context.Context, path string, src []byte) ([]byte, error) {
	opts := c.opts
	return compiler.CompileTemplateSource(ctx, path, src, &opts)
}

// Parse parses the template at path.
func (c *Compiler) Parse(ctx context.Context, path string) (*compiler.Template, error) {
	opts := c.opts
	return compiler.ParseTemplate(ctx, path, &opts)
}

// File is a Go file generated from a template.
type File struct {
	Template string // path of the template
	Path     string // path of the Go file
	Source   []byte // Go source
}

// OutputPath returns the path of the Go file generated from the template
// at path: the path followed by ".go", as "index.rhtml.go".
func OutputPath(path string) string {
	return path + ".go"
}

// Templates returns the paths of the templates in the file system, sorted.
// Templates are the files with the extension of the configuration. Files
// and directories whose names start with '.' or '_' are skipped, so a
// partial template included by others can be named as "_nav.rhtml".
func (c *Compiler) Templates() ([]string, error) {
	var paths []string
	err := fs.WalkDir(c.fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if name != "." && (base[0] == '.' || base[0] == '_') {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(base, c.config.Extension) {
			paths = append(paths, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// CompileAll compiles all the templates of the file system, as returned by
// Templates, on as many goroutines as the CPUs. It returns the generated
// files sorted by path, or the errors of the templates that could not be
// compiled.
func (c *Compiler) CompileAll(ctx context.Context) ([]*File, error) {
	paths, err := c.Templates()
	if err != nil {
		return nil, err
	}
	files := make([]*File, len(paths))
	var mu sync.Mutex
	var errs []error
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range paths {
		i, name := i, name
		g.Go(func() error {
			src, err := c.Compile(ctx, name)
			if err != nil {
				if errors.Is(err, ErrCancelled) {
					return err
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			c.log.Debug("compiled", slog.String("template", name), slog.Int("bytes", len(src)))
			files[i] = &File{Template: name, Path: OutputPath(name), Source: src}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if errs != nil {
		sort.Slice(errs, func(i, j int) bool { return errorPath(errs[i]) < errorPath(errs[j]) })
		return nil, errors.Join(errs...)
	}
	return files, nil
}

// errorPath returns the path of the template of an error.
func errorPath(err error) string {
	var e CompilerError
	if errors.As(err, &e) {
		return e.Path()
	}
	return ""
}

// ViewTypeName returns the name of the type of the view generated from the
// template at path.
func (c *Compiler) ViewTypeName(ctx context.Context, path string) (string, error) {
	t, err := c.Parse(ctx, path)
	if err != nil {
		return "", err
	}
	return compiler.ViewTypeName(t), nil
}

// discardHandler is a slog.Handler that discards the records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
