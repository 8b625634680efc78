// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/open2b/rusthtml/ast"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownRenderer renders Markdown source as HTML.
type MarkdownRenderer interface {
	Render(src []byte) ([]byte, error)
}

// goldmarkOptions are the options of the default Markdown renderer. Raw
// HTML in the source is kept, as it is in the templates.
var goldmarkOptions = []goldmark.Option{
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
}

// NewMarkdownRenderer returns the default Markdown renderer, which renders
// GitHub Flavored Markdown.
func NewMarkdownRenderer() MarkdownRenderer {
	return &goldmarkRenderer{md: goldmark.New(goldmarkOptions...)}
}

type goldmarkRenderer struct {
	md goldmark.Markdown
}

func (r *goldmarkRenderer) Render(src []byte) ([]byte, error) {
	var b bytes.Buffer
	if err := r.md.Convert(src, &b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// ValidPath reports whether name is a valid path for a template or for an
// external content. A path is slash-separated; a leading slash means the
// root of the file system, otherwise the path is relative to the directory
// of the template.
func ValidPath(name string) bool {
	return utf8.ValidString(name) &&
		name != "" && name != ".." &&
		name[len(name)-1] != '/' &&
		!strings.Contains(name, "//") &&
		!strings.HasSuffix(name, "/..")
}

// resolvePath resolves name relative to the directory of the file path.
// It returns the resolved path and the fallback path, relative to the parent
// of that directory. If there is no fallback, fallback is equal to resolved.
func resolvePath(file, name string) (resolved, fallback string, err error) {
	if strings.HasPrefix(name, "/") {
		resolved = path.Clean(name)[1:]
		return resolved, resolved, nil
	}
	dir := path.Dir(file)
	resolved = path.Join(dir, name)
	if outsideRoot(resolved) {
		return "", "", ErrInvalidPath
	}
	fallback = path.Join(path.Dir(dir), name)
	if outsideRoot(fallback) {
		fallback = resolved
	}
	return resolved, fallback, nil
}

func outsideRoot(name string) bool {
	return name == ".." || strings.HasPrefix(name, "../")
}

// readContent reads the external content name, included by the file at
// path file at position pos. If the content cannot be read, it is read
// from the fallback path. It returns the path of the content read.
func (p *Parser) readContent(name string, pos *ast.Position) ([]byte, string, error) {
	return readContent(p.opts.FS, p.log, p.path, name, pos)
}

func readContent(fsys fs.FS, log *slog.Logger, file, name string, pos *ast.Position) ([]byte, string, error) {
	if !ValidPath(name) {
		return nil, "", syntaxError(pos, "invalid path %q", name)
	}
	resolved, fallback, err := resolvePath(file, name)
	if err != nil {
		return nil, "", syntaxError(pos, "invalid path %q: outside the root", name)
	}
	if fsys == nil {
		return nil, "", &ContentError{pos: *pos, file: resolved, fallback: fallback, err: errors.New("no file system")}
	}
	data, err := fs.ReadFile(fsys, resolved)
	if err == nil {
		return data, resolved, nil
	}
	if fallback == resolved {
		return nil, "", &ContentError{pos: *pos, file: resolved, fallback: fallback, err: err}
	}
	log.Debug("content fallback", slog.String("file", resolved), slog.String("fallback", fallback), slog.Any("error", err))
	data, err2 := fs.ReadFile(fsys, fallback)
	if err2 != nil {
		return nil, "", &ContentError{pos: *pos, file: resolved, fallback: fallback, err: errors.Join(err, err2)}
	}
	return data, fallback, nil
}

// renderMarkdown renders src with the Markdown renderer of the options.
func (opts *Options) renderMarkdown(src []byte, pos *ast.Position) (string, error) {
	md := opts.Markdown
	if md == nil {
		md = defaultMarkdown
	}
	out, err := md.Render(src)
	if err != nil {
		return "", syntaxError(pos, "cannot render markdown: %s", err)
	}
	return string(out), nil
}

var defaultMarkdown = NewMarkdownRenderer()
