// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rusthtml

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/open2b/rusthtml/compiler"
	"github.com/open2b/rusthtml/internal/fstest"

	"github.com/google/go-cmp/cmp"
)

var siteFiles = fstest.Files{
	"index.rhtml":         "@rusthtmlfile \"_header.rhtml\"\n<p>@title</p>\n",
	"_header.rhtml":       "<header>@htmlfile \"logo.svg\"</header>\n",
	"logo.svg":            "<svg></svg>",
	"pages/about.rhtml":   "@name \"about us\"\n<h1>About</h1>\n",
	"pages/_draft.rhtml":  "<p>draft</p>",
	".cache/x.rhtml":      "<p>x</p>",
	"_layouts/main.rhtml": "@renderbody()",
	"notes.txt":           "not a template",
}

func TestTemplates(t *testing.T) {
	c := New(siteFiles, nil, nil, nil)
	paths, err := c.Templates()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"index.rhtml", "pages/about.rhtml"}, paths); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileAll(t *testing.T) {
	cache := &compiler.MemoryCache{}
	c := New(siteFiles, nil, nil, cache)
	files, err := c.CompileAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"index.rhtml.go", "pages/about.rhtml.go"}, paths); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if src := string(files[0].Source); !strings.Contains(src, `html.WriteLiteral("<header><svg></svg></header>\n\n<p>")`) {
		t.Errorf("unexpected source of index.rhtml:\n%s", src)
	}
	if src := string(files[1].Source); !strings.Contains(src, "type AboutUsView struct") {
		t.Errorf("unexpected source of pages/about.rhtml:\n%s", src)
	}
	if cache.Len() != 2 {
		t.Errorf("unexpected %d cached fragments, expecting 2", cache.Len())
	}
	name, err := c.ViewTypeName(context.Background(), "pages/about.rhtml")
	if err != nil {
		t.Fatal(err)
	}
	if name != "AboutUsView" {
		t.Errorf("unexpected view type name %q, expecting \"AboutUsView\"", name)
	}
}

func TestCompileAllErrors(t *testing.T) {
	files := fstest.Files{
		"b.rhtml": "<p>",
		"a.rhtml": "@",
		"c.rhtml": "<p>ok</p>",
	}
	c := New(files, nil, nil, nil)
	_, err := c.CompileAll(context.Background())
	if err == nil {
		t.Fatal("expected error, got nothing")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a.rhtml:") || !strings.HasPrefix(lines[1], "b.rhtml:") {
		t.Fatalf("unexpected error %q, expecting the errors of a.rhtml and b.rhtml", err)
	}
	var e CompilerError
	if !errors.As(err, &e) || e.Path() != "a.rhtml" {
		t.Fatalf("unexpected error %#v, expecting a CompilerError of a.rhtml", err)
	}
}

func TestCompileAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(siteFiles, nil, nil, nil)
	_, err := c.CompileAll(ctx)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("unexpected error %v, expecting ErrCancelled", err)
	}
}

func TestCompile(t *testing.T) {
	config := DefaultConfig()
	config.Package = "site"
	config.Environment = "Development"
	c := New(siteFiles, config, nil, nil)
	src, err := c.CompileSource(context.Background(), "pages/contact.rhtml",
		[]byte(`<environment include="Development"><p>dev</p></environment>`))
	if err != nil {
		t.Fatal(err)
	}
	if s := string(src); !strings.Contains(s, "package site") || !strings.Contains(s, `html.WriteLiteral("<p>dev</p>")`) {
		t.Fatalf("unexpected source:\n%s", s)
	}
	if _, err := c.Compile(context.Background(), "missing.rhtml"); err != ErrNotExist {
		t.Fatalf("unexpected error %v, expecting ErrNotExist", err)
	}
	if _, err := c.Compile(context.Background(), "/index.rhtml"); err != ErrInvalidPath {
		t.Fatalf("unexpected error %v, expecting ErrInvalidPath", err)
	}
}
