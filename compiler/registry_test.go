// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/open2b/rusthtml/ast"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	names := r.Directives()
	if len(names) != len(builtinDirectives()) {
		t.Fatalf("unexpected %d directives, expecting %d", len(names), len(builtinDirectives()))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("directives are not sorted: %v", names)
		}
	}
	for _, name := range []string{"for", "if", "section", "rusthtmlfile", "markdownfile_nocache"} {
		if _, ok := r.Directive(name); !ok {
			t.Errorf("missing directive %s", name)
		}
	}
	if err := r.AddDirective(NewDirective("for", forDirective)); err == nil {
		t.Error("expected error adding an existing directive, got nothing")
	}
	if err := r.AddDirective(NewDirective("", forDirective)); err == nil {
		t.Error("expected error adding a directive with no name, got nothing")
	}
	if !r.IsVoid("BR") || r.IsVoid("div") {
		t.Error("unexpected void tags")
	}
	if !r.IsRawText("script") || r.IsRawText("p") {
		t.Error("unexpected raw text tags")
	}
}

func TestOptionsDefaultRegistry(t *testing.T) {
	opts := &Options{}
	r := opts.registry()
	if r == nil {
		t.Fatal("unexpected nil default registry")
	}
	if r != (*Options).registry(&Options{}) {
		t.Fatal("expected the same default registry for every options")
	}
	if _, ok := r.Directive("rusthtmlfile"); !ok {
		t.Fatal("missing directive rusthtmlfile in the default registry")
	}
	custom := NewRegistry()
	if got := (&Options{Registry: custom}).registry(); got != custom {
		t.Fatal("expected the registry of the options")
	}
}

// lazyImages adds the loading attribute to the img tags.
type lazyImages struct{}

func (lazyImages) Matches(name string) bool { return name == "img" }

func (lazyImages) OnTagParsed(tc *TagContext) ([]IToken, bool, error) {
	lazy := "lazy"
	tokens := append([]IToken{}, tc.Tokens...)
	tokens = append(tokens,
		&HtmlTagAttributeName{Name: "loading"},
		&HtmlTagAttributeEquals{},
		&HtmlTagAttributeValue{String: &lazy},
		tc.Close)
	return tokens, true, nil
}

// dropNode removes the elements with the given name.
type dropNode string

func (d dropNode) Matches(name string) bool { return name == string(d) }

func (dropNode) OnNodeParsed(*NodeContext) ([]IToken, bool, error) {
	return nil, true, nil
}

func TestRegistryExtensions(t *testing.T) {
	year := NewDirective("year", func(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
		p.EmitText("2026", id.Position)
		return OkContinue, nil
	})
	stop := NewDirective("stop", func(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
		return OkBreak, nil
	})
	r := DefaultRegistry()
	for _, d := range []Directive{year, stop} {
		if err := r.AddDirective(d); err != nil {
			t.Fatal(err)
		}
	}
	r.AddTagHook(lazyImages{})
	r.AddNodeHook(dropNode("debug"))

	tests := []struct {
		src      string
		expected string
	}{
		{`Copyright @year`, `html.WriteLiteral("Copyright 2026")`},
		{`a @stop b`, `html.WriteLiteral("a ")`},
		{`<img src="a.png">`, `html.WriteLiteral("<img src=\"a.png\" loading=\"lazy\">")`},
		{`<p>a<debug>@x</debug>b</p>`, `html.WriteLiteral("<p>ab</p>")`},
	}
	for _, test := range tests {
		got, err := renderBody("index.rhtml", test.src, &Options{Registry: r})
		if err != nil {
			t.Errorf("source: %q, %s\n", test.src, err)
			continue
		}
		if got != test.expected {
			t.Errorf("source: %q, unexpected %q, expecting %q\n", test.src, got, test.expected)
		}
	}
}

// passNode matches every element and never handles it.
type passNode struct{}

func (passNode) Matches(string) bool { return true }

func (passNode) OnNodeParsed(*NodeContext) ([]IToken, bool, error) {
	return nil, false, nil
}

func TestRegistryHookConflicts(t *testing.T) {
	tagHooks := DefaultRegistry()
	tagHooks.AddTagHook(lazyImages{})
	tagHooks.AddTagHook(lazyImages{})
	nodeHooks := DefaultRegistry()
	nodeHooks.AddNodeHook(dropNode("environment"))
	tests := []struct {
		registry *Registry
		src      string
		column   int
		msg      string
	}{
		{tagHooks, `<p><img src="a.png"></p>`, 4, "tag <img> matched by more than one tag hook"},
		{nodeHooks, `<environment include="Development">x</environment>`, 1, "element <environment> matched by more than one node hook"},
	}
	for _, test := range tests {
		_, err := ParseTemplateSource(context.Background(), "index.rhtml", []byte(test.src), &Options{Registry: test.registry})
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("source: %q, unexpected error %v, expecting a syntax error\n", test.src, err)
			continue
		}
		if se.Message() != test.msg || se.Position().Column != test.column {
			t.Errorf("source: %q, unexpected error %q at column %d, expecting %q at column %d\n",
				test.src, se.Message(), se.Position().Column, test.msg, test.column)
		}
	}

	// A hook that does not handle the element leaves it unchanged.
	r := NewRegistry()
	r.AddNodeHook(passNode{})
	got, err := renderBody("index.rhtml", `<p>a</p>`, &Options{Registry: r})
	if err != nil {
		t.Fatal(err)
	}
	if expected := `html.WriteLiteral("<p>a</p>")`; got != expected {
		t.Fatalf("unexpected %q, expecting %q", got, expected)
	}
}

func TestRegistryTags(t *testing.T) {
	r := NewRegistry()
	r.SetVoidTags([]string{"Custom"})
	r.SetRawTextTags([]string{"code"})
	if got := r.VoidTags(); len(got) != 1 || got[0] != "custom" {
		t.Fatalf("unexpected void tags %v, expecting [custom]", got)
	}
	tests := []struct {
		src      string
		expected string
	}{
		{`<custom>x`, `html.WriteLiteral("<custom>x")`},
		{`<br></br>`, `html.WriteLiteral("<br></br>")`},
		{`<code><b>@x</b></code>`, `html.WriteLiteral("<code><b>")
html.WriteValue(x)
html.WriteLiteral("</b></code>")`},
	}
	for _, test := range tests {
		got, err := renderBody("index.rhtml", test.src, &Options{Registry: r})
		if err != nil {
			t.Errorf("source: %q, %s\n", test.src, err)
			continue
		}
		if got != test.expected {
			t.Errorf("source: %q, unexpected %q, expecting %q\n", test.src, got, test.expected)
		}
	}
}
