// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"errors"
	"fmt"
	"go/format"
	"strings"
	"testing"

	"github.com/open2b/rusthtml/ast"
	"github.com/open2b/rusthtml/internal/fstest"

	"github.com/google/go-cmp/cmp"
)

// renderBody parses, lowers and coalesces the template src and returns the
// statements of the generated body formatted by gofmt, one per line, with
// no indentation of the first level and no empty lines.
func renderBody(path, src string, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}
	t, err := ParseTemplateSource(context.Background(), path, []byte(src), opts)
	if err != nil {
		return "", err
	}
	body, err := Lower(t.Tokens, opts)
	if err != nil {
		return "", err
	}
	body = Coalesce(body, opts.bufferName())
	code := "package p\n\nfunc f() {\n" + ast.Format(body) + "\n}\n"
	out, err := format.Source([]byte(code))
	if err != nil {
		return "", fmt.Errorf("cannot format %q: %s", code, err)
	}
	s := string(out)
	s = s[strings.Index(s, "{\n")+2 : strings.LastIndex(s, "}")]
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimPrefix(line, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

var renderTests = []struct {
	src      string
	expected string
}{
	{``, ``},
	{`Hello`, `html.WriteLiteral("Hello")`},
	{`<p>Hello</p>`, `html.WriteLiteral("<p>Hello</p>")`},
	{`<input type="text" disabled>`, `html.WriteLiteral("<input type=\"text\" disabled>")`},
	{`<br/>`, `html.WriteLiteral("<br/>")`},
	{`<br />`, `html.WriteLiteral("<br />")`},
	{`<div/>`, `html.WriteLiteral("<div/>")`},
	{`<a title='say "hi"' alt="it's">x</a>`, `html.WriteLiteral("<a title='say \"hi\"' alt=\"it's\">x</a>")`},
	{`<DIV>x</div>`, `html.WriteLiteral("<DIV>x</div>")`},
	{`<a class=@home_class href="/">x</a>`, `html.WriteLiteral("<a class=\"")
html.WriteValue(home_class)
html.WriteLiteral("\" href=\"/\">x</a>")`},
	{`<td colspan=2 data-x=foo-bar title='a b' id=@(item.ID)>x</td>`, `html.WriteLiteral("<td colspan=\"2\" data-x=\"foo-bar\" title='a b' id=\"")
html.WriteValue(item.ID)
html.WriteLiteral("\">x</td>")`},
	{`Mail me@example.com, @user.Name!`, `html.WriteLiteral("Mail me@example.com, ")
html.WriteValue(user.Name)
html.WriteLiteral("!")`},
	{`@@home`, `html.WriteLiteral("@home")`},
	{`@(items[0])`, `html.WriteValue(items[0])`},
	{`@model.Title`, `html.WriteValue(model.Title)`},
	{`<p>@model</p>`, `html.WriteLiteral("<p>")
html.WriteValue(model)
html.WriteLiteral("</p>")`},
	{"@model Vec<Product>\n<p>@model</p>", `html.WriteLiteral("<p>")
html.WriteValue(model)
html.WriteLiteral("</p>")`},
	{`Really @user?`, `html.WriteLiteral("Really ")
html.WriteValue(user)
html.WriteLiteral("?")`},
	{`<!-- @name -->`, `html.WriteLiteral("<!-- @name -->")`},
	{`<script>if (a < b) { x(); } var s = @title;</script>`, `html.WriteLiteral("<script>if (a < b) { x(); } var s = ")
html.WriteValue(title)
html.WriteLiteral(";</script>")`},
	{"<ul>\n@for p in items {\n\t<li>@p.Name</li>\n}\n</ul>", `html.WriteLiteral("<ul>\n")
for _, p := range items {
	html.WriteLiteral("<li>")
	html.WriteValue(p.Name)
	html.WriteLiteral("</li>")
}
html.WriteLiteral("\n</ul>")`},
	{`@for i in 0..3 { <b>@i</b> }`, `for i := 0; i < 3; i++ {
	html.WriteLiteral("<b>")
	html.WriteValue(i)
	html.WriteLiteral("</b>")
}`},
	{`@for i in 0..=3 { <b>@i</b> }`, `for i := 0; i <= 3; i++ {
	html.WriteLiteral("<b>")
	html.WriteValue(i)
	html.WriteLiteral("</b>")
}`},
	{`@for (i, p) in items { <b>@i</b> }`, `for i, p := range items {
	html.WriteLiteral("<b>")
	html.WriteValue(i)
	html.WriteLiteral("</b>")
}`},
	{`@for i := 0; i < n; i++ { <b>@i</b> }`, `for i := 0; i < n; i++ {
	html.WriteLiteral("<b>")
	html.WriteValue(i)
	html.WriteLiteral("</b>")
}`},
	{`@while n > 0 { <b>@n</b> n-- }`, `for n > 0 {
	html.WriteLiteral("<b>")
	html.WriteValue(n)
	html.WriteLiteral("</b>")
	n--
}`},
	{"@if n > 0 {\n\t<b>pos</b>\n} else if n < 0 {\n\t<i>neg</i>\n} else {\n\t<i>zero</i>\n}", `if n > 0 {
	html.WriteLiteral("<b>pos</b>")
} else if n < 0 {
	html.WriteLiteral("<i>neg</i>")
} else {
	html.WriteLiteral("<i>zero</i>")
}`},
	{`@if a { <b>x</b> } @else { <i>y</i> }`, `if a {
	html.WriteLiteral("<b>x</b>")
} else {
	html.WriteLiteral("<i>y</i>")
}`},
	{"@{ x := 1 }\n<p>@x</p>", `x := 1
html.WriteLiteral("\n<p>")
html.WriteValue(x)
html.WriteLiteral("</p>")`},
	{`@{ bold := func(s string) |-> Html { <b>@s</b> } }`, `bold := func(s string) Html {
	html := runtime.NewBuffer()
	html.WriteLiteral("<b>")
	html.WriteValue(s)
	html.WriteLiteral("</b>")
	return Html(html.String())
}`},
	{`@section scripts { <script src="a.js"></script> }`, `ctx.DefineSection("scripts", func(html *runtime.Buffer) {
	html.WriteLiteral(" <script src=\"a.js\"></script>")
})`},
	{`@rendersection("scripts", false)`, `html.WriteValue(ctx.RenderSection("scripts", false))`},
	{`@renderbody()`, `html.WriteValue(ctx.RenderBody())`},
	{`@markdown "# Hi"`, `html.WriteLiteral("<h1>Hi</h1>\n")`},
	{"@model []string\n@use \"strings\"\n<b>@strings.Join(model, \", \")</b>", `html.WriteLiteral("<b>")
html.WriteValue(strings.Join(model, ", "))
html.WriteLiteral("</b>")`},
}

func TestRender(t *testing.T) {
	for _, test := range renderTests {
		got, err := renderBody("index.rhtml", test.src, nil)
		if err != nil {
			t.Errorf("source: %q, %s\n", test.src, err)
			continue
		}
		if diff := cmp.Diff(test.expected, got); diff != "" {
			t.Errorf("source: %q, mismatch (-want +got):\n%s", test.src, diff)
		}
	}
}

func TestCoalesce(t *testing.T) {
	got, err := renderBody("index.rhtml", `<p>Hello</p>`, &Options{BufferName: "out"})
	if err != nil {
		t.Fatal(err)
	}
	if expected := `out.WriteLiteral("<p>Hello</p>")`; got != expected {
		t.Fatalf("unexpected %q, expecting %q", got, expected)
	}
	tmpl, err := ParseTemplateSource(context.Background(), "index.rhtml", []byte(`<p>Hello</p>`), nil)
	if err != nil {
		t.Fatal(err)
	}
	body, err := Lower(tmpl.Tokens, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(ast.Format(body), "WriteLiteral"); n != 4 {
		t.Fatalf("unexpected %d calls before coalescing, expecting 4", n)
	}
	once := ast.Format(Coalesce(body, "html"))
	twice := ast.Format(Coalesce(Coalesce(body, "html"), "html"))
	if once != twice {
		t.Fatalf("coalescing is not idempotent: %q, %q", once, twice)
	}
}

var environmentTests = []struct {
	env      string
	expected string
}{
	{"Development", `html.WriteLiteral("<script src=\"dev.js\"></script>")`},
	{"Production", `html.WriteLiteral("<script src=\"prod.js\"></script>")`},
	{"development", `html.WriteLiteral("<script src=\"dev.js\"></script>")`},
}

func TestEnvironment(t *testing.T) {
	src := `<environment include="Development"><script src="dev.js"></script></environment>` +
		`<environment exclude="Development"><script src="prod.js"></script></environment>`
	for _, test := range environmentTests {
		got, err := renderBody("index.rhtml", src, &Options{Environment: test.env})
		if err != nil {
			t.Errorf("environment %s: %s", test.env, err)
			continue
		}
		if got != test.expected {
			t.Errorf("environment %s: unexpected %q, expecting %q", test.env, got, test.expected)
		}
	}
}

var syntaxErrorTests = []struct {
	src string
	pos ast.Position
	msg string
}{
	{`a @`, ast.Position{Line: 1, Column: 3}, `expected expression after '@'`},
	{`<div><p></div>`, ast.Position{Line: 1, Column: 9}, `mismatched closing tag </div>, expecting </p>`},
	{`<div>x`, ast.Position{Line: 1, Column: 1}, `element <div> not closed, expecting </div>`},
	{`x</p>`, ast.Position{Line: 1, Column: 2}, `unexpected closing tag </p>, no open element`},
	{"@model int\n@model string", ast.Position{Line: 2, Column: 2}, `model already declared at 1:2, use @(model) to write its value`},
	{`@name;`, ast.Position{Line: 1, Column: 6}, `unexpected ';' after name, expecting string`},
	{`<b>@user?.Name</b>`, ast.Position{Line: 1, Column: 9}, `postfix operator '?' not supported, use @(...) with a Go expression`},
	{`@user!.Name`, ast.Position{Line: 1, Column: 6}, `postfix operator '!' not supported, use @(...) with a Go expression`},
	{`@items?[0]`, ast.Position{Line: 1, Column: 7}, `postfix operator '?' not supported, use @(...) with a Go expression`},
	{`<environment>x</environment>`, ast.Position{Line: 1, Column: 1}, `environment element requires an include or exclude attribute`},
	{`@else { x }`, ast.Position{Line: 1, Column: 2}, `else without if`},
	{`@while { x }`, ast.Position{Line: 1, Column: 2}, `missing condition in while`},
	{`@renderbody(1)`, ast.Position{Line: 1, Column: 12}, `renderbody has no arguments`},
}

func TestSyntaxErrors(t *testing.T) {
	for _, test := range syntaxErrorTests {
		_, err := ParseTemplateSource(context.Background(), "index.rhtml", []byte(test.src), nil)
		if err == nil {
			t.Errorf("source: %q, expected error %q, got nothing\n", test.src, test.msg)
			continue
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("source: %q, unexpected error %T %q, expecting a syntax error\n", test.src, err, err)
			continue
		}
		if se.Path() != "index.rhtml" {
			t.Errorf("source: %q, unexpected path %q, expecting \"index.rhtml\"\n", test.src, se.Path())
		}
		if pos := se.Position(); pos.Line != test.pos.Line || pos.Column != test.pos.Column {
			t.Errorf("source: %q, unexpected position %d:%d, expecting %d:%d\n", test.src, pos.Line, pos.Column, test.pos.Line, test.pos.Column)
		}
		if se.Message() != test.msg {
			t.Errorf("source: %q, unexpected message %q, expecting %q\n", test.src, se.Message(), test.msg)
		}
	}
}

func TestDeclarations(t *testing.T) {
	src := "@model Vec<Product>\n@name \"product list\"\n@use \"strings\"\n@use h \"html\"\n" +
		"@lang \"en\"\n@inject title := strings.ToUpper(\"x\")\n<h1>@title</h1>"
	tmpl, err := ParseTemplateSource(context.Background(), "products.rhtml", []byte(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := ast.Source(tmpl.Model); got != "Vec[Product]" {
		t.Errorf("unexpected model %q, expecting \"Vec[Product]\"", got)
	}
	if tmpl.Name != "product list" {
		t.Errorf("unexpected name %q, expecting \"product list\"", tmpl.Name)
	}
	if diff := cmp.Diff([]Import{{Path: "strings"}, {Name: "h", Path: "html"}}, tmpl.Imports); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"lang": "en"}, tmpl.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	if len(tmpl.Injects) != 1 {
		t.Fatalf("unexpected %d inject statements, expecting 1", len(tmpl.Injects))
	}
	if got := ast.Source(tmpl.Injects[0]); got != `title := strings.ToUpper("x")` {
		t.Errorf("unexpected inject %q", got)
	}
	got, err := renderBody("products.rhtml", src, nil)
	if err != nil {
		t.Fatal(err)
	}
	expected := "html.WriteLiteral(\"<h1>\")\nhtml.WriteValue(title)\nhtml.WriteLiteral(\"</h1>\")"
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParseTemplateSource(ctx, "index.rhtml", []byte(`<p>@x</p>`), nil)
	if err == nil {
		t.Fatal("expected error, got nothing")
	}
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("unexpected error %q, expecting ErrCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %q, expecting context.Canceled", err)
	}
	var ce *CancelledError
	if !errors.As(err, &ce) || ce.Path() != "index.rhtml" {
		t.Errorf("unexpected error %#v, expecting a CancelledError for index.rhtml", err)
	}
}

func TestParseTemplate(t *testing.T) {
	opts := &Options{FS: fstest.Files{"index.rhtml": `<p>@x</p>`}}
	if _, err := ParseTemplate(context.Background(), "index.rhtml", opts); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseTemplate(context.Background(), "missing.rhtml", opts); err != ErrNotExist {
		t.Errorf("unexpected error %v, expecting ErrNotExist", err)
	}
	if _, err := ParseTemplate(context.Background(), "../index.rhtml", opts); err != ErrInvalidPath {
		t.Errorf("unexpected error %v, expecting ErrInvalidPath", err)
	}
}
