// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"testing"

	"github.com/open2b/rusthtml/internal/fstest"

	"github.com/google/go-cmp/cmp"
)

const productsTemplate = `@model Vec<Product>
@name "product list"
@use "strings"
@inject title := strings.ToUpper("products")
@lang "en"
@functions {
	func price(p Product) string { return p.Price }
}
@struct {
	count int
}
@impl {
	func (v *ProductListView) Count() int { return v.count }
}
<h1>@title</h1>
<ul>
@for p in model {
	<li>@p.Name @price(p)</li>
}
</ul>
`

func TestGenerate(t *testing.T) {
	out, err := CompileTemplateSource(context.Background(), "products.rhtml", []byte(productsTemplate), nil)
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "products.rhtml.go", out, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated code is not valid: %s\n%s", err, out)
	}
	if f.Name.Name != "views" {
		t.Errorf("unexpected package %q, expecting \"views\"", f.Name.Name)
	}
	var imports []string
	for _, imp := range f.Imports {
		imports = append(imports, imp.Path.Value)
	}
	sort.Strings(imports)
	if diff := cmp.Diff([]string{`"github.com/open2b/rusthtml/runtime"`, `"strings"`}, imports); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
	var funcs []string
	var types []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			funcs = append(funcs, d.Name.Name)
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					types = append(types, ts.Name.Name)
				}
			}
		}
	}
	if diff := cmp.Diff([]string{"price", "Count", "Name", "Parameters", "Render"}, funcs); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ProductListView"}, types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	src := string(out)
	for _, s := range []string{
		"// Code generated by rusthtml from products.rhtml. DO NOT EDIT.",
		"count int",
		`return "product list"`,
		`"lang": "en",`,
		"func (v *ProductListView) Render(html *runtime.Buffer, ctx runtime.Context, services runtime.Services, model Vec[Product]) {",
		"title := strings.ToUpper(\"products\")\n\t_ = title\n",
		"for _, p := range model {",
		"html.WriteValue(price(p))",
	} {
		if !strings.Contains(src, s) {
			t.Errorf("expected %q in generated code:\n%s", s, src)
		}
	}
}

func TestGenerateOptions(t *testing.T) {
	opts := &Options{BufferName: "w", Package: "pages"}
	out, err := CompileTemplateSource(context.Background(), "home.rhtml", []byte(`<p>@x</p>`), opts)
	if err != nil {
		t.Fatal(err)
	}
	src := string(out)
	for _, s := range []string{
		"package pages",
		"type HomeView struct",
		"func (v *HomeView) Parameters() map[string]string {\n\treturn nil\n}",
		"Render(w *runtime.Buffer, ctx runtime.Context, services runtime.Services, model any)",
		`w.WriteLiteral("<p>")`,
		"w.WriteValue(x)",
	} {
		if !strings.Contains(src, s) {
			t.Errorf("expected %q in generated code:\n%s", s, src)
		}
	}
}

var typeNameTests = map[string]string{
	"product list": "ProductListView",
	"product_list": "ProductListView",
	"index":        "IndexView",
	"home view":    "HomeView",
	"2col":         "V2colView",
	"über-seite":   "ÜberSeiteView",
	"":             "",
	"--":           "",
}

func TestTypeName(t *testing.T) {
	for name, expected := range typeNameTests {
		if got := typeName(name); got != expected {
			t.Errorf("name %q: unexpected %q, expecting %q", name, got, expected)
		}
	}
}

var viewTypeNameTests = []struct {
	template *Template
	expected string
}{
	{&Template{Path: "views/product_list.rhtml"}, "ProductListView"},
	{&Template{Path: "index.rhtml", Name: "main page"}, "MainPageView"},
	{&Template{Path: "layout.html.rhtml"}, "LayoutView"},
	{&Template{Path: "x/---.rhtml"}, "View"},
}

func TestViewTypeName(t *testing.T) {
	for _, test := range viewTypeNameTests {
		if got := ViewTypeName(test.template); got != test.expected {
			t.Errorf("template %s: unexpected %q, expecting %q", test.template.Path, got, test.expected)
		}
	}
}

var declaredNamesTests = []struct {
	src      string
	expected []string
}{
	{`x := f()`, []string{"x"}},
	{`x, _ := f()`, []string{"x"}},
	{`a, b := 1, 2`, []string{"a", "b"}},
	{`var a, b int`, []string{"a", "b"}},
	{`var _ = 1`, []string{}},
}

func TestDeclaredNames(t *testing.T) {
	for _, test := range declaredNamesTests {
		tokens, _, err := Lex([]byte(test.src))
		if err != nil {
			t.Fatal(err)
		}
		got := declaredNames(tokens)
		if got == nil {
			got = []string{}
		}
		if diff := cmp.Diff(test.expected, got); diff != "" {
			t.Errorf("source %q: mismatch (-want +got):\n%s", test.src, diff)
		}
	}
}

func TestGenerateInjectFromInclude(t *testing.T) {
	opts := &Options{FS: fstest.Files{
		"index.rhtml": "@rusthtmlfile \"_head.rhtml\"\n<p>@user</p>",
		"_head.rhtml": "@inject user := services.Get(\"user\")\n",
	}}
	out, err := CompileTemplate(context.Background(), "index.rhtml", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "user := services.Get(\"user\")") {
		t.Errorf("expected the inject statement of the included template:\n%s", out)
	}
}
