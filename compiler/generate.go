// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/open2b/rusthtml/ast"

	"golang.org/x/tools/imports"
)

// RuntimePath is the import path of the package used by the generated code.
const RuntimePath = "github.com/open2b/rusthtml/runtime"

// Generate returns the Go file of the view of the template t: a type, named
// after the view, with the methods Name, Parameters and Render. Render
// writes the markup of the template to the buffer.
//
//	func (v *IndexView) Render(html *runtime.Buffer, ctx runtime.Context, services runtime.Services, model M)
//
// The file is formatted and, if opts.FixImports is true, its imports are
// fixed.
func Generate(t *Template, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.logger().With(slog.String("component", "generate"), slog.String("path", t.Path))

	body, err := Lower(t.Tokens, opts)
	if err != nil {
		return nil, err
	}
	if !opts.DisableCoalescing {
		body = Coalesce(body, opts.bufferName())
	}

	typ := ViewTypeName(t)
	buf := opts.bufferName()

	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by rusthtml from %s. DO NOT EDIT.\n\n", path.Base(t.Path))
	fmt.Fprintf(&b, "package %s\n\n", opts.packageName())

	b.WriteString("import (\n")
	fmt.Fprintf(&b, "\t%s\n", strconv.Quote(RuntimePath))
	for _, imp := range t.Imports {
		if imp.Name != "" {
			fmt.Fprintf(&b, "\t%s %s\n", imp.Name, strconv.Quote(imp.Path))
		} else {
			fmt.Fprintf(&b, "\t%s\n", strconv.Quote(imp.Path))
		}
	}
	b.WriteString(")\n\n")

	if section, err := sectionSource(t.Sections["functions"], opts); err != nil {
		return nil, err
	} else if section != "" {
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "// %s is the view of %s.\n", typ, t.Path)
	fmt.Fprintf(&b, "type %s struct {\n", typ)
	if section, err := sectionSource(t.Sections["struct"], opts); err != nil {
		return nil, err
	} else if section != "" {
		b.WriteString(section)
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")

	if section, err := sectionSource(t.Sections["impl"], opts); err != nil {
		return nil, err
	} else if section != "" {
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "// Name returns the name of the view.\n")
	fmt.Fprintf(&b, "func (v *%s) Name() string {\n\treturn %s\n}\n\n", typ, strconv.Quote(viewName(t)))

	fmt.Fprintf(&b, "// Parameters returns the parameters declared by the view.\n")
	fmt.Fprintf(&b, "func (v *%s) Parameters() map[string]string {\n", typ)
	if len(t.Parameters) == 0 {
		b.WriteString("\treturn nil\n}\n\n")
	} else {
		b.WriteString("\treturn map[string]string{\n")
		names := make([]string, 0, len(t.Parameters))
		for name := range t.Parameters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\t\t%s: %s,\n", strconv.Quote(name), strconv.Quote(t.Parameters[name]))
		}
		b.WriteString("\t}\n}\n\n")
	}

	model := "any"
	if t.Model != nil {
		model = ast.Source(t.Model)
	}
	fmt.Fprintf(&b, "// Render writes the view to %s.\n", buf)
	fmt.Fprintf(&b, "func (v *%s) Render(%s *%s.Buffer, %s %s.Context, %s %s.Services, %s %s) {\n",
		typ, buf, runtimeName, contextName, runtimeName, servicesName, runtimeName, modelName, model)
	for _, stmt := range t.Injects {
		inject, err := Lower(rawTokens(stmt), opts)
		if err != nil {
			return nil, err
		}
		b.WriteString(ast.Format(inject))
		b.WriteString("\n")
		for _, name := range declaredNames(stmt) {
			fmt.Fprintf(&b, "_ = %s\n", name)
		}
	}
	if err := ast.Print(&b, body); err != nil {
		return nil, err
	}
	b.WriteString("\n}\n")

	src := b.Bytes()
	out, err := imports.Process(t.Path+".go", src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: !opts.FixImports,
	})
	if err != nil {
		log.Debug("generated source", slog.String("source", string(src)))
		return nil, fmt.Errorf("rusthtml: %s: cannot format generated code: %w", t.Path, err)
	}
	log.Debug("generated", slog.String("type", typ), slog.Int("bytes", len(out)))
	return out, nil
}

// sectionSource returns the Go source of a functions, struct or impl
// section.
func sectionSource(section []ast.Token, opts *Options) (string, error) {
	if len(section) == 0 {
		return "", nil
	}
	tokens, err := Lower(rawTokens(section), opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ast.Format(tokens)), nil
}

// declaredNames returns the names declared by an inject statement.
func declaredNames(stmt []ast.Token) []string {
	var names []string
	if ast.IsIdentifier(stmt[0], "var") {
		// var a, b T = ...
		for i := 1; i < len(stmt); i += 2 {
			id, ok := stmt[i].(*ast.Identifier)
			if !ok {
				break
			}
			names = append(names, id.Name)
			if i+1 == len(stmt) || !ast.IsPunct(stmt[i+1], ',') {
				break
			}
		}
		return filterBlank(names)
	}
	for _, tok := range stmt {
		if ast.IsPunct(tok, ':') {
			break
		}
		if id, ok := tok.(*ast.Identifier); ok {
			names = append(names, id.Name)
		}
	}
	return filterBlank(names)
}

func filterBlank(names []string) []string {
	out := names[:0]
	for _, name := range names {
		if name != "_" {
			out = append(out, name)
		}
	}
	return out
}

// viewName returns the name of the view of t: the declared name or the
// base name of the file without extensions.
func viewName(t *Template) string {
	if t.Name != "" {
		return t.Name
	}
	name := path.Base(t.Path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// ViewTypeName returns the name of the type of the view of t, as
// "ProductListView" for the view named "product list" or for the file
// "product_list.rhtml".
func ViewTypeName(t *Template) string {
	name := typeName(viewName(t))
	if name == "" {
		return "View"
	}
	return name
}

// typeName returns the exported Go type name for the view name, or the
// empty string if name has no letters or digits.
func typeName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteByte('V')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return ""
	}
	s := b.String()
	if !strings.HasSuffix(s, "View") {
		s += "View"
	}
	return s
}
