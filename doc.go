// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rusthtml compiles RustHtml templates into Go code.
//
// A template is HTML markup with Go expressions and statements introduced
// by '@':
//
//	@model []Product
//	@use "strconv"
//	<ul>
//	@for (i, p) in model {
//		<li id=@strconv.Itoa(i)>@p.Name</li>
//	}
//	</ul>
//
// Each template is compiled into a Go file that declares a view type with a
// Render method. Render writes the markup to a runtime.Buffer:
//
//	c := rusthtml.New(os.DirFS("views"), nil, nil, nil)
//	files, err := c.CompileAll(ctx)
//
// The rusthtml command compiles the templates of a directory and can be
// used with go generate:
//
//	//go:generate rusthtml generate views
//
// The configuration is read from the file rusthtml.yaml, see Config.
package rusthtml
