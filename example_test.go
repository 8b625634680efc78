// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rusthtml_test

import (
	"context"
	"fmt"
	"log"
	"testing/fstest"

	"github.com/open2b/rusthtml"
)

func ExampleCompiler_CompileAll() {
	fsys := fstest.MapFS{
		"index.rhtml":       {Data: []byte("@model []string\n<ul>@for s in model { <li>@s</li> }</ul>\n")},
		"_nav.rhtml":        {Data: []byte("<nav></nav>")},
		"pages/about.rhtml": {Data: []byte("@rusthtmlfile \"../_nav.rhtml\"\n<h1>About</h1>\n")},
	}
	c := rusthtml.New(fsys, nil, nil, nil)
	files, err := c.CompileAll(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	for _, f := range files {
		fmt.Println(f.Path)
	}
	// Output:
	// index.rhtml.go
	// pages/about.rhtml.go
}
