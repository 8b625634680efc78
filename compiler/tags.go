// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

// DefaultVoidTags are the names of the elements that have no closing tag.
// "!DOCTYPE" is the document type declaration.
//
// See https://html.spec.whatwg.org/multipage/syntax.html#void-elements.
var DefaultVoidTags = []string{
	"!DOCTYPE",
	"area",
	"base",
	"br",
	"col",
	"embed",
	"hr",
	"img",
	"input",
	"link",
	"meta",
	"param",
	"source",
	"track",
	"wbr",
}

// DefaultRawTextTags are the names of the elements whose content is raw
// text.
var DefaultRawTextTags = []string{
	"script",
	"style",
}
