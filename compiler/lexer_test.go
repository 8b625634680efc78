// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"
	"testing"

	"github.com/open2b/rusthtml/ast"
)

// treeString returns a compact representation of the token trees, with the
// tokens separated by a space.
func treeString(tokens []ast.Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		if g, ok := tok.(*ast.Group); ok {
			b.WriteString(g.Delimiter.Open())
			b.WriteString(treeString(g.Tokens))
			b.WriteString(g.Delimiter.Close())
			continue
		}
		b.WriteString(tok.String())
	}
	return b.String()
}

var treeTests = map[string]string{
	``:                          ``,
	`a`:                         `a`,
	"  a  ":                     `a`,
	`<li>@item.Name</li>`:       `< li > @ item . Name < / li >`,
	`@(a + 1)`:                  `@ (a + 1)`,
	`{ x }`:                     `{x}`,
	`f(a, [1])`:                 `f (a , [1])`,
	`"a b" 'c' 42 4.2`:          `"a b" 'c' 42 4.2`,
	"`raw \" string`":           "`raw \" string`",
	`"a\"b"`:                    `"a\"b"`,
	`'\n'`:                      `'\n'`,
	`don't`:                     `don ' t`,
	`ümlaut_1 _x`:               `ümlaut_1 _x`,
	`a::b`:                      `a : : b`,
	`0x1F 1e+5 10px`:            `0x1F 1e+5 10px`,
	`<!-- c -->`:                `< ! - - c - - >`,
	`a@b.com`:                   `a @ b . com`,
	"{\n\t<p>\n\t\t@x\n\t</p>\n}": `{< p > @ x < / p >}`,
	"\ufeffa":                   `a`,
	`|-> Html { }`:              `| - > Html {}`,
}

func TestLexerTrees(t *testing.T) {
	for src, expected := range treeTests {
		tokens, _, err := Lex([]byte(src))
		if err != nil {
			t.Errorf("source %q: unexpected error: %s", src, err)
			continue
		}
		if got := treeString(tokens); got != expected {
			t.Errorf("source %q: unexpected %q, expecting %q", src, got, expected)
		}
	}
}

var roundTripTests = []string{
	"",
	"  \n",
	"<p class=\"a\">\n\t@name\n</p>\n",
	"@for i in 0..10 {\r\n  <li>@i</li>\r\n}\r\n",
	"a ( b [ c { d } ] )  \t",
	"<!DOCTYPE html>\n<html lang=en>\n</html>",
}

func TestLexerRoundTrip(t *testing.T) {
	for _, src := range roundTripTests {
		tokens, trailing, err := Lex([]byte(src))
		if err != nil {
			t.Errorf("source %q: unexpected error: %s", src, err)
			continue
		}
		if got := ast.SourceWithSpace(tokens) + trailing; got != src {
			t.Errorf("source %q: unexpected source %q", src, got)
		}
	}
}

var literalKindTests = map[string]ast.LiteralKind{
	`"a"`:   ast.StringLiteral,
	"`a`":   ast.RawStringLiteral,
	`'a'`:   ast.RuneLiteral,
	`'\''`:  ast.RuneLiteral,
	`42`:    ast.IntLiteral,
	`0x2A`:  ast.IntLiteral,
	`4.2`:   ast.FloatLiteral,
	`1e+10`: ast.FloatLiteral,
}

func TestLexerLiteralKinds(t *testing.T) {
	for src, kind := range literalKindTests {
		tokens, _, err := Lex([]byte(src))
		if err != nil {
			t.Errorf("source %q: unexpected error: %s", src, err)
			continue
		}
		if len(tokens) != 1 {
			t.Errorf("source %q: expecting 1 token, got %d", src, len(tokens))
			continue
		}
		lit, ok := tokens[0].(*ast.Literal)
		if !ok {
			t.Errorf("source %q: expecting literal, got %T", src, tokens[0])
			continue
		}
		if lit.Kind != kind {
			t.Errorf("source %q: unexpected kind %s, expecting %s", src, lit.Kind, kind)
		}
	}
}

var lexerErrorTests = []struct {
	src string
	pos string
	msg string
}{
	{`(a`, "1:1", "unclosed (, expecting )"},
	{"a\n  {b", "2:3", "unclosed {, expecting }"},
	{`a)`, "1:2", "unexpected )"},
	{`(]`, "1:2", "unexpected ]"},
	{`"abc`, "1:1", "string literal not terminated"},
	{"x `abc", "1:3", "raw string literal not terminated"},
	{"a\xffb", "1:2", "invalid UTF-8 encoding"},
	{"a\ufeffb", "1:2", bomErrorMsg},
}

func TestLexerErrors(t *testing.T) {
	for _, test := range lexerErrorTests {
		_, _, err := Lex([]byte(test.src))
		if err == nil {
			t.Errorf("source %q: expecting error, got nil", test.src)
			continue
		}
		e, ok := err.(*SyntaxError)
		if !ok {
			t.Errorf("source %q: expecting *SyntaxError, got %T", test.src, err)
			continue
		}
		if pos := e.Position().String(); pos != test.pos {
			t.Errorf("source %q: unexpected position %s, expecting %s", test.src, pos, test.pos)
		}
		if e.Message() != test.msg {
			t.Errorf("source %q: unexpected message %q, expecting %q", test.src, e.Message(), test.msg)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	src := "a\n  bc (d)\né x"
	tokens, _, err := Lex([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	group := tokens[2].(*ast.Group)
	expected := []struct {
		tok        ast.Token
		line, col  int
		start, end int
	}{
		{tokens[0], 1, 1, 0, 0},
		{tokens[1], 2, 3, 4, 5},
		{group, 2, 6, 7, 9},
		{group.Tokens[0], 2, 7, 8, 8},
		{tokens[3], 3, 1, 11, 12},
		{tokens[4], 3, 3, 14, 14},
	}
	for i, e := range expected {
		pos := e.tok.Pos()
		if pos.Line != e.line || pos.Column != e.col {
			t.Errorf("token %d %s: unexpected position %s, expecting %d:%d", i, e.tok, pos, e.line, e.col)
		}
		if pos.Start != e.start || pos.End != e.end {
			t.Errorf("token %d %s: unexpected range [%d,%d], expecting [%d,%d]", i, e.tok, pos.Start, pos.End, e.start, e.end)
		}
	}
	if tokens[1].Leading() != "\n  " {
		t.Errorf("unexpected leading space %q", tokens[1].Leading())
	}
}
