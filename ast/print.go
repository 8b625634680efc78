// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Print writes the tokens to w as source code.
//
// Tokens with leading white space are written after their white space, as
// read from the source. Generated tokens are separated with a space only
// where two words would otherwise merge. A new line is written after a
// semicolon and around the tokens of a brace group when the following token
// has no leading white space.
func Print(w io.Writer, tokens []Token) error {
	var p printer
	p.tokens(tokens)
	_, err := io.WriteString(w, p.b.String())
	return err
}

// Format returns the tokens as source code, as written by Print.
func Format(tokens []Token) string {
	var p printer
	p.tokens(tokens)
	return p.b.String()
}

type printer struct {
	b    strings.Builder
	last rune
}

func (p *printer) write(s string) {
	if s == "" {
		return
	}
	p.b.WriteString(s)
	p.last, _ = utf8.DecodeLastRuneInString(s)
}

func (p *printer) tokens(tokens []Token) {
	for i, tok := range tokens {
		p.token(tok)
		if IsPunct(tok, ';') && (i == len(tokens)-1 || tokens[i+1].Leading() == "") {
			p.write("\n")
		}
	}
}

func (p *printer) token(tok Token) {
	if space := tok.Leading(); space != "" {
		p.write(space)
	} else if isWord(p.last) && isWord(firstRune(tok)) {
		p.write(" ")
	}
	g, ok := tok.(*Group)
	if !ok {
		p.write(tok.String())
		return
	}
	p.write(g.Delimiter.Open())
	if g.Delimiter == Brace {
		if len(g.Tokens) > 0 && g.Tokens[0].Leading() == "" {
			p.write("\n")
		}
		p.tokens(g.Tokens)
		space := g.CloseSpace
		if p.last == '\n' {
			space = strings.TrimLeft(space, "\r\n")
		}
		if space != "" {
			p.write(space)
		} else if p.last != '\n' && len(g.Tokens) > 0 {
			p.write("\n")
		}
	} else {
		p.tokens(g.Tokens)
		if !strings.ContainsAny(g.CloseSpace, "\n\r") {
			p.write(g.CloseSpace)
		}
	}
	p.write(g.Delimiter.Close())
}

func firstRune(tok Token) rune {
	switch t := tok.(type) {
	case *Group:
		r, _ := utf8.DecodeRuneInString(t.Delimiter.Open())
		return r
	case *Punct:
		return t.Char
	}
	r, _ := utf8.DecodeRuneInString(tok.String())
	return r
}

func isWord(r rune) bool {
	return r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' || r >= utf8.RuneSelf
}
