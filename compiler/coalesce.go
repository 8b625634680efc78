// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// Coalesce merges consecutive WriteLiteral calls on the buffer buf into a
// single call. Calls are merged only in the same block: the tokens of each
// group are coalesced independently. The tokens are not modified.
//
// Coalesce is idempotent.
func Coalesce(tokens []ast.Token, buf string) []ast.Token {
	out := make([]ast.Token, 0, len(tokens))
	for i := 0; i < len(tokens); {
		text, n, ok := literalText(tokens, i, buf)
		if !ok {
			if g, ok := tokens[i].(*ast.Group); ok {
				c := *g
				c.Tokens = Coalesce(g.Tokens, buf)
				out = append(out, &c)
			} else {
				out = append(out, tokens[i])
			}
			i++
			continue
		}
		first := i
		var b strings.Builder
		b.WriteString(text)
		i += n
		calls := 1
		for {
			text, n, ok := literalText(tokens, i, buf)
			if !ok {
				break
			}
			b.WriteString(text)
			i += n
			calls++
		}
		if calls == 1 {
			out = append(out, tokens[first:i]...)
			continue
		}
		pos := tokens[first].Pos()
		call := tokens[first+3].(*ast.Group)
		arg := ast.NewGroup(call.Position, ast.Parenthesis, []ast.Token{ast.NewStringLiteral(pos, b.String())})
		out = append(out, tokens[first], tokens[first+1], tokens[first+2], arg, tokens[i-1])
	}
	return out
}
