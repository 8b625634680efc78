// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"github.com/open2b/rusthtml/ast"
)

// action is the action taken by the parser for a token.
type action int

const (
	actionText                 action = iota // append the token as text
	actionGroup                              // parse a group
	actionExpressionEntry                    // parse what follows '@'
	actionTagEntry                           // parse a tag, if a tag starts
	actionIdentifierExpression               // parse an identifier expression
	actionLiteral                            // emit a literal
	actionPassthrough                        // emit a punctuation character
	actionStop                               // stop parsing, do not consume
)

// classify returns the action for tok. markup reports whether the parser is
// in markup mode and statement whether a statement can start at the current
// output position.
//
// A '<' starts a tag in markup mode and, in expression mode, only at the
// start of a statement. Elsewhere in an expression it is an operator.
func classify(tok ast.Token, markup, statement bool) action {
	switch t := tok.(type) {
	case *ast.Identifier:
		if markup {
			return actionText
		}
		return actionIdentifierExpression
	case *ast.Literal:
		if markup {
			return actionText
		}
		return actionLiteral
	case *ast.Group:
		return actionGroup
	case *ast.Punct:
		switch t.Char {
		case '@':
			return actionExpressionEntry
		case '<':
			if markup || statement {
				return actionTagEntry
			}
			return actionPassthrough
		case '}':
			// Brace groups are closed by the lexer, a '}' can only be read
			// from a stream built by a directive.
			if !markup {
				return actionStop
			}
		}
		if markup {
			return actionText
		}
		return actionPassthrough
	}
	return actionText
}
