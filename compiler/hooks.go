// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"log/slog"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// TagContext is passed to a tag hook when a tag has been parsed.
type TagContext struct {
	Name            string
	IsOpening       bool // false for a closing tag
	IsVoid          bool
	IsSelfContained bool
	Attributes      []Attribute

	// Tokens are the start marker and the attributes of an opening tag, or
	// the end marker of a closing tag.
	Tokens []IToken

	// Close is the marker that closes an opening tag. It is nil for closing
	// tags.
	Close IToken

	Position *ast.Position
}

// Default returns the tokens emitted for the tag when no hook handles it.
func (tc *TagContext) Default() []IToken {
	if tc.Close == nil {
		return tc.Tokens
	}
	tokens := make([]IToken, len(tc.Tokens), len(tc.Tokens)+1)
	copy(tokens, tc.Tokens)
	return append(tokens, tc.Close)
}

// TagHook is called after a tag has been parsed, before its tokens are
// emitted.
type TagHook interface {

	// Matches reports whether the hook applies to the tag with the given
	// name.
	Matches(name string) bool

	// OnTagParsed returns the tokens to emit in place of the tag. If handled
	// is false the returned tokens are ignored and the tag is emitted as
	// parsed.
	OnTagParsed(tc *TagContext) (tokens []IToken, handled bool, err error)
}

// NodeContext is passed to a node hook when an element, from its opening
// tag to its closing tag, has been parsed.
type NodeContext struct {
	Name       string
	Attributes []Attribute
	Start      []IToken // tokens of the opening tag
	Children   []IToken
	End        []IToken // tokens of the closing tag
	Position   *ast.Position

	environment string
}

// Attribute returns the value of the attribute with the given name. The
// returned value is nil if the attribute has no value.
func (nc *NodeContext) Attribute(name string) (*HtmlTagAttributeValue, bool) {
	for _, attr := range nc.Attributes {
		if strings.EqualFold(attr.Name, name) {
			return attr.Value, true
		}
	}
	return nil, false
}

// Environment returns the name of the environment of the compilation.
func (nc *NodeContext) Environment() string {
	return nc.environment
}

// Default returns the tokens emitted for the element when no hook handles
// it.
func (nc *NodeContext) Default() []IToken {
	tokens := make([]IToken, 0, len(nc.Start)+len(nc.Children)+len(nc.End))
	tokens = append(tokens, nc.Start...)
	tokens = append(tokens, nc.Children...)
	return append(tokens, nc.End...)
}

// NodeHook is called after an element has been parsed, before its tokens
// are emitted.
type NodeHook interface {

	// Matches reports whether the hook applies to the element with the given
	// name.
	Matches(name string) bool

	// OnNodeParsed returns the tokens to emit in place of the element. If
	// handled is false the returned tokens are ignored and the element is
	// emitted as parsed.
	OnNodeParsed(nc *NodeContext) (tokens []IToken, handled bool, err error)
}

// onTagParsed calls the tag hook that matches the tag, if any. It is an
// error if more than one hook matches.
func (p *Parser) onTagParsed(tc *TagContext) ([]IToken, error) {
	var hook TagHook
	for _, h := range p.reg.tagHooks {
		if !h.Matches(tc.Name) {
			continue
		}
		if hook != nil {
			return nil, syntaxError(tc.Position, "tag <%s> matched by more than one tag hook", tc.Name)
		}
		hook = h
	}
	if hook == nil {
		return tc.Default(), nil
	}
	tokens, handled, err := hook.OnTagParsed(tc)
	if err != nil {
		return nil, withPosition(err, tc.Position)
	}
	if !handled {
		return tc.Default(), nil
	}
	p.log.Debug("tag hook", slog.String("tag", tc.Name), slog.Bool("opening", tc.IsOpening))
	return tokens, nil
}

// onNodeParsed calls the node hook that matches the element, if any. It is
// an error if more than one hook matches.
func (p *Parser) onNodeParsed(nc *NodeContext) ([]IToken, error) {
	var hook NodeHook
	for _, h := range p.reg.nodeHooks {
		if !h.Matches(nc.Name) {
			continue
		}
		if hook != nil {
			return nil, syntaxError(nc.Position, "element <%s> matched by more than one node hook", nc.Name)
		}
		hook = h
	}
	if hook == nil {
		return nc.Default(), nil
	}
	tokens, handled, err := hook.OnNodeParsed(nc)
	if err != nil {
		return nil, withPosition(err, nc.Position)
	}
	if !handled {
		return nc.Default(), nil
	}
	p.log.Debug("node hook", slog.String("element", nc.Name), slog.Int("tokens", len(tokens)))
	return tokens, nil
}

// withPosition returns err as a SyntaxError at position pos, if it is not
// already an error of the compiler.
func withPosition(err error, pos *ast.Position) error {
	switch err.(type) {
	case *SyntaxError, *CancelledError, *ContentError:
		return err
	}
	return syntaxError(pos, "%s", err)
}

// environmentNode is the node hook of the environment element. Its children
// are kept, without the environment tags, only if the environment of the
// compilation is listed in its include attribute or is not listed in its
// exclude attribute.
//
//	<environment include="Development,Staging">...</environment>
//	<environment exclude="Production">...</environment>
type environmentNode struct{}

func (environmentNode) Matches(name string) bool {
	return strings.EqualFold(name, "environment")
}

func (environmentNode) OnNodeParsed(nc *NodeContext) ([]IToken, bool, error) {
	include, hasInclude, err := environmentNames(nc, "include")
	if err != nil {
		return nil, false, err
	}
	exclude, hasExclude, err := environmentNames(nc, "exclude")
	if err != nil {
		return nil, false, err
	}
	if !hasInclude && !hasExclude {
		return nil, false, syntaxError(nc.Position, "environment element requires an include or exclude attribute")
	}
	env := nc.Environment()
	keep := true
	if hasInclude {
		keep = containsFold(include, env)
	}
	if hasExclude && containsFold(exclude, env) {
		keep = false
	}
	if !keep {
		return nil, true, nil
	}
	return nc.Children, true, nil
}

// environmentNames returns the comma separated names of the attribute of
// an environment element.
func environmentNames(nc *NodeContext, attr string) ([]string, bool, error) {
	value, ok := nc.Attribute(attr)
	if !ok {
		return nil, false, nil
	}
	if value == nil {
		return nil, false, syntaxError(nc.Position, "environment attribute %s requires a value", attr)
	}
	s, ok := value.Static()
	if !ok {
		return nil, false, syntaxError(value.Position, "environment attribute %s cannot be an expression", attr)
	}
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, true, nil
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
