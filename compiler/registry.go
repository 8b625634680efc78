// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/open2b/rusthtml/ast"
)

// DirectiveResult is the result of the execution of a directive.
type DirectiveResult int

const (
	// OkContinue reports that the directive has emitted its tokens and the
	// parsing continues.
	OkContinue DirectiveResult = iota

	// OkBreak reports that the parsing of the current group or file ends
	// after the directive.
	OkBreak

	// OkBreakAppendHtml reports that the identifier is not used as a
	// directive: it starts an expression whose value is written to the
	// output, as for any identifier after '@'.
	OkBreakAppendHtml
)

// Directive is a keyword that, after '@', is executed at compile time. When
// Execute is called, the stream of the parser is positioned after the
// identifier of the directive.
type Directive interface {
	Name() string
	Execute(p *Parser, id *ast.Identifier) (DirectiveResult, error)
}

// DirectiveFunc is the type of the function that executes a directive.
type DirectiveFunc func(p *Parser, id *ast.Identifier) (DirectiveResult, error)

// NewDirective returns a directive with the given name executed by fn.
func NewDirective(name string, fn DirectiveFunc) Directive {
	return &funcDirective{name: name, fn: fn}
}

type funcDirective struct {
	name string
	fn   DirectiveFunc
}

func (d *funcDirective) Name() string { return d.name }

func (d *funcDirective) Execute(p *Parser, id *ast.Identifier) (DirectiveResult, error) {
	return d.fn(p, id)
}

// Registry holds the directives, the hooks and the tables of tags used in a
// compilation. A Registry is built once and can be shared by compilations;
// it must not be modified while it is in use.
type Registry struct {
	directives  map[string]Directive
	tagHooks    []TagHook
	nodeHooks   []NodeHook
	voidTags    map[string]bool
	rawTextTags map[string]bool
}

// NewRegistry returns a registry with no directives and no hooks and with
// the default void and raw text tags.
func NewRegistry() *Registry {
	r := &Registry{directives: map[string]Directive{}}
	r.SetVoidTags(DefaultVoidTags)
	r.SetRawTextTags(DefaultRawTextTags)
	return r
}

// DefaultRegistry returns a registry with the built-in directives, the
// environment node hook and the default tag tables.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtinDirectives() {
		if err := r.AddDirective(d); err != nil {
			panic(err)
		}
	}
	r.AddNodeHook(environmentNode{})
	return r
}

// AddDirective adds a directive. It returns an error if a directive with the
// same name already exists.
func (r *Registry) AddDirective(d Directive) error {
	name := d.Name()
	if name == "" {
		return fmt.Errorf("rusthtml: directive has no name")
	}
	if _, ok := r.directives[name]; ok {
		return fmt.Errorf("rusthtml: directive %s already exists", name)
	}
	r.directives[name] = d
	return nil
}

// Directive returns the directive with the given name.
func (r *Registry) Directive(name string) (Directive, bool) {
	d, ok := r.directives[name]
	return d, ok
}

// Directives returns the names of the directives, sorted.
func (r *Registry) Directives() []string {
	names := make([]string, 0, len(r.directives))
	for name := range r.directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddTagHook adds a tag hook. A tag can be matched by only one tag hook,
// otherwise its compilation fails.
func (r *Registry) AddTagHook(h TagHook) {
	r.tagHooks = append(r.tagHooks, h)
}

// AddNodeHook adds a node hook. An element can be matched by only one node
// hook, otherwise its compilation fails.
func (r *Registry) AddNodeHook(h NodeHook) {
	r.nodeHooks = append(r.nodeHooks, h)
}

// SetVoidTags sets the names of the void elements, elements that have no
// closing tag. Names are case-insensitive.
func (r *Registry) SetVoidTags(names []string) {
	r.voidTags = tagSet(names)
}

// IsVoid reports whether name is the name of a void element.
func (r *Registry) IsVoid(name string) bool {
	return r.voidTags[strings.ToLower(name)]
}

// VoidTags returns the names of the void elements, sorted and lower case.
func (r *Registry) VoidTags() []string {
	return sortedKeys(r.voidTags)
}

// SetRawTextTags sets the names of the elements whose content is raw text.
// In raw text only '@' and the closing tag are recognized.
func (r *Registry) SetRawTextTags(names []string) {
	r.rawTextTags = tagSet(names)
}

// IsRawText reports whether name is the name of a raw text element.
func (r *Registry) IsRawText(name string) bool {
	return r.rawTextTags[strings.ToLower(name)]
}

func tagSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
