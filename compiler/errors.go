// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"errors"
	"fmt"

	"github.com/open2b/rusthtml/ast"
)

var (
	// ErrInvalidPath is returned from CompileFile and a directive that reads
	// a file when the path argument is not valid.
	ErrInvalidPath = errors.New("rusthtml: invalid path")

	// ErrNotExist is returned from CompileFile when the path does not exist.
	ErrNotExist = errors.New("rusthtml: path does not exist")

	// ErrCancelled is wrapped by every CancelledError.
	ErrCancelled = errors.New("rusthtml: compilation cancelled")
)

// SyntaxError records a parsing error with the path and the position where the
// error occurred.
type SyntaxError struct {
	path string
	pos  ast.Position
	msg  string
}

// Error returns a string representing the syntax error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%s: syntax error: %s", e.path, e.pos, e.msg)
}

// Message returns the message of the syntax error, without position and path.
func (e *SyntaxError) Message() string {
	return e.msg
}

// Path returns the path of the syntax error.
func (e *SyntaxError) Path() string {
	return e.path
}

// Position returns the position of the syntax error.
func (e *SyntaxError) Position() ast.Position {
	return e.pos
}

// syntaxError returns a SyntaxError error with position pos and message
// formatted according the given format.
func syntaxError(pos *ast.Position, format string, a ...interface{}) *SyntaxError {
	var p ast.Position
	if pos != nil {
		p = *pos
	}
	return &SyntaxError{"", p, fmt.Sprintf(format, a...)}
}

// unexpected returns a SyntaxError for the unexpected token tok. context,
// if not empty, describes where tok has been found.
func unexpected(tok ast.Token, context string) *SyntaxError {
	if context == "" {
		return syntaxError(tok.Pos(), "unexpected %s", describe(tok))
	}
	return syntaxError(tok.Pos(), "unexpected %s %s", describe(tok), context)
}

// describe returns a description of tok to be used in error messages.
func describe(tok ast.Token) string {
	switch t := tok.(type) {
	case *ast.Identifier:
		return fmt.Sprintf("identifier %s", t.Name)
	case *ast.Literal:
		return fmt.Sprintf("%s literal %s", t.Kind, t.Raw)
	case *ast.Group:
		return fmt.Sprintf("%s group %s", t.Delimiter, abbreviate(ast.Source([]ast.Token{t}), 24))
	}
	return fmt.Sprintf("'%s'", tok)
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// CancelledError is returned when the context of a compilation is done
// before the compilation completes.
type CancelledError struct {
	path string
	pos  ast.Position
	err  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%s:%s: %s: %s", e.path, e.pos, ErrCancelled, e.err)
}

// Message returns the message of the error, without position and path.
func (e *CancelledError) Message() string {
	return ErrCancelled.Error() + ": " + e.err.Error()
}

// Path returns the path of the template being compiled.
func (e *CancelledError) Path() string {
	return e.path
}

// Position returns the position reached when the cancellation was noticed.
func (e *CancelledError) Position() ast.Position {
	return e.pos
}

// Unwrap returns ErrCancelled and the context error.
func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.err}
}

// ContentError is returned when an external content, included by a
// directive, cannot be read.
type ContentError struct {
	path     string
	pos      ast.Position
	file     string
	fallback string
	err      error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s:%s: %s", e.path, e.pos, e.Message())
}

// Message returns the message of the error, without position and path.
func (e *ContentError) Message() string {
	return fmt.Sprintf("cannot read %q (also tried %q): %s", e.file, e.fallback, e.err)
}

// Path returns the path of the template that includes the content.
func (e *ContentError) Path() string {
	return e.path
}

// Position returns the position of the directive that includes the content.
func (e *ContentError) Position() ast.Position {
	return e.pos
}

// File returns the path of the content, as resolved.
func (e *ContentError) File() string {
	return e.file
}

// Fallback returns the fallback path tried after File.
func (e *ContentError) Fallback() string {
	return e.fallback
}

func (e *ContentError) Unwrap() error {
	return e.err
}

// cycleError implements an error indicating the presence of a cycle.
type cycleError string

func (e cycleError) Error() string {
	return fmt.Sprintf("cycle not allowed\n%s", string(e))
}

// withPath sets the path of err, if err is an error of the compiler and its
// path is not already set.
func withPath(err error, path string) error {
	switch e := err.(type) {
	case *SyntaxError:
		if e.path == "" {
			e.path = path
		}
	case *CancelledError:
		if e.path == "" {
			e.path = path
		}
	case *ContentError:
		if e.path == "" {
			e.path = path
		}
	}
	return err
}
