// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtime implements the types used by the Go code generated from
// RustHtml templates.
package runtime

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HTML is a string with markup. WriteValue writes it as is.
type HTML string

// HTMLStringer is implemented by values that are written as markup.
type HTMLStringer interface {
	HTML() HTML
}

// Buffer is the output of a view. The generated code writes to it the
// markup of the template with WriteLiteral and the values of the
// expressions with WriteValue.
type Buffer struct {
	b strings.Builder
}

// NewBuffer returns a new empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteLiteral writes the markup s.
func (b *Buffer) WriteLiteral(s string) {
	b.b.WriteString(s)
}

// WriteValue writes the value v. A nil value writes nothing.
//
// Values are not escaped: escaping, if needed, is done by the types of the
// values or by the host.
func (b *Buffer) WriteValue(v any) {
	switch v := v.(type) {
	case nil:
	case string:
		b.b.WriteString(v)
	case HTML:
		b.b.WriteString(string(v))
	case HTMLStringer:
		b.b.WriteString(string(v.HTML()))
	case fmt.Stringer:
		b.b.WriteString(v.String())
	case error:
		b.b.WriteString(v.Error())
	case []byte:
		b.b.Write(v)
	case bool:
		b.b.WriteString(strconv.FormatBool(v))
	case int:
		b.b.WriteString(strconv.Itoa(v))
	case int64:
		b.b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		b.b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	default:
		fmt.Fprint(&b.b, v)
	}
}

// Write implements io.Writer. It writes p as markup.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.b.Write(p)
}

// WriteTo writes the content of the buffer to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.b.String())
	return int64(n), err
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return b.b.Len()
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.b.Reset()
}

// String returns the content of the buffer.
func (b *Buffer) String() string {
	return b.b.String()
}

// HTML returns the content of the buffer as markup.
func (b *Buffer) HTML() HTML {
	return HTML(b.b.String())
}
