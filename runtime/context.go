// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"fmt"
)

// Context is the rendering context of a view. It holds the sections defined
// by the view and, in a layout, the body of the view.
type Context interface {

	// Environment returns the name of the environment, as "Development".
	Environment() string

	// DefineSection defines the section with the given name. render writes
	// the markup of the section.
	DefineSection(name string, render func(html *Buffer))

	// RenderSection returns the markup of the section with the given name.
	// If the section is not defined it returns an empty string; if required
	// is true the missing section is also reported as an error.
	RenderSection(name string, required ...bool) HTML

	// RenderBody returns the markup of the view rendered in a layout.
	RenderBody() HTML
}

// Services gives access to the services of the host, as a logger or a
// database, by name.
type Services interface {
	Get(name string) any
}

// ServiceMap is a Services implemented with a map.
type ServiceMap map[string]any

// Get returns the service with the given name, or nil if it does not exist.
func (m ServiceMap) Get(name string) any {
	return m[name]
}

// View is implemented by the views generated from templates with model
// type M.
type View[M any] interface {
	Name() string
	Parameters() map[string]string
	Render(html *Buffer, ctx Context, services Services, model M)
}

// ErrSectionNotDefined is wrapped by the errors of required sections that
// have not been defined.
var ErrSectionNotDefined = errors.New("section not defined")

// ViewContext is the Context used by Render. A ViewContext is used for a
// single rendering and it is not safe for concurrent use.
type ViewContext struct {
	env      string
	sections map[string]func(html *Buffer)
	body     HTML
	errs     []error
}

// NewViewContext returns a rendering context for the environment env.
func NewViewContext(env string) *ViewContext {
	return &ViewContext{env: env, sections: map[string]func(*Buffer){}}
}

// Environment returns the name of the environment.
func (c *ViewContext) Environment() string {
	return c.env
}

// DefineSection defines a section. A section defined again replaces the
// previous definition.
func (c *ViewContext) DefineSection(name string, render func(html *Buffer)) {
	c.sections[name] = render
}

// HasSection reports whether the section name is defined.
func (c *ViewContext) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// RenderSection renders the section name.
func (c *ViewContext) RenderSection(name string, required ...bool) HTML {
	render, ok := c.sections[name]
	if !ok {
		if len(required) > 0 && required[0] {
			c.errs = append(c.errs, fmt.Errorf("rusthtml: section %q: %w", name, ErrSectionNotDefined))
		}
		return ""
	}
	b := NewBuffer()
	render(b)
	return b.HTML()
}

// RenderBody returns the body set with SetBody.
func (c *ViewContext) RenderBody() HTML {
	return c.body
}

// SetBody sets the body returned by RenderBody.
func (c *ViewContext) SetBody(body HTML) {
	c.body = body
}

// Err returns the errors occurred rendering the sections, or nil.
func (c *ViewContext) Err() error {
	return errors.Join(c.errs...)
}

// Render renders view with model. If layout is not nil, the view is then
// rendered as the body of layout and the sections it defines are rendered
// by the layout.
func Render[M any](ctx *ViewContext, services Services, view View[M], model M, layout View[any]) (HTML, error) {
	body := NewBuffer()
	view.Render(body, ctx, services, model)
	if layout == nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return body.HTML(), nil
	}
	ctx.SetBody(body.HTML())
	html := NewBuffer()
	layout.Render(html, ctx, services, model)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return html.HTML(), nil
}
