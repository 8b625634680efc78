// Copyright 2019 The Scriggo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtime

import (
	"errors"
	"testing"
)

type stringer struct{}

func (stringer) String() string { return "<stringer>" }

type markup struct{}

func (markup) HTML() HTML { return "<b>markup</b>" }

var writeValueTests = []struct {
	value    any
	expected string
}{
	{nil, ""},
	{"a < b", "a < b"},
	{HTML("<br>"), "<br>"},
	{markup{}, "<b>markup</b>"},
	{stringer{}, "<stringer>"},
	{errors.New("failed"), "failed"},
	{[]byte("bytes"), "bytes"},
	{true, "true"},
	{42, "42"},
	{int64(-7), "-7"},
	{2.5, "2.5"},
	{uint8(3), "3"},
	{[]int{1, 2}, "[1 2]"},
}

func TestWriteValue(t *testing.T) {
	for _, test := range writeValueTests {
		b := NewBuffer()
		b.WriteValue(test.value)
		if got := b.String(); got != test.expected {
			t.Errorf("value %#v: expecting %q, got %q", test.value, test.expected, got)
		}
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	b.WriteLiteral("<p>")
	b.WriteValue("hello")
	_, _ = b.Write([]byte("</p>"))
	if b.Len() != 12 {
		t.Fatalf("expecting length 12, got %d", b.Len())
	}
	if b.HTML() != "<p>hello</p>" {
		t.Fatalf("unexpected %q", b.HTML())
	}
	b.Reset()
	if b.String() != "" {
		t.Fatalf("expecting empty buffer after reset, got %q", b.String())
	}
}

// pageView is written as the views generated from a template as
//
//	@model string
//	@section title { Home }
//	<p>@model</p>
type pageView struct{}

func (v *pageView) Name() string                  { return "page" }
func (v *pageView) Parameters() map[string]string { return nil }

func (v *pageView) Render(html *Buffer, ctx Context, services Services, model string) {
	ctx.DefineSection("title", func(html *Buffer) {
		html.WriteLiteral("Home")
	})
	html.WriteLiteral("<p>")
	html.WriteValue(model)
	html.WriteLiteral("</p>")
}

// layoutView is written as the view generated from the layout
//
//	<title>@rendersection("title")</title>
//	<main>@renderbody()</main>@rendersection("scripts", required)
type layoutView struct {
	required bool
}

func (v *layoutView) Name() string                  { return "layout" }
func (v *layoutView) Parameters() map[string]string { return nil }

func (v *layoutView) Render(html *Buffer, ctx Context, services Services, model any) {
	html.WriteLiteral("<title>")
	html.WriteValue(ctx.RenderSection("title"))
	html.WriteLiteral("</title><main>")
	html.WriteValue(ctx.RenderBody())
	html.WriteLiteral("</main>")
	html.WriteValue(ctx.RenderSection("scripts", v.required))
	if services.Get("footer") != nil {
		html.WriteValue(services.Get("footer"))
	}
}

func TestRender(t *testing.T) {
	ctx := NewViewContext("Development")
	out, err := Render[string](ctx, ServiceMap{}, &pageView{}, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>hi</p>" {
		t.Fatalf("unexpected %q", out)
	}
	if !ctx.HasSection("title") {
		t.Fatal("expecting section title to be defined")
	}
	if ctx.Environment() != "Development" {
		t.Fatalf("unexpected environment %q", ctx.Environment())
	}
}

func TestRenderWithLayout(t *testing.T) {
	services := ServiceMap{"footer": HTML("<footer></footer>")}
	out, err := Render[string](NewViewContext(""), services, &pageView{}, "hi", &layoutView{})
	if err != nil {
		t.Fatal(err)
	}
	expected := HTML("<title>Home</title><main><p>hi</p></main><footer></footer>")
	if out != expected {
		t.Fatalf("expecting %q, got %q", expected, out)
	}
}

func TestRenderRequiredSection(t *testing.T) {
	_, err := Render[string](NewViewContext(""), ServiceMap{}, &pageView{}, "hi", &layoutView{required: true})
	if err == nil {
		t.Fatal("expecting error, got nil")
	}
	if !errors.Is(err, ErrSectionNotDefined) {
		t.Fatalf("expecting ErrSectionNotDefined, got %q", err)
	}
}
