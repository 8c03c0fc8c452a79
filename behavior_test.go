package hxpage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const mathML = "http://www.w3.org/1998/Math/MathML"

func renderComponent(t *testing.T, c *Component) string {
	t.Helper()
	result, err := TestRender(c)
	if err != nil {
		t.Fatalf("render %s: %v", c.ID(), err)
	}
	return result.HTML
}

func headOf(c *Component) []HeaderItem {
	head := NewHeaderResponse()
	c.RenderHead(context.Background(), head)
	return head.Items()
}

func TestPreactReplacementHead(t *testing.T) {
	c := NewComponent("svg", markup(`<svg><rect/></svg>`))
	if err := c.Add(NewPreactReplacement()); err != nil {
		t.Fatal(err)
	}

	items := headOf(c)
	if len(items) != 2 {
		t.Fatalf("head items = %d, want 2", len(items))
	}
	if items[0] != PreactScript || items[1] != PreactReplacementScript {
		t.Errorf("head items = %v, want preact then the replacement method", items)
	}
}

func TestPreactReplacementOutputsMarkupID(t *testing.T) {
	c := NewComponent("svg", markup(`<svg><rect/></svg>`)).SetMarkupID("svg1")
	if c.OutputMarkupID() {
		t.Fatal("markup id output should be off by default")
	}
	if err := c.Add(NewPreactReplacement()); err != nil {
		t.Fatal(err)
	}
	if !c.OutputMarkupID() {
		t.Error("binding should turn on markup id output")
	}

	if got := renderComponent(t, c); got != `<svg id="svg1"><rect/></svg>` {
		t.Errorf("Render() = %q", got)
	}
	if method, ok := c.ReplacementMethod(); !ok || method != SwapPreact {
		t.Errorf("ReplacementMethod() = (%q, %v)", method, ok)
	}
}

func TestBehaviorBindsOnce(t *testing.T) {
	xml, err := NewXMLReplacement(mathML)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		behavior Behavior
	}{
		{"preact", NewPreactReplacement()},
		{"xml", xml},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := NewComponent("first", markup("<div></div>"))
			second := NewComponent("second", markup("<div></div>"))

			if err := first.Add(tt.behavior); err != nil {
				t.Fatalf("first bind: %v", err)
			}
			if err := first.Add(tt.behavior); err != nil {
				t.Errorf("re-binding to the same component: %v", err)
			}
			if err := second.Add(tt.behavior); !errors.Is(err, ErrAlreadyBound) {
				t.Errorf("second bind error = %v, want ErrAlreadyBound", err)
			}
			if len(second.Behaviors()) != 0 {
				t.Error("rejected behavior should not be attached")
			}
		})
	}
}

func TestXMLReplacementEmptyNamespace(t *testing.T) {
	if _, err := NewXMLReplacement(""); !errors.Is(err, ErrEmptyNamespace) {
		t.Errorf("NewXMLReplacement(\"\") error = %v, want ErrEmptyNamespace", err)
	}
}

func TestXMLReplacementStampsNamespace(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "open tag",
			body: `<math><mi>x</mi></math>`,
			want: `<math id="m" xmlns="` + mathML + `"><mi>x</mi></math>`,
		},
		{
			name: "open-close tag",
			body: `<math/>`,
			want: `<math id="m" xmlns="` + mathML + `"/>`,
		},
		{
			name: "existing xmlns replaced",
			body: `<math xmlns="urn:old"></math>`,
			want: `<math xmlns="` + mathML + `" id="m"></math>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := NewXMLReplacement(mathML)
			c := NewComponent("m", markup(tt.body)).SetMarkupID("m")
			if err := c.Add(b); err != nil {
				t.Fatal(err)
			}
			if got := renderComponent(t, c); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestXMLReplacementSkipsCloseTag(t *testing.T) {
	b, _ := NewXMLReplacement(mathML)
	tag := &Tag{Name: "math", Type: TagClose}
	b.OnComponentTag(nil, tag)
	if _, ok := tag.Attribute("xmlns"); ok {
		t.Error("close tags should not get xmlns")
	}

	open := &Tag{Name: "math", Type: TagOpen}
	b.OnComponentTag(nil, open)
	if v, _ := open.Attribute("xmlns"); v != mathML {
		t.Errorf("xmlns = %q, want %q", v, mathML)
	}
}

func TestXMLReplacementHead(t *testing.T) {
	b, _ := NewXMLReplacement(mathML)
	c := NewComponent("m", markup(`<math></math>`))
	if err := c.Add(b); err != nil {
		t.Fatal(err)
	}
	items := headOf(c)
	if len(items) != 1 || items[0] != XMLReplacementScript {
		t.Errorf("head items = %v, want the xml replacement script", items)
	}
	if method, _ := c.ReplacementMethod(); method != SwapXML {
		t.Errorf("ReplacementMethod() = %q, want xml", method)
	}
}

func TestComponentMarkupID(t *testing.T) {
	a := NewComponent("panel", nil)
	b := NewComponent("panel", nil)

	if !strings.HasPrefix(a.MarkupID(), "panel-") {
		t.Errorf("MarkupID() = %q, want panel- prefix", a.MarkupID())
	}
	if a.MarkupID() == b.MarkupID() {
		t.Error("components created at different lines should get different markup ids")
	}
	if a.ID() != "panel" {
		t.Errorf("ID() = %q", a.ID())
	}
}

func TestComponentRenderWithoutMarkupID(t *testing.T) {
	c := NewComponent("plain", markup(`<DIV Class="x">hi</DIV>`))
	if got := renderComponent(t, c); got != `<DIV Class="x">hi</DIV>` {
		t.Errorf("Render() should pass markup through untouched, got %q", got)
	}

	c.SetOutputMarkupID(true).SetMarkupID("p1")
	if got := renderComponent(t, c); got != `<DIV Class="x" id="p1">hi</DIV>` {
		t.Errorf("Render() = %q", got)
	}
}

func TestComponentRenderSkipsLeadingText(t *testing.T) {
	c := NewComponent("c", markup("\n  <!-- note -->\n<span>x</span>")).SetMarkupID("c1").SetOutputMarkupID(true)
	if got := renderComponent(t, c); got != "\n  <!-- note -->\n<span id=\"c1\">x</span>" {
		t.Errorf("Render() = %q", got)
	}
}

func TestComponentLazyAndDefer(t *testing.T) {
	c := NewComponent("feed", nil).SetMarkupID("feed")

	lazy, err := TestRender(c.Lazy("/?x=abc&y=1", markup("loading")))
	if err != nil {
		t.Fatal(err)
	}
	if !lazy.HTMLContainsAll(`id="feed"`, `hx-get="/?x=abc&amp;y=1"`, `hx-trigger="intersect once"`, "loading") {
		t.Errorf("Lazy() = %q", lazy.HTML)
	}

	deferred, err := TestRender(c.Defer("/feed", nil))
	if err != nil {
		t.Fatal(err)
	}
	if deferred.HTML != `<div id="feed" hx-get="/feed" hx-trigger="load" hx-swap="outerHTML"></div>` {
		t.Errorf("Defer() = %q", deferred.HTML)
	}
}
