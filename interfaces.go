package hxpage

import (
	"context"
)

// HeadRenderer is implemented by components and behaviors that contribute
// items to the page head, such as the scripts a replacement method needs.
//
// During a partial page update, contributions from every updated component
// are collected and sent as one header-contribution section:
//
//	func (b *Chart) RenderHead(ctx context.Context, head *hxpage.HeaderResponse) {
//	    head.Render(hxpage.JavaScriptReference{URL: "/static/chart.js"})
//	}
type HeadRenderer interface {
	RenderHead(ctx context.Context, head *HeaderResponse)
}

// Behavior extends a Component. Bind is called once when the behavior is
// added; behaviors that can only serve a single component return
// ErrAlreadyBound on a second bind.
type Behavior interface {
	Bind(c *Component) error
}

// TagContributor is implemented by behaviors that modify the component's
// root tag as it renders.
type TagContributor interface {
	OnComponentTag(c *Component, tag *Tag)
}

// MethodProvider is implemented by behaviors that choose the replacement
// method for their component.
type MethodProvider interface {
	Method() SwapMode
}
