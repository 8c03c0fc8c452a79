package hxpage

import (
	"context"
	"sync"
)

// PreactReplacement switches its component to the "preact" replacement
// method: the client diffs the new markup into the existing element with
// Preact instead of replacing it. Well suited to large components that
// change little, and to SVG.
//
// A PreactReplacement can be bound to one component only.
type PreactReplacement struct {
	binding
}

// NewPreactReplacement creates an unbound behavior.
func NewPreactReplacement() *PreactReplacement {
	return &PreactReplacement{}
}

// Bind attaches the behavior and turns on markup id output, since the
// client finds the element to diff by id.
func (p *PreactReplacement) Bind(c *Component) error {
	if err := p.bind(c); err != nil {
		return err
	}
	c.SetOutputMarkupID(true)
	return nil
}

// Method returns SwapPreact.
func (p *PreactReplacement) Method() SwapMode {
	return SwapPreact
}

// RenderHead contributes Preact itself and the replacement method script.
func (p *PreactReplacement) RenderHead(_ context.Context, head *HeaderResponse) {
	head.Render(PreactScript)
	head.Render(PreactReplacementScript)
}

// XMLReplacement switches its component to the "xml" replacement method
// and declares the namespace its markup lives in, for MathML and other
// non-HTML vocabularies.
//
//	math, err := hxpage.NewXMLReplacement("http://www.w3.org/1998/Math/MathML")
type XMLReplacement struct {
	binding
	namespace string
}

// NewXMLReplacement creates an unbound behavior for namespace.
func NewXMLReplacement(namespace string) (*XMLReplacement, error) {
	if namespace == "" {
		return nil, ErrEmptyNamespace
	}
	return &XMLReplacement{namespace: namespace}, nil
}

// Namespace returns the namespace stamped on the root tag.
func (x *XMLReplacement) Namespace() string {
	return x.namespace
}

// Bind attaches the behavior and turns on markup id output.
func (x *XMLReplacement) Bind(c *Component) error {
	if err := x.bind(c); err != nil {
		return err
	}
	c.SetOutputMarkupID(true)
	return nil
}

// Method returns SwapXML.
func (x *XMLReplacement) Method() SwapMode {
	return SwapXML
}

// RenderHead contributes the replacement method script.
func (x *XMLReplacement) RenderHead(_ context.Context, head *HeaderResponse) {
	head.Render(XMLReplacementScript)
}

// OnComponentTag sets xmlns on the root tag. Close tags carry no
// attributes and are left alone.
func (x *XMLReplacement) OnComponentTag(_ *Component, tag *Tag) {
	if tag.Type == TagClose {
		return
	}
	tag.SetAttribute("xmlns", x.namespace)
}

// binding tracks the single component a behavior belongs to.
type binding struct {
	mu        sync.Mutex
	component *Component
}

func (b *binding) bind(c *Component) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.component != nil && b.component != c {
		return ErrAlreadyBound
	}
	b.component = c
	return nil
}

// Component returns the bound component, or nil.
func (b *binding) Component() *Component {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.component
}
