package hxpage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// pendingUpdate is one buffered component replacement.
type pendingUpdate struct {
	markupID  string
	method    SwapMode
	component templ.Component
}

// PartialPageUpdate buffers the component replacements, scripts and head
// items of one Ajax response and writes them in a fixed section order:
//
//	header
//	components, in the order they were first added
//	priority evaluations
//	header contributions
//	evaluations
//	footer
//
// Each markup id is updated at most once per response. Adding an id again
// replaces its component and method but keeps its original position.
//
// A PartialPageUpdate belongs to a single request and is written once. It
// is not safe for concurrent use.
type PartialPageUpdate struct {
	updates     []*pendingUpdate
	byID        map[string]*pendingUpdate
	priority    []string
	evaluations []string
	head        *HeaderResponse
	written     bool
}

// NewPartialPageUpdate creates an empty update.
func NewPartialPageUpdate() *PartialPageUpdate {
	return &PartialPageUpdate{
		byID: make(map[string]*pendingUpdate),
		head: NewHeaderResponse(),
	}
}

// Add replaces markupID with c using the default replacement method.
func (u *PartialPageUpdate) Add(c templ.Component, markupID string) {
	u.AddWithMethod("", c, markupID)
}

// AddWithMethod replaces markupID with c using method. An empty method is
// the default.
//
// Adding to an update that has been written panics.
func (u *PartialPageUpdate) AddWithMethod(method SwapMode, c templ.Component, markupID string) {
	u.mustBeOpen()
	if p, ok := u.byID[markupID]; ok {
		p.component = c
		p.method = method
		return
	}
	p := &pendingUpdate{markupID: markupID, method: method, component: c}
	u.byID[markupID] = p
	u.updates = append(u.updates, p)
}

// AddComponent adds c under its own markup id, with the method chosen by
// its behaviors.
func (u *PartialPageUpdate) AddComponent(c *Component) {
	method, _ := c.ReplacementMethod()
	u.AddWithMethod(method, c, c.MarkupID())
}

// ReplacementMethod returns the explicit method recorded for markupID. ok
// is false both for unknown ids and for ids using the default method; use
// Contains to tell them apart.
func (u *PartialPageUpdate) ReplacementMethod(markupID string) (method SwapMode, ok bool) {
	p, found := u.byID[markupID]
	if !found || p.method == "" {
		return "", false
	}
	return p.method, true
}

// Contains reports whether markupID has a pending update.
func (u *PartialPageUpdate) Contains(markupID string) bool {
	_, ok := u.byID[markupID]
	return ok
}

// MarkupIDs returns the pending ids in write order.
func (u *PartialPageUpdate) MarkupIDs() []string {
	ids := make([]string, len(u.updates))
	for i, p := range u.updates {
		ids[i] = p.markupID
	}
	return ids
}

// Len returns the number of pending component updates.
func (u *PartialPageUpdate) Len() int {
	return len(u.updates)
}

// PrependJavaScript adds a script evaluated before the header
// contributions and ordinary evaluations.
func (u *PartialPageUpdate) PrependJavaScript(script string) {
	u.mustBeOpen()
	u.priority = append(u.priority, script)
}

// AppendJavaScript adds a script evaluated after the components have been
// replaced.
func (u *PartialPageUpdate) AppendJavaScript(script string) {
	u.mustBeOpen()
	u.evaluations = append(u.evaluations, script)
}

// AddHeaderItem adds a head contribution. Items are de-duplicated by key.
func (u *PartialPageUpdate) AddHeaderItem(item HeaderItem) {
	u.mustBeOpen()
	u.head.Render(item)
}

// HasHeaderContribution reports whether any head item has been collected.
// Items from HeadRenderer components are only collected while writing.
func (u *PartialPageUpdate) HasHeaderContribution() bool {
	return u.head.Len() > 0
}

// WriteTo renders every section through f and writes the result to w,
// encoded in charset (DefaultCharset when empty).
//
// The response is assembled in memory: if rendering or any section fails,
// nothing is written to w. An update can be written once; later calls
// return ErrUpdateConsumed.
func (u *PartialPageUpdate) WriteTo(ctx context.Context, w io.Writer, f Format, charsetName string) error {
	if u.written {
		return ErrUpdateConsumed
	}
	u.written = true

	cs, err := lookupCharset(charsetName)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	script := func(s string) string { return s }
	if !isBinary(f) {
		script = cs.escapeScript
	}
	if err := u.writeSections(ctx, &buf, f, cs.name, script); err != nil {
		return err
	}

	out := buf.Bytes()
	if !isBinary(f) {
		if out, err = cs.encode(out); err != nil {
			return fmt.Errorf("hxpage: encode response as %s: %w", cs.name, err)
		}
	}
	_, err = w.Write(out)
	return err
}

func (u *PartialPageUpdate) writeSections(ctx context.Context, buf *bytes.Buffer, f Format, charsetName string, script func(string) string) error {
	if err := f.WriteHeader(buf, charsetName); err != nil {
		return fmt.Errorf("hxpage: write %s: %w", SectionHeader, err)
	}

	var markup bytes.Buffer
	for _, p := range u.updates {
		markup.Reset()
		if p.component != nil {
			if err := p.component.Render(ctx, &markup); err != nil {
				return fmt.Errorf("hxpage: render %q: %w", p.markupID, err)
			}
			if hr, ok := p.component.(HeadRenderer); ok {
				hr.RenderHead(ctx, u.head)
			}
		}
		if err := f.WriteComponent(buf, p.markupID, p.method, markup.Bytes()); err != nil {
			return fmt.Errorf("hxpage: write %s %q: %w", SectionComponent, p.markupID, err)
		}
	}

	for _, js := range u.priority {
		if err := f.WritePriorityEvaluation(buf, script(js)); err != nil {
			return fmt.Errorf("hxpage: write %s: %w", SectionPriorityEvaluation, err)
		}
	}

	if u.head.Len() > 0 {
		head, err := u.head.Bytes()
		if err != nil {
			return fmt.Errorf("hxpage: render head: %w", err)
		}
		if err := f.WriteHeaderContribution(buf, head); err != nil {
			return fmt.Errorf("hxpage: write %s: %w", SectionHeaderContribution, err)
		}
	}

	for _, js := range u.evaluations {
		if err := f.WriteEvaluation(buf, script(js)); err != nil {
			return fmt.Errorf("hxpage: write %s: %w", SectionEvaluation, err)
		}
	}

	if err := f.WriteFooter(buf); err != nil {
		return fmt.Errorf("hxpage: write %s: %w", SectionFooter, err)
	}
	return nil
}

func (u *PartialPageUpdate) mustBeOpen() {
	if u.written {
		panic("hxpage: partial page update modified after it was written")
	}
}
